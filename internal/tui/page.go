package tui

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/felixgeelhaar/vulnark/internal/api"
)

// Page is one screen of tabular data. It satisfies ux.Tabular so the CLI
// prints the same columns the console shows.
type Page struct {
	Title   string     `json:"title,omitempty" yaml:"title,omitempty"`
	Path    string     `json:"path" yaml:"path"`
	Columns []string   `json:"columns" yaml:"columns"`
	Data    [][]string `json:"rows" yaml:"rows"`
	// Message replaces the table when there is nothing to list.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// Total is the server-side row count for paginated listings.
	Total int64 `json:"total" yaml:"total"`
}

// Header implements ux.Tabular.
func (p Page) Header() []string { return p.Columns }

// Rows implements ux.Tabular.
func (p Page) Rows() [][]string { return p.Data }

// Empty reports whether the page has no rows.
func (p Page) Empty() bool { return len(p.Data) == 0 }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// AssetPage lists assets.
func AssetPage(assets []api.Asset) Page {
	p := Page{Columns: []string{"ID", "Name", "Type", "Status", "Importance", "Address", "Vulns"}}
	for _, a := range assets {
		addr := a.IPAddress
		if addr == "" {
			addr = a.Domain
		}
		if a.Port != 0 {
			addr = fmt.Sprintf("%s:%d", addr, a.Port)
		}
		p.Data = append(p.Data, []string{
			fmtInt(a.ID), a.Name, a.Type, a.Status, a.Importance, orDash(addr), strconv.Itoa(a.VulnerabilityCount),
		})
	}
	p.Total = int64(len(assets))
	return p
}

// UserPage lists accounts.
func UserPage(users []api.User) Page {
	p := Page{Columns: []string{"ID", "Username", "Name", "Email", "Role", "Status", "Last login"}}
	for _, u := range users {
		p.Data = append(p.Data, []string{
			fmtInt(u.ID), u.Username, u.DisplayName(), u.Email, string(u.Role), string(u.Status), orDash(u.LastLoginTime),
		})
	}
	p.Total = int64(len(users))
	return p
}

// AgentPage lists scan agents.
func AgentPage(agents []api.Agent) Page {
	p := Page{Columns: []string{"Agent", "Name", "Host", "Address", "Platform", "Status", "Heartbeat"}}
	for _, a := range agents {
		p.Data = append(p.Data, []string{
			a.AgentID, a.Name, a.Hostname, a.IPAddress, a.Platform, a.Status, orDash(a.LastHeartbeat),
		})
	}
	p.Total = int64(len(agents))
	return p
}

// TaskPage lists baseline tasks.
func TaskPage(tasks []api.BaselineTask) Page {
	p := Page{Columns: []string{"Task", "Name", "Agent", "Type", "Status", "Scheduled"}}
	for _, t := range tasks {
		agent := t.AgentName
		if agent == "" {
			agent = t.AgentID
		}
		p.Data = append(p.Data, []string{t.TaskID, t.Name, agent, t.TaskType, t.Status, orDash(t.ScheduledTime)})
	}
	p.Total = int64(len(tasks))
	return p
}

// RulePage lists baseline rules.
func RulePage(rules []api.BaselineRule) Page {
	p := Page{Columns: []string{"Rule", "Name", "Category", "Severity", "Platform", "Enabled"}}
	for _, r := range rules {
		p.Data = append(p.Data, []string{r.RuleID, r.Name, r.Category, r.Severity, r.Platform, strconv.FormatBool(r.Enabled)})
	}
	p.Total = int64(len(rules))
	return p
}

// ScanPage lists baseline scans.
func ScanPage(scans []api.BaselineScan) Page {
	p := Page{Columns: []string{"ID", "Name", "Asset", "Type", "Status", "Passed", "Failed", "Score"}}
	for _, s := range scans {
		asset := s.AssetName
		if asset == "" {
			asset = fmtInt(s.AssetID)
		}
		p.Data = append(p.Data, []string{
			fmtInt(s.ID), s.ScanName, asset, s.ScanType, s.Status,
			strconv.Itoa(s.PassedChecks), strconv.Itoa(s.FailedChecks),
			strconv.FormatFloat(s.ComplianceScore, 'f', 1, 64),
		})
	}
	p.Total = int64(len(scans))
	return p
}

// ToolPage lists scan tools.
func ToolPage(tools []api.ScanTool) Page {
	p := Page{Columns: []string{"Name", "Display name", "Version", "Latest", "Status", "Auto update"}}
	for _, t := range tools {
		p.Data = append(p.Data, []string{
			t.Name, t.DisplayName, orDash(t.CurrentVersion), orDash(t.LatestVersion), t.Status, strconv.FormatBool(t.AutoUpdate),
		})
	}
	p.Total = int64(len(tools))
	return p
}

// LogPage lists scan log lines.
func LogPage(lines []api.ScanLogMessage) Page {
	p := Page{Columns: []string{"Time", "Level", "Engine", "Message"}}
	for _, l := range lines {
		p.Data = append(p.Data, []string{l.Timestamp, l.Level, orDash(l.ScanEngine), l.Message})
	}
	p.Total = int64(len(lines))
	return p
}

// TrendPage lists the vulnerability trend, oldest day first.
func TrendPage(points []api.TrendPoint) Page {
	p := Page{Columns: []string{"Date", "Discovered", "Resolved"}}
	for _, t := range points {
		p.Data = append(p.Data, []string{t.Date, fmtInt(t.Discovered), fmtInt(t.Resolved)})
	}
	p.Total = int64(len(points))
	return p
}

// BaselineResultPage lists the checks of a baseline task.
func BaselineResultPage(results []api.BaselineResult) Page {
	p := Page{Columns: []string{"Check", "Name", "Category", "Severity", "Status", "Actual"}}
	for _, r := range results {
		p.Data = append(p.Data, []string{r.CheckID, r.CheckName, r.Category, r.Severity, r.Status, orDash(r.ActualValue)})
	}
	p.Total = int64(len(results))
	return p
}

// ScanResultPage lists the checks of a baseline scan.
func ScanResultPage(results []api.BaselineScanResult) Page {
	p := Page{Columns: []string{"Check", "Name", "Category", "Severity", "Status", "Remediation"}}
	for _, r := range results {
		p.Data = append(p.Data, []string{r.CheckID, r.CheckName, r.Category, r.Severity, r.Status, orDash(r.Remediation)})
	}
	p.Total = int64(len(results))
	return p
}

// SharePage lists a distribution.
func SharePage(label string, shares []api.Share) Page {
	p := Page{Columns: []string{label, "Count", "Share"}}
	for _, s := range shares {
		p.Data = append(p.Data, []string{
			s.Label(), fmtInt(s.Count), strconv.FormatFloat(s.Percentage, 'f', 1, 64) + "%",
		})
	}
	p.Total = int64(len(shares))
	return p
}

// StatsPage flattens the dashboard headline numbers.
func StatsPage(s api.DashboardStats) Page {
	rows := [][]string{
		{"Vulnerabilities", "total", fmtInt(s.Vulnerabilities.Total)},
		{"Vulnerabilities", "critical", fmtInt(s.Vulnerabilities.Critical)},
		{"Vulnerabilities", "high", fmtInt(s.Vulnerabilities.High)},
		{"Vulnerabilities", "open", fmtInt(s.Vulnerabilities.Open)},
		{"Vulnerabilities", "resolved", fmtInt(s.Vulnerabilities.Resolved)},
		{"Assets", "total", fmtInt(s.Assets.Total)},
		{"Assets", "online", fmtInt(s.Assets.Online)},
		{"Assets", "critical", fmtInt(s.Assets.Critical)},
		{"Users", "total", fmtInt(s.Users.Total)},
		{"Users", "active", fmtInt(s.Users.Active)},
		{"Projects", "active", fmtInt(s.Projects.Active)},
		{"Projects", "overdue", fmtInt(s.Projects.Overdue)},
	}
	return Page{Columns: []string{"Area", "Metric", "Value"}, Data: rows, Total: int64(len(rows))}
}

// MapPage lists a string-keyed map sorted by key.
func MapPage(m map[string]any) Page {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := Page{Columns: []string{"Key", "Value"}}
	for _, k := range keys {
		p.Data = append(p.Data, []string{k, fmt.Sprint(m[k])})
	}
	p.Total = int64(len(keys))
	return p
}

func fmtInt(v int64) string { return strconv.FormatInt(v, 10) }
