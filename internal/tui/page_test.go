package tui

import (
	"reflect"
	"testing"

	"github.com/felixgeelhaar/vulnark/internal/api"
	"github.com/felixgeelhaar/vulnark/internal/authz"
)

func TestPageBuilders(t *testing.T) {
	tests := []struct {
		name string
		page Page
		want [][]string
	}{
		{
			name: "asset falls back to domain",
			page: AssetPage([]api.Asset{{ID: 7, Name: "portal", Type: "WEB", Status: "ACTIVE", Importance: "HIGH", Domain: "portal.example.com", VulnerabilityCount: 3}}),
			want: [][]string{{"7", "portal", "WEB", "ACTIVE", "HIGH", "portal.example.com", "3"}},
		},
		{
			name: "asset without address",
			page: AssetPage([]api.Asset{{ID: 1, Name: "x", Type: "OTHER", Status: "INACTIVE", Importance: "LOW"}}),
			want: [][]string{{"1", "x", "OTHER", "INACTIVE", "LOW", "-", "0"}},
		},
		{
			name: "user shows display name",
			page: UserPage([]api.User{{UserProfile: authz.UserProfile{ID: 2, Username: "bob", FullName: "Bob B", Email: "b@x", Role: authz.RoleUser, Status: authz.StatusActive}}}),
			want: [][]string{{"2", "bob", "Bob B", "b@x", "USER", "ACTIVE", "-"}},
		},
		{
			name: "task prefers agent name",
			page: TaskPage([]api.BaselineTask{{TaskID: "t1", Name: "weekly", AgentID: "a1", AgentName: "edge", TaskType: "BASELINE", Status: "PENDING"}}),
			want: [][]string{{"t1", "weekly", "edge", "BASELINE", "PENDING", "-"}},
		},
		{
			name: "scan score",
			page: ScanPage([]api.BaselineScan{{ID: 4, ScanName: "cis", AssetID: 9, ScanType: "LINUX", Status: "DONE", PassedChecks: 8, FailedChecks: 2, ComplianceScore: 80}}),
			want: [][]string{{"4", "cis", "9", "LINUX", "DONE", "8", "2", "80.0"}},
		},
		{
			name: "shares",
			page: SharePage("Severity", []api.Share{{Severity: "HIGH", Count: 3, Percentage: 37.5}}),
			want: [][]string{{"HIGH", "3", "37.5%"}},
		},
		{
			name: "map sorted by key",
			page: MapPage(map[string]any{"b": 2, "a": "x"}),
			want: [][]string{{"a", "x"}, {"b", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.page.Rows(), tt.want) {
				t.Errorf("Rows() = %v, want %v", tt.page.Rows(), tt.want)
			}
			for _, row := range tt.page.Rows() {
				if len(row) != len(tt.page.Header()) {
					t.Errorf("row %v does not match header %v", row, tt.page.Header())
				}
			}
		})
	}
}

func TestStatsPage(t *testing.T) {
	var s api.DashboardStats
	s.Vulnerabilities.Critical = 4
	p := StatsPage(s)

	if p.Empty() {
		t.Fatal("stats page should always have rows")
	}
	if got := p.Rows()[1]; got[1] != "critical" || got[2] != "4" {
		t.Errorf("critical row = %v", got)
	}
}

func TestColumnsFor(t *testing.T) {
	p := Page{
		Columns: []string{"ID", "Name"},
		Data:    [][]string{{"1", "a very long asset name that keeps going and going"}},
	}
	cols := columnsFor(p)
	if cols[0].Width != 2 {
		t.Errorf("ID width = %d, want 2", cols[0].Width)
	}
	if cols[1].Width != maxColWidth {
		t.Errorf("Name width = %d, want %d", cols[1].Width, maxColWidth)
	}
}
