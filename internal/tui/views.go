package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/vulnark/internal/notify"
)

// View renders the console (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch m.currentView {
	case ViewMenu:
		body = m.menu.View()
	case ViewPage:
		body = m.renderPage()
	case ViewHelp:
		body = m.renderHelp()
	default:
		body = "Unknown view"
	}

	parts := []string{m.renderHeader(), body}
	if toasts := m.renderToasts(); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, m.styles.Help.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	who := "anonymous"
	if m.session != nil {
		snap := m.session.Snapshot()
		if snap.User != nil {
			who = fmt.Sprintf("%s (%s)", snap.User.DisplayName(), snap.User.Role.Label())
		} else if snap.IsAuthenticated() {
			who = "checking session"
		}
	}
	where := ""
	if m.nav != nil {
		where = m.nav.Current()
	}
	return m.styles.Subtitle.Render(fmt.Sprintf("%s  %s", who, where))
}

func (m Model) renderPage() string {
	var b strings.Builder
	title := m.page.Title
	if title == "" {
		title = m.page.Path
	}
	b.WriteString(m.styles.Title.Render(title))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading...")
	case m.lastError != "":
		b.WriteString(m.styles.Error.Render(m.lastError))
	case m.page.Empty():
		b.WriteString(m.styles.Muted.Render(m.page.Message))
	default:
		b.WriteString(m.styles.Border.Render(m.table.View()))
		if m.page.Total > int64(len(m.page.Data)) {
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%d of %d", len(m.page.Data), m.page.Total)))
		}
	}
	return b.String()
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Help"))
	b.WriteString("\n")
	b.WriteString(h.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Pages you cannot open are not listed. Type / in the menu to filter."))
	return b.String()
}

func (m Model) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	lines := make([]string, len(m.toasts))
	for i, t := range m.toasts {
		lines[i] = m.styles.Toast.Inherit(m.levelStyle(t.notice.Level)).Render(t.notice.Message)
	}
	return strings.Join(lines, "\n")
}

func (m Model) levelStyle(l notify.Level) lipgloss.Style {
	switch l {
	case notify.LevelSuccess:
		return m.styles.Success
	case notify.LevelWarning:
		return m.styles.Warning
	case notify.LevelError:
		return m.styles.Error
	}
	return m.styles.Status
}
