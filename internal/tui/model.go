// Package tui is the interactive console: a route menu, data pages and
// toasts, all of it behind the route guard.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/vulnark/internal/notify"
	"github.com/felixgeelhaar/vulnark/internal/router"
	"github.com/felixgeelhaar/vulnark/internal/session"
)

// ViewType represents the current view being displayed
type ViewType int

const (
	// ViewMenu lists the routes the session may open.
	ViewMenu ViewType = iota
	// ViewPage shows the data of the current route.
	ViewPage
	// ViewHelp is the help screen.
	ViewHelp
)

const (
	maxToasts   = 3
	toastTTL    = 4 * time.Second
	maxColWidth = 32
)

var (
	// ErrSessionEnded means the console closed because the session is gone,
	// usually after the server rejected the token.
	ErrSessionEnded = errors.New("session ended, log in again")
	// ErrLoggedOut means the operator logged out from the console.
	ErrLoggedOut = errors.New("logged out")
)

// Session is the read side of the session store.
type Session interface {
	Snapshot() session.Snapshot
}

// Deps wires the console to the rest of the client.
type Deps struct {
	Navigator *router.Navigator
	Session   Session
	Loader    Loader
	// Notices feeds toasts. Nil disables them.
	Notices <-chan notify.Notice
	// Logout ends the session. Nil hides the binding's effect.
	Logout func()
	// Verify revalidates a token that arrived without a profile, such as a
	// login made in another terminal. Nil leaves the menu as it is.
	Verify func(context.Context) error
	Theme  string
	Locale string
}

// NavigateMsg asks the console to open a route.
type NavigateMsg struct {
	Path string
}

// SessionChangedMsg tells the console that the token changed underneath it
// and the profile has to be fetched again.
type SessionChangedMsg struct{}

type sessionVerifiedMsg struct {
	err error
}

// NoticeMsg carries a notice to show as a toast.
type NoticeMsg notify.Notice

type pageLoadedMsg struct {
	seq  int
	page Page
	err  error
}

type toastExpiredMsg struct {
	id int
}

type toast struct {
	id     int
	notice notify.Notice
}

// Model represents the console state.
type Model struct {
	ctx     context.Context
	nav     *router.Navigator
	session Session
	loader  Loader
	notices <-chan notify.Notice
	logout  func()
	verify  func(context.Context) error
	text    notify.Localizer

	menu    list.Model
	table   table.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  Styles

	currentView ViewType
	page        Page
	loading     bool
	seq         int
	toasts      []toast
	nextToast   int
	lastError   string

	width    int
	height   int
	ready    bool
	quitting bool
	err      error
}

type menuItem struct {
	route router.Route
}

func (i menuItem) Title() string       { return i.route.Title }
func (i menuItem) Description() string { return i.route.Path }
func (i menuItem) FilterValue() string { return i.route.Title + " " + i.route.Path }

// NewModel creates the console model.
func NewModel(ctx context.Context, d Deps) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	styles := StylesFor(d.Theme)

	menu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "Vulnark"
	menu.Styles.Title = styles.Highlighted
	menu.SetShowHelp(false)
	menu.DisableQuitKeybindings()

	tbl := table.New(table.WithFocused(true))

	m := Model{
		ctx:         ctx,
		nav:         d.Navigator,
		session:     d.Session,
		loader:      d.Loader,
		notices:     d.Notices,
		logout:      d.Logout,
		verify:      d.Verify,
		text:        notify.NewLocalizer(d.Locale),
		menu:        menu,
		table:       tbl,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Status)),
		help:        help.New(),
		keys:        defaultKeys(),
		styles:      styles,
		currentView: ViewMenu,
	}
	m.refreshMenu()
	return m
}

// Init opens the root route, which the guard turns into the landing page.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return NavigateMsg{Path: router.PathRoot} },
		waitForNotice(m.notices),
	)
}

// Err reports why the console stopped. It is nil after a plain quit.
func (m Model) Err() error { return m.err }

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.menu.SetSize(msg.Width, max(msg.Height-4, 4))
		m.table.SetWidth(max(msg.Width-4, 20))
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case NavigateMsg:
		return m.navigate(msg.Path)

	case pageLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if m.nav.Current() == router.PathLogin {
			return m.end(ErrSessionEnded)
		}
		m.setPage(msg.page, msg.err)
		return m, nil

	case SessionChangedMsg:
		m.refreshMenu()
		if m.verify == nil {
			return m, nil
		}
		verify, ctx := m.verify, m.ctx
		return m, func() tea.Msg { return sessionVerifiedMsg{err: verify(ctx)} }

	case sessionVerifiedMsg:
		if msg.err != nil {
			// A failed check logs out, which ends the console on its own.
			if !errors.Is(msg.err, session.ErrStaleResponse) {
				m.lastError = msg.err.Error()
			}
			return m, nil
		}
		m.refreshMenu()
		if m.currentView == ViewPage {
			// The new role may not be allowed on the open page.
			return m.navigate(m.nav.Current())
		}
		return m, nil

	case NoticeMsg:
		cmd := m.addToast(notify.Notice(msg))
		return m, tea.Batch(cmd, waitForNotice(m.notices))

	case toastExpiredMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.end(nil)
	}

	// The filter input owns the keyboard while it is open.
	if m.currentView == ViewMenu && m.menu.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.menu, cmd = m.menu.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.end(nil)

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = ViewMenu
		} else {
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.currentView = ViewMenu
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		if m.logout != nil {
			m.logout()
		}
		return m.end(ErrLoggedOut)

	case key.Matches(msg, m.keys.Reload) && m.currentView == ViewPage:
		return m.navigate(m.nav.Current())

	case key.Matches(msg, m.keys.Open) && m.currentView == ViewMenu:
		item, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return m, nil
		}
		return m.navigate(item.route.Path)
	}

	var cmd tea.Cmd
	switch m.currentView {
	case ViewMenu:
		m.menu, cmd = m.menu.Update(msg)
	case ViewPage:
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

// navigate runs path through the navigator and starts loading whatever
// route the guard settled on.
func (m Model) navigate(path string) (tea.Model, tea.Cmd) {
	nav, err := m.nav.Navigate(path)
	if err != nil {
		m.lastError = err.Error()
		return m, nil
	}
	if nav.To == router.PathLogin {
		return m.end(ErrSessionEnded)
	}
	m.refreshMenu()

	var cmds []tea.Cmd
	if nav.Redirected() {
		switch nav.Redirects[len(nav.Redirects)-1].Reason {
		case router.ReasonAdminRequired, router.ReasonRoleNotPermitted:
			cmds = append(cmds, m.addToast(m.text.Notice(notify.LevelWarning, notify.KeyAccessDenied, "")))
		}
	}

	m.seq++
	m.lastError = ""
	m.loading = true
	m.currentView = ViewPage
	m.page = Page{Title: nav.Route.Title, Path: nav.To}
	m.table.SetRows(nil)
	cmds = append(cmds, m.spinner.Tick, m.load(m.seq, nav.To, nav.Route.Title))
	return m, tea.Batch(cmds...)
}

func (m Model) load(seq int, path, title string) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		if loader == nil {
			return pageLoadedMsg{seq: seq, page: Page{Title: title, Path: path}}
		}
		page, err := loader.Load(ctx, path)
		page.Title = title
		page.Path = path
		return pageLoadedMsg{seq: seq, page: page, err: err}
	}
}

func (m *Model) setPage(p Page, err error) {
	m.page = p
	if err != nil {
		// The notifier has already told the operator what happened.
		m.lastError = err.Error()
		m.table.SetRows(nil)
		return
	}
	m.table.SetRows(nil)
	m.table.SetColumns(columnsFor(p))
	rows := make([]table.Row, len(p.Data))
	for i, r := range p.Data {
		rows[i] = table.Row(r)
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *Model) refreshMenu() {
	if m.nav == nil || m.session == nil {
		return
	}
	guard := m.nav.Guard()
	routes := guard.Table().Visible(guard, m.session.Snapshot())
	items := make([]list.Item, len(routes))
	for i, r := range routes {
		items[i] = menuItem{route: r}
	}
	m.menu.SetItems(items)
}

func (m *Model) addToast(n notify.Notice) tea.Cmd {
	m.nextToast++
	id := m.nextToast
	m.toasts = append(m.toasts, toast{id: id, notice: n})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{id: id} })
}

func (m Model) end(err error) (tea.Model, tea.Cmd) {
	m.quitting = true
	m.err = err
	return m, tea.Quit
}

func columnsFor(p Page) []table.Column {
	cols := make([]table.Column, len(p.Columns))
	for i, title := range p.Columns {
		w := lipgloss.Width(title)
		for _, row := range p.Data {
			if i < len(row) {
				w = max(w, lipgloss.Width(row[i]))
			}
		}
		cols[i] = table.Column{Title: title, Width: min(w, maxColWidth)}
	}
	return cols
}

func waitForNotice(ch <-chan notify.Notice) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoticeMsg(n)
	}
}
