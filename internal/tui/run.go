package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/vulnark/internal/session"
)

// Run starts the console full screen and blocks until it closes. When the
// session ends behind the console's back, for instance after a logout in
// another terminal, the console re-evaluates the current route and closes.
// A new token from another terminal is verified before the menu is rebuilt.
func Run(ctx context.Context, d Deps, store *session.Store, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, d), opts...)

	if store != nil {
		store.Subscribe(func(s session.Snapshot) {
			switch s.State() {
			case session.StateAnonymous:
				go p.Send(NavigateMsg{Path: d.Navigator.Current()})
			case session.StateTokenOnly:
				go p.Send(SessionChangedMsg{})
			}
		})
	}

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return fmt.Errorf("unexpected console model %T", final)
	}
	return m.Err()
}
