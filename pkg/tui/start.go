package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Start runs the interface until the user quits or ctx ends. The session is
// started by the program itself so discovery happens behind the spinner.
func Start(ctx context.Context, c Controller, opts Options, version string) error {
	Version = version
	p := tea.NewProgram(
		initialModel(ctx, c, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
