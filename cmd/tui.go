package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/desertthunder/pullsense/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive dashboard with live updates.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	feed := r.newLiveSync()
	feed.Start(ctx)
	defer feed.Close()

	model := ui.NewModel(ctx, ui.Options{
		Source:       r.queries,
		Updates:      feed.Updates(),
		Connected:    feed.IsConnected(),
		IsConnected:  feed.IsConnected,
		DashboardURL: r.config.API.DashboardURL,
		OpenURL:      r.openURL,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
