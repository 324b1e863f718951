package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/session"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/tasks"
	"github.com/desertthunder/vtx/internal/ui"
)

// TUI launches the interactive catalog browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.services == nil || r.engine == nil {
		return fmt.Errorf("%w: services not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger("./tmp/vtx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(fileLogger)

	snap := r.session.Init(ctx, session.HomeRoute)

	_, fetch, err := r.exportSource("catalog", r.config.Export.PageSize)
	if err != nil {
		return err
	}
	export := func(ctx context.Context, prog chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
		return r.engine.Export(ctx, prog, fetch, tasks.ExportOpts{
			Resource:  "catalog",
			Format:    "json",
			Workers:   r.config.Export.Workers,
			RateLimit: r.config.Export.RateLimit,
			Client:    r.httpClient,
		})
	}

	model := ui.NewModel(ctx, ui.Options{
		Videos: r.services.Videos,
		Export: export,
		User:   snap.User,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
