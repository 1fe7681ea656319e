package main

import (
	"context"

	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/query"
	"github.com/desertthunder/pullsense/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Watch connects to the push channel and prints events until ctx is cancelled.
//
// Dashboard counts are printed at start and again whenever an event marks the dashboard stale.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	feed := r.newLiveSync()
	feed.Start(ctx)
	defer feed.Close()

	r.writePlain("Watching %s (Ctrl+C to stop)\n", r.config.API.WSURL)
	r.printCounts(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("watch stopped")
			return nil
		case update := <-feed.Updates():
			r.printUpdate(ctx, update)
		}
	}
}

func (r *Runner) printUpdate(ctx context.Context, update tasks.Update) {
	switch update.Kind {
	case tasks.StateChanged:
		r.writePlain("[live] %s\n", update.State)
	case tasks.MessageReceived:
		switch update.Message.Type {
		case models.MessagePRCreated:
			r.writePlain("[event] new pull request\n")
		case models.MessageAnalysisComplete:
			id, _ := update.Message.PRID()
			r.writePlain("[event] analysis complete for PR %s\n", id)
		}
	case tasks.Invalidated:
		if update.Touches(query.DashboardKey()) {
			r.printCounts(ctx)
		}
	}
}

func (r *Runner) printCounts(ctx context.Context) {
	dashboard, err := r.queries.Dashboard(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("failed to fetch dashboard", "error", err)
		}
		return
	}
	r.writeCounts(dashboard)
}
