package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/pullsense/internal/formatter"
	"github.com/desertthunder/pullsense/internal/services"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/urfave/cli/v3"
)

// Assist sends a local file to the backend for review and prints the result.
func (r *Runner) Assist(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}

	quick := cmd.Bool("quick")
	name := filepath.Base(path)
	r.logger.Info("requesting code review", "file", name, "language", services.DetectLanguage(name), "quick", quick)

	resp, err := r.gateway.CodeAssist(ctx, name, string(data), quick)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", name, err)
	}

	title := "Review: " + name
	if quick {
		title = "Suggestions: " + name
	}
	r.writePlainHeader(title)
	for _, block := range formatter.ParseAnalysis(resp.Analysis) {
		switch block.Kind {
		case formatter.ListItem:
			r.writePlain("  • %s\n", block.Text)
		case formatter.Heading:
			r.writePlain("\n%s\n", block.Text)
		default:
			r.writePlain("%s\n", block.Text)
		}
	}
	return nil
}
