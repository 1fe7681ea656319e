package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/pullsense/internal/formatter"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/urfave/cli/v3"
)

// Dashboard prints the dashboard counts and listing, or exports it as JSON or CSV.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	useJSON, useCSV := cmd.Bool("json"), cmd.Bool("csv")
	if useJSON && useCSV {
		return fmt.Errorf("%w: cannot specify both --json and --csv", shared.ErrInvalidFlag)
	}

	dashboard, err := r.queries.Dashboard(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch dashboard: %w", err)
	}
	r.logger.Debug("dashboard fetched", "total", dashboard.TotalPRs)

	switch {
	case useJSON:
		data, err := formatter.ExportJSON(dashboard)
		if err != nil {
			return err
		}
		return r.writeBytes(data, cmd.String("output"))
	case useCSV:
		data, err := formatter.ExportDashboardCSV(dashboard)
		if err != nil {
			return err
		}
		return r.writeBytes(data, cmd.String("output"))
	}

	r.writePlainHeader("PullSense Dashboard")
	r.writeCounts(dashboard)
	r.writePlain("\n")
	if len(dashboard.PullRequests) == 0 {
		return r.writePlain("No pull requests yet\n")
	}
	for _, pr := range dashboard.PullRequests {
		r.writePlain("%-6s #%-5d %-24s %s (%s) [%s]\n",
			pr.ID(), pr.PRNumber, pr.Repo, pr.Title, pr.Author, pr.AnalysisStatus.Normalize().Label())
	}
	return nil
}

func (r *Runner) writeCounts(dashboard *models.Dashboard) {
	r.writePlain("Total PRs: %d  Analyzed: %d  Pending: %d\n",
		dashboard.TotalPRs, dashboard.Analyzed, dashboard.PendingCount())
}

// Stats prints review statistics.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.queries.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	aiEnabled := "No"
	if stats.AIEnabled {
		aiEnabled = "Yes"
	}

	r.writePlainHeader("PullSense Stats")
	r.writePlain("AI Enabled:    %s\n", aiEnabled)
	r.writePlain("Total PRs:     %d\n", stats.TotalPRs)
	r.writePlain("Total Reviews: %d\n", stats.TotalReviews)
	if stats.CeleryStatus != "" {
		r.writePlain("Worker:        %s\n", stats.CeleryStatus)
	}

	statuses := make([]string, 0, len(stats.ReviewsByStatus))
	for status := range stats.ReviewsByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		r.writePlain("  %-14s %d\n", models.AnalysisStatus(status).Label(), stats.ReviewsByStatus[status])
	}
	return nil
}

// PRsList prints every pull request the backend has received.
func (r *Runner) PRsList(ctx context.Context, cmd *cli.Command) error {
	list, err := r.queries.PullRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pull requests: %w", err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}

	r.writePlainHeader(fmt.Sprintf("Pull Requests (%d)", list.Count))
	for _, pr := range list.PullRequests {
		r.writePlain("%-6d #%-5d %s (%s)\n", pr.ID, pr.Number, pr.Title, pr.Author)
	}
	return nil
}

// PRsShow prints a single pull request.
func (r *Runner) PRsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	pr, err := r.queries.PullRequest(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch pull request %s: %w", id, err)
	}
	if cmd.Bool("json") {
		return r.writeJSON(pr, true)
	}

	r.writePlainHeader(fmt.Sprintf("PR #%d: %s", pr.Number, pr.Title))
	r.writePlain("ID:      %d\n", pr.ID)
	r.writePlain("Author:  %s\n", pr.Author)
	if pr.Repo != "" {
		r.writePlain("Repo:    %s\n", pr.Repo)
	}
	if pr.Action != "" {
		r.writePlain("Action:  %s\n", pr.Action)
	}
	if pr.Created != "" {
		r.writePlain("Created: %s\n", pr.Created)
	}
	return nil
}

// Analysis prints the latest review of a pull request as text, Markdown or JSON.
func (r *Runner) Analysis(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	format := strings.ToLower(cmd.String("format"))
	export, ok := analysisExporters[format]
	if !ok {
		return fmt.Errorf("%w: unknown format %q (want text, markdown or json)", shared.ErrInvalidFlag, format)
	}

	analysis, err := r.queries.Analysis(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch analysis for %s: %w", id, err)
	}

	data, err := export(analysis)
	if err != nil {
		return err
	}
	return r.writeBytes(data, cmd.String("output"))
}

var analysisExporters = map[string]func(*models.PRAnalysis) ([]byte, error){
	"text":     formatter.ExportAnalysisText,
	"markdown": formatter.ExportAnalysisMarkdown,
	"md":       formatter.ExportAnalysisMarkdown,
	"json":     func(a *models.PRAnalysis) ([]byte, error) { return formatter.ExportJSON(a) },
}

// Analyze queues a review of a pull request.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	id, err := requireID(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("triggering analysis", "pr", id)
	result, err := r.queries.TriggerAnalysis(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to trigger analysis for %s: %w", id, err)
	}

	r.writePlain("✓ %s\n", orDefault(result.Message, "Analysis started"))
	if result.PRTitle != "" {
		r.writePlain("PR:   %s\n", result.PRTitle)
	}
	if result.TaskID != "" {
		r.writePlain("Task: %s\n", result.TaskID)
	}
	return nil
}

// Open opens the web dashboard, or the analysis page of a pull request, in the default browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	link, err := shared.DashboardLink(r.config.API.DashboardURL, strings.TrimSpace(cmd.StringArg("id")))
	if err != nil {
		return err
	}
	if err := r.openURL(link); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return r.writePlain("Opened %s\n", link)
}

func requireID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: pull request id", shared.ErrMissingArgument)
	}
	return id, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
