package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/pullsense/internal/models"
	th "github.com/desertthunder/pullsense/internal/testing"
)

func sampleAnalysis() *models.PRAnalysis {
	elapsed := 2.25
	return &models.PRAnalysis{
		PullRequest: &models.PullRequest{ID: 42, Repo: "acme/api", Number: 17, Title: "Add caching", Author: "octo"},
		Analysis: &models.Analysis{
			Status:       models.StatusCompleted,
			Text:         "1. Summary\n- adds a cache\n  -   handles errors  \n\nLooks good overall.",
			Model:        "gpt-4",
			CreatedAt:    "2024-05-01T10:30:00",
			AnalysisTime: &elapsed,
		},
	}
}

func TestParseAnalysis(t *testing.T) {
	t.Run("Heading List Paragraph", func(t *testing.T) {
		blocks := ParseAnalysis("1. Summary\n- point one\nplain text")

		want := []Block{
			{Kind: Heading, Text: "1. Summary"},
			{Kind: ListItem, Text: "point one"},
			{Kind: Paragraph, Text: "plain text"},
		}
		if len(blocks) != len(want) {
			t.Fatalf("expected %d blocks, got %d: %+v", len(want), len(blocks), blocks)
		}
		for i := range want {
			if blocks[i] != want[i] {
				t.Errorf("block %d: expected %+v, got %+v", i, want[i], blocks[i])
			}
		}
	})

	t.Run("Blank Lines Produce Nothing", func(t *testing.T) {
		if blocks := ParseAnalysis("\n   \n\t\n"); len(blocks) != 0 {
			t.Errorf("expected no blocks, got %+v", blocks)
		}
	})

	t.Run("Indented List Item Is Trimmed", func(t *testing.T) {
		blocks := ParseAnalysis("   -   spaced out  ")
		if len(blocks) != 1 || blocks[0].Kind != ListItem || blocks[0].Text != "spaced out" {
			t.Errorf("unexpected blocks %+v", blocks)
		}
	})

	t.Run("Heading Must Start The Line", func(t *testing.T) {
		blocks := ParseAnalysis("  2. indented\n12. Security\n3x not a heading")
		kinds := []BlockKind{Paragraph, Heading, Paragraph}
		for i, k := range kinds {
			if blocks[i].Kind != k {
				t.Errorf("line %d: expected %s, got %s", i, k, blocks[i].Kind)
			}
		}
	})

	t.Run("CRLF", func(t *testing.T) {
		blocks := ParseAnalysis("1. A\r\n- b\r\n")
		if len(blocks) != 2 || blocks[0].Text != "1. A" || blocks[1].Text != "b" {
			t.Errorf("unexpected blocks %+v", blocks)
		}
	})
}

func TestFormatting(t *testing.T) {
	t.Run("FormatAnalysisTime", func(t *testing.T) {
		v := 1.5
		if got := FormatAnalysisTime(&v); got != "1.50s" {
			t.Errorf("expected 1.50s, got %s", got)
		}
		if got := FormatAnalysisTime(nil); got != "N/A" {
			t.Errorf("expected N/A, got %s", got)
		}
	})

	t.Run("FormatDate", func(t *testing.T) {
		if got := FormatDate(models.Analysis{CreatedAt: "2024-05-01T10:30:00"}); got != "May 1, 2024 10:30 AM" {
			t.Errorf("unexpected date %s", got)
		}
		if got := FormatDate(models.Analysis{CreatedAt: "yesterday"}); got != "yesterday" {
			t.Errorf("expected raw fallback, got %s", got)
		}
		if got := FormatDate(models.Analysis{}); got != "N/A" {
			t.Errorf("expected N/A, got %s", got)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportDashboardCSV", func(t *testing.T) {
		analyzed := "2024-05-01T11:00:00"
		dashboard := &models.Dashboard{
			TotalPRs: 2,
			PullRequests: []models.DashboardPR{
				{PRID: 1, PRNumber: 10, Repo: "acme/api", Title: "Fix, then test", Author: "a", AnalysisStatus: models.StatusCompleted, AnalyzedAt: &analyzed},
				{PRID: 2, PRNumber: 11, Repo: "acme/api", Title: "Odd", Author: "b", AnalysisStatus: "queued"},
			},
		}

		data, err := ExportDashboardCSV(dashboard)
		if err != nil {
			t.Fatalf("ExportDashboardCSV failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "PR ID,Number,Repo,Title,Author,Status,Created,Analyzed\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1,10,acme/api,"Fix, then test",a,completed,,2024-05-01T11:00:00`) {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, "2,11,acme/api,Odd,b,not_analyzed,,") {
			t.Errorf("expected unknown status to normalize, got: %s", output)
		}
	})

	t.Run("ExportAnalysisMarkdown", func(t *testing.T) {
		data, err := ExportAnalysisMarkdown(sampleAnalysis())
		if err != nil {
			t.Fatalf("ExportAnalysisMarkdown failed: %v", err)
		}
		output := string(data)

		for _, want := range []string{
			"# PR #17: Add caching",
			"**Author**: octo",
			"**Repository**: acme/api",
			"**Status**: completed",
			"**Model**: gpt-4",
			"**Analysis Time**: 2.25s",
			"### 1. Summary",
			"- adds a cache\n- handles errors\n",
			"Looks good overall.",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportAnalysisMarkdown Pending", func(t *testing.T) {
		data, _ := ExportAnalysisMarkdown(&models.PRAnalysis{Status: "pending", Message: "No analysis found for this PR"})
		if !strings.Contains(string(data), "_No analysis found for this PR_") {
			t.Errorf("expected pending message, got %s", data)
		}
	})

	t.Run("ExportAnalysisText", func(t *testing.T) {
		data, err := ExportAnalysisText(sampleAnalysis())
		if err != nil {
			t.Fatalf("ExportAnalysisText failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "PR #17: Add caching\nAuthor: octo\n") {
			t.Errorf("unexpected header, got:\n%s", output)
		}
		if !strings.Contains(output, "  • adds a cache\n") {
			t.Errorf("expected bullet, got:\n%s", output)
		}
	})

	t.Run("ExportAnalysisText Pending", func(t *testing.T) {
		data, _ := ExportAnalysisText(&models.PRAnalysis{})
		if strings.TrimSpace(string(data)) != "No analysis available yet" {
			t.Errorf("unexpected pending text %q", data)
		}
	})

	t.Run("ExportJSON", func(t *testing.T) {
		data, err := ExportJSON(sampleAnalysis())
		if err != nil {
			t.Fatalf("ExportJSON failed: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if _, ok := decoded["analysis"]; !ok {
			t.Error("expected analysis field")
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "pr-17.md")
		if err := WriteExport([]byte("# hi\n"), path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "# hi\n" {
			t.Errorf("unexpected content %q", got)
		}
	})
}
