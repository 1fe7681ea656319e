// package formatter renders pull request data for terminals and exports (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/pullsense/internal/models"
)

// BlockKind classifies one line of review text.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	ListItem
)

func (k BlockKind) String() string {
	switch k {
	case Heading:
		return "heading"
	case ListItem:
		return "list_item"
	default:
		return "paragraph"
	}
}

// Block is one rendered line of review text.
type Block struct {
	Kind BlockKind
	Text string
}

var numberedHeading = regexp.MustCompile(`^\d+\.`)

// ParseAnalysis splits review text into blocks, one per non-blank line.
//
// A line starting with "<digits>." is a heading and keeps its text verbatim. A line whose trimmed
// form starts with "-" is a list item holding the trimmed text after the dash. Everything else is a
// paragraph. Each line is classified on its own.
func ParseAnalysis(text string) []Block {
	var blocks []Block
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			continue
		case numberedHeading.MatchString(line):
			blocks = append(blocks, Block{Kind: Heading, Text: line})
		case strings.HasPrefix(trimmed, "-"):
			blocks = append(blocks, Block{Kind: ListItem, Text: strings.TrimSpace(trimmed[1:])})
		default:
			blocks = append(blocks, Block{Kind: Paragraph, Text: line})
		}
	}
	return blocks
}

// FormatAnalysisTime renders seconds with two decimals, or "N/A" when unknown.
func FormatAnalysisTime(seconds *float64) string {
	if seconds == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2fs", *seconds)
}

// FormatDate renders an analysis timestamp for display, falling back to the raw value.
func FormatDate(a models.Analysis) string {
	if t := a.Created(); !t.IsZero() {
		return t.Format("Jan 2, 2006 3:04 PM")
	}
	if a.CreatedAt == "" {
		return "N/A"
	}
	return a.CreatedAt
}

// ExportDashboardCSV converts the dashboard listing to CSV with columns: PR ID, Number, Repo, Title, Author, Status, Created, Analyzed
func ExportDashboardCSV(dashboard *models.Dashboard) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"PR ID", "Number", "Repo", "Title", "Author", "Status", "Created", "Analyzed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pr := range dashboard.PullRequests {
		analyzed := ""
		if pr.AnalyzedAt != nil {
			analyzed = *pr.AnalyzedAt
		}
		record := []string{
			pr.ID(),
			strconv.Itoa(pr.PRNumber),
			pr.Repo,
			pr.Title,
			pr.Author,
			string(pr.AnalysisStatus.Normalize()),
			pr.CreatedAt,
			analyzed,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportAnalysisMarkdown converts a review to Markdown, promoting numbered headings to level three
func ExportAnalysisMarkdown(analysis *models.PRAnalysis) ([]byte, error) {
	var buf bytes.Buffer

	writeMarkdownTitle(&buf, analysis.PullRequest)

	if analysis.IsPending() {
		buf.WriteString(fmt.Sprintf("_%s_\n", pendingMessage(analysis)))
		return buf.Bytes(), nil
	}

	a := analysis.Analysis
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", a.Status.Label()))
	buf.WriteString(fmt.Sprintf("**Model**: %s\n", orNA(a.Model)))
	buf.WriteString(fmt.Sprintf("**Analysis Time**: %s\n", FormatAnalysisTime(a.AnalysisTime)))
	buf.WriteString(fmt.Sprintf("**Date**: %s\n\n", FormatDate(*a)))

	buf.WriteString("## Review\n\n")
	for _, block := range ParseAnalysis(a.Text) {
		switch block.Kind {
		case Heading:
			buf.WriteString(fmt.Sprintf("### %s\n\n", block.Text))
		case ListItem:
			buf.WriteString(fmt.Sprintf("- %s\n", block.Text))
		default:
			buf.WriteString(fmt.Sprintf("%s\n\n", block.Text))
		}
	}

	return buf.Bytes(), nil
}

func writeMarkdownTitle(buf *bytes.Buffer, pr *models.PullRequest) {
	if pr == nil {
		buf.WriteString("# Pull Request Analysis\n\n")
		return
	}
	buf.WriteString(fmt.Sprintf("# PR #%d: %s\n\n", pr.Number, pr.Title))
	buf.WriteString(fmt.Sprintf("**Author**: %s\n", pr.Author))
	if pr.Repo != "" {
		buf.WriteString(fmt.Sprintf("**Repository**: %s\n", pr.Repo))
	}
}

// ExportAnalysisText converts a review to plain text
func ExportAnalysisText(analysis *models.PRAnalysis) ([]byte, error) {
	var buf bytes.Buffer

	if pr := analysis.PullRequest; pr != nil {
		buf.WriteString(fmt.Sprintf("PR #%d: %s\n", pr.Number, pr.Title))
		buf.WriteString(fmt.Sprintf("Author: %s\n", pr.Author))
	}

	if analysis.IsPending() {
		buf.WriteString(pendingMessage(analysis) + "\n")
		return buf.Bytes(), nil
	}

	a := analysis.Analysis
	buf.WriteString(fmt.Sprintf("Status: %s\n", a.Status.Label()))
	buf.WriteString(fmt.Sprintf("Model: %s\n", orNA(a.Model)))
	buf.WriteString(fmt.Sprintf("Analysis Time: %s\n", FormatAnalysisTime(a.AnalysisTime)))
	buf.WriteString(fmt.Sprintf("Date: %s\n\n", FormatDate(*a)))

	for _, block := range ParseAnalysis(a.Text) {
		switch block.Kind {
		case Heading:
			buf.WriteString("\n" + block.Text + "\n")
		case ListItem:
			buf.WriteString("  • " + block.Text + "\n")
		default:
			buf.WriteString(block.Text + "\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportJSON renders v as indented JSON with a trailing newline
func ExportJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport writes data to path, creating parent directories as needed
func WriteExport(data []byte, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func pendingMessage(analysis *models.PRAnalysis) string {
	if analysis.Message != "" {
		return analysis.Message
	}
	return "No analysis available yet"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
