package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/pullsense/internal/models"
)

var _ list.Item = prItem{}

// prItem wraps [models.DashboardPR] to implement [list.Item].
type prItem struct {
	pr models.DashboardPR
}

func (i prItem) FilterValue() string { return i.pr.Title }
func (i prItem) Title() string       { return fmt.Sprintf("#%d %s", i.pr.PRNumber, i.pr.Title) }
func (i prItem) Description() string {
	desc := fmt.Sprintf("%s • %s", i.pr.Repo, i.pr.Author)
	return fmt.Sprintf("%s • %s", desc, StatusBadge(i.pr.AnalysisStatus))
}

func prItems(prs []models.DashboardPR) []list.Item {
	items := make([]list.Item, len(prs))
	for i, pr := range prs {
		items[i] = prItem{pr: pr}
	}
	return items
}
