package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/pullsense/internal/models"
)

var styles = NewPalette("#2563EB", "#16A34A", "#DC2626", "#CA8A04", "#626262")

var _ Painter = (*Palette)(nil)

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title   lipgloss.Style
	heading lipgloss.Style
	ok      lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	muted   lipgloss.Style
	banner  lipgloss.Style
	card    lipgloss.Style
	badges  map[models.AnalysisStatus]lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:   NewBold(t).MarginBottom(1),
		heading: NewBold(t).MarginTop(1),
		ok:      NewBold(s),
		err:     NewBold(e),
		warn:    NewStyle(w),
		help:    NewEm(h),
		muted:   NewStyle(h),
		banner:  NewBold("#000000").Background(lipgloss.Color(w)).Padding(0, 1),
		card:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 2).MarginRight(1),
		badges: map[models.AnalysisStatus]lipgloss.Style{
			models.StatusCompleted:   NewBadge(s),
			models.StatusError:       NewBadge(e),
			models.StatusMock:        NewBadge(w),
			models.StatusNotAnalyzed: NewBadge(h),
		},
	}
}

// On renders s with bg as its background
func (p *Palette) On(s string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().Background(bg).Render(s)
}

// As renders s with fg as its foreground
func (p *Palette) As(s string, fg lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(fg).Render(s)
}

// Badge returns the style for status; unknown values use the not_analyzed style.
func (p *Palette) Badge(status models.AnalysisStatus) lipgloss.Style {
	return p.badges[status.Normalize()]
}

// StatusBadge renders the label for status in its badge style.
func StatusBadge(status models.AnalysisStatus) string {
	return styles.Badge(status).Render(status.Label())
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func NewBadge(fg string) lipgloss.Style {
	return NewBold(fg).Padding(0, 1)
}
