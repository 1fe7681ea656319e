package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/pullsense/internal/formatter"
	"github.com/desertthunder/pullsense/internal/live"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/query"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/desertthunder/pullsense/internal/tasks"
)

const reconnectBanner = "Reconnecting to live updates..."

// ViewState represents the current view in the TUI.
type ViewState int

const (
	DashboardView ViewState = iota
	AnalysisView
)

// Source is the cached data the views read. [tasks.Queries] implements it.
type Source interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Analysis(ctx context.Context, id string) (*models.PRAnalysis, error)
	TriggerAnalysis(ctx context.Context, id string) (*models.TriggerResult, error)
	Refresh()
}

// Options configures [NewModel].
type Options struct {
	Source    Source
	Updates   <-chan tasks.Update
	Connected bool
	// IsConnected, when set, is read on every live update so the banner
	// recovers from state changes dropped by a full update buffer.
	IsConnected  func() bool
	DashboardURL string
	OpenURL      func(url string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	source       Source
	updates      <-chan tasks.Update
	dashboardURL string
	openURL      func(string) error
	isConnected  func() bool
	width        int
	height       int

	connected bool
	notice    string

	prList           list.Model
	dashboard        *models.Dashboard
	stats            *models.Stats
	dashboardLoading bool
	dashboardErr     error

	analysisID      string
	analysis        *models.PRAnalysis
	analysisLoading bool
	analysisErr     error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	openURL := opts.OpenURL
	if openURL == nil {
		openURL = shared.OpenBrowser
	}

	prList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	prList.Title = "Pull Requests"
	prList.SetShowHelp(false)
	prList.SetFilteringEnabled(false)
	prList.DisableQuitKeybindings()

	return &Model{
		ctx:              ctx,
		view:             DashboardView,
		source:           opts.Source,
		updates:          opts.Updates,
		dashboardURL:     opts.DashboardURL,
		openURL:          openURL,
		connected:        opts.Connected,
		isConnected:      opts.IsConnected,
		prList:           prList,
		dashboardLoading: true,
		help:             help.New(),
		keys:             newKeyMap(),
	}
}

// Init loads the dashboard and stats and starts listening for live updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchDashboard(), m.fetchStats(), m.waitForUpdate())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prList.SetSize(max(msg.Width-4, 0), max(msg.Height-14, 0))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case DashboardView:
			return m.handleDashboardKeys(msg)
		case AnalysisView:
			return m.handleAnalysisKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgDashboardFetched:
		res := msg.data.(dashboardResult)
		m.dashboardLoading = false
		m.dashboardErr = res.err
		if res.dashboard != nil {
			m.setDashboard(res.dashboard)
		}
		return m, nil

	case MsgStatsFetched:
		res := msg.data.(statsResult)
		if res.err == nil {
			m.stats = res.stats
		}
		return m, nil

	case MsgAnalysisFetched:
		res := msg.data.(analysisResult)
		if res.id != m.analysisID {
			return m, nil
		}
		m.analysisLoading = false
		m.analysisErr = res.err
		if res.analysis != nil {
			m.analysis = res.analysis
		}
		return m, nil

	case MsgAnalysisTriggered:
		res := msg.data.(triggerResult)
		if res.err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("Failed to start analysis: %v", res.err))
			return m, nil
		}
		m.notice = styles.ok.Render(triggerNotice(res.id, res.result))
		return m, m.fetchDashboard()

	case MsgLiveUpdate:
		return m, tea.Batch(m.applyUpdate(msg.data.(tasks.Update)), m.waitForUpdate())

	case MsgBrowserOpened:
		res := msg.data.(browserResult)
		if res.err != nil {
			m.notice = styles.err.Render(fmt.Sprintf("Failed to open browser: %v", res.err))
		} else {
			m.notice = styles.muted.Render("Opened " + res.url)
		}
		return m, nil
	}
	return m, nil
}

// applyUpdate re-reads every query the current view shows that an update touched.
func (m *Model) applyUpdate(update tasks.Update) tea.Cmd {
	if m.isConnected != nil {
		m.connected = m.isConnected()
	} else if update.Kind == tasks.StateChanged {
		m.connected = update.State == live.Connected
	}

	switch update.Kind {
	case tasks.StateChanged:
		return nil

	case tasks.MessageReceived:
		switch update.Message.Type {
		case models.MessagePRCreated:
			m.notice = styles.muted.Render("New pull request received")
		case models.MessageAnalysisComplete:
			if id, err := update.Message.PRID(); err == nil {
				m.notice = styles.ok.Render(fmt.Sprintf("Analysis complete for PR %s", id))
			}
		}
		return nil

	case tasks.Invalidated:
		var cmds []tea.Cmd
		if update.Touches(query.DashboardKey()) {
			cmds = append(cmds, m.fetchDashboard())
		}
		if update.Touches(query.StatsKey()) {
			cmds = append(cmds, m.fetchStats())
		}
		if m.view == AnalysisView && update.Touches(query.AnalysisKey(m.analysisID)) {
			cmds = append(cmds, m.fetchAnalysis(m.analysisID))
		}
		return tea.Batch(cmds...)
	}
	return nil
}

func (m *Model) setDashboard(dashboard *models.Dashboard) {
	m.dashboard = dashboard
	index := m.prList.Index()
	m.prList.SetItems(prItems(dashboard.PullRequests))
	if index < len(dashboard.PullRequests) {
		m.prList.Select(index)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	if !m.connected {
		b.WriteString(styles.banner.Render(reconnectBanner))
		b.WriteString("\n\n")
	}

	switch m.view {
	case DashboardView:
		b.WriteString(m.renderDashboard())
	case AnalysisView:
		b.WriteString(m.renderAnalysis())
	}
	return b.String()
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.enter):
		if pr, ok := m.selectedPR(); ok {
			m.view = AnalysisView
			m.analysisID = pr.ID()
			m.analysis = nil
			m.analysisErr = nil
			m.analysisLoading = true
			return m, m.fetchAnalysis(pr.ID())
		}
		return m, nil

	case key.Matches(msg, m.keys.analyze):
		pr, ok := m.selectedPR()
		if !ok {
			return m, nil
		}
		if pr.AnalysisStatus != models.StatusNotAnalyzed {
			m.notice = styles.muted.Render(fmt.Sprintf("PR #%d is already %s", pr.PRNumber, pr.AnalysisStatus.Label()))
			return m, nil
		}
		m.notice = styles.muted.Render(fmt.Sprintf("Starting analysis of PR #%d...", pr.PRNumber))
		return m, m.triggerAnalysis(pr.ID())

	case key.Matches(msg, m.keys.refresh):
		m.source.Refresh()
		m.dashboardLoading = true
		return m, tea.Batch(m.fetchDashboard(), m.fetchStats())

	case key.Matches(msg, m.keys.open):
		id := ""
		if pr, ok := m.selectedPR(); ok {
			id = pr.ID()
		}
		return m, m.openDashboard(id)
	}

	var cmd tea.Cmd
	m.prList, cmd = m.prList.Update(msg)
	return m, cmd
}

func (m *Model) handleAnalysisKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = DashboardView
		m.analysisID = ""
		m.analysis = nil
		m.analysisErr = nil
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.analysisLoading = true
		return m, m.fetchAnalysis(m.analysisID)
	case key.Matches(msg, m.keys.open):
		return m, m.openDashboard(m.analysisID)
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == DashboardView {
		m.prList, cmd = m.prList.Update(msg)
	}
	return m, cmd
}

func (m *Model) selectedPR() (models.DashboardPR, bool) {
	if item, ok := m.prList.SelectedItem().(prItem); ok {
		return item.pr, true
	}
	return models.DashboardPR{}, false
}

func (m *Model) fetchDashboard() tea.Cmd {
	return func() tea.Msg {
		dashboard, err := m.source.Dashboard(m.ctx)
		return dashboardFetchedMsg(dashboard, err)
	}
}

func (m *Model) fetchStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.source.Stats(m.ctx)
		return statsFetchedMsg(stats, err)
	}
}

func (m *Model) fetchAnalysis(id string) tea.Cmd {
	return func() tea.Msg {
		analysis, err := m.source.Analysis(m.ctx, id)
		return analysisFetchedMsg(id, analysis, err)
	}
}

func (m *Model) triggerAnalysis(id string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.source.TriggerAnalysis(m.ctx, id)
		return analysisTriggeredMsg(id, result, err)
	}
}

func (m *Model) openDashboard(id string) tea.Cmd {
	return func() tea.Msg {
		link, err := shared.DashboardLink(m.dashboardURL, id)
		if err != nil {
			return browserOpenedMsg(link, err)
		}
		return browserOpenedMsg(link, m.openURL(link))
	}
}

// waitForUpdate blocks on the live update stream; each update re-arms it.
func (m *Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update := <-m.updates:
			return liveUpdateMsg(update)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) renderDashboard() string {
	title := styles.title.Render("PullSense Dashboard")

	if m.dashboard == nil {
		if m.dashboardErr != nil {
			return fmt.Sprintf("%s\n%s\n\n%s", title, errorBanner("Error loading dashboard", m.dashboardErr), m.renderHelp())
		}
		return fmt.Sprintf("%s\n%s\n\n%s", title, styles.muted.Render("Loading dashboard..."), m.renderHelp())
	}

	var b strings.Builder
	b.WriteString(title + refreshing(m.dashboardLoading) + "\n")
	b.WriteString(m.renderCards() + "\n\n")
	if m.dashboardErr != nil {
		b.WriteString(errorBanner("Error refreshing dashboard", m.dashboardErr) + "\n\n")
	}
	if len(m.dashboard.PullRequests) == 0 {
		b.WriteString(styles.muted.Render("No pull requests yet") + "\n")
	} else {
		b.WriteString(m.prList.View() + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + m.notice + "\n")
	}
	b.WriteString("\n" + m.renderHelp())
	return b.String()
}

// refreshing is the hint shown beside a title while data already on screen reloads.
func refreshing(loading bool) string {
	if !loading {
		return ""
	}
	return "  " + styles.muted.Render("Refreshing...")
}

func (m *Model) renderCards() string {
	aiEnabled := "…"
	if m.stats != nil {
		aiEnabled = "No"
		if m.stats.AIEnabled {
			aiEnabled = "Yes"
		}
	}

	cards := []string{
		card("Total PRs", fmt.Sprint(m.dashboard.TotalPRs)),
		card("Analyzed", fmt.Sprint(m.dashboard.Analyzed)),
		card("Pending", fmt.Sprint(m.dashboard.PendingCount())),
		card("AI Enabled", aiEnabled),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(label, value string) string {
	return styles.card.Render(styles.muted.Render(label) + "\n" + styles.ok.Render(value))
}

func (m *Model) renderAnalysis() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.refresh, m.keys.open, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.analysis == nil {
		if m.analysisErr != nil {
			return fmt.Sprintf("%s\n\n%s", errorBanner("Error loading analysis", m.analysisErr), helpView)
		}
		return fmt.Sprintf("%s\n\n%s", styles.muted.Render("Loading analysis..."), helpView)
	}

	var b strings.Builder
	if pr := m.analysis.PullRequest; pr != nil {
		b.WriteString(styles.title.Render(fmt.Sprintf("PR #%d: %s", pr.Number, pr.Title)) + refreshing(m.analysisLoading) + "\n")
		b.WriteString(styles.muted.Render("by "+pr.Author) + "\n")
	} else {
		b.WriteString(styles.title.Render("Pull Request "+m.analysisID) + refreshing(m.analysisLoading) + "\n")
	}

	if m.analysis.IsPending() {
		msg := m.analysis.Message
		if msg == "" {
			msg = "No analysis available yet"
		}
		b.WriteString("\n" + styles.warn.Render(msg) + "\n\n" + helpView)
		return b.String()
	}

	a := m.analysis.Analysis
	b.WriteString(fmt.Sprintf("\n%s  %s %s  %s %s  %s %s\n",
		StatusBadge(a.Status),
		styles.muted.Render("time"), formatter.FormatAnalysisTime(a.AnalysisTime),
		styles.muted.Render("model"), a.Model,
		styles.muted.Render("date"), formatter.FormatDate(*a),
	))
	if m.analysisErr != nil {
		b.WriteString("\n" + errorBanner("Error refreshing analysis", m.analysisErr) + "\n")
	}

	b.WriteString("\n")
	for _, block := range formatter.ParseAnalysis(a.Text) {
		switch block.Kind {
		case formatter.Heading:
			b.WriteString(styles.heading.Render(block.Text) + "\n")
		case formatter.ListItem:
			b.WriteString("  • " + block.Text + "\n")
		default:
			b.WriteString(block.Text + "\n")
		}
	}

	b.WriteString("\n" + helpView)
	return b.String()
}

func (m *Model) renderHelp() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.analyze, m.keys.refresh, m.keys.open, m.keys.quit}
	return m.help.ShortHelpView(helpKeys)
}

func errorBanner(prefix string, err error) string {
	msg := err.Error()
	if errors.Is(err, shared.ErrUnauthorized) {
		msg = "unauthorized, run `pullsense auth login`"
	}
	return styles.err.Render(fmt.Sprintf("%s: %s", prefix, msg))
}

func triggerNotice(id string, result *models.TriggerResult) string {
	if result == nil || result.Message == "" {
		return fmt.Sprintf("Analysis started for PR %s", id)
	}
	if result.PRTitle != "" {
		return fmt.Sprintf("%s: %s", result.Message, result.PRTitle)
	}
	return result.Message
}
