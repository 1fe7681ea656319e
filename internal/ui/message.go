package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDashboardFetched MsgKind = iota
	MsgStatsFetched
	MsgAnalysisFetched
	MsgAnalysisTriggered
	MsgLiveUpdate
	MsgBrowserOpened
)

type dashboardResult struct {
	dashboard *models.Dashboard
	err       error
}

type statsResult struct {
	stats *models.Stats
	err   error
}

type analysisResult struct {
	id       string
	analysis *models.PRAnalysis
	err      error
}

type triggerResult struct {
	id     string
	result *models.TriggerResult
	err    error
}

type browserResult struct {
	url string
	err error
}

// dashboardFetchedMsg is the constructor for [MsgDashboardFetched]
func dashboardFetchedMsg(dashboard *models.Dashboard, err error) Msg {
	return Msg{kind: MsgDashboardFetched, data: dashboardResult{dashboard, err}}
}

// statsFetchedMsg is the constructor for [MsgStatsFetched]
func statsFetchedMsg(stats *models.Stats, err error) Msg {
	return Msg{kind: MsgStatsFetched, data: statsResult{stats, err}}
}

// analysisFetchedMsg is the constructor for [MsgAnalysisFetched]
func analysisFetchedMsg(id string, analysis *models.PRAnalysis, err error) Msg {
	return Msg{kind: MsgAnalysisFetched, data: analysisResult{id, analysis, err}}
}

// analysisTriggeredMsg is the constructor for [MsgAnalysisTriggered]
func analysisTriggeredMsg(id string, result *models.TriggerResult, err error) Msg {
	return Msg{kind: MsgAnalysisTriggered, data: triggerResult{id, result, err}}
}

// liveUpdateMsg is the constructor for [MsgLiveUpdate]
func liveUpdateMsg(update tasks.Update) Msg {
	return Msg{kind: MsgLiveUpdate, data: update}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: browserResult{url, err}}
}
