package models

import (
	"strconv"
	"strings"
	"time"
)

// AnalysisStatus is the review state the backend reports for a pull request.
type AnalysisStatus string

const (
	StatusCompleted   AnalysisStatus = "completed"
	StatusError       AnalysisStatus = "error"
	StatusMock        AnalysisStatus = "mock"
	StatusNotAnalyzed AnalysisStatus = "not_analyzed"
)

// Normalize maps unrecognized values to [StatusNotAnalyzed].
func (s AnalysisStatus) Normalize() AnalysisStatus {
	switch s {
	case StatusCompleted, StatusError, StatusMock, StatusNotAnalyzed:
		return s
	default:
		return StatusNotAnalyzed
	}
}

// Label is the display text: the raw value with its first underscore replaced by a space.
func (s AnalysisStatus) Label() string {
	if s == "" {
		return strings.Replace(string(StatusNotAnalyzed), "_", " ", 1)
	}
	return strings.Replace(string(s), "_", " ", 1)
}

// DashboardPR is one row of the dashboard listing.
type DashboardPR struct {
	PRID           int            `json:"pr_id"`
	PRNumber       int            `json:"pr_number"`
	Title          string         `json:"title"`
	Author         string         `json:"author"`
	Repo           string         `json:"repo"`
	CreatedAt      string         `json:"created_at,omitempty"`
	AnalysisStatus AnalysisStatus `json:"analysis_status"`
	AnalyzedAt     *string        `json:"analyzed_at,omitempty"`
}

// ID returns the backend id as used in URLs and query keys.
func (p DashboardPR) ID() string { return strconv.Itoa(p.PRID) }

// Dashboard is the response of GET /dashboard.
type Dashboard struct {
	TotalPRs     int           `json:"total_prs"`
	Analyzed     int           `json:"analyzed"`
	Pending      int           `json:"pending"`
	PullRequests []DashboardPR `json:"pull_requests"`
}

// PendingCount returns Pending, deriving it from the totals when the backend omits it.
func (d *Dashboard) PendingCount() int {
	if d.Pending > 0 || d.TotalPRs == 0 {
		return d.Pending
	}
	if pending := d.TotalPRs - d.Analyzed; pending > 0 {
		return pending
	}
	return 0
}

// Stats is the response of GET /stats.
type Stats struct {
	AIEnabled       bool           `json:"ai_enabled"`
	TotalPRs        int            `json:"total_prs"`
	TotalReviews    int            `json:"total_reviews"`
	ReviewsByStatus map[string]int `json:"reviews_by_status"`
	CeleryStatus    string         `json:"celery_status,omitempty"`
}

// PullRequest is a pull request as listed by GET /pull-requests and GET /pull-requests/:id.
type PullRequest struct {
	ID      int    `json:"id"`
	Repo    string `json:"repo,omitempty"`
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Action  string `json:"action,omitempty"`
	Created string `json:"created,omitempty"`
}

// PullRequestList is the response of GET /pull-requests.
type PullRequestList struct {
	Count        int           `json:"count"`
	PullRequests []PullRequest `json:"pull_requests"`
}

// Analysis is the latest AI review of a pull request.
type Analysis struct {
	ID           int            `json:"id,omitempty"`
	Status       AnalysisStatus `json:"status"`
	Text         string         `json:"text"`
	Model        string         `json:"model"`
	CreatedAt    string         `json:"created_at"`
	AnalysisTime *float64       `json:"analysis_time"`
}

// Created parses CreatedAt, returning the zero time when it is missing or malformed.
func (a Analysis) Created() time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, a.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// PRAnalysis is the response of GET /pull-requests/:id/analysis.
//
// When no review exists yet the backend answers {status: "pending", message}; then
// PullRequest and Analysis are nil and [PRAnalysis.IsPending] reports true.
type PRAnalysis struct {
	PullRequest *PullRequest `json:"pull_request,omitempty"`
	Analysis    *Analysis    `json:"analysis,omitempty"`
	Status      string       `json:"status,omitempty"`
	Message     string       `json:"message,omitempty"`
}

// IsPending reports whether the backend has no analysis for the pull request yet.
func (a *PRAnalysis) IsPending() bool {
	return a.Analysis == nil
}

// TriggerResult is the response of POST /analyze/:id and POST /test/celery.
type TriggerResult struct {
	Message string `json:"message"`
	PRTitle string `json:"pr_title,omitempty"`
	TaskID  string `json:"task_id,omitempty"`
}

// User is the response of GET /auth/me.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// CodeAnalysisRequest is the body of POST /analyze-code.
type CodeAnalysisRequest struct {
	Code     string `json:"code"`
	FileName string `json:"fileName"`
	Language string `json:"language"`
	Mode     string `json:"mode,omitempty"`
}

// CodeAnalysisResponse is the response of POST /analyze-code.
type CodeAnalysisResponse struct {
	Analysis string `json:"analysis"`
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
