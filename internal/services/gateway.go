package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8000"
	maxErrorBody   = 4096
)

// Gateway is the typed client of the PullSense REST API.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// GatewayOptions configures [NewGateway]. Zero values select defaults.
type GatewayOptions struct {
	BaseURL           string
	Client            *http.Client
	RequestsPerSecond float64
	Logger            *log.Logger
}

// NewGateway creates a Gateway.
//
// Callers normally pass a client from [NewHTTPClient] so requests carry the bearer token.
func NewGateway(opts GatewayOptions) *Gateway {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	return &Gateway{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// BaseURL returns the API root requests are made against.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Dashboard fetches GET /dashboard.
func (g *Gateway) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := g.doRequest(ctx, http.MethodGet, "/dashboard", nil, &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Stats fetches GET /stats.
func (g *Gateway) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := g.doRequest(ctx, http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PullRequests fetches GET /pull-requests.
func (g *Gateway) PullRequests(ctx context.Context) (*models.PullRequestList, error) {
	var list models.PullRequestList
	if err := g.doRequest(ctx, http.MethodGet, "/pull-requests", nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// PullRequest fetches GET /pull-requests/:id.
func (g *Gateway) PullRequest(ctx context.Context, id string) (*models.PullRequest, error) {
	path, err := idPath("/pull-requests/", id, "")
	if err != nil {
		return nil, err
	}

	var pr models.PullRequest
	if err := g.doRequest(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// Analysis fetches GET /pull-requests/:id/analysis.
//
// A pull request without a review yet yields a pending [models.PRAnalysis], not an error.
func (g *Gateway) Analysis(ctx context.Context, id string) (*models.PRAnalysis, error) {
	path, err := idPath("/pull-requests/", id, "/analysis")
	if err != nil {
		return nil, err
	}

	var analysis models.PRAnalysis
	if err := g.doRequest(ctx, http.MethodGet, path, nil, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// TriggerAnalysis requests a new review with POST /analyze/:id.
func (g *Gateway) TriggerAnalysis(ctx context.Context, id string) (*models.TriggerResult, error) {
	path, err := idPath("/analyze/", id, "")
	if err != nil {
		return nil, err
	}

	var result models.TriggerResult
	if err := g.doRequest(ctx, http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TestCelery enqueues the backend's worker health check with POST /test/celery.
func (g *Gateway) TestCelery(ctx context.Context) (*models.TriggerResult, error) {
	var result models.TriggerResult
	if err := g.doRequest(ctx, http.MethodPost, "/test/celery", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login exchanges credentials for an access token with POST /auth/login.
func (g *Gateway) Login(ctx context.Context, creds models.Credentials) (*oauth2.Token, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	var token oauth2.Token
	if err := g.doRequest(ctx, http.MethodPost, "/auth/login", creds, &token); err != nil {
		if shared.IsHTTPStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: response has no access_token", shared.ErrAuthFailed)
	}
	if token.TokenType == "" {
		token.TokenType = "bearer"
	}
	return &token, nil
}

// Me fetches the authenticated user with GET /auth/me.
func (g *Gateway) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := g.doRequest(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// doRequest performs one JSON request against the API.
func (g *Gateway) doRequest(ctx context.Context, method, path string, body, result any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return &shared.NetworkError{Method: method, Path: path, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &shared.NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusUnauthorized {
			g.logger.Warn("unauthorized", "method", method, "path", path)
		}
		return &shared.HTTPError{Method: method, Path: path, Code: resp.StatusCode, Body: data}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &shared.DecodeError{Path: path, Err: err}
		}
	}

	return nil
}

func idPath(prefix, id, suffix string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: pull request id", shared.ErrMissingArgument)
	}
	return prefix + url.PathEscape(id) + suffix, nil
}
