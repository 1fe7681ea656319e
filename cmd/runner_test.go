package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/pullsense/internal/live"
	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/repositories"
	"github.com/desertthunder/pullsense/internal/services"
	"github.com/desertthunder/pullsense/internal/shared"
	tu "github.com/desertthunder/pullsense/internal/testing"
	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"
)

// backend is a fake PullSense API. dashboardCalls is reported as total_prs so refetches are visible.
type backend struct {
	*httptest.Server
	dashboardCalls atomic.Int32
	triggered      atomic.Int32
	lastAssist     models.CodeAnalysisRequest
	assistReply    string
	mu             sync.Mutex
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{assistReply: "1. Summary\n- use errors.Is\nLooks fine"}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /dashboard", func(w http.ResponseWriter, r *http.Request) {
		n := b.dashboardCalls.Add(1)
		writeTestJSON(w, models.Dashboard{
			TotalPRs: int(n),
			Analyzed: 1,
			PullRequests: []models.DashboardPR{
				{PRID: 7, PRNumber: 12, Title: "Add cache", Author: "octo", Repo: "acme/api", AnalysisStatus: models.StatusNotAnalyzed},
			},
		})
	})
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, models.Stats{
			AIEnabled:       true,
			TotalPRs:        3,
			TotalReviews:    2,
			ReviewsByStatus: map[string]int{"completed": 1, "not_analyzed": 2},
		})
	})
	mux.HandleFunc("GET /pull-requests", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, models.PullRequestList{Count: 1, PullRequests: []models.PullRequest{{ID: 7, Number: 12, Title: "Add cache", Author: "octo"}}})
	})
	mux.HandleFunc("GET /pull-requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			http.Error(w, `{"detail":"Pull request not found"}`, http.StatusNotFound)
			return
		}
		writeTestJSON(w, models.PullRequest{ID: 7, Number: 12, Title: "Add cache", Author: "octo", Repo: "acme/api"})
	})
	mux.HandleFunc("GET /pull-requests/{id}/analysis", func(w http.ResponseWriter, r *http.Request) {
		elapsed := 3.5
		writeTestJSON(w, models.PRAnalysis{
			PullRequest: &models.PullRequest{ID: 7, Number: 12, Title: "Add cache", Author: "octo"},
			Analysis:    &models.Analysis{Status: models.StatusCompleted, Text: "1. Summary\n- tidy", Model: "gpt-4", AnalysisTime: &elapsed},
		})
	})
	mux.HandleFunc("POST /analyze/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.triggered.Add(1)
		writeTestJSON(w, models.TriggerResult{Message: "Analysis started", PRTitle: "Add cache", TaskID: "task-1"})
	})
	mux.HandleFunc("POST /test/celery", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, models.TriggerResult{Message: "Test task queued", TaskID: "task-2"})
	})
	mux.HandleFunc("POST /analyze-code", func(w http.ResponseWriter, r *http.Request) {
		var req models.CodeAnalysisRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.lastAssist = req
		reply := b.assistReply
		b.mu.Unlock()
		writeTestJSON(w, models.CodeAnalysisResponse{Analysis: reply})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "hunter22" {
			http.Error(w, `{"detail":"Incorrect email or password"}`, http.StatusUnauthorized)
			return
		}
		writeTestJSON(w, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, `{"detail":"Not authenticated"}`, http.StatusUnauthorized)
			return
		}
		writeTestJSON(w, models.User{ID: 1, Email: "dev@example.com", Username: "dev", IsActive: true})
	})

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func writeTestJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func testConfig(apiURL string) *shared.Config {
	config := shared.DefaultConfig()
	config.API.URL = apiURL
	config.API.WSURL = "ws" + strings.TrimPrefix(apiURL, "http") + "/ws"
	config.API.RequestsPerSecond = 0
	config.Query.Retry = 0
	config.Live.ReconnectDelayMS = 50
	return config
}

func newTestRunner(t *testing.T, apiURL string, opts RunnerOpts) (*Runner, *bytes.Buffer) {
	t.Helper()
	output := &bytes.Buffer{}
	if opts.Config == nil {
		opts.Config = testConfig(apiURL)
	}
	if opts.Output == nil {
		opts.Output = output
	}
	opts.Logger = shared.NewLogger(&bytes.Buffer{})
	return NewRunner(opts), output
}

func runCLI(ctx context.Context, r *Runner, args ...string) error {
	app := &cli.Command{Name: "pullsense", Commands: r.register()}
	return app.Run(ctx, append([]string{"pullsense"}, args...))
}

func newSessionStore(t *testing.T) *repositories.SessionTokenStore {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return repositories.NewSessionTokenStore(repositories.NewSessionRepository(db))
}

// syncBuffer is a bytes.Buffer safe for a writer and a polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			sessions := newSessionStore(t)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Sessions:   sessions,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.sessions != sessions {
				t.Error("expected sessions to be set")
			}
			if runner.gateway.BaseURL() != config.API.URL {
				t.Errorf("expected gateway to use %s, got %s", config.API.URL, runner.gateway.BaseURL())
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.gateway.BaseURL() != "http://localhost:8000" {
				t.Errorf("expected default API url, got %s", runner.gateway.BaseURL())
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient builds one", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient == nil || runner.httpClient == http.DefaultClient {
				t.Error("expected a dedicated http client")
			}
		})

		t.Run("with nil dialer uses websocket", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if _, ok := runner.dialer.(live.WebsocketDialer); !ok {
				t.Errorf("expected WebsocketDialer, got %T", runner.dialer)
			}
		})

		t.Run("SetLogger resets the cache", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			before := runner.queries

			runner.SetLogger(shared.NewLogger(&bytes.Buffer{}))
			if runner.queries == before {
				t.Error("expected queries to be rebuilt")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"dashboard", "stats", "prs", "analysis", "analyze", "watch", "tui", "assist", "open", "auth", "api", "diag", "setup"} {
			if !seen[name] {
				t.Errorf("expected %q command", name)
			}
		}
	})
}

func TestDashboardCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("dashboard prints counts and rows", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "dashboard"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		for _, want := range []string{"PullSense Dashboard", "Total PRs: 1", "Analyzed: 1", "#12", "Add cache", "[not analyzed]"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in output:\n%s", want, result)
			}
		}
	})

	t.Run("dashboard csv", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "dashboard", "--csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %q", lines)
		}
		if lines[0] != "PR ID,Number,Repo,Title,Author,Status,Created,Analyzed" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "7,12,acme/api,Add cache,octo,not_analyzed") {
			t.Errorf("unexpected row %q", lines[1])
		}
	})

	t.Run("dashboard json to file", func(t *testing.T) {
		b := newBackend(t)
		runner, _ := newTestRunner(t, b.URL, RunnerOpts{})
		path := filepath.Join(t.TempDir(), "exports", "dashboard.json")

		if err := runCLI(ctx, runner, "dashboard", "--json", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		var dashboard models.Dashboard
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &dashboard); err != nil {
			t.Fatalf("expected valid JSON, got %v", err)
		}
		if len(dashboard.PullRequests) != 1 {
			t.Errorf("expected one pull request, got %d", len(dashboard.PullRequests))
		}
	})

	t.Run("dashboard rejects json with csv", func(t *testing.T) {
		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})

		err := runCLI(ctx, runner, "dashboard", "--json", "--csv")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("dashboard network failure", func(t *testing.T) {
		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})

		err := runCLI(ctx, runner, "dashboard")
		var netErr *shared.NetworkError
		if !errors.As(err, &netErr) {
			t.Errorf("expected NetworkError, got %v", err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		for _, want := range []string{"AI Enabled:    Yes", "Total Reviews: 2", "completed", "not analyzed"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in output:\n%s", want, result)
			}
		}
	})

	t.Run("prs list and show", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "prs", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Pull Requests (1)") {
			t.Errorf("unexpected list output:\n%s", output.String())
		}

		output.Reset()
		if err := runCLI(ctx, runner, "prs", "show", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "PR #12: Add cache") || !strings.Contains(output.String(), "acme/api") {
			t.Errorf("unexpected show output:\n%s", output.String())
		}
	})

	t.Run("prs show unknown id", func(t *testing.T) {
		b := newBackend(t)
		runner, _ := newTestRunner(t, b.URL, RunnerOpts{})

		err := runCLI(ctx, runner, "prs", "show", "99")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("analysis formats", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "analysis", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "3.50s") {
			t.Errorf("expected analysis time in text output:\n%s", output.String())
		}

		output.Reset()
		if err := runCLI(ctx, runner, "analysis", "--format", "markdown", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "### 1. Summary") {
			t.Errorf("expected markdown heading:\n%s", output.String())
		}

		output.Reset()
		if err := runCLI(ctx, runner, "analysis", "--format", "json", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"model": "gpt-4"`) {
			t.Errorf("expected JSON output:\n%s", output.String())
		}
	})

	t.Run("analysis validates input", func(t *testing.T) {
		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})

		if err := runCLI(ctx, runner, "analysis"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := runCLI(ctx, runner, "analysis", "--format", "pdf", "7"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("analyze triggers and marks dashboard stale", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if _, err := runner.queries.Dashboard(ctx); err != nil {
			t.Fatalf("failed to prime dashboard: %v", err)
		}
		if err := runCLI(ctx, runner, "analyze", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if b.triggered.Load() != 1 {
			t.Errorf("expected one trigger, got %d", b.triggered.Load())
		}
		if !strings.Contains(output.String(), "✓ Analysis started") || !strings.Contains(output.String(), "task-1") {
			t.Errorf("unexpected output:\n%s", output.String())
		}

		if _, err := runner.queries.Dashboard(ctx); err != nil {
			t.Fatalf("failed to reload dashboard: %v", err)
		}
		if b.dashboardCalls.Load() != 2 {
			t.Errorf("expected dashboard reload after trigger, got %d loads", b.dashboardCalls.Load())
		}
	})

	t.Run("open", func(t *testing.T) {
		var opened []string
		runner, output := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{
			OpenURL: func(url string) error {
				opened = append(opened, url)
				return nil
			},
		})

		if err := runCLI(ctx, runner, "open", "7"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := runCLI(ctx, runner, "open"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []string{"http://localhost:5173/analysis/7", "http://localhost:5173/"}
		if len(opened) != 2 || opened[0] != want[0] || opened[1] != want[1] {
			t.Errorf("expected %v, got %v", want, opened)
		}
		if !strings.Contains(output.String(), "Opened http://localhost:5173/analysis/7") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

func TestAssistCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("reviews a file", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})
		path := filepath.Join(t.TempDir(), "main.go")
		os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0644)

		if err := runCLI(ctx, runner, "assist", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		b.mu.Lock()
		req := b.lastAssist
		b.mu.Unlock()
		if req.FileName != "main.go" || req.Language != "go" || req.Mode != "" {
			t.Errorf("unexpected request %+v", req)
		}

		result := output.String()
		for _, want := range []string{"Review: main.go", "1. Summary", "  • use errors.Is", "Looks fine"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in output:\n%s", want, result)
			}
		}
	})

	t.Run("quick mode falls back when empty", func(t *testing.T) {
		b := newBackend(t)
		b.assistReply = ""
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})
		path := filepath.Join(t.TempDir(), "app.py")
		os.WriteFile(path, []byte("print('hello world')\n"), 0644)

		if err := runCLI(ctx, runner, "assist", "--quick", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), services.NoSuggestions) {
			t.Errorf("expected fallback text:\n%s", output.String())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})

		err := runCLI(ctx, runner, "assist", filepath.Join(t.TempDir(), "nope.go"))
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("login status logout", func(t *testing.T) {
		b := newBackend(t)
		sessions := newSessionStore(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{
			Sessions:   sessions,
			HTTPClient: services.NewHTTPClient(sessions, nil, 5*time.Second),
		})

		if err := runCLI(ctx, runner, "auth", "status"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated before login, got %v", err)
		}

		if err := runCLI(ctx, runner, "auth", "login", "--email", "dev@example.com", "--password", "hunter22"); err != nil {
			t.Fatalf("expected login to succeed, got %v", err)
		}
		if token, _ := sessions.Token(ctx); token != "tok-1" {
			t.Errorf("expected stored token, got %q", token)
		}

		output.Reset()
		if err := runCLI(ctx, runner, "auth", "status"); err != nil {
			t.Fatalf("expected status to succeed, got %v", err)
		}
		if !strings.Contains(output.String(), "dev@example.com") {
			t.Errorf("expected user email in output:\n%s", output.String())
		}

		if err := runCLI(ctx, runner, "auth", "logout"); err != nil {
			t.Fatalf("expected logout to succeed, got %v", err)
		}
		if err := runCLI(ctx, runner, "auth", "status"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
		}
	})

	t.Run("login with bad password", func(t *testing.T) {
		b := newBackend(t)
		sessions := newSessionStore(t)
		runner, _ := newTestRunner(t, b.URL, RunnerOpts{Sessions: sessions})

		err := runCLI(ctx, runner, "auth", "login", "--email", "dev@example.com", "--password", "wrong")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if token, _ := sessions.Token(ctx); token != "" {
			t.Errorf("expected no stored token, got %q", token)
		}
	})

	t.Run("without session storage", func(t *testing.T) {
		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})

		if err := runCLI(ctx, runner, "auth", "logout"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	ctx := context.Background()

	t.Run("get prints json", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "api", "get", "stats"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), `"ai_enabled": true`) {
			t.Errorf("expected pretty JSON:\n%s", output.String())
		}
	})

	t.Run("get non-2xx returns HTTPError", func(t *testing.T) {
		b := newBackend(t)
		runner, _ := newTestRunner(t, b.URL, RunnerOpts{})

		err := runCLI(ctx, runner, "api", "get", "/pull-requests/99")
		if !shared.IsHTTPStatus(err, http.StatusNotFound) {
			t.Errorf("expected 404 HTTPError, got %v", err)
		}
	})

	t.Run("post rejects invalid json", func(t *testing.T) {
		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})

		err := runCLI(ctx, runner, "api", "post", "--data", "{nope", "/analyze/7")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("diag celery", func(t *testing.T) {
		b := newBackend(t)
		runner, output := newTestRunner(t, b.URL, RunnerOpts{})

		if err := runCLI(ctx, runner, "diag", "celery"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Test task queued") || !strings.Contains(output.String(), "task-2") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("config writes template once", func(t *testing.T) {
		runner, output := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := runCLI(ctx, runner, "setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(output.String(), "Config written to") {
			t.Errorf("unexpected output:\n%s", output.String())
		}

		if err := runCLI(ctx, runner, "setup", "config", "--config", path); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("config defaults to the working directory", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		dir := t.TempDir()
		tu.MustChdir(t, dir)
		t.Cleanup(func() { tu.MustChdir(t, wd) })

		runner, _ := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})
		if err := runCLI(ctx, runner, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		config, err := shared.LoadConfig(filepath.Join(dir, defaultConfigPath))
		if err != nil {
			t.Fatalf("expected written config to load, got %v", err)
		}
		if config.Live.ReconnectDelayMS != 3000 {
			t.Errorf("expected default reconnect delay, got %d", config.Live.ReconnectDelayMS)
		}
	})

	t.Run("database runs migrations", func(t *testing.T) {
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "data", "pullsense.db")
		os.WriteFile(configPath, []byte("[database]\npath = \""+filepath.ToSlash(dbPath)+"\"\n"), 0644)

		runner, output := newTestRunner(t, "http://127.0.0.1:1", RunnerOpts{})
		if err := runCLI(ctx, runner, "setup", "database", "--config", configPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

func TestWatchCommand(t *testing.T) {
	t.Run("prints events and refreshed counts", func(t *testing.T) {
		b := newBackend(t)
		upgrader := websocket.Upgrader{}
		ws := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"analysis_complete","data":{"pr_id":7}}`))
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
		defer ws.Close()

		config := testConfig(b.URL)
		config.API.WSURL = "ws" + strings.TrimPrefix(ws.URL, "http")
		output := &syncBuffer{}
		runner, _ := newTestRunner(t, b.URL, RunnerOpts{Config: config, Output: output})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- runCLI(ctx, runner, "watch") }()

		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			result := output.String()
			if strings.Contains(result, "analysis complete for PR 7") && strings.Contains(result, "Total PRs: 2") {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected watch to stop cleanly, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("watch did not stop after cancel")
		}

		result := output.String()
		for _, want := range []string{"Watching ws://", "[live] connected", "[event] analysis complete for PR 7", "Total PRs: 1", "Total PRs: 2"} {
			if !strings.Contains(result, want) {
				t.Errorf("expected %q in output:\n%s", want, result)
			}
		}
	})
}
