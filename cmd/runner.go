package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pullsense/internal/formatter"
	"github.com/desertthunder/pullsense/internal/live"
	"github.com/desertthunder/pullsense/internal/query"
	"github.com/desertthunder/pullsense/internal/repositories"
	"github.com/desertthunder/pullsense/internal/services"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/desertthunder/pullsense/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	gateway    *services.Gateway
	queries    *tasks.Queries
	api        *services.APIService
	sessions   *repositories.SessionTokenStore
	dialer     live.Dialer
	openURL    func(string) error
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Sessions   *repositories.SessionTokenStore
	Dialer     live.Dialer
	OpenURL    func(string) error
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		tokens := services.StaticToken(opts.Config.API.Token)
		opts.HTTPClient = services.NewHTTPClient(tokens, nil, opts.Config.API.Timeout())
	}
	if opts.Dialer == nil {
		opts.Dialer = live.WebsocketDialer{}
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		sessions:   opts.Sessions,
		dialer:     opts.Dialer,
		openURL:    opts.OpenURL,
		httpClient: opts.HTTPClient,
		output:     opts.Output,
	}
	r.SetLogger(opts.Logger)
	return r
}

// SetLogger replaces the logger and rebuilds the services that log through it.
//
// The query cache starts empty again.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.gateway = services.NewGateway(services.GatewayOptions{
		BaseURL:           r.config.API.URL,
		Client:            r.httpClient,
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Logger:            logger,
	})
	r.api = services.NewAPIService(r.config.API.URL, r.httpClient)
	cache := query.NewCache(query.OptionsFromConfig(r.config.Query, logger))
	r.queries = tasks.NewQueries(r.gateway, cache)
}

// newLiveSync builds the push channel for the current cache. The caller starts and closes it.
func (r *Runner) newLiveSync() *tasks.LiveSync {
	return tasks.NewLiveSync(r.queries.Cache(), live.Options{
		URL:            r.config.API.WSURL,
		Dialer:         r.dialer,
		ReconnectDelay: r.config.Live.ReconnectDelay(),
		Logger:         shared.WithLogger(r.logger, "component", "live"),
	}, 0)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		dashboardCommand, statsCommand, prsCommand, analysisCommand, analyzeCommand,
		watchCommand, tuiCommand, assistCommand, openCommand,
		authCommand, apiCommand, diagCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeBytes writes data to path, or to the output when path is empty.
func (r *Runner) writeBytes(data []byte, path string) error {
	if path != "" {
		if err := formatter.WriteExport(data, path); err != nil {
			return err
		}
		r.logger.Info("export written", "path", path, "bytes", len(data))
		return r.writePlain("✓ Saved to %s\n", path)
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
