package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/pullsense/internal/repositories"
	"github.com/desertthunder/pullsense/internal/services"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	shared.ApplyEnv(config, os.Getenv)
	shared.SetLogLevel(logger, shared.ParseLevel(config.Log.Level))

	// PULLSENSE_TOKEN wins over the stored session
	tokens := services.TokenChain{services.StaticToken(config.API.Token)}
	var sessions *repositories.SessionTokenStore

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Warn("session storage unavailable", "path", config.Database.Path, "error", err)
	} else {
		sessions = repositories.NewSessionTokenStore(repositories.NewSessionRepository(db))
		tokens = append(tokens, sessions)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Sessions:   sessions,
		HTTPClient: services.NewHTTPClient(tokens, nil, config.API.Timeout()),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "pullsense",
		Usage:    "Review pull requests with PullSense from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, os.Args)
	stop()
	if db != nil {
		db.Close()
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
