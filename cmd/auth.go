package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/pullsense/internal/models"
	"github.com/desertthunder/pullsense/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for an access token and stores it as the current session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.sessions == nil {
		return fmt.Errorf("%w: session storage is not available", shared.ErrServiceUnavailable)
	}

	creds := models.Credentials{Email: cmd.String("email"), Password: cmd.String("password")}
	r.logger.Info("logging in", "email", creds.Email)

	token, err := r.gateway.Login(ctx, creds)
	if err != nil {
		return err
	}

	session, err := r.sessions.Save(ctx, creds.Email, token.AccessToken, token.TokenType)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	r.logger.Info("session saved", "id", session.ID())

	return r.writePlain("✓ Logged in as %s\n", session.Email())
}

// AuthLogout removes the stored session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.sessions == nil {
		return fmt.Errorf("%w: session storage is not available", shared.ErrServiceUnavailable)
	}
	if err := r.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	r.logger.Info("session cleared")
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus prints the user the backend associates with the current token.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking auth status")

	user, err := r.gateway.Me(ctx)
	if errors.Is(err, shared.ErrUnauthorized) {
		r.writePlain("Authentication: ✗ Not authenticated\n")
		return fmt.Errorf("%w: run `pullsense auth login`", shared.ErrNotAuthenticated)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	r.writePlain("Authentication: ✓ Authenticated\n")
	r.writePlain("User:  %s\n", user.Username)
	r.writePlain("Email: %s\n", user.Email)
	if !user.IsActive {
		r.writePlain("Account is inactive\n")
	}
	return nil
}
