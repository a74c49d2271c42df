package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/desertthunder/flickx/internal/discover"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/server"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/urfave/cli/v3"
)

// withSession runs fn against a session controller restored from the persisted session.
func (r *Runner) withSession(ctx context.Context, fn func(*discover.App) error) error {
	if err := r.connect(); err != nil {
		return err
	}
	app := r.newApp()
	defer func() {
		app.Close()
		app.Wait()
	}()

	app.Session.Init(ctx)
	return fn(app)
}

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(app *discover.App) error {
		if err := app.Session.SignIn(ctx, cmd.String("email"), cmd.String("password")); err != nil {
			return err
		}
		r.writePlain("✓ %s\n", discover.MsgLoginSuccess)
		return r.writePlain("Signed in as %s\n", app.Session.Session().Email)
	})
}

// AuthSignup registers an account. With --wait it also listens for the confirmation link.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	profile := models.Profile{FullName: cmd.String("full-name"), Username: cmd.String("username")}

	err := r.withSession(ctx, func(app *discover.App) error {
		if err := app.Session.SignUp(ctx, cmd.String("email"), cmd.String("password"), profile); err != nil {
			return err
		}
		return r.writePlain("✓ %s\n", discover.MsgSignupSuccess)
	})
	if err != nil {
		return err
	}

	if !cmd.Bool("wait") {
		return r.writePlain("Run `flickx auth confirm` before opening the link to finish signing in.\n")
	}
	return r.confirm(ctx, cmd.Duration("timeout"))
}

// AuthLogout signs out. The local session is cleared even when the provider call fails.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	return r.withSession(ctx, func(app *discover.App) error {
		if !app.Session.SignedIn() {
			return r.writePlain("Not signed in\n")
		}
		if err := app.Session.SignOut(ctx); err != nil {
			r.logger.Warn("remote sign-out failed; local session cleared", "error", err)
		}
		return r.writePlain("✓ %s\n", discover.MsgLogoutSuccess)
	})
}

// AuthStatus prints the persisted session, refreshing it if it has expired.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	session, err := r.auth.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlainHeader("Session")
	r.writePlain("Email:   %s\n", session.Email)
	r.writePlain("User ID: %s\n", session.UserID)
	if !session.ExpiresAt.IsZero() {
		r.writePlain("Expires: %s (in %s)\n", session.ExpiresAt.Local().Format(time.RFC1123), time.Until(session.ExpiresAt).Round(time.Second))
	}
	if claims, err := services.ParseTokenClaims(session.AccessToken); err == nil && claims.Issuer != "" {
		r.writePlain("Issuer:  %s\n", claims.Issuer)
	}
	return nil
}

// AuthConfirm waits for the email confirmation redirect and signs in with its code.
func (r *Runner) AuthConfirm(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	return r.confirm(ctx, cmd.Duration("timeout"))
}

func (r *Runner) confirm(ctx context.Context, timeout time.Duration) error {
	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))

	session, err := server.Serve(ctx, r.auth, server.ServeOpts{
		Addr:    addr,
		Timeout: timeout,
		Logger:  r.logger,
		Ready: func(url string) {
			r.writePlain("→ Waiting for the confirmation link on %s (%s timeout)...\n", url, timeout)
		},
	})
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	return r.writePlain("✓ Email confirmed. Signed in as %s\n", session.Email)
}
