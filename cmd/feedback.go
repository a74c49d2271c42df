package main

import (
	"context"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/urfave/cli/v3"
)

// Feedback submits the feedback form. The session token is attached when signed in.
func (r *Runner) Feedback(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}

	var token string
	if session, err := r.auth.GetSession(ctx); err != nil {
		r.logger.Warn("sending feedback anonymously", "error", err)
	} else if session != nil {
		token = session.AccessToken
	}

	fb := models.Feedback{
		Name:    cmd.String("name"),
		Email:   cmd.String("email"),
		Message: cmd.String("message"),
		Rating:  int(cmd.Int("rating")),
	}
	msg, err := r.catalog.SubmitFeedback(ctx, token, fb)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg)
}
