package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/flickx/internal/discover"
	"github.com/desertthunder/flickx/internal/formatter"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search runs a free-text search.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	q := cmd.StringArg("query")
	return r.runIntent(ctx, cmd, discover.FreeText(q), fmt.Sprintf("Search: %s", q))
}

// Genre browses a genre.
func (r *Runner) Genre(ctx context.Context, cmd *cli.Command) error {
	g := cmd.StringArg("genre")
	return r.runIntent(ctx, cmd, discover.Genre(g), fmt.Sprintf("Genre: %s", g))
}

// Mood asks for recommendations for a mood.
func (r *Runner) Mood(ctx context.Context, cmd *cli.Command) error {
	m := cmd.StringArg("mood")
	return r.runIntent(ctx, cmd, discover.Mood(m), fmt.Sprintf("Mood: %s", m))
}

// Trending lists trending movies.
func (r *Runner) Trending(ctx context.Context, cmd *cli.Command) error {
	return r.runIntent(ctx, cmd, discover.Trending(), "Trending movies")
}

// Recent lists recent releases.
func (r *Runner) Recent(ctx context.Context, cmd *cli.Command) error {
	return r.runIntent(ctx, cmd, discover.Recent(), "Recent releases")
}

// Personal shows the signed-in user's recommendations.
func (r *Runner) Personal(ctx context.Context, cmd *cli.Command) error {
	return r.runIntent(ctx, cmd, discover.Personal(), "Recommended for you")
}

// runIntent dispatches intent through a headless app and prints the cards it renders.
func (r *Runner) runIntent(ctx context.Context, cmd *cli.Command, intent discover.Intent, title string) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	app := r.newApp()
	defer func() {
		app.Close()
		app.Wait()
	}()

	if intent.Kind == discover.PersonalIntent {
		if err := app.Session.Restore(ctx); err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}
	}

	req, err := app.Dispatch(ctx, intent)
	if err != nil {
		if msg := app.Page.Text(discover.IDStatus); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}

	select {
	case <-req.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	st := req.State()
	r.logger.Debug("dispatch finished", "state", st.String())
	if st.Status == discover.Failed {
		return fmt.Errorf("%s: %w", strings.TrimSpace(app.Page.Text(discover.IDResults)), st.Err)
	}

	movies := app.Page.Results()
	if len(movies) == 0 {
		return r.writePlain("%s\n", app.Page.Text(discover.IDResults))
	}

	if intent.Kind == discover.PersonalIntent {
		if stats := app.Page.Text(discover.IDPersonalStats); stats != "" {
			title = fmt.Sprintf("%s (%s)", title, stats)
		}
	}

	return r.export(cmd, format, title, movies)
}

func (r *Runner) export(cmd *cli.Command, format formatter.Format, title string, movies []models.MovieDetail) error {
	if dir := cmd.String("export-dir"); dir != "" {
		result, err := formatter.WriteMarkdownExport(title, movies, dir, cmd.Bool("posters"))
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn("poster skipped", "error", w)
		}
		return r.writePlain("✓ Exported %d movies (%d posters) to %s\n", len(movies), result.Posters, result.Directory)
	}

	data, err := formatter.ExportMovies(format, title, movies)
	if err != nil {
		return err
	}
	return formatter.WriteFile(r.output, cmd.String("output"), data)
}

// Details prints every detail field of one movie.
func (r *Runner) Details(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	id, title := strings.TrimSpace(cmd.StringArg("id")), strings.TrimSpace(cmd.String("title"))
	if id == "" && title == "" {
		return fmt.Errorf("%w: an IMDb id or --title is required", shared.ErrMissingArgument)
	}
	if err := r.connect(); err != nil {
		return err
	}

	var d *models.MovieDetail
	if id != "" {
		d, err = r.catalog.Detail(ctx, id)
	} else {
		d, err = r.catalog.LookupTitle(ctx, title)
	}
	if errors.Is(err, shared.ErrMovieNotFound) {
		return fmt.Errorf("%w: %s", err, discover.MsgDetailNotFound)
	}
	if err != nil {
		return err
	}

	if name := cmd.String("open"); name != "" {
		return r.openLink(d, name)
	}

	data, err := formatter.ExportDetail(format, d)
	if err != nil {
		return err
	}
	return formatter.WriteFile(r.output, cmd.String("output"), data)
}

func (r *Runner) openLink(d *models.MovieDetail, name string) error {
	for _, l := range d.Links() {
		if strings.EqualFold(l.Name, name) {
			if r.opener == nil {
				return r.writePlain("%s\n", l.URL)
			}
			if err := r.opener(l.URL); err != nil {
				r.logger.Warn("failed to open browser automatically", "error", err)
				return r.writePlain("Open this URL in your browser:\n%s\n", l.URL)
			}
			return r.writePlain("→ Opened %s for %s\n", l.Name, d.Title)
		}
	}
	return fmt.Errorf("%w: no %q link for %s", shared.ErrInvalidArgument, name, d.Title)
}

// Track records one interaction for the signed-in user.
func (r *Runner) Track(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: an IMDb id is required", shared.ErrMissingArgument)
	}
	kind, err := models.ParseInteractionKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	if err := r.connect(); err != nil {
		return err
	}

	session, err := r.auth.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return shared.ErrNotAuthenticated
	}

	rec := models.Interaction{
		MovieTitle:  cmd.String("title"),
		IMDbID:      id,
		Kind:        kind,
		MoodContext: cmd.String("mood"),
	}
	if err := r.catalog.Track(ctx, session.AccessToken, rec); err != nil {
		return fmt.Errorf("failed to track interaction: %w", err)
	}
	return r.writePlain("✓ Recorded %s for %s\n", kind, rec.MovieTitle)
}
