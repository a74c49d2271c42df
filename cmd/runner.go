package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/discover"
	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/repositories"
	"github.com/desertthunder/flickx/internal/server"
	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Catalog is the backend surface the commands use.
type Catalog interface {
	discover.Catalog
	SubmitFeedback(ctx context.Context, token string, fb models.Feedback) (string, error)
}

// Auth is the auth provider surface the commands use.
type Auth interface {
	services.AuthProvider
	server.CodeExchanger
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The backend and auth clients are built on first use so that commands like setup work
// without a complete configuration.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    Catalog
	auth       Auth
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	opener     shared.Opener

	closeOnce sync.Once
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    Catalog
	Auth       Auth
	Logger     *log.Logger
	Output     io.Writer
	Opener     shared.Opener
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		auth:       opts.Auth,
		logger:     opts.Logger,
		output:     opts.Output,
		opener:     opts.Opener,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, genreCommand, moodCommand, trendingCommand, recentCommand,
		personalCommand, detailsCommand, trackCommand, authCommand, feedbackCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger. Clients built afterwards log through it.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the session database, if one was opened.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		if r.db != nil {
			if err := r.db.Close(); err != nil {
				r.logger.Warn("failed to close database", "error", err)
			}
		}
	})
}

// connect builds the backend and auth clients that were not injected.
//
// The auth session and the pending PKCE verifier persist in sqlite so that separate
// invocations share them.
func (r *Runner) connect() error {
	if r.catalog == nil {
		if r.config.Backend.BaseURL == "" {
			return fmt.Errorf("%w: backend.base_url is required", shared.ErrMissingConfig)
		}
		catalog, _, err := services.NewCatalogFromConfig(r.config.Backend, shared.WithLogger(r.logger, "component", "backend"))
		if err != nil {
			return err
		}
		r.catalog = catalog
	}

	if r.auth == nil {
		if err := r.config.Validate(); err != nil {
			return err
		}
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open session database: %w", err)
		}
		r.db = db
		store := repositories.NewSessionRepository(db)
		r.auth = services.NewGoTrueService(r.config.Auth, nil, store, r.logger)
	}

	return nil
}

// newApp builds a discovery app over the runner's clients. Callers must Close and Wait it.
func (r *Runner) newApp() *discover.App {
	return discover.New(discover.Deps{
		Catalog: r.catalog,
		Auth:    r.auth,
		Logger:  r.logger,
		Opener:  r.opener,
		UI:      r.config.UI,
	})
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
