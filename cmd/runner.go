package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/pipeline"
	"github.com/desertthunder/vtx/internal/repositories"
	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/session"
	"github.com/desertthunder/vtx/internal/shared"
	"github.com/desertthunder/vtx/internal/store"
	"github.com/desertthunder/vtx/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      *store.Store
	httpClient *http.Client
	pipeline   *pipeline.Pipeline
	session    *session.Manager
	services   *services.Services
	engine     *tasks.ExportEngine
	logger     *log.Logger
	output     io.Writer
	notices    io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Store      *store.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Notices    io.Writer
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
	if opts.Notices == nil {
		opts.Notices = os.Stderr
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		notices:    opts.Notices,
	}
	r.wire()
	return r
}

// wire builds the pipeline, services, session and export engine from the current
// config, store and client.
func (r *Runner) wire() {
	nav := &cliNavigator{w: r.notices, logger: r.logger}

	r.pipeline = pipeline.New(r.store, pipeline.Options{
		BaseURL:   r.config.API.BaseURL,
		Client:    r.httpClient,
		UserAgent: r.config.API.UserAgent,
		Logger:    shared.WithLogger(r.logger, "component", "pipeline"),
		Navigator: nav,
	})
	r.services = services.New(r.pipeline, r.config.API.BaseURL)
	r.session = session.New(r.store, session.Options{
		Users:     r.services.Users,
		Logout:    r.services.Users,
		Navigator: nav,
		Logger:    shared.WithLogger(r.logger, "component", "session"),
	})
	r.pipeline.OnSessionExpired(r.session.Expire)

	var runs models.Repository[*models.ExportRun]
	if r.db != nil {
		runs = repositories.NewExportRunRepository(r.db)
	}
	r.engine = tasks.NewExportEngine(runs, shared.WithLogger(r.logger, "component", "export"))
}

// Before loads the config named by --config, opens the credential store and rewires
// the runner. A missing config file falls back to the embedded defaults.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		path = shared.DefaultConfigPath()
	}
	r.configPath = path

	config, err := shared.LoadConfig(path)
	switch {
	case err == nil:
		r.config = config
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", path)
		r.config = shared.DefaultConfig()
	default:
		return ctx, err
	}

	if err := r.openStore(); err != nil {
		return ctx, err
	}
	r.wire()
	return ctx, nil
}

// openStore opens the SQLite credential store and, when enabled, the cookie mirror.
// A database that cannot be opened leaves the process with an in-memory store.
func (r *Runner) openStore() error {
	var opts []store.Option
	opts = append(opts, store.WithLogger(shared.WithLogger(r.logger, "component", "store")))

	db, err := shared.OpenStoreDatabase(r.config.Store.Path, r.config.Store.MaxOpenConns, r.config.Store.MaxIdleConns)
	if err != nil {
		r.logger.Warn("credential store unavailable, sign-in will not persist", "path", r.config.Store.Path, "error", err)
		opts = append(opts, store.WithDurable(store.NewMemoryBackend()))
	} else {
		r.db = db
		opts = append(opts, store.WithDurable(store.NewDurableBackend(repositories.NewCredentialRepository(db))))
	}

	client := &http.Client{Timeout: r.config.API.Timeout()}
	if r.config.Store.Cookies {
		jar, err := store.NewCookieJar()
		if err != nil {
			return err
		}
		cookies, err := store.NewCookieBackend(jar, r.config.API.BaseURL)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		client.Jar = jar
		opts = append(opts, store.WithCookies(cookies))
	}

	r.store = store.New(opts...)
	r.httpClient = client
	return nil
}

// After closes the credential store.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases the database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger and rewires every component with it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

// requireUser resolves the session and fails when nobody is signed in.
func (r *Runner) requireUser(ctx context.Context) (*models.User, error) {
	snap := r.session.Init(ctx, session.HomeRoute)
	if snap.State != session.StateAuthenticated || snap.User == nil {
		return nil, fmt.Errorf("%w: run 'vtx auth login' first", shared.ErrNotAuthenticated)
	}
	return snap.User, nil
}

// cliNavigator turns redirects into hints on the notice stream.
type cliNavigator struct {
	w      io.Writer
	logger *log.Logger
}

func (n *cliNavigator) Navigate(path string) {
	switch path {
	case session.LoginRoute:
		fmt.Fprintln(n.w, "Your session has ended. Run 'vtx auth login' to sign in again.")
	default:
		n.logger.Debug("navigate", "path", path)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, videosCommand, channelCommand, subscriptionsCommand,
		historyCommand, adminCommand, apiCommand, proxyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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
