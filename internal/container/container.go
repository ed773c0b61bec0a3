package container

import (
	"context"
	"fmt"
	"strings"

	"centerout/adapters/clock"
	"centerout/adapters/export"
	"centerout/adapters/feed"
	"centerout/adapters/ledger"
	"centerout/adapters/targetctl"
	"centerout/app"
	"centerout/internal"
	"centerout/internal/api"
	"centerout/internal/config"
	"centerout/internal/params"
	"centerout/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Params params.Params
	Logger *internal.Logger

	// Infrastructure
	DB    *sqlx.DB
	Clock ports.Clock

	// Repositories (data access layer)
	Attempts *ledger.AttemptRepository

	// Task components
	SSEHub   *api.SSEHub
	Task     *app.TaskService
	API      *api.Server
	Targets  *targetctl.Client
	Advancer *targetctl.Advancer
	Sources  []ports.SampleSource
}

// New creates a new dependency injection container
func New(cfg *config.Config, p params.Params) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Container{
		Config: cfg,
		Params: p,
		Logger: internal.DefaultLogger,
		Clock:  clock.NewSystem(),
	}, nil
}

// InitWithDatabase wires every component around an open ledger database
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db
	c.Attempts = ledger.NewAttemptRepository(db)

	if err := c.initTask(); err != nil {
		return fmt.Errorf("failed to initialize task components: %w", err)
	}
	c.initSources()

	c.Logger.Debug("container initialized: %d sample sources", len(c.Sources))
	return nil
}

// initTask builds the task service and the HTTP surface around it
func (c *Container) initTask() error {
	c.SSEHub = api.NewSSEHub(c.Logger)

	deps := app.TaskDeps{
		Clock:  c.Clock,
		Ledger: c.Attempts,
		Exporter: export.Multi{
			export.CSVExporter{Dir: c.Config.Paths.ExportDir, Prefix: c.Params.Subject},
			export.XLSXExporter{Dir: c.Config.Paths.ExportDir, Prefix: c.Params.Subject},
		},
		Logger: c.Logger,
	}

	publishers := api.Publishers{c.SSEHub}
	if c.Config.Targets.URL != "" {
		c.Targets = targetctl.NewClient(c.Config.Targets.URL, c.Config.Targets.Timeout)
		c.Advancer = targetctl.NewAdvancer(c.Targets, c.Logger)
		deps.Targets = c.Targets
		publishers = append(publishers, c.Advancer)
	}
	deps.Events = publishers

	task, err := app.NewTaskService(c.Params, deps)
	if err != nil {
		return err
	}
	c.Task = task
	c.API = api.NewServer(task, c.Attempts, c.SSEHub, c.Clock, c.Logger)
	return nil
}

// initSources registers the websocket feeds the task listens to
func (c *Container) initSources() {
	c.Sources = nil
	if c.Config.Feed.URL != "" {
		c.Sources = append(c.Sources, feed.NewClient(c.Config.Feed.URL, c.Clock, c.Config.Feed.ReconnectDelay))
	}
	if c.Config.Targets.URL != "" {
		// target hints pushed by targetd arrive as tgt packets
		c.Sources = append(c.Sources, feed.NewClient(wsURL(c.Config.Targets.URL)+"/ws", c.Clock, c.Config.Feed.ReconnectDelay))
	}
}

// Shutdown closes the running session, then the hub and the database
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Task != nil && c.Task.Status().Session.Running {
		if path, err := c.Task.EndSession(ctx); err != nil {
			c.Logger.Error("failed to close session: %v", err)
		} else {
			c.Logger.Info("session closed on shutdown, rows in %s", path)
		}
	}
	if c.SSEHub != nil {
		c.SSEHub.Close()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// OpenLedger opens the configured ledger database
func (c *Container) OpenLedger(ctx context.Context) (*sqlx.DB, error) {
	return ledger.Open(ctx, c.Config.Ledger.DSN)
}

func wsURL(httpURL string) string {
	u := strings.TrimRight(httpURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
