// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/remote-jobs-harvester/internal/api"
	"github.com/JakeFAU/remote-jobs-harvester/internal/browser"
	"github.com/JakeFAU/remote-jobs-harvester/internal/clock/system"
	"github.com/JakeFAU/remote-jobs-harvester/internal/config"
	"github.com/JakeFAU/remote-jobs-harvester/internal/extract"
	"github.com/JakeFAU/remote-jobs-harvester/internal/harvest"
	"github.com/JakeFAU/remote-jobs-harvester/internal/logging"
	"github.com/JakeFAU/remote-jobs-harvester/internal/metrics"
	"github.com/JakeFAU/remote-jobs-harvester/internal/persist"
	"github.com/JakeFAU/remote-jobs-harvester/internal/publisher/pubsub"
	"github.com/JakeFAU/remote-jobs-harvester/internal/sitemap"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage/gcs"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage/local"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage/memory"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage/postgres"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage/sqlite"
)

// Publisher announces persisted listings and releases its connection on Close.
type Publisher interface {
	harvest.Publisher
	Close() error
}

// Browser loads listing pages until it is closed.
type Browser interface {
	extract.Loader
	Close()
}

// App holds the shared, long-lived services for one process: configuration,
// logger, listing store, optional publisher and clock. It is built once at
// startup and handed to the commands.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     storage.JobStore
	publisher Publisher
	clock     *system.Clock
}

// New builds every service described by cfg and fails fast when one cannot be
// initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.NewWithFile(cfg.Logging.Development, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	var pub Publisher
	if cfg.PubSub.TopicName != "" {
		logger.Info("connecting to pub/sub", zap.String("topic", cfg.PubSub.TopicName))
		pub, err = pubsub.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("init publisher: %w", err)
		}
	}

	logger.Info("application services initialized", zap.String("storage_backend", cfg.Storage.Backend))
	return NewWithServices(cfg, logger, store, pub), nil
}

// NewWithServices assembles an App from already constructed services. pub may
// be nil.
func NewWithServices(cfg config.Config, logger *zap.Logger, store storage.JobStore, pub Publisher) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		publisher: pub,
		clock:     system.New(),
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.JobStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage; listings are discarded on exit")
		return memory.NewJobStore(), nil
	case config.BackendSQLite:
		logger.Info("opening sqlite store", zap.String("path", cfg.Storage.SQLitePath))
		store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return store, nil
	case config.BackendPostgres:
		logger.Info("connecting to postgres", zap.String("table", cfg.DB.Table))
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.DB.DSN,
			Table:    cfg.DB.Table,
			MaxConns: int32(cfg.DB.MaxConns), //nolint:gosec // bounded by config validation
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return store, nil
	case config.BackendLocal:
		logger.Info("using filesystem store", zap.String("dir", cfg.Storage.LocalDir))
		store, err := local.New(local.Config{BaseDir: cfg.Storage.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("init local store: %w", err)
		}
		return store, nil
	case config.BackendGCS:
		logger.Info("using gcs store", zap.String("bucket", cfg.Storage.GCSBucket))
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Storage.GCSBucket, Prefix: cfg.Storage.GCSPrefix})
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("init gcs store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store returns the configured listing store.
func (a *App) Store() storage.JobStore {
	return a.store
}

// OpenBrowser launches the headless page loader. Callers own the session and
// must Close it.
func (a *App) OpenBrowser() (Browser, error) {
	b := a.cfg.Browser
	session, err := browser.NewSession(browser.Config{
		PrimaryMarker:     b.PrimaryMarker,
		FallbackMarker:    b.FallbackMarker,
		PrimaryWait:       time.Duration(b.PrimaryWaitSeconds) * time.Second,
		FallbackWait:      time.Duration(b.FallbackWaitSeconds) * time.Second,
		NavigationTimeout: time.Duration(b.NavTimeoutSeconds) * time.Second,
		UserAgent:         b.UserAgent,
		WindowWidth:       b.WindowWidth,
		WindowHeight:      b.WindowHeight,
	}, a.logger.Named("browser"))
	if err != nil {
		return nil, fmt.Errorf("open browser: %w", err)
	}
	return session, nil
}

// NewHarvester wires the harvesting pipeline around loader. delay is the
// pause between loaded listing pages.
func (a *App) NewHarvester(loader extract.Loader, delay time.Duration) *harvest.Harvester {
	h := a.cfg.Harvest
	crawler := sitemap.New(
		sitemap.NewCollyFetcher(sitemap.FetcherConfig{
			UserAgent:     a.cfg.Sitemap.UserAgent,
			Timeout:       a.cfg.Sitemap.Timeout(),
			RespectRobots: a.cfg.Sitemap.RespectRobots,
		}),
		h.ListingsMarker,
		a.logger.Named("sitemap"),
	)
	builder := extract.NewBuilder(loader, h.SourceName, a.logger.Named("extract"))
	gate := persist.NewGate(a.store, a.clock, a.logger.Named("persist"))

	var opts []harvest.Option
	if a.publisher != nil {
		opts = append(opts, harvest.WithPublisher(a.publisher))
	}
	return harvest.New(crawler, builder, gate, harvest.Config{
		Delay:         delay,
		ProgressEvery: h.ProgressEvery,
		SummaryEvery:  h.SummaryEvery,
	}, a.logger.Named("harvest"), opts...)
}

// NewAPIServer builds the query service over the configured store.
func (a *App) NewAPIServer() *api.Server {
	return api.NewServer(a.store, a.clock, a.cfg, a.logger.Named("api"))
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("error closing publisher", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("error closing store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
