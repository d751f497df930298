// Package control wires configuration into the running service and owns the
// component lifecycle: storage, artifact store, per-account engine bundles,
// metrics sync workers and the ops server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/adsctl/optimizer/internal/core/config"
	"github.com/adsctl/optimizer/internal/core/worker"
	"github.com/adsctl/optimizer/internal/infra/ads"
	redisclient "github.com/adsctl/optimizer/internal/infra/redis"
	"github.com/adsctl/optimizer/internal/infra/storage"
	"github.com/adsctl/optimizer/internal/infra/storage/memory"
	"github.com/adsctl/optimizer/internal/infra/storage/postgres"
	"github.com/adsctl/optimizer/internal/ops"
	"github.com/adsctl/optimizer/internal/optimize"
	"github.com/adsctl/optimizer/internal/optimize/model"
	"github.com/adsctl/optimizer/internal/syncer"
	"github.com/adsctl/optimizer/migrations"
)

// Optimizer is the main application struct. It holds the shared storage and
// artifact layers plus one bundle per managed account.
type Optimizer struct {
	cfg       *config.AppConfig
	registry  *Registry
	metrics   storage.MetricsRepository
	recs      storage.RecommendationRepository
	artifacts model.ArtifactStore
	pruners   map[string]*worker.Pruner
	db        *postgres.DB
	redis     *redisclient.Client
	opsServer *ops.Server
	log       *slog.Logger
}

// New creates an Optimizer with all dependencies initialized.
func New(cfg *config.AppConfig) (*Optimizer, error) {
	o := &Optimizer{cfg: cfg, log: slog.Default()}

	// 1. Initialize Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := Migrate(db); err != nil {
			return nil, err
		}

		o.db = db
		o.metrics = postgres.NewMetricsRepo(db)
		o.recs = postgres.NewRecommendationRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		o.metrics = memory.NewMetricsRepo(store)
		o.recs = memory.NewRecommendationRepo(store)
		slog.Info("Using Memory storage")
	}

	// 2. Initialize Artifact Store
	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		o.redis = client
		o.artifacts = redisclient.NewArtifactStore(client)
		slog.Info("Using Redis artifact store")
	} else {
		o.artifacts = model.NewMemoryStore()
		slog.Info("Using Memory artifact store")
	}

	// 3. Build the Account Registry
	o.registry = NewRegistry(o.buildAccount)
	o.pruners = make(map[string]*worker.Pruner)
	for _, acct := range cfg.Accounts {
		if _, err := o.registry.Register(acct.ID, acct.Name); err != nil {
			return nil, fmt.Errorf("failed to register account %s: %w", acct.ID, err)
		}
		if cfg.Optimizer.RetentionDays > 0 {
			o.pruners[acct.ID] = worker.NewPruner(acct.ID, cfg.Optimizer.Retention(), o.metrics, o.recs)
		}
	}

	// 4. Initialize Ops Monitor and Server
	monitor := ops.NewMonitor()
	if o.db != nil {
		monitor.Register("database", o.db.Health)
	}
	if o.redis != nil {
		monitor.Register("redis", o.redis.Health)
	}
	o.opsServer = ops.NewServer(monitor, o.registry, cfg.Server.Port)

	return o, nil
}

// Migrate applies pending migrations from the embedded FS.
// Note: Goose needs the direct *sql.DB which sqlx.DB wraps.
func Migrate(db *postgres.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db.DB.DB, "."); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// buildAccount wires the bundle for one account: a rate limiter and executor
// shared by every call for that account, the REST source (which doubles as
// the change applier), a model engine and a sync worker.
func (o *Optimizer) buildAccount(id, name string) (*Account, error) {
	limiter := ads.NewRateLimiter(o.cfg.Ads.RequestsPerSecond, o.cfg.Ads.BurstSize)
	exec := ads.NewExecutor(id, limiter, ads.RetryConfig{
		MaxRetries:    o.cfg.Ads.MaxRetries,
		BaseDelay:     o.cfg.Ads.RetryDelay(),
		BackoffFactor: o.cfg.Ads.BackoffFactor,
	}, o.log)

	source := ads.NewHTTPSource(ads.SourceConfig{
		Endpoint:       o.cfg.Ads.Endpoint,
		AccountID:      id,
		DeveloperToken: o.cfg.Ads.DeveloperToken,
		PageSize:       o.cfg.Ads.PageSize,
	})

	return &Account{
		ID:       id,
		Name:     name,
		Executor: exec,
		Source:   source,
		Applier:  source,
		Engine:   optimize.NewEngine(id, exec, source, o.log),
		Syncer: syncer.New(syncer.Config{
			AccountID: id,
			Lookback:  o.cfg.Optimizer.Lookback(),
			Interval:  o.cfg.Sync.Interval(),
			Source:    source,
			Executor:  exec,
			Metrics:   o.metrics,
			Logger:    o.log,
		}),
	}, nil
}

// Registry returns the account registry.
func (o *Optimizer) Registry() *Registry {
	return o.registry
}

// Start launches the ops server and, when sync is enabled, the per-account
// mirror loops. It returns immediately; components run until ctx is
// cancelled or Stop is called.
func (o *Optimizer) Start(ctx context.Context) error {
	// Start Ops Server
	go func() {
		if err := o.opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.log.Error("Ops server failed", "error", err)
		}
	}()

	// Start Sync Workers
	if o.cfg.Sync.Enabled {
		for _, acct := range o.registry.All() {
			o.log.Info("Starting metrics sync", "account", acct.ID)
			go func(a *Account) {
				if err := a.Syncer.Start(ctx); err != nil {
					o.log.Error("Metrics sync failed", "account", a.ID, "error", err)
				}
			}(acct)
		}
	}

	// Start Pruners
	for id, p := range o.pruners {
		o.log.Info("Starting pruner", "account", id)
		go p.Start(ctx)
	}

	return nil
}

// Stop stops the optimizer: sync workers first, then connections, then the
// ops server.
func (o *Optimizer) Stop(ctx context.Context) error {
	o.log.Info("Stopping optimizer...")

	// Stop Sync Workers
	for _, acct := range o.registry.All() {
		acct.Syncer.Stop()
	}

	// Close Redis
	if o.redis != nil {
		if err := o.redis.Close(); err != nil {
			o.log.Warn("Failed to close Redis", "error", err)
		}
	}

	// Close Database
	if o.db != nil {
		if err := o.db.Close(); err != nil {
			o.log.Warn("Failed to close database", "error", err)
		}
	}

	// Stop Ops Server
	return o.opsServer.Stop(ctx)
}
