// Package app builds the process object graph from configuration. Every
// command shares it so the server, the seeder and the demo run against the
// same stores and audit client.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"aidledger/internal/auditlog"
	auditkafka "aidledger/internal/auditlog/kafka"
	"aidledger/internal/auditlog/memory"
	"aidledger/internal/auditlog/verifycache"
	httpapi "aidledger/internal/http"
	ledgerhandler "aidledger/internal/ledger/handler"
	ledgermetrics "aidledger/internal/ledger/metrics"
	ledgerservice "aidledger/internal/ledger/service"
	"aidledger/internal/ledger/store"
	"aidledger/internal/platform/config"
	"aidledger/internal/platform/database"
	"aidledger/internal/platform/kafka"
	platformredis "aidledger/internal/platform/redis"
	ratelimitmw "aidledger/internal/ratelimit/middleware"
	"aidledger/internal/ratelimit/store/bucket"
	registryhandler "aidledger/internal/registry/handler"
	registryservice "aidledger/internal/registry/service"
	"aidledger/pkg/platform/circuit"
)

// Store is implemented by both the in-memory and PostgreSQL backends.
type Store interface {
	registryservice.PartyStore
	ledgerservice.PartyReader
	ledgerservice.LedgerStore
}

type auditBackend interface {
	auditlog.Client
	auditlog.Verifier
}

// App holds the wired services and the resources they own.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *prometheus.Registry
	Store    Store
	Registry *registryservice.Service
	Recorder *ledgerservice.Recorder
	Reader   *ledgerservice.Projector

	db     *sql.DB
	kafka  *kgo.Client
	redis  *platformredis.Client
	checks map[string]httpapi.HealthCheck
	limits *ratelimitmw.Middleware
}

// Build connects to every configured backend. Missing DATABASE_URL or
// KAFKA_BROKERS fall back to in-process implementations.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: reg,
		checks:  make(map[string]httpapi.HealthCheck),
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.buildStore(ctx); err != nil {
		return nil, err
	}
	audit, err := a.buildAudit(ctx)
	if err != nil {
		return nil, err
	}
	verifier, err := a.buildVerifier(ctx, audit)
	if err != nil {
		return nil, err
	}

	a.buildRateLimit()

	breaker := circuit.New("audit-log",
		circuit.WithFailureThreshold(cfg.Audit.BreakerThreshold),
		circuit.WithCooldown(cfg.Audit.BreakerCooldown),
	)

	a.Registry, err = registryservice.New(a.Store, registryservice.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	a.Recorder, err = ledgerservice.NewRecorder(a.Store, a.Store,
		auditlog.NewGuarded(audit, breaker, logger),
		ledgerservice.WithLogger(logger),
		ledgerservice.WithMetrics(ledgermetrics.New(reg)),
		ledgerservice.WithSubmitTimeout(cfg.Audit.SubmitTimeout),
	)
	if err != nil {
		return nil, err
	}
	a.Reader, err = ledgerservice.NewProjector(a.Store, a.Store,
		ledgerservice.WithVerifier(verifier),
		ledgerservice.WithProjectorLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) buildStore(ctx context.Context) error {
	if a.Config.Database.URL == "" {
		a.Logger.Warn("DATABASE_URL not set, using in-memory stores")
		a.Store = store.NewInMemory()
		return nil
	}

	db, err := database.New(ctx, a.Config.Database)
	if err != nil {
		return err
	}
	a.db = db
	if a.Config.Database.RunMigrations {
		if err := database.Migrate(db); err != nil {
			return err
		}
		a.Logger.Info("database migrations applied")
	}
	a.Store = store.NewPostgres(db)
	a.checks["database"] = db.PingContext
	return nil
}

func (a *App) buildAudit(ctx context.Context) (auditBackend, error) {
	cfg := a.Config.Audit
	if cfg.Topic == "" {
		a.Logger.Warn("AUDIT_TOPIC not set, transfers will fail with audit_misconfigured")
	}
	if !cfg.KafkaEnabled() {
		a.Logger.Warn("KAFKA_BROKERS not set, using in-memory audit log")
		return memory.New(cfg.Topic), nil
	}

	cl, err := kafka.NewClient(ctx, kafka.Config{
		Brokers:         cfg.Brokers,
		ClientID:        cfg.ClientID,
		DeliveryTimeout: cfg.SubmitTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.kafka = cl
	a.checks["kafka"] = cl.Ping

	if cfg.Topic != "" {
		exists, err := kafka.TopicExists(ctx, kadm.NewClient(cl), cfg.Topic)
		switch {
		case err != nil:
			a.Logger.Warn("could not check audit topic", "topic", cfg.Topic, "error", err)
		case !exists:
			a.Logger.Warn("audit topic does not exist, run init-topic", "topic", cfg.Topic)
		}
	}

	return auditkafka.New(cl, cfg.Topic,
		auditkafka.WithLogger(a.Logger),
		auditkafka.WithSeeds(cfg.Brokers...),
		auditkafka.WithVerifyTimeout(cfg.VerifyTimeout),
	), nil
}

func (a *App) buildVerifier(ctx context.Context, next auditlog.Verifier) (auditlog.Verifier, error) {
	rdb, err := platformredis.New(ctx, a.Config.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if rdb == nil {
		return next, nil
	}
	a.redis = rdb
	a.checks["redis"] = rdb.Health
	return verifycache.New(next, rdb, a.Config.Redis.VerifyTTL, a.Logger), nil
}

// buildRateLimit shares counters through Redis when it is configured.
func (a *App) buildRateLimit() {
	cfg := a.Config.RateLimit
	var store ratelimitmw.BucketStore = bucket.NewInMemoryBucketStore()
	if a.redis != nil {
		store = bucket.NewRedisBucketStore(a.redis)
	}
	a.limits = ratelimitmw.New(store, cfg.Writes, cfg.Window, a.Logger,
		ratelimitmw.WithDisabled(cfg.Disabled || cfg.Writes <= 0))
}

// Handler returns the full HTTP surface.
func (a *App) Handler() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Logger:      a.Logger,
		Registry:    a.Metrics,
		Checks:      a.checks,
		CORSOrigins: a.Config.Server.CORSOrigins,
		SeparateOps: a.Config.Server.OpsAddr != "",
		Modules: []httpapi.Registrar{
			registryhandler.New(a.Registry, a.Logger),
			ledgerhandler.New(a.Recorder, a.Reader, a.Logger,
				ledgerhandler.WithWriteMiddleware(a.limits.RateLimit("transfers"))),
		},
	})
}

// OpsHandler serves /metrics and /healthz for the ops listener.
func (a *App) OpsHandler() http.Handler {
	return httpapi.NewOpsRouter(httpapi.Deps{
		Logger:   a.Logger,
		Registry: a.Metrics,
		Checks:   a.checks,
	})
}

// Redis returns the shared Redis client, or nil when none is configured.
func (a *App) Redis() *platformredis.Client {
	return a.redis
}

// Close releases every backend connection. It is safe on a partially built App.
func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.Logger.Warn("closing database", "error", err)
		}
	}
}
