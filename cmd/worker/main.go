// Package main is the entry point for the assessment hub worker.
//
// The worker owns the deadline propagation loop: it subscribes the
// event handlers to the in-process bus, so every saved calendar or
// deliberation date immediately re-derives the affected session exam
// deadlines, and it runs a periodic sweep that recomputes deadlines
// for every open submission calendar as a safety net.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/campusops/assessment-hub/config"
	"github.com/campusops/assessment-hub/internal/application/engine"
	"github.com/campusops/assessment-hub/internal/application/eventhandler"
	"github.com/campusops/assessment-hub/internal/application/query"
	"github.com/campusops/assessment-hub/internal/domain/calendar"
	"github.com/campusops/assessment-hub/internal/domain/shared"
	"github.com/campusops/assessment-hub/internal/infrastructure/messaging"
	"github.com/campusops/assessment-hub/internal/infrastructure/persistence/postgres"
	"github.com/campusops/assessment-hub/internal/infrastructure/persistence/redis"
	"github.com/campusops/assessment-hub/internal/infrastructure/scheduler"
	"github.com/campusops/assessment-hub/internal/infrastructure/scheduler/jobs"
	"github.com/campusops/assessment-hub/pkg/logger"
	"github.com/campusops/assessment-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting assessment hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        int32(cfg.Database.MaxOpenConns),
		MinConns:        int32(cfg.Database.MaxIdleConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional snapshot cache)
	// ─────────────────────────────────────────────────────────────────────────
	var deadlineCache *redis.DeadlineCache

	snapshotsEnabled := cfg.Features.IsEnabled(config.FeatureDeadlineSnapshots) && !cfg.Redis.Disabled
	if snapshotsEnabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, snapshot cache disabled", "error", err)
		} else {
			defer redisCache.Close()
			deadlineCache = redis.NewDeadlineCache(redisCache, log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	calendarRepo := postgres.NewCalendarRepository(dbConn)
	offerRepo := postgres.NewOfferRepository(dbConn)
	deadlineRepo := postgres.NewDeadlineRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. DEADLINE ENGINE
	// ─────────────────────────────────────────────────────────────────────────
	var invalidator engine.SnapshotInvalidator
	if deadlineCache != nil {
		invalidator = deadlineCache
	}

	computer := engine.New(calendarRepo, offerRepo, deadlineRepo, invalidator, engine.Config{
		LenientLookup: cfg.Features.IsEnabled(config.FeatureLenientLookup),
		Retrier: retry.New(
			retry.WithMaxAttempts(cfg.Engine.WriteRetryAttempts),
			retry.WithInitialDelay(cfg.Engine.WriteRetryDelay),
			retry.WithRetryIf(func(err error) bool { return !retry.IsPermanent(err) }),
		),
		Logger: log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EVENT BUS AND HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBus := messaging.NewInMemoryEventBus(log)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	onCalendar := eventhandler.NewOnCalendarChangedHandler(calendarRepo, offerRepo, computer, eventBus, log)
	onOfferCalendar := eventhandler.NewOnOfferCalendarChangedHandler(offerRepo, computer, log)
	onDeliberation := eventhandler.NewOnStudentDeliberationChangedHandler(deadlineRepo, computer, log)

	if err := eventhandler.RegisterAll(eventBus, onCalendar, onOfferCalendar, onDeliberation); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureEventAudit) {
		if err := eventBus.SubscribeAll(auditHandler(log)); err != nil {
			return fmt.Errorf("failed to register audit handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. STARTUP REPORT
	// ─────────────────────────────────────────────────────────────────────────
	openCalendarsQuery := query.NewGetOpenCalendarsHandler(calendarRepo, log)
	openNow, err := openCalendarsQuery.Handle(ctx, query.GetOpenCalendarsQuery{
		Reference: calendar.RefScoresExamSubmission,
	})
	if err != nil {
		log.Warn("failed to list open submission calendars", "error", err)
	} else {
		log.Info("open submission calendars", "count", len(openNow))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. PERIODIC RECOMPUTE SWEEP
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Engine.RecomputeInterval > 0 {
		sched := scheduler.New(log)
		sweep := jobs.NewRecomputeSweep(calendarRepo, computer, log)
		if err := sched.Register(sweep, scheduler.Every(cfg.Engine.RecomputeInterval)); err != nil {
			return fmt.Errorf("failed to register recompute sweep: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	} else {
		log.Info("recompute sweep disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("assessment hub worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// auditHandler logs every published event. Wired only when the
// bus.event_audit feature is on.
func auditHandler(log *slog.Logger) shared.EventHandler {
	return func(event shared.Event) error {
		log.Debug("event published",
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
		)
		return nil
	}
}

// setupLogger configures structured logging from the observability
// section. Debug mode forces the debug level regardless of LOG_LEVEL.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Observability.LogLevel
	if cfg.App.Debug {
		level = "debug"
	}
	return logger.Setup(logger.Options{
		Level:  level,
		Format: logger.Format(cfg.Observability.LogFormat),
	})
}
