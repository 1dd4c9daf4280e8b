package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	accessHandler "carewatch/internal/access/handler"
	advisorClient "carewatch/internal/advisor/client"
	advisorHandler "carewatch/internal/advisor/handler"
	advisorMetrics "carewatch/internal/advisor/metrics"
	advisorService "carewatch/internal/advisor/service"
	allocationHandler "carewatch/internal/allocation/handler"
	allocationMetrics "carewatch/internal/allocation/metrics"
	allocationService "carewatch/internal/allocation/service"
	allocationStore "carewatch/internal/allocation/store"
	bookingHandler "carewatch/internal/booking/handler"
	bookingMetrics "carewatch/internal/booking/metrics"
	bookingService "carewatch/internal/booking/service"
	bookingStore "carewatch/internal/booking/store"
	catalogHandler "carewatch/internal/catalog/handler"
	catalogService "carewatch/internal/catalog/service"
	catalogStore "carewatch/internal/catalog/store"
	donationHandler "carewatch/internal/donation/handler"
	donationMetrics "carewatch/internal/donation/metrics"
	"carewatch/internal/donation/receipt"
	donationService "carewatch/internal/donation/service"
	donationStore "carewatch/internal/donation/store"
	"carewatch/internal/jobs"
	"carewatch/internal/platform/config"
	"carewatch/internal/platform/kafka"
	"carewatch/internal/platform/metrics"
	"carewatch/internal/platform/postgres"
	"carewatch/internal/platform/redis"
	rateLimitMetrics "carewatch/internal/ratelimit/metrics"
	rateLimitMiddleware "carewatch/internal/ratelimit/middleware"
	rateLimitModels "carewatch/internal/ratelimit/models"
	"carewatch/internal/ratelimit/store/bucket"
	"carewatch/internal/storage"
	httptransport "carewatch/internal/transport/http"
	audit "carewatch/pkg/platform/audit"
	"carewatch/pkg/platform/audit/publisher"
	kafkaaudit "carewatch/pkg/platform/audit/store/kafka"
	auditmemory "carewatch/pkg/platform/audit/store/memory"
	postgresaudit "carewatch/pkg/platform/audit/store/postgres"
	"carewatch/pkg/platform/tx"
)

const auditBufferSize = 1024

type app struct {
	router    http.Handler
	scheduler *jobs.Scheduler
	closers   []func()
}

// close releases resources in reverse acquisition order. It is safe to call twice.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// build selects a backend per concern: Postgres when DATABASE_URL is set,
// Redis for bookings when REDIS_URL is set, the filesystem for proofs when
// PROOF_DIR is set, and Kafka for audit when brokers are configured. Anything
// unconfigured stays in memory.
func build(ctx context.Context, cfg config.Server, logger *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	health := map[string]httptransport.HealthCheck{}

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err = postgres.Migrate(ctx, db); err != nil {
			return nil, err
		}
		health["postgres"] = db.PingContext
		logger.Info("using postgres stores")
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		health["redis"] = rdb.Health
		logger.Info("using redis booking store")
	}

	auditPublisher, err := buildAudit(ctx, cfg.Audit, db, reg, logger, a)
	if err != nil {
		return nil, err
	}

	var proofs allocationService.ProofStore = storage.NewInMemory()
	if cfg.Proof.Dir != "" {
		fs, err := storage.NewFileSystem(cfg.Proof.Dir)
		if err != nil {
			return nil, err
		}
		proofs = fs
		logger.Info("storing proofs on disk", "dir", fs.Root())
	}

	catalog := catalogService.New(catalogStore.NewSeeded())

	var donations donationService.Store = donationStore.NewInMemory()
	var allocations allocationService.Store = allocationStore.NewInMemory()
	var bookings bookingService.Store = bookingStore.NewInMemory()
	if db != nil {
		donations = donationStore.NewPostgres(db)
		allocations = allocationStore.NewPostgres(db)
		bookings = bookingStore.NewPostgres(db)
	}
	if rdb != nil {
		bookings = bookingStore.NewRedis(rdb.Client)
	}

	donationSvc := donationService.New(donations, catalog, receipt.NewURLIssuer(cfg.Receipt.BaseURL),
		donationService.WithLogger(logger),
		donationService.WithMetrics(donationMetrics.New(reg)),
		donationService.WithAuditPublisher(auditPublisher),
	)
	allocationSvc := allocationService.New(allocations, proofs, catalog,
		allocationService.WithMaxProofBytes(cfg.Proof.MaxBytes),
		allocationService.WithLogger(logger),
		allocationService.WithMetrics(allocationMetrics.New(reg)),
		allocationService.WithAuditPublisher(auditPublisher),
	)
	bookingSvc := bookingService.New(bookings, catalog,
		bookingService.WithLogger(logger),
		bookingService.WithMetrics(bookingMetrics.New(reg)),
		bookingService.WithAuditPublisher(auditPublisher),
	)

	var advisor advisorService.Advisor
	if cfg.Advisor.URL != "" {
		advisor = advisorClient.NewHTTP(cfg.Advisor.URL)
		logger.Info("advisor configured", "url", cfg.Advisor.URL)
	}
	advisorSvc := advisorService.New(advisor, donationSvc,
		advisorService.WithTimeout(cfg.Advisor.Timeout),
		advisorService.WithLogger(logger),
		advisorService.WithMetrics(advisorMetrics.New(reg)),
		advisorService.WithAuditPublisher(auditPublisher),
	)

	if cfg.SeedDemoData {
		if err = seed(ctx, db, logger, donationSvc, allocationSvc); err != nil {
			return nil, err
		}
	}

	a.scheduler = jobs.NewScheduler(logger)
	if cfg.Advisor.ScanSchedule != "" {
		if err = a.scheduler.Register(cfg.Advisor.ScanSchedule, jobs.NewAdvisoryScan(donationSvc, advisorSvc, logger)); err != nil {
			return nil, err
		}
	}

	var limiter rateLimitMiddleware.Limiter
	if rdb != nil {
		limiter = bucket.NewRedis(rdb.Client)
	}
	rateLimiter := rateLimitMiddleware.New(limiter,
		rateLimitMiddleware.WithDisabled(cfg.RateLimit.Disabled),
		rateLimitMiddleware.WithLimit(rateLimitModels.ClassRead, rateLimitModels.Limit{RequestsPerWindow: cfg.RateLimit.ReadPerMinute, Window: time.Minute}),
		rateLimitMiddleware.WithLimit(rateLimitModels.ClassWrite, rateLimitModels.Limit{RequestsPerWindow: cfg.RateLimit.WritePerMinute, Window: time.Minute}),
		rateLimitMiddleware.WithLogger(logger),
		rateLimitMiddleware.WithMetrics(rateLimitMetrics.New(reg)),
	)

	a.router = httptransport.NewRouter(httptransport.Config{
		Logger:       logger,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		HealthChecks: health,
		RateLimit:    rateLimiter.Handler,
		Handlers: []httptransport.Registrar{
			accessHandler.New(),
			catalogHandler.New(catalog, logger),
			donationHandler.New(donationSvc, logger),
			allocationHandler.New(allocationSvc, logger),
			bookingHandler.New(bookingSvc, logger),
			advisorHandler.New(advisorSvc, logger),
		},
	})
	return a, nil
}

func buildAudit(ctx context.Context, cfg config.AuditConfig, db *sql.DB, reg prometheus.Registerer, logger *slog.Logger, a *app) (*publisher.Publisher, error) {
	var store audit.Store
	switch {
	case len(cfg.Brokers) > 0:
		producer, err := kafka.NewProducer(ctx, cfg.Brokers, cfg.Topic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			return nil, err
		}
		store = kafkaaudit.New(producer)
		logger.Info("streaming audit events to kafka", "topic", cfg.Topic)
	case db != nil:
		store = postgresaudit.New(db)
	default:
		store = auditmemory.NewInMemoryStore()
	}

	p := publisher.NewPublisher(store,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(logger),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)
	a.closers = append(a.closers, p.Close)
	return p, nil
}

// seed replays the demo ledgers. Against Postgres both ledgers are seeded in
// one transaction so a failed start never leaves half the demo data behind.
func seed(ctx context.Context, db *sql.DB, logger *slog.Logger, donations *donationService.Service, allocations *allocationService.Service) error {
	var n, m int
	run := func(ctx context.Context) error {
		var err error
		n, err = donations.Seed(ctx, donationStore.SeedDonations())
		if err != nil {
			return fmt.Errorf("seed donations: %w", err)
		}
		m, err = allocations.Seed(ctx, allocationStore.SeedAllocations())
		if err != nil {
			return fmt.Errorf("seed allocations: %w", err)
		}
		return nil
	}
	var err error
	if db != nil {
		err = tx.Run(ctx, db, run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return err
	}
	logger.Info("demo data seeded", "donations", n, "allocations", m)
	return nil
}
