// Command server runs the conforma API: the audit lifecycle, the indicator
// assessment workflow, the findings register, the evidence portal and the
// document review engine, plus the activity pipeline around them.
//
// Without DATABASE_URL the server runs entirely on in-memory stores, which
// is the development mode. KAFKA_BROKERS additionally enables the outbox
// relay and the activity topic consumer; REDIS_URL moves portal tokens to
// Redis so any instance can resolve a portal link.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	assessmenthandler "conforma/internal/assessment/handler"
	assessmentmetrics "conforma/internal/assessment/metrics"
	assessmentservice "conforma/internal/assessment/service"
	"conforma/internal/assessment/store/indicator"
	"conforma/internal/assessment/store/response"
	audithandler "conforma/internal/audit/handler"
	auditmetrics "conforma/internal/audit/metrics"
	auditservice "conforma/internal/audit/service"
	auditstore "conforma/internal/audit/store/audit"
	docreviewhandler "conforma/internal/docreview/handler"
	docreviewmetrics "conforma/internal/docreview/metrics"
	docreviewmodels "conforma/internal/docreview/models"
	docreviewservice "conforma/internal/docreview/service"
	"conforma/internal/docreview/store/review"
	"conforma/internal/docreview/store/suggestion"
	"conforma/internal/docreview/store/template"
	evidencehandler "conforma/internal/evidence/handler"
	evidencemetrics "conforma/internal/evidence/metrics"
	evidenceservice "conforma/internal/evidence/service"
	"conforma/internal/evidence/store/item"
	"conforma/internal/evidence/store/portaltoken"
	"conforma/internal/evidence/store/request"
	findingshandler "conforma/internal/findings/handler"
	findingsmetrics "conforma/internal/findings/metrics"
	findingsservice "conforma/internal/findings/service"
	findingstore "conforma/internal/findings/store/finding"
	"conforma/internal/jwtauth"
	"conforma/internal/platform/config"
	"conforma/internal/platform/httpserver"
	kafkaconsumer "conforma/internal/platform/kafka/consumer"
	"conforma/internal/platform/kafka/producer"
	"conforma/internal/platform/logger"
	"conforma/internal/platform/metrics"
	"conforma/internal/platform/postgres"
	platformredis "conforma/internal/platform/redis"
	httptransport "conforma/internal/transport/http"
	"conforma/pkg/platform/activity"
	activityconsumer "conforma/pkg/platform/activity/consumer"
	"conforma/pkg/platform/activity/publishers/compliance"
	"conforma/pkg/platform/activity/publishers/ops"
	"conforma/pkg/platform/activity/publishers/security"
	"conforma/pkg/platform/activity/recorder"
	"conforma/pkg/platform/activity/store/memory"
	activitypostgres "conforma/pkg/platform/activity/store/postgres"
	"conforma/pkg/platform/activity/worker"
	"conforma/pkg/platform/tx"
)

const (
	jwtIssuer   = "conforma"
	jwtAudience = "conforma-api"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// stores groups every persistence port the services consume. Fields hold the
// widest interface each store implements; narrower consumers (the audit
// reader, the catalogue reader) take the same values.
type stores struct {
	audits      auditservice.AuditStore
	responses   assessmentservice.ResponseStore
	indicators  assessmentservice.IndicatorCatalogue
	findings    findingsservice.FindingStore
	requests    evidenceservice.RequestStore
	items       evidenceservice.ItemStore
	tokens      evidenceservice.TokenStore
	templates   docreviewservice.TemplateStore
	reviews     docreviewservice.ReviewStore
	suggestions docreviewservice.SuggestionStore
	trail       activity.Store
}

func memoryStores() stores {
	return stores{
		audits:      auditstore.NewInMemory(),
		responses:   response.NewInMemory(),
		indicators:  indicator.NewInMemory(),
		findings:    findingstore.NewInMemory(),
		requests:    request.NewInMemory(),
		items:       item.NewInMemory(),
		tokens:      portaltoken.NewInMemory(),
		templates:   template.NewInMemory(),
		reviews:     review.NewInMemory(),
		suggestions: suggestion.NewInMemory(),
		trail:       memory.NewInMemoryStore(),
	}
}

func postgresStores(db *sql.DB, trail *activitypostgres.Store) stores {
	return stores{
		audits:      auditstore.NewPostgres(db),
		responses:   response.NewPostgres(db),
		indicators:  indicator.NewPostgres(db),
		findings:    findingstore.NewPostgres(db),
		requests:    request.NewPostgres(db),
		items:       item.NewPostgres(db),
		tokens:      portaltoken.NewInMemory(),
		templates:   template.NewPostgres(db),
		reviews:     review.NewPostgres(db),
		suggestions: suggestion.NewPostgres(db),
		trail:       trail,
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db      *sql.DB
		pgTrail *activitypostgres.Store
		runner  tx.Runner = tx.NewNoopRunner()
		st      stores
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		pgTrail = activitypostgres.New(db)
		runner = tx.NewSQLRunner(db)
		st = postgresStores(db, pgTrail)
		log.Info("using postgres stores")
	} else {
		st = memoryStores()
		log.Info("using in-memory stores")
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		st.tokens = portaltoken.NewRedis(rdb.Client)
		log.Info("portal tokens stored in redis")
	}

	securityPub := security.New(st.trail, security.WithLogger(log))
	defer func() { _ = securityPub.Close() }()
	rec := recorder.New(
		compliance.New(st.trail, compliance.WithLogger(log), compliance.WithMetrics(compliance.NewMetrics())),
		securityPub,
		ops.New(st.trail, ops.WithLogger(log), ops.WithMetrics(ops.NewMetrics())),
	)

	findingsSvc := findingsservice.New(st.findings,
		findingsservice.WithLogger(log),
		findingsservice.WithRecorder(rec),
		findingsservice.WithMetrics(findingsmetrics.New()),
		findingsservice.WithTxRunner(runner),
	)
	assessmentSvc := assessmentservice.New(st.responses, st.indicators, st.audits, findingsSvc,
		assessmentservice.WithLogger(log),
		assessmentservice.WithRecorder(rec),
		assessmentservice.WithMetrics(assessmentmetrics.New()),
		assessmentservice.WithTxRunner(runner),
	)
	auditSvc := auditservice.New(st.audits, findingsSvc, assessmentSvc,
		auditservice.WithLogger(log),
		auditservice.WithRecorder(rec),
		auditservice.WithMetrics(auditmetrics.New()),
		auditservice.WithTxRunner(runner),
	)
	evidenceSvc := evidenceservice.New(st.requests, st.items, st.tokens, st.audits, st.indicators, findingsSvc,
		evidenceservice.WithLogger(log),
		evidenceservice.WithRecorder(rec),
		evidenceservice.WithMetrics(evidencemetrics.New()),
		evidenceservice.WithTxRunner(runner),
		evidenceservice.WithTokenTTL(cfg.Portal.TokenTTL),
	)
	docreviewSvc := docreviewservice.New(st.templates, st.reviews, st.suggestions, st.items, st.requests, findingsSvc,
		docreviewservice.WithLogger(log),
		docreviewservice.WithRecorder(rec),
		docreviewservice.WithMetrics(docreviewmetrics.New()),
		docreviewservice.WithTxRunner(runner),
		docreviewservice.WithThresholds(docreviewmodels.Thresholds{
			MinorBelow: cfg.Suggestions.MinorBelow,
			MajorBelow: cfg.Suggestions.MajorBelow,
		}),
	)

	jwtService := jwtauth.NewJWTService(cfg.JWTSigningKey, jwtIssuer, jwtAudience)

	router := httptransport.New(httptransport.Deps{
		Logger:      log,
		Metrics:     metrics.New(),
		Auth:        jwtauth.NewServiceAdapter(jwtService),
		DB:          db,
		Redis:       rdb,
		Audits:      audithandler.New(auditSvc, log),
		Assessments: assessmenthandler.New(assessmentSvc, log),
		Findings:    findingshandler.New(findingsSvc, log),
		Evidence:    evidencehandler.New(evidenceSvc, log),
		Reviews:     docreviewhandler.New(docreviewSvc, log),
	})

	g, ctx := errgroup.WithContext(ctx)

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("starting conforma api", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 && pgTrail != nil {
		if err := startActivityPipeline(ctx, g, cfg.Kafka, pgTrail, log); err != nil {
			return err
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}

// startActivityPipeline launches the outbox relay and the per-category topic
// consumer. Both stop when ctx is cancelled; a crash in either tears the
// whole group down so orchestration restarts the instance.
func startActivityPipeline(ctx context.Context, g *errgroup.Group, cfg config.Kafka,
	trail *activitypostgres.Store, log *slog.Logger) error {
	prod, err := producer.New(cfg.Brokers, log)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}

	relay := worker.NewWorker(outboxSource{store: trail}, prod, cfg.TopicPrefix, log,
		worker.WithMetrics(worker.NewMetrics()))
	if err := prod.EnsureTopics(ctx, 3, 1, relay.Topics()...); err != nil {
		prod.Close()
		return fmt.Errorf("ensure activity topics: %w", err)
	}

	g.Go(func() error {
		defer prod.Close()
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox relay: %w", err)
		}
		return nil
	})

	dispatch := activityconsumer.NewRouter(log, nil)
	dispatch.Register(cfg.TopicPrefix+"."+string(activity.CategoryCompliance),
		activityconsumer.NewComplianceHandler(complianceSink{store: trail}, log))
	dispatch.Register(cfg.TopicPrefix+"."+string(activity.CategorySecurity),
		activityconsumer.NewSecurityHandler(securitySink{store: trail}, log))
	dispatch.Register(cfg.TopicPrefix+"."+string(activity.CategoryOperations),
		activityconsumer.NewOpsHandler(opsSink{store: trail}, log))

	cons, err := kafkaconsumer.New(cfg.Brokers, cfg.ConsumerGroup, relay.Topics(), dispatch, log)
	if err != nil {
		return fmt.Errorf("kafka consumer: %w", err)
	}
	g.Go(func() error {
		defer cons.Close()
		if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("activity consumer: %w", err)
		}
		return nil
	})
	return nil
}
