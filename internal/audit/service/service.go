// Package service orchestrates the audit lifecycle: creation, scoping, the
// review workflow, closing and reopening, and the score summary.
//
// State transitions run through the store's Execute callback so validation and
// mutation happen under the same lock (mutex in memory, FOR UPDATE in
// Postgres). Compliance trail events are emitted inside the same transaction
// as the transition; if the trail write fails, the transition rolls back.
package service

import (
	"context"
	"errors"
	"log/slog"

	auditmetrics "conforma/internal/audit/metrics"
	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/activity/recorder"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/platform/tx"
	"conforma/pkg/requestcontext"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// AuditStore persists audit aggregates. Execute runs validate-then-mutate
// under the store's lock and returns the current record even when validation
// fails, so callers can inspect the losing state.
type AuditStore interface {
	Create(ctx context.Context, audit *models.Audit) error
	FindByID(ctx context.Context, auditID id.AuditID) (*models.Audit, error)
	ListByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.Audit, error)
	Execute(ctx context.Context, auditID id.AuditID, validate func(*models.Audit) error, mutate func(*models.Audit)) (*models.Audit, error)
}

// FindingCounter reports open non-conformity counts from the findings
// register. The close guard and the score summary both depend on it.
type FindingCounter interface {
	OpenBySeverity(ctx context.Context, auditID id.AuditID) (major, minor int, err error)
}

// ScoreCalculator computes the audit's compliance score from its recorded
// responses.
type ScoreCalculator interface {
	AuditScore(ctx context.Context, auditID id.AuditID) (percent float64, version int, responded int, err error)
}

// Service orchestrates the audit lifecycle.
type Service struct {
	audits   AuditStore
	findings FindingCounter
	scores   ScoreCalculator
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *auditmetrics.Metrics
	tracer   trace.Tracer
	tx       tx.Runner
}

type serviceConfig struct {
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *auditmetrics.Metrics
	tracer   trace.Tracer
	tx       tx.Runner
}

type Option func(cfg *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) {
		cfg.logger = logger
	}
}

func WithRecorder(rec *recorder.Recorder) Option {
	return func(cfg *serviceConfig) {
		cfg.recorder = rec
	}
}

func WithMetrics(m *auditmetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

// WithTracer overrides the tracer the state transitions run under. Defaults
// to the globally registered provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(cfg *serviceConfig) {
		cfg.tracer = tracer
	}
}

// WithTxRunner sets the transaction runner that groups a state transition
// with its compliance trail write. Defaults to the no-op runner, which is
// correct for the in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) {
		cfg.tx = runner
	}
}

// New constructs a Service. The finding counter and score calculator may be
// nil; the close guard then sees zero open findings and the score summary
// reports no responses.
func New(audits AuditStore, findings FindingCounter, scores ScoreCalculator, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewNoopRunner()
	}
	tracer := cfg.tracer
	if tracer == nil {
		tracer = otel.Tracer("conforma/internal/audit")
	}
	return &Service{
		audits:   audits,
		findings: findings,
		scores:   scores,
		logger:   cfg.logger,
		recorder: cfg.recorder,
		metrics:  cfg.metrics,
		tracer:   tracer,
		tx:       runner,
	}
}

// requireRole checks the actor's role against the allowed set.
func requireRole(ctx context.Context, allowed ...id.Role) error {
	role := requestcontext.Role(ctx)
	for _, r := range allowed {
		if role == r {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "role does not permit this action")
}

// matchCompany rejects cross-company access. Run inside Execute callbacks so
// the check happens under the same lock as the transition.
func matchCompany(ctx context.Context, a *models.Audit) error {
	if a.CompanyID != requestcontext.CompanyID(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "audit belongs to a different company")
	}
	return nil
}

// wrapAuditErr translates store sentinels into coded errors. Domain errors
// pass through untouched so their messages reach the caller verbatim.
func wrapAuditErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "audit not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "audit already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func auditSubject(auditID id.AuditID) string {
	return "audit:" + auditID.String()
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}

// recordCompliance emits a fail-closed trail event. Callers run this inside
// the transition transaction; a non-nil return aborts the transition.
func (s *Service) recordCompliance(ctx context.Context, a *models.Audit, action activity.Action, decision, reason string) error {
	err := s.recorder.Compliance(ctx, activity.ComplianceEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: a.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   auditSubject(a.ID),
		Action:    string(action),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record compliance trail")
	}
	return nil
}

// trackOps emits a best-effort operational event after the domain write.
func (s *Service) trackOps(ctx context.Context, a *models.Audit, action activity.Action, detail string) {
	s.recorder.Ops(ctx, activity.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: a.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   auditSubject(a.ID),
		Action:    string(action),
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	})
}
