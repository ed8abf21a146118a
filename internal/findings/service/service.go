// Package service orchestrates the findings register: automatic registration
// from non-conformity ratings, owner and due-date upkeep, status edits, and
// the append-only activity log.
//
// Status edits run through the store's Execute callback so validation and
// mutation happen under the same lock. Registrations and closures emit
// compliance trail events inside the same transaction; when the trail write
// fails the mutation rolls back.
package service

import (
	"context"
	"errors"
	"log/slog"

	findingmetrics "conforma/internal/findings/metrics"
	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/activity/recorder"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/platform/tx"
	"conforma/pkg/requestcontext"
)

// FindingStore persists findings and their activity logs.
type FindingStore interface {
	Create(ctx context.Context, f *models.Finding) error
	FindByID(ctx context.Context, findingID id.FindingID) (*models.Finding, error)
	List(ctx context.Context, companyID id.CompanyID, filter models.FindingFilter) ([]*models.Finding, error)
	Execute(ctx context.Context, findingID id.FindingID, validate func(*models.Finding) error, mutate func(*models.Finding)) (*models.Finding, error)
	AppendActivity(ctx context.Context, activity *models.FindingActivity) error
	ListActivities(ctx context.Context, findingID id.FindingID) ([]*models.FindingActivity, error)
	CountOpenBySeverity(ctx context.Context, auditID id.AuditID) (major, minor int, err error)
}

// Service orchestrates the findings register.
type Service struct {
	findings FindingStore
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *findingmetrics.Metrics
	tx       tx.Runner
}

type serviceConfig struct {
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *findingmetrics.Metrics
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

func WithMetrics(m *findingmetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

// WithTxRunner sets the transaction runner that groups a finding mutation
// with its activity-log and trail writes. Defaults to the no-op runner, which
// is correct for the in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) {
		cfg.tx = runner
	}
}

// New constructs a Service.
func New(findings FindingStore, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewNoopRunner()
	}
	return &Service{
		findings: findings,
		logger:   cfg.logger,
		recorder: cfg.recorder,
		metrics:  cfg.metrics,
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
// the check happens under the same lock as the mutation.
func matchCompany(ctx context.Context, f *models.Finding) error {
	if f.CompanyID != requestcontext.CompanyID(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "finding belongs to a different company")
	}
	return nil
}

// wrapFindingErr translates store sentinels into coded errors. Domain errors
// pass through untouched so their messages reach the caller verbatim.
func wrapFindingErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "finding not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "finding already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func findingSubject(findingID id.FindingID) string {
	return "finding:" + findingID.String()
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

// recordCompliance emits a fail-closed trail event. Callers run this inside
// the mutation transaction; a non-nil return aborts the mutation.
func (s *Service) recordCompliance(ctx context.Context, f *models.Finding, action activity.Action, decision, reason string) error {
	err := s.recorder.Compliance(ctx, activity.ComplianceEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: f.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   findingSubject(f.ID),
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
func (s *Service) trackOps(ctx context.Context, f *models.Finding, action activity.Action, detail string) {
	s.recorder.Ops(ctx, activity.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: f.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   findingSubject(f.ID),
		Action:    string(action),
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	})
}
