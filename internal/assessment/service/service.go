// Package service orchestrates the assessment: the indicator catalogue, the
// response recorder, corrections, lead-auditor review comments and the audit
// score.
//
// Recording checks the audit's status inside the same transaction that writes
// the response, and a non-conformity rating opens a finding in the register
// within that transaction too; the response and its finding commit or roll
// back together. Duplicate (audit, indicator) pairs lose against the store's
// uniqueness guard, never against an application-level pre-check.
package service

import (
	"context"
	"errors"
	"log/slog"

	assessmentmetrics "conforma/internal/assessment/metrics"
	"conforma/internal/assessment/models"
	auditmodels "conforma/internal/audit/models"
	findingmodels "conforma/internal/findings/models"
	findings "conforma/internal/findings/service"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/activity/recorder"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/platform/tx"
	"conforma/pkg/requestcontext"
)

// ResponseStore persists indicator responses. Execute runs validate-then-
// mutate under the store's lock and returns the current record even when
// validation fails, so callers can inspect the losing state.
type ResponseStore interface {
	Create(ctx context.Context, response *models.IndicatorResponse) error
	FindByID(ctx context.Context, responseID id.ResponseID) (*models.IndicatorResponse, error)
	ListByAudit(ctx context.Context, auditID id.AuditID) ([]*models.IndicatorResponse, error)
	Execute(ctx context.Context, responseID id.ResponseID, validate func(*models.IndicatorResponse) error, mutate func(*models.IndicatorResponse)) (*models.IndicatorResponse, error)
}

// IndicatorCatalogue reads the template indicator catalogue.
type IndicatorCatalogue interface {
	FindByID(ctx context.Context, indicatorID id.IndicatorID) (*models.TemplateIndicator, error)
	ListByDomains(ctx context.Context, domainCodes []string) ([]*models.TemplateIndicator, error)
}

// AuditReader loads audit aggregates for the status and scope gates. The
// audit stores satisfy it; reads join the transaction carried in ctx, so the
// status a recording checks is the status its commit sees.
type AuditReader interface {
	FindByID(ctx context.Context, auditID id.AuditID) (*auditmodels.Audit, error)
}

// FindingRegistrar opens findings for non-conformity ratings. The findings
// service satisfies it; registration joins the surrounding transaction.
type FindingRegistrar interface {
	Register(ctx context.Context, in findings.RegisterInput) (*findingmodels.Finding, error)
}

// Service orchestrates the assessment workflow.
type Service struct {
	responses ResponseStore
	catalogue IndicatorCatalogue
	audits    AuditReader
	findings  FindingRegistrar
	logger    *slog.Logger
	recorder  *recorder.Recorder
	metrics   *assessmentmetrics.Metrics
	tx        tx.Runner
}

type serviceConfig struct {
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *assessmentmetrics.Metrics
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

func WithMetrics(m *assessmentmetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

// WithTxRunner sets the transaction runner that groups a response write with
// the finding it opens. Defaults to the no-op runner, which is correct for
// the in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) {
		cfg.tx = runner
	}
}

// New constructs a Service. The finding registrar may be nil; non-conformity
// ratings then record without opening findings, which is only acceptable in
// tests.
func New(responses ResponseStore, catalogue IndicatorCatalogue, audits AuditReader, registrar FindingRegistrar, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewNoopRunner()
	}
	return &Service{
		responses: responses,
		catalogue: catalogue,
		audits:    audits,
		findings:  registrar,
		logger:    cfg.logger,
		recorder:  cfg.recorder,
		metrics:   cfg.metrics,
		tx:        runner,
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
// the check happens under the same lock as the correction.
func matchCompany(ctx context.Context, r *models.IndicatorResponse) error {
	if r.CompanyID != requestcontext.CompanyID(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "response belongs to a different company")
	}
	return nil
}

// wrapResponseErr translates store sentinels into coded errors. Domain errors
// pass through untouched so their messages reach the caller verbatim.
func wrapResponseErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "response not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "a response for this indicator already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// loadAudit fetches the audit and rejects cross-company access.
func (s *Service) loadAudit(ctx context.Context, auditID id.AuditID) (*auditmodels.Audit, error) {
	audit, err := s.audits.FindByID(ctx, auditID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "audit not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit")
	}
	if audit.CompanyID != requestcontext.CompanyID(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "audit belongs to a different company")
	}
	return audit, nil
}

// loadIndicator fetches a catalogue indicator, active or not; scope and
// activity checks are the caller's.
func (s *Service) loadIndicator(ctx context.Context, indicatorID id.IndicatorID) (*models.TemplateIndicator, error) {
	indicator, err := s.catalogue.FindByID(ctx, indicatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "indicator not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator")
	}
	return indicator, nil
}

func responseSubject(responseID id.ResponseID) string {
	return "response:" + responseID.String()
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

// trackOps emits a best-effort operational event after the domain write.
func (s *Service) trackOps(ctx context.Context, r *models.IndicatorResponse, action activity.Action, detail string) {
	s.recorder.Ops(ctx, activity.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: r.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   responseSubject(r.ID),
		Action:    string(action),
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	})
}
