// Package service orchestrates the evidence workflow: requests for
// documentation, internal and portal uploads, review verdicts, and the
// capability tokens that let an external supplier answer a request without an
// account.
//
// Uploads run through the request store's Execute callback so an item's
// status effect lands under the same lock that checked it. Review verdicts
// emit compliance trail events inside the mutation transaction. Portal calls
// authenticate by token possession alone, and every portal failure collapses
// to the same not-found answer so the endpoint cannot be probed for which
// tokens exist.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	assessmentmodels "conforma/internal/assessment/models"
	auditmodels "conforma/internal/audit/models"
	evidencemetrics "conforma/internal/evidence/metrics"
	"conforma/internal/evidence/models"
	findingmodels "conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/activity/recorder"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/platform/tx"
	"conforma/pkg/requestcontext"
)

// DefaultTokenTTL is how long a portal token stays valid unless the server
// overrides it from configuration.
const DefaultTokenTTL = 72 * time.Hour

// RequestStore persists evidence requests. Execute runs validate-then-mutate
// under the store's lock and returns the current record even when validation
// fails, so callers can inspect the losing state.
type RequestStore interface {
	Create(ctx context.Context, r *models.EvidenceRequest) error
	FindByID(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, error)
	List(ctx context.Context, companyID id.CompanyID, filter models.RequestFilter) ([]*models.EvidenceRequest, error)
	Execute(ctx context.Context, requestID id.EvidenceRequestID, validate func(*models.EvidenceRequest) error, mutate func(*models.EvidenceRequest)) (*models.EvidenceRequest, error)
}

// ItemStore persists submitted evidence items. Items are immutable, so the
// store only appends and reads.
type ItemStore interface {
	Create(ctx context.Context, i *models.EvidenceItem) error
	FindByID(ctx context.Context, itemID id.EvidenceItemID) (*models.EvidenceItem, error)
	ListByRequest(ctx context.Context, requestID id.EvidenceRequestID) ([]*models.EvidenceItem, error)
}

// TokenStore persists portal tokens. At most one token is active per request;
// Save replaces any earlier one.
type TokenStore interface {
	Save(ctx context.Context, token *models.PortalToken) error
	Find(ctx context.Context, tokenID string) (*models.PortalToken, error)
}

// AuditReader checks audit links against the audit register. The audit stores
// satisfy it.
type AuditReader interface {
	FindByID(ctx context.Context, auditID id.AuditID) (*auditmodels.Audit, error)
}

// CatalogueReader checks indicator links against the template catalogue. The
// assessment indicator stores satisfy it.
type CatalogueReader interface {
	FindByID(ctx context.Context, indicatorID id.IndicatorID) (*assessmentmodels.TemplateIndicator, error)
}

// FindingLog verifies finding links and writes evidence entries to finding
// activity logs. The findings service satisfies it; entries join the
// surrounding transaction.
type FindingLog interface {
	GetFinding(ctx context.Context, findingID id.FindingID) (*findingmodels.Finding, error)
	RecordEvidenceActivity(ctx context.Context, findingID id.FindingID, activityType findingmodels.ActivityType, detail string) error
}

// Service orchestrates the evidence workflow.
type Service struct {
	requests  RequestStore
	items     ItemStore
	tokens    TokenStore
	audits    AuditReader
	catalogue CatalogueReader
	findings  FindingLog
	logger    *slog.Logger
	recorder  *recorder.Recorder
	metrics   *evidencemetrics.Metrics
	tx        tx.Runner
	tokenTTL  time.Duration
}

type serviceConfig struct {
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *evidencemetrics.Metrics
	tx       tx.Runner
	tokenTTL time.Duration
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

func WithMetrics(m *evidencemetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

// WithTxRunner sets the transaction runner that groups a request mutation
// with its item and finding-log writes. Defaults to the no-op runner, which
// is correct for the in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) {
		cfg.tx = runner
	}
}

// WithTokenTTL overrides how long portal tokens stay valid. The server wires
// the configured portal TTL here.
func WithTokenTTL(ttl time.Duration) Option {
	return func(cfg *serviceConfig) {
		cfg.tokenTTL = ttl
	}
}

// New constructs a Service. The audit, catalogue and finding collaborators
// may each be nil; the corresponding link checks and finding-log entries are
// then skipped, which is only acceptable in tests.
func New(requests RequestStore, items ItemStore, tokens TokenStore,
	audits AuditReader, catalogue CatalogueReader, findings FindingLog, opts ...Option) *Service {
	cfg := &serviceConfig{tokenTTL: DefaultTokenTTL}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewNoopRunner()
	}
	return &Service{
		requests:  requests,
		items:     items,
		tokens:    tokens,
		audits:    audits,
		catalogue: catalogue,
		findings:  findings,
		logger:    cfg.logger,
		recorder:  cfg.recorder,
		metrics:   cfg.metrics,
		tx:        runner,
		tokenTTL:  cfg.tokenTTL,
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
func matchCompany(ctx context.Context, r *models.EvidenceRequest) error {
	if r.CompanyID != requestcontext.CompanyID(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "evidence request belongs to a different company")
	}
	return nil
}

// wrapRequestErr translates store sentinels into coded errors. Domain errors
// pass through untouched so their messages reach the caller verbatim.
func wrapRequestErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "evidence request not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "evidence request already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// loadAudit fetches the audit and rejects cross-company links.
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

func (s *Service) getOwned(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, error) {
	r, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, wrapRequestErr(err, "failed to load evidence request")
	}
	if err := matchCompany(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func requestSubject(requestID id.EvidenceRequestID) string {
	return "evidence-request:" + requestID.String()
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

// recordCompliance emits a fail-closed trail event. Callers run this inside
// the mutation transaction; a non-nil return aborts the mutation.
func (s *Service) recordCompliance(ctx context.Context, r *models.EvidenceRequest, action activity.Action, decision, reason string) error {
	err := s.recorder.Compliance(ctx, activity.ComplianceEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: r.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   requestSubject(r.ID),
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
func (s *Service) trackOps(ctx context.Context, r *models.EvidenceRequest, action activity.Action, detail string) {
	s.recorder.Ops(ctx, activity.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: r.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   requestSubject(r.ID),
		Action:    string(action),
		Detail:    detail,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// trackTokenIssued emits the security event for a freshly minted portal
// token.
func (s *Service) trackTokenIssued(ctx context.Context, r *models.EvidenceRequest) {
	s.recorder.Security(ctx, activity.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: r.CompanyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   requestSubject(r.ID),
		Action:    string(activity.ActionPortalTokenIssued),
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Severity:  activity.SeverityInfo,
	})
}

// trackTokenRejected emits the security event for a portal call that failed
// token resolution. The company is zero when the token never resolved.
func (s *Service) trackTokenRejected(ctx context.Context, companyID id.CompanyID, subject, reason string) {
	s.recorder.Security(ctx, activity.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: companyID,
		Subject:   subject,
		Action:    string(activity.ActionPortalTokenRejected),
		Reason:    reason,
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Severity:  activity.SeverityWarning,
	})
}

// trackPortalUpload emits the security event for an accepted portal upload.
// There is no actor; the uploader's email travels in the reason field.
func (s *Service) trackPortalUpload(ctx context.Context, token *models.PortalToken, item *models.EvidenceItem) {
	s.recorder.Security(ctx, activity.SecurityEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: token.CompanyID,
		Subject:   requestSubject(token.RequestID),
		Action:    string(activity.ActionPortalUploadReceived),
		Reason:    item.UploaderEmail,
		IP:        requestcontext.ClientIP(ctx),
		RequestID: requestcontext.RequestID(ctx),
		Severity:  activity.SeverityInfo,
	})
}
