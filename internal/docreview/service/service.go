// Package service orchestrates the document review engine: checklist-driven
// quality scoring of submitted evidence, the suggestion policy that flags
// probable non-conformities, and the human confirm/dismiss resolutions.
//
// Reviews are immutable; the score and the suggestion derive from the answer
// sheet in one pass and persist together. Suggestions leave PENDING exactly
// once, through the store's Execute callback, so concurrent resolutions
// serialize on the row lock. Confirming with a finding registers the finding
// through the findings service inside the same transaction as the suggestion
// update.
package service

import (
	"context"
	"errors"
	"log/slog"

	docreviewmetrics "conforma/internal/docreview/metrics"
	"conforma/internal/docreview/models"
	evidencemodels "conforma/internal/evidence/models"
	findingmodels "conforma/internal/findings/models"
	findingsservice "conforma/internal/findings/service"
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

// TemplateStore reads the checklist template catalogue.
type TemplateStore interface {
	FindByID(ctx context.Context, templateID id.TemplateID) (*models.ChecklistTemplate, error)
	List(ctx context.Context, documentType string) ([]*models.ChecklistTemplate, error)
}

// ReviewStore persists document reviews. Reviews are immutable, so the store
// only appends and reads.
type ReviewStore interface {
	Create(ctx context.Context, r *models.DocumentReview) error
	FindByID(ctx context.Context, reviewID id.ReviewID) (*models.DocumentReview, error)
	ListByItem(ctx context.Context, itemID id.EvidenceItemID) ([]*models.DocumentReview, error)
}

// SuggestionStore persists suggested findings. Execute runs validate-then-
// mutate under the store's lock and returns the current record even when
// validation fails, so callers can inspect the losing state.
type SuggestionStore interface {
	Create(ctx context.Context, sg *models.SuggestedFinding) error
	FindByID(ctx context.Context, suggestionID id.SuggestionID) (*models.SuggestedFinding, error)
	List(ctx context.Context, companyID id.CompanyID, filter models.SuggestionFilter) ([]*models.SuggestedFinding, error)
	Execute(ctx context.Context, suggestionID id.SuggestionID, validate func(*models.SuggestedFinding) error, mutate func(*models.SuggestedFinding)) (*models.SuggestedFinding, error)
}

// ItemReader resolves evidence items under review. The evidence item stores
// satisfy it.
type ItemReader interface {
	FindByID(ctx context.Context, itemID id.EvidenceItemID) (*evidencemodels.EvidenceItem, error)
}

// RequestReader resolves the request an item was submitted against; the
// request carries the company and audit links. The evidence request stores
// satisfy it.
type RequestReader interface {
	FindByID(ctx context.Context, requestID id.EvidenceRequestID) (*evidencemodels.EvidenceRequest, error)
}

// FindingRegister opens findings from confirmed suggestions. The findings
// service satisfies it; registrations join the surrounding transaction. The
// port carries Register only, so a Reviewer's confirm is never subject to the
// register's edit permissions.
type FindingRegister interface {
	Register(ctx context.Context, in findingsservice.RegisterInput) (*findingmodels.Finding, error)
}

// Service orchestrates the document review engine.
type Service struct {
	templates   TemplateStore
	reviews     ReviewStore
	suggestions SuggestionStore
	items       ItemReader
	requests    RequestReader
	findings    FindingRegister
	logger      *slog.Logger
	recorder    *recorder.Recorder
	metrics     *docreviewmetrics.Metrics
	tracer      trace.Tracer
	tx          tx.Runner
	bands       models.Thresholds
}

type serviceConfig struct {
	logger   *slog.Logger
	recorder *recorder.Recorder
	metrics  *docreviewmetrics.Metrics
	tx       tx.Runner
	bands    models.Thresholds
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

func WithMetrics(m *docreviewmetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

// WithTxRunner sets the transaction runner that groups the review insert with
// its suggestion, and a confirmation with the finding it registers. Defaults
// to the no-op runner, which is correct for the in-memory stores.
func WithTxRunner(runner tx.Runner) Option {
	return func(cfg *serviceConfig) {
		cfg.tx = runner
	}
}

// WithThresholds overrides the suggestion score bands. The server wires the
// configured values here.
func WithThresholds(bands models.Thresholds) Option {
	return func(cfg *serviceConfig) {
		cfg.bands = bands
	}
}

// New constructs a Service. The findings collaborator may be nil; confirming
// a suggestion with a finding then fails, which is only acceptable in tests.
func New(templates TemplateStore, reviews ReviewStore, suggestions SuggestionStore,
	items ItemReader, requests RequestReader, findings FindingRegister, opts ...Option) *Service {
	cfg := &serviceConfig{bands: models.DefaultThresholds}
	for _, opt := range opts {
		opt(cfg)
	}
	runner := cfg.tx
	if runner == nil {
		runner = tx.NewNoopRunner()
	}
	return &Service{
		templates:   templates,
		reviews:     reviews,
		suggestions: suggestions,
		items:       items,
		requests:    requests,
		findings:    findings,
		logger:      cfg.logger,
		recorder:    cfg.recorder,
		metrics:     cfg.metrics,
		tracer:      otel.Tracer("conforma/internal/docreview"),
		tx:          runner,
		bands:       cfg.bands,
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
func matchCompany(ctx context.Context, sg *models.SuggestedFinding) error {
	if sg.CompanyID != requestcontext.CompanyID(ctx) {
		return dErrors.New(dErrors.CodeForbidden, "suggestion belongs to a different company")
	}
	return nil
}

// wrapSuggestionErr translates store sentinels into coded errors. Domain
// errors pass through untouched so their messages reach the caller verbatim.
func wrapSuggestionErr(err error, msg string) error {
	return wrapStoreErr(err, msg, "suggestion")
}

func wrapReviewErr(err error, msg string) error {
	return wrapStoreErr(err, msg, "document review")
}

func wrapStoreErr(err error, msg, what string) error {
	if err == nil {
		return nil
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func reviewSubject(reviewID id.ReviewID) string {
	return "document-review:" + reviewID.String()
}

func suggestionSubject(suggestionID id.SuggestionID) string {
	return "suggestion:" + suggestionID.String()
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

// recordCompliance emits a fail-closed trail event. Callers run this inside
// the mutation transaction; a non-nil return aborts the mutation.
func (s *Service) recordCompliance(ctx context.Context, companyID id.CompanyID, subject string,
	action activity.Action, decision, reason string) error {
	err := s.recorder.Compliance(ctx, activity.ComplianceEvent{
		Timestamp: requestcontext.Now(ctx),
		CompanyID: companyID,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   subject,
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
