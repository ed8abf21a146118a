package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/httputil"
	"conforma/pkg/requestcontext"
)

// Service defines the audit operations the handler depends on.
type Service interface {
	CreateAudit(ctx context.Context, title string, auditType models.AuditType, scopeStart, scopeEnd *time.Time) (*models.Audit, error)
	GetAudit(ctx context.Context, auditID id.AuditID) (*models.Audit, error)
	ListAudits(ctx context.Context) ([]*models.Audit, error)
	ReplaceScope(ctx context.Context, auditID id.AuditID, items []models.ScopeItem) (*models.Audit, error)
	StartAudit(ctx context.Context, auditID id.AuditID) (*models.Audit, error)
	SubmitForReview(ctx context.Context, auditID id.AuditID) (*models.Audit, error)
	RequestChanges(ctx context.Context, auditID id.AuditID, notes string) (*models.Audit, error)
	Approve(ctx context.Context, auditID id.AuditID, reason string) (*models.Audit, int, error)
	CloseAudit(ctx context.Context, auditID id.AuditID, reason string) (*models.Audit, error)
	ReopenAudit(ctx context.Context, auditID id.AuditID, reason string) (*models.Audit, error)
	GetScore(ctx context.Context, auditID id.AuditID) (*models.ScoreSummary, error)
}

// Handler wires the audit lifecycle endpoints to the audit service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an audit handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/audits", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{auditID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/scope", h.handleReplaceScope)
			r.Post("/start", h.handleStart)
			r.Post("/submit-review", h.handleSubmitReview)
			r.Post("/request-changes", h.handleRequestChanges)
			r.Post("/approve", h.handleApprove)
			r.Post("/close", h.handleClose)
			r.Post("/reopen", h.handleReopen)
			r.Get("/score", h.handleScore)
		})
	})
}

// auditIDFromURL parses the {auditID} path parameter, writing the error
// response itself on failure.
func auditIDFromURL(w http.ResponseWriter, r *http.Request) (id.AuditID, bool) {
	auditID, err := id.ParseAuditID(chi.URLParam(r, "auditID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.AuditID{}, false
	}
	return auditID, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateAuditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	audit, err := h.service.CreateAudit(ctx, req.Title, req.ParsedType(), req.ScopeStart, req.ScopeEnd)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromAudit(audit))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	audits, err := h.service.ListAudits(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAuditList(audits))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	audit, err := h.service.GetAudit(ctx, auditID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAudit(audit))
}

func (h *Handler) handleReplaceScope(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReplaceScopeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	audit, err := h.service.ReplaceScope(ctx, auditID, req.ParsedItems())
	if err != nil {
		h.logger.ErrorContext(ctx, "scope replacement failed",
			"request_id", requestID,
			"audit_id", auditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAudit(audit))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", func(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
		return h.service.StartAudit(ctx, auditID)
	})
}

func (h *Handler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "submit-review", func(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
		return h.service.SubmitForReview(ctx, auditID)
	})
}

func (h *Handler) handleRequestChanges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RequestChangesRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	audit, err := h.service.RequestChanges(ctx, auditID, req.Notes)
	if err != nil {
		h.logger.ErrorContext(ctx, "request-changes failed",
			"request_id", requestID,
			"audit_id", auditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAudit(audit))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := decodeOptional[ApproveAuditRequest](w, r, h.logger)
	if !ok {
		return
	}

	audit, openMajor, err := h.service.Approve(ctx, auditID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit approval failed",
			"request_id", requestID,
			"audit_id", auditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromApproval(audit, openMajor))
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := decodeOptional[CloseAuditRequest](w, r, h.logger)
	if !ok {
		return
	}

	audit, err := h.service.CloseAudit(ctx, auditID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit close failed",
			"request_id", requestID,
			"audit_id", auditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAudit(audit))
}

func (h *Handler) handleReopen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReopenAuditRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	audit, err := h.service.ReopenAudit(ctx, auditID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit reopen failed",
			"request_id", requestID,
			"audit_id", auditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAudit(audit))
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetScore(ctx, auditID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromScore(summary))
}

// transition handles the body-less lifecycle endpoints.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, op func(context.Context, id.AuditID) (*models.Audit, error)) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	audit, err := op(ctx, auditID)
	if err != nil {
		h.logger.ErrorContext(ctx, "audit transition failed",
			"request_id", requestID,
			"audit_id", auditID,
			"transition", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromAudit(audit))
}

// decodeOptional decodes the body when one is present; an empty body yields
// the zero request. Used on endpoints whose body carries only an optional
// reason.
func decodeOptional[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	if r.Body == nil || r.ContentLength == 0 {
		var zero T
		return &zero, true
	}
	return httputil.DecodeAndPrepare[T](w, r, logger, r.Context(), requestcontext.RequestID(r.Context()))
}
