package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"conforma/internal/assessment/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/httputil"
	"conforma/pkg/requestcontext"
)

// Service defines the assessment operations the handler depends on.
type Service interface {
	ListIndicators(ctx context.Context, auditID id.AuditID) ([]*models.TemplateIndicator, error)
	ListResponses(ctx context.Context, auditID id.AuditID) ([]*models.IndicatorResponse, error)
	RecordResponse(ctx context.Context, auditID id.AuditID, indicatorID id.IndicatorID, rating models.Rating, comment string) (*models.IndicatorResponse, error)
	UpdateResponse(ctx context.Context, responseID id.ResponseID, rating models.Rating, comment string) (*models.IndicatorResponse, error)
	SetReviewComment(ctx context.Context, responseID id.ResponseID, comment string) (*models.IndicatorResponse, error)
}

// Handler wires the assessment endpoints to the assessment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an assessment handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the assessment endpoints on the router. The catalogue and
// recorder endpoints live under the audit subtree the audit module mounts,
// so they are registered as full paths; corrections and review comments
// address the response directly.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audits/{auditID}/indicators", h.handleListIndicators)
	r.Get("/audits/{auditID}/responses", h.handleListResponses)
	r.Post("/audits/{auditID}/responses", h.handleRecordResponse)
	r.Route("/responses/{responseID}", func(r chi.Router) {
		r.Put("/", h.handleUpdateResponse)
		r.Put("/review-comment", h.handleSetReviewComment)
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

// responseIDFromURL parses the {responseID} path parameter, writing the error
// response itself on failure.
func responseIDFromURL(w http.ResponseWriter, r *http.Request) (id.ResponseID, bool) {
	responseID, err := id.ParseResponseID(chi.URLParam(r, "responseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ResponseID{}, false
	}
	return responseID, true
}

func (h *Handler) handleListIndicators(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	indicators, err := h.service.ListIndicators(ctx, auditID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromIndicatorList(indicators))
}

func (h *Handler) handleListResponses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	responses, err := h.service.ListResponses(ctx, auditID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResponseList(responses))
}

func (h *Handler) handleRecordResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	auditID, ok := auditIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordResponseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	response, err := h.service.RecordResponse(ctx, auditID, req.ParsedIndicatorID(), req.ParsedRating(), req.Comment)
	if err != nil {
		h.logger.ErrorContext(ctx, "response recording failed",
			"request_id", requestID,
			"audit_id", auditID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromResponse(response))
}

func (h *Handler) handleUpdateResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	responseID, ok := responseIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateResponseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	response, err := h.service.UpdateResponse(ctx, responseID, req.ParsedRating(), req.Comment)
	if err != nil {
		h.logger.ErrorContext(ctx, "response correction failed",
			"request_id", requestID,
			"response_id", responseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResponse(response))
}

func (h *Handler) handleSetReviewComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	responseID, ok := responseIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewCommentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	response, err := h.service.SetReviewComment(ctx, responseID, req.Comment)
	if err != nil {
		h.logger.ErrorContext(ctx, "review comment failed",
			"request_id", requestID,
			"response_id", responseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromResponse(response))
}
