package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"conforma/internal/docreview/models"
	"conforma/internal/docreview/service"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/httputil"
	"conforma/pkg/requestcontext"
)

// Service defines the document review operations the handler depends on.
type Service interface {
	ListTemplates(ctx context.Context, documentType string) ([]*models.ChecklistTemplate, error)
	SubmitReview(ctx context.Context, input service.SubmitReviewInput) (*service.ReviewResult, error)
	GetReview(ctx context.Context, reviewID id.ReviewID) (*models.DocumentReview, error)
	ListReviews(ctx context.Context, itemID id.EvidenceItemID) ([]*models.DocumentReview, error)
	ListSuggestions(ctx context.Context, filter models.SuggestionFilter) ([]*models.SuggestedFinding, error)
	ConfirmSuggestion(ctx context.Context, suggestionID id.SuggestionID, input service.ConfirmInput) (*service.ConfirmResult, error)
	DismissSuggestion(ctx context.Context, suggestionID id.SuggestionID, reason string) (*models.SuggestedFinding, error)
}

// Handler wires the document review endpoints to the docreview service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a docreview handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the document review endpoints on the router. Review
// submission and listing hang off the evidence item they score.
func (h *Handler) Register(r chi.Router) {
	r.Get("/checklist-templates", h.handleListTemplates)
	r.Route("/evidence-items/{itemID}/reviews", func(r chi.Router) {
		r.Post("/", h.handleSubmitReview)
		r.Get("/", h.handleListReviews)
	})
	r.Get("/document-reviews/{reviewID}", h.handleGetReview)
	r.Route("/suggested-findings", func(r chi.Router) {
		r.Get("/", h.handleListSuggestions)
		r.Route("/{suggestionID}", func(r chi.Router) {
			r.Post("/confirm", h.handleConfirm)
			r.Post("/dismiss", h.handleDismiss)
		})
	})
}

// itemIDFromURL parses the {itemID} path parameter, writing the error
// response itself on failure.
func itemIDFromURL(w http.ResponseWriter, r *http.Request) (id.EvidenceItemID, bool) {
	itemID, err := id.ParseEvidenceItemID(chi.URLParam(r, "itemID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.EvidenceItemID{}, false
	}
	return itemID, true
}

// suggestionIDFromURL parses the {suggestionID} path parameter, writing the
// error response itself on failure.
func suggestionIDFromURL(w http.ResponseWriter, r *http.Request) (id.SuggestionID, bool) {
	suggestionID, err := id.ParseSuggestionID(chi.URLParam(r, "suggestionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SuggestionID{}, false
	}
	return suggestionID, true
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	documentType := strings.TrimSpace(r.URL.Query().Get("document_type"))

	templates, err := h.service.ListTemplates(ctx, documentType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromTemplateList(templates))
}

func (h *Handler) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	itemID, ok := itemIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.SubmitReview(ctx, req.ParsedInput(itemID))
	if err != nil {
		h.logger.ErrorContext(ctx, "document review submission failed",
			"request_id", requestID,
			"evidence_item_id", itemID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromReviewResult(result))
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, ok := itemIDFromURL(w, r)
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(ctx, itemID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromReviewList(reviews))
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "reviewID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	review, err := h.service.GetReview(ctx, reviewID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromReview(review))
}

func (h *Handler) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter models.SuggestionFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := models.ParseSuggestionStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}

	suggestions, err := h.service.ListSuggestions(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSuggestionList(suggestions))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	suggestionID, ok := suggestionIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ConfirmRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.ConfirmSuggestion(ctx, suggestionID, req.ParsedInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "suggestion confirmation failed",
			"request_id", requestID,
			"suggestion_id", suggestionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromConfirmResult(result))
}

func (h *Handler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	suggestionID, ok := suggestionIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := decodeOptional[DismissRequest](w, r, h.logger)
	if !ok {
		return
	}

	suggestion, err := h.service.DismissSuggestion(ctx, suggestionID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "suggestion dismissal failed",
			"request_id", requestID,
			"suggestion_id", suggestionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSuggestion(suggestion))
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
