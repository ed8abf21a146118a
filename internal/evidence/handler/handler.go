package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"conforma/internal/evidence/models"
	"conforma/internal/evidence/service"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/httputil"
	"conforma/pkg/requestcontext"
)

// Service defines the evidence operations the handler depends on.
type Service interface {
	CreateRequest(ctx context.Context, in service.CreateRequestInput) (*models.EvidenceRequest, string, error)
	GetRequest(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, []*models.EvidenceItem, error)
	ListRequests(ctx context.Context, filter models.RequestFilter) ([]*models.EvidenceRequest, error)
	IssuePortalToken(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, string, error)
	SubmitItem(ctx context.Context, requestID id.EvidenceRequestID, file models.FileRef) (*models.EvidenceItem, error)
	OpenReview(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, error)
	Review(ctx context.Context, requestID id.EvidenceRequestID, decision models.Status, note string) (*models.EvidenceRequest, error)
	PortalRequest(ctx context.Context, wireToken string) (*models.EvidenceRequest, []*models.EvidenceItem, error)
	PortalSubmit(ctx context.Context, wireToken string, in service.PortalSubmission) (*models.EvidenceItem, error)
}

// Handler wires the evidence endpoints to the evidence service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an evidence handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated evidence endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/evidence-requests", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{requestID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/portal-token", h.handleIssuePortalToken)
			r.Post("/items", h.handleSubmitItem)
			r.Post("/open-review", h.handleOpenReview)
			r.Post("/accept", h.handleAccept)
			r.Post("/reject", h.handleReject)
		})
	})
}

// RegisterPortal mounts the unauthenticated portal endpoints. The caller
// mounts these outside the auth middleware; the token is the only
// credential.
func (h *Handler) RegisterPortal(r chi.Router) {
	r.Route("/portal/evidence/{token}", func(r chi.Router) {
		r.Get("/", h.handlePortalGet)
		r.Post("/items", h.handlePortalSubmit)
	})
}

// requestIDFromURL parses the {requestID} path parameter, writing the error
// response itself on failure.
func requestIDFromURL(w http.ResponseWriter, r *http.Request) (id.EvidenceRequestID, bool) {
	requestID, err := id.ParseEvidenceRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.EvidenceRequestID{}, false
	}
	return requestID, true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateEvidenceRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, wireToken, err := h.service.CreateRequest(ctx, req.ParsedInput())
	if err != nil {
		h.logger.ErrorContext(ctx, "evidence request creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &CreatedRequestView{
		Request:     FromRequest(created),
		PortalToken: wireToken,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter models.RequestFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("audit_id")); raw != "" {
		auditID, err := id.ParseAuditID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.AuditID = auditID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("finding_id")); raw != "" {
		findingID, err := id.ParseFindingID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.FindingID = findingID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}

	requests, err := h.service.ListRequests(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRequestList(requests))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	evidenceRequestID, ok := requestIDFromURL(w, r)
	if !ok {
		return
	}

	request, items, err := h.service.GetRequest(ctx, evidenceRequestID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &RequestDetailView{
		Request: FromRequest(request),
		Items:   FromItemList(items),
	})
}

func (h *Handler) handleIssuePortalToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	evidenceRequestID, ok := requestIDFromURL(w, r)
	if !ok {
		return
	}

	updated, wireToken, err := h.service.IssuePortalToken(ctx, evidenceRequestID)
	if err != nil {
		h.logger.ErrorContext(ctx, "portal token issue failed",
			"request_id", requestID,
			"evidence_request_id", evidenceRequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &CreatedRequestView{
		Request:     FromRequest(updated),
		PortalToken: wireToken,
	})
}

func (h *Handler) handleSubmitItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	evidenceRequestID, ok := requestIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitItemRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.SubmitItem(ctx, evidenceRequestID, req.FileRef())
	if err != nil {
		h.logger.ErrorContext(ctx, "evidence item submission failed",
			"request_id", requestID,
			"evidence_request_id", evidenceRequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromItem(item))
}

func (h *Handler) handleOpenReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	evidenceRequestID, ok := requestIDFromURL(w, r)
	if !ok {
		return
	}

	updated, err := h.service.OpenReview(ctx, evidenceRequestID)
	if err != nil {
		h.logger.ErrorContext(ctx, "evidence review open failed",
			"request_id", requestID,
			"evidence_request_id", evidenceRequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRequest(updated))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.StatusAccepted)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.StatusRejected)
}

// review handles the two terminal verdict endpoints; the body carries only
// an optional note.
func (h *Handler) review(w http.ResponseWriter, r *http.Request, decision models.Status) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	evidenceRequestID, ok := requestIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := decodeOptional[ReviewRequest](w, r, h.logger)
	if !ok {
		return
	}

	updated, err := h.service.Review(ctx, evidenceRequestID, decision, req.Note)
	if err != nil {
		h.logger.ErrorContext(ctx, "evidence review failed",
			"request_id", requestID,
			"evidence_request_id", evidenceRequestID,
			"decision", decision,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromRequest(updated))
}

func (h *Handler) handlePortalGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	request, items, err := h.service.PortalRequest(ctx, chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromPortalRequest(request, items))
}

func (h *Handler) handlePortalSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[PortalSubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	item, err := h.service.PortalSubmit(ctx, chi.URLParam(r, "token"), req.Submission())
	if err != nil {
		// Portal failures stay terse; the token may be garbage from a scan.
		h.logger.WarnContext(ctx, "portal submission rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromItem(item))
}

// decodeOptional decodes the body when one is present; an empty body yields
// the zero request.
func decodeOptional[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	if r.Body == nil || r.ContentLength == 0 {
		var zero T
		return &zero, true
	}
	return httputil.DecodeAndPrepare[T](w, r, logger, r.Context(), requestcontext.RequestID(r.Context()))
}
