package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/httputil"
	"conforma/pkg/requestcontext"
)

// Service defines the register operations the handler depends on. Findings
// are opened by the assessment and docreview services, not over HTTP, so
// there is no create endpoint here.
type Service interface {
	GetFinding(ctx context.Context, findingID id.FindingID) (*models.Finding, error)
	ListFindings(ctx context.Context, filter models.FindingFilter) ([]*models.Finding, error)
	ListActivities(ctx context.Context, findingID id.FindingID) ([]*models.FindingActivity, error)
	UpdateFinding(ctx context.Context, findingID id.FindingID, patch models.FindingPatch) (*models.Finding, error)
	ChangeStatus(ctx context.Context, findingID id.FindingID, next models.Status, closureNote string) (*models.Finding, error)
	AddComment(ctx context.Context, findingID id.FindingID, text string) (*models.FindingActivity, error)
}

// Handler wires the findings register endpoints to the findings service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a findings handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the findings endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/findings", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Route("/{findingID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Get("/activities", h.handleListActivities)
			r.Patch("/", h.handleUpdate)
			r.Post("/status", h.handleChangeStatus)
			r.Post("/comments", h.handleAddComment)
		})
	})
}

// findingIDFromURL parses the {findingID} path parameter, writing the error
// response itself on failure.
func findingIDFromURL(w http.ResponseWriter, r *http.Request) (id.FindingID, bool) {
	findingID, err := id.ParseFindingID(chi.URLParam(r, "findingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.FindingID{}, false
	}
	return findingID, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter models.FindingFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("audit_id")); raw != "" {
		auditID, err := id.ParseAuditID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.AuditID = auditID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}

	findings, err := h.service.ListFindings(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromFindingList(findings))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	findingID, ok := findingIDFromURL(w, r)
	if !ok {
		return
	}

	finding, err := h.service.GetFinding(ctx, findingID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromFinding(finding))
}

func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	findingID, ok := findingIDFromURL(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListActivities(ctx, findingID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromActivityList(entries))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	findingID, ok := findingIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateFindingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	finding, err := h.service.UpdateFinding(ctx, findingID, req.ParsedPatch())
	if err != nil {
		h.logger.ErrorContext(ctx, "finding update failed",
			"request_id", requestID,
			"finding_id", findingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromFinding(finding))
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	findingID, ok := findingIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChangeStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	finding, err := h.service.ChangeStatus(ctx, findingID, req.ParsedStatus(), req.ClosureNote)
	if err != nil {
		h.logger.ErrorContext(ctx, "finding status change failed",
			"request_id", requestID,
			"finding_id", findingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromFinding(finding))
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	findingID, ok := findingIDFromURL(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AddCommentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.AddComment(ctx, findingID, req.Text)
	if err != nil {
		h.logger.ErrorContext(ctx, "finding comment failed",
			"request_id", requestID,
			"finding_id", findingID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromActivity(entry))
}
