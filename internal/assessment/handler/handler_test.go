package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"conforma/internal/assessment/models"
	"conforma/internal/assessment/service"
	indicatorStore "conforma/internal/assessment/store/indicator"
	responseStore "conforma/internal/assessment/store/response"
	auditHandler "conforma/internal/audit/handler"
	auditService "conforma/internal/audit/service"
	auditStore "conforma/internal/audit/store/audit"
	findingService "conforma/internal/findings/service"
	findingStore "conforma/internal/findings/store/finding"
	id "conforma/pkg/domain"
	"conforma/pkg/requestcontext"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	router    http.Handler
	companyID id.CompanyID
	adminID   id.UserID
	auditorID id.UserID
	fs01      *models.TemplateIndicator
	fs02      *models.TemplateIndicator
}

// newTestEnv registers the audit and assessment handlers on one router, the
// way the server mounts them. The audit endpoints drive the lifecycle the
// recording gates depend on.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		companyID: id.NewCompanyID(),
		adminID:   id.NewUserID(),
		auditorID: id.NewUserID(),
	}

	env.fs01 = &models.TemplateIndicator{ID: id.NewIndicatorID(), DomainCode: "fire-safety", Code: "FS-01",
		Text: "Evacuation plans are posted and escape routes are kept clear", SortOrder: 10, Active: true}
	env.fs02 = &models.TemplateIndicator{ID: id.NewIndicatorID(), DomainCode: "fire-safety", Code: "FS-02",
		Text: "Fire extinguishers are inspected within the required interval", SortOrder: 20, Active: true}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	audits := auditStore.NewInMemory()
	findings := findingService.New(findingStore.NewInMemory(), findingService.WithLogger(logger))
	assessSvc := service.New(responseStore.NewInMemory(), indicatorStore.NewInMemory(env.fs01, env.fs02),
		audits, findings, service.WithLogger(logger))
	auditSvc := auditService.New(audits, findings, assessSvc, auditService.WithLogger(logger))

	r := chi.NewRouter()
	auditHandler.New(auditSvc, logger).Register(r)
	New(assessSvc, logger).Register(r)
	env.router = r
	return env
}

// do issues a request with the given actor injected the way the auth
// middleware would.
func (env *testEnv) do(method, path string, body any, userID id.UserID, role id.Role) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := requestcontext.WithActor(req.Context(), userID, env.companyID, role)
	ctx = requestcontext.WithTime(ctx, fixedNow)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) asAuditor(method, path string, body any) *httptest.ResponseRecorder {
	return env.do(method, path, body, env.auditorID, id.RoleAuditor)
}

func (env *testEnv) asAdmin(method, path string, body any) *httptest.ResponseRecorder {
	return env.do(method, path, body, env.adminID, id.RoleCompanyAdmin)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

// startAudit drives a scoped audit to IN_PROGRESS through the audit endpoints.
func (env *testEnv) startAudit(t *testing.T) string {
	t.Helper()
	rec := env.asAuditor(http.MethodPost, "/audits", map[string]string{
		"title": "Annual site audit",
		"type":  "INTERNAL",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating audit, got %d: %s", rec.Code, rec.Body.String())
	}
	auditID, _ := decodeBody(t, rec)["id"].(string)
	if auditID == "" {
		t.Fatalf("expected audit id in response: %s", rec.Body.String())
	}

	rec = env.asAuditor(http.MethodPut, "/audits/"+auditID+"/scope", map[string]any{
		"items": []map[string]string{
			{"line_item_id": "LI-1001", "label": "Fire safety walkthrough", "domain_code": "fire-safety"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 replacing scope, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 starting audit, got %d: %s", rec.Code, rec.Body.String())
	}
	return auditID
}

func (env *testEnv) record(t *testing.T, auditID string, indicatorID id.IndicatorID, rating, comment string) map[string]any {
	t.Helper()
	rec := env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": indicatorID.String(),
		"rating":       rating,
		"comment":      comment,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 recording response, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)
}

func TestAssessmentWorkflowViaHandlers(t *testing.T) {
	env := newTestEnv(t)
	auditID := env.startAudit(t)

	rec := env.asAuditor(http.MethodGet, "/audits/"+auditID+"/indicators", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing indicators, got %d: %s", rec.Code, rec.Body.String())
	}
	var catalogue struct {
		Indicators []struct {
			Code string `json:"code"`
		} `json:"indicators"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &catalogue); err != nil {
		t.Fatalf("failed to decode indicators: %v", err)
	}
	if len(catalogue.Indicators) != 2 || catalogue.Indicators[0].Code != "FS-01" {
		t.Fatalf("unexpected catalogue: %+v", catalogue.Indicators)
	}

	major := env.record(t, auditID, env.fs01.ID, "MAJOR_NC",
		"No evacuation plan exists for the annex building")
	if major["status"] != "OPEN" || major["score_points"] != float64(0) {
		t.Fatalf("unexpected major response payload: %v", major)
	}
	env.record(t, auditID, env.fs02.ID, "CONFORMITY", "")

	rec = env.asAuditor(http.MethodGet, "/audits/"+auditID+"/responses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing responses, got %d: %s", rec.Code, rec.Body.String())
	}
	var responses struct {
		Responses []json.RawMessage `json:"responses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &responses); err != nil {
		t.Fatalf("failed to decode responses: %v", err)
	}
	if len(responses.Responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses.Responses))
	}

	// The audit module serves the score off the recorded responses and the
	// finding the major non-conformity opened.
	rec = env.asAuditor(http.MethodGet, "/audits/"+auditID+"/score", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching score, got %d: %s", rec.Code, rec.Body.String())
	}
	score := decodeBody(t, rec)
	if score["responded"] != float64(2) || score["open_major"] != float64(1) {
		t.Fatalf("unexpected score payload: %v", score)
	}
	if pct, ok := score["score_percent"].(float64); !ok || pct < 33.3 || pct > 33.4 {
		t.Fatalf("expected score around 33.33, got %v", score["score_percent"])
	}

	responseID, _ := major["id"].(string)
	rec = env.asAuditor(http.MethodPut, "/responses/"+responseID, map[string]string{
		"rating":  "MINOR_NC",
		"comment": "Plan exists but is outdated for the annex",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 correcting response, got %d: %s", rec.Code, rec.Body.String())
	}
	corrected := decodeBody(t, rec)
	if corrected["rating"] != "MINOR_NC" || corrected["score_points"] != float64(1) {
		t.Fatalf("unexpected corrected payload: %v", corrected)
	}

	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/submit-review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting for review, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAdmin(http.MethodPut, "/responses/"+responseID+"/review-comment", map[string]string{
		"comment": "please re-check the annex plan after the update",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 adding review comment, got %d: %s", rec.Code, rec.Body.String())
	}
	annotated := decodeBody(t, rec)
	if annotated["review_comment"] != "please re-check the annex plan after the update" {
		t.Fatalf("unexpected annotated payload: %v", annotated)
	}
	if annotated["review_comment_by"] != env.adminID.String() {
		t.Fatalf("expected admin as review author, got %v", annotated["review_comment_by"])
	}
}

func TestRecordValidation(t *testing.T) {
	env := newTestEnv(t)
	auditID := env.startAudit(t)

	rec := env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": env.fs01.ID.String(),
		"rating":       "MINOR_NC",
		"comment":      "too short",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a short comment, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": env.fs01.ID.String(),
		"rating":       "PARTIAL",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown rating, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": "not-a-uuid",
		"rating":       "CONFORMITY",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed indicator id, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": uuid.NewString(),
		"rating":       "CONFORMITY",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown indicator, got %d: %s", rec.Code, rec.Body.String())
	}

	env.record(t, auditID, env.fs01.ID, "CONFORMITY", "")
	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": env.fs01.ID.String(),
		"rating":       "CONFORMITY",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate indicator, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": env.fs02.ID.String(),
		"rating":       "CONFORMITY",
	}, id.NewUserID(), id.RoleReviewer)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a reviewer recording, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRecordingBlockedOutsideFieldwork(t *testing.T) {
	env := newTestEnv(t)

	rec := env.asAuditor(http.MethodPost, "/audits", map[string]string{
		"title": "Draft only",
		"type":  "INTERNAL",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating audit, got %d: %s", rec.Code, rec.Body.String())
	}
	auditID, _ := decodeBody(t, rec)["id"].(string)

	rec = env.asAuditor(http.MethodPost, "/audits/"+auditID+"/responses", map[string]string{
		"indicator_id": env.fs01.ID.String(),
		"rating":       "CONFORMITY",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 recording on a draft, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	if resp["error"] != "invalid_state" {
		t.Fatalf("expected invalid_state error, got %v", resp)
	}
}

func TestReviewCommentGuards(t *testing.T) {
	env := newTestEnv(t)
	auditID := env.startAudit(t)
	recorded := env.record(t, auditID, env.fs01.ID, "MINOR_NC",
		"Escape route partially blocked in hall B")
	responseID, _ := recorded["id"].(string)

	rec := env.asAdmin(http.MethodPut, "/responses/"+responseID+"/review-comment", map[string]string{
		"comment": "wait for review",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 annotating outside review, got %d: %s", rec.Code, rec.Body.String())
	}

	if rec := env.asAuditor(http.MethodPost, "/audits/"+auditID+"/submit-review", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting for review, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAuditor(http.MethodPut, "/responses/"+responseID+"/review-comment", map[string]string{
		"comment": "not my call",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for auditor annotation, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asAdmin(http.MethodPut, "/responses/"+responseID+"/review-comment", map[string]string{
		"comment": "   ",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a blank comment, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCorrectionBlockedDuringReview(t *testing.T) {
	env := newTestEnv(t)
	auditID := env.startAudit(t)
	recorded := env.record(t, auditID, env.fs01.ID, "CONFORMITY", "")
	responseID, _ := recorded["id"].(string)

	if rec := env.asAuditor(http.MethodPost, "/audits/"+auditID+"/submit-review", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting for review, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := env.asAuditor(http.MethodPut, "/responses/"+responseID, map[string]string{
		"rating": "CONFORMITY_BEST_PRACTICE",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 correcting during review, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownAndMalformedIDs(t *testing.T) {
	env := newTestEnv(t)

	rec := env.asAuditor(http.MethodGet, "/audits/not-a-uuid/indicators", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed audit id, got %d", rec.Code)
	}

	rec = env.asAuditor(http.MethodPut, "/responses/not-a-uuid", map[string]string{"rating": "CONFORMITY"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed response id, got %d", rec.Code)
	}

	rec = env.asAuditor(http.MethodPut, "/responses/"+uuid.NewString(), map[string]string{"rating": "CONFORMITY"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown response, got %d: %s", rec.Code, rec.Body.String())
	}
}
