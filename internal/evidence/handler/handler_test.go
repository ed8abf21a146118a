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

	"conforma/internal/evidence/service"
	itemStore "conforma/internal/evidence/store/item"
	requestStore "conforma/internal/evidence/store/request"
	tokenStore "conforma/internal/evidence/store/portaltoken"
	id "conforma/pkg/domain"
	"conforma/pkg/requestcontext"
)

type testEnv struct {
	router     http.Handler
	companyID  id.CompanyID
	reviewerID id.UserID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		companyID:  id.NewCompanyID(),
		reviewerID: id.NewUserID(),
	}

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(requestStore.NewInMemory(), itemStore.NewInMemory(), tokenStore.NewInMemory(),
		nil, nil, nil, service.WithLogger(logger))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterPortal(r)
	env.router = r
	return env
}

// do issues a request with the given actor injected the way the auth
// middleware would.
func (env *testEnv) do(method, path string, body any, userID id.UserID, role id.Role) *httptest.ResponseRecorder {
	req := env.newRequest(method, path, body)
	ctx := requestcontext.WithActor(req.Context(), userID, env.companyID, role)
	ctx = requestcontext.WithTime(ctx, time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC))
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

// portal issues a request the way the public portal does: no actor, only
// client metadata.
func (env *testEnv) portal(method, path string, body any) *httptest.ResponseRecorder {
	req := env.newRequest(method, path, body)
	ctx := requestcontext.WithTime(req.Context(), time.Date(2026, 4, 3, 8, 30, 0, 0, time.UTC))
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) newRequest(method, path string, body any) *http.Request {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (env *testEnv) asReviewer(method, path string, body any) *httptest.ResponseRecorder {
	return env.do(method, path, body, env.reviewerID, id.RoleReviewer)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

// createWithPortal opens a request with a portal token and returns both.
func (env *testEnv) createWithPortal(t *testing.T) (requestID, wireToken string) {
	t.Helper()
	rec := env.asReviewer(http.MethodPost, "/evidence-requests", map[string]any{
		"title":              "Fire extinguisher inspection log",
		"description":        "Most recent annual inspection report",
		"issue_portal_token": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating request, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody(t, rec)
	request, _ := resp["request"].(map[string]any)
	requestID, _ = request["id"].(string)
	wireToken, _ = resp["portal_token"].(string)
	if requestID == "" || wireToken == "" {
		t.Fatalf("expected request id and portal token, got %v", resp)
	}
	if request["has_portal_token"] != true {
		t.Fatalf("expected portal token flagged on the request view")
	}
	return requestID, wireToken
}

func TestEvidenceLifecycleViaHandlers(t *testing.T) {
	env := newTestEnv(t)
	requestID, _ := env.createWithPortal(t)

	rec := env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/items", map[string]any{
		"file_name":  "inspection-2026.pdf",
		"file_path":  "evidence/inspection-2026.pdf",
		"mime_type":  "application/pdf",
		"size_bytes": 48213,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 submitting item, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asReviewer(http.MethodGet, "/evidence-requests/"+requestID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching request, got %d", rec.Code)
	}
	resp := decodeBody(t, rec)
	request, _ := resp["request"].(map[string]any)
	if request["status"] != "SUBMITTED" {
		t.Fatalf("expected SUBMITTED after upload, got %v", request["status"])
	}
	items, _ := resp["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}

	rec = env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/open-review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 opening review, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/reject", map[string]string{
		"note": "report is for the wrong site",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeBody(t, rec)
	if view["status"] != "REJECTED" {
		t.Fatalf("expected REJECTED, got %v", view["status"])
	}
	if view["review_note"] != "report is for the wrong site" {
		t.Fatalf("expected review note kept, got %v", view["review_note"])
	}

	// Resubmission moves the request back to SUBMITTED.
	rec = env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/items", map[string]any{
		"link_url": "https://docs.example.com/inspection-2026-rev2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 resubmitting, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/open-review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reopening review, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/accept", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 accepting, got %d: %s", rec.Code, rec.Body.String())
	}

	// An accepted request takes no further uploads.
	rec = env.asReviewer(http.MethodPost, "/evidence-requests/"+requestID+"/items", map[string]any{
		"link_url": "https://docs.example.com/late-addendum",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 uploading to accepted request, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPortalFlow(t *testing.T) {
	env := newTestEnv(t)
	requestID, wireToken := env.createWithPortal(t)

	rec := env.portal(http.MethodGet, "/portal/evidence/"+wireToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 resolving portal token, got %d: %s", rec.Code, rec.Body.String())
	}
	view := decodeBody(t, rec)
	if view["title"] != "Fire extinguisher inspection log" {
		t.Fatalf("expected request title in portal view, got %v", view["title"])
	}
	if _, present := view["id"]; present {
		t.Fatalf("portal view must not expose internal identifiers")
	}

	rec = env.portal(http.MethodPost, "/portal/evidence/"+wireToken+"/items", map[string]any{
		"uploader_email": "supplier@example.com",
		"file_name":      "inspection-scan.pdf",
		"file_path":      "portal/inspection-scan.pdf",
		"mime_type":      "application/pdf",
		"size_bytes":     120331,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 portal upload, got %d: %s", rec.Code, rec.Body.String())
	}
	item := decodeBody(t, rec)
	if item["uploader_email"] != "supplier@example.com" {
		t.Fatalf("expected uploader email recorded, got %v", item["uploader_email"])
	}
	if item["uploader_name"] == "" || item["uploader_name"] == nil {
		t.Fatalf("expected uploader name derived from email")
	}
	if item["client_browser"] == nil {
		t.Fatalf("expected client browser parsed from the user agent")
	}

	rec = env.asReviewer(http.MethodGet, "/evidence-requests/"+requestID, nil)
	resp := decodeBody(t, rec)
	request, _ := resp["request"].(map[string]any)
	if request["status"] != "SUBMITTED" {
		t.Fatalf("expected SUBMITTED after portal upload, got %v", request["status"])
	}

	// Email is mandatory on the portal path.
	rec = env.portal(http.MethodPost, "/portal/evidence/"+wireToken+"/items", map[string]any{
		"file_name": "anonymous.pdf",
		"file_path": "portal/anonymous.pdf",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing uploader email, got %d: %s", rec.Code, rec.Body.String())
	}

	// Garbage tokens collapse to not-found.
	rec = env.portal(http.MethodGet, "/portal/evidence/not-a-token", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed token, got %d", rec.Code)
	}
	rec = env.portal(http.MethodGet, "/portal/evidence/"+requestID+".wrongsecret", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown token, got %d", rec.Code)
	}
}

func TestEvidenceRoleEnforcement(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/evidence-requests", map[string]any{"title": "Nope"},
		id.NewUserID(), id.RoleStaffReadOnly)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for read-only create, got %d", rec.Code)
	}

	requestID, _ := env.createWithPortal(t)
	rec = env.do(http.MethodPost, "/evidence-requests/"+requestID+"/accept", nil,
		id.NewUserID(), id.RoleStaffReadOnly)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for read-only review, got %d", rec.Code)
	}
}
