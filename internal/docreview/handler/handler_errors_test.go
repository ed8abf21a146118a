package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"conforma/internal/docreview/handler/mocks"
	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service
type ReviewErrorMappingSuite struct {
	suite.Suite
}

func TestReviewErrorMappingSuite(t *testing.T) {
	suite.Run(t, new(ReviewErrorMappingSuite))
}

func newMockedRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func serve(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func (s *ReviewErrorMappingSuite) TestResolvedSuggestionMapsToConflict() {
	router, mockService := newMockedRouter(s.T())
	suggestionID := id.NewSuggestionID()
	mockService.EXPECT().DismissSuggestion(gomock.Any(), suggestionID, "").
		Return(nil, dErrors.New(dErrors.CodeConflict, "suggestion is already CONFIRMED"))

	rec := serve(router, http.MethodPost, "/suggested-findings/"+suggestionID.String()+"/dismiss", nil)

	assert.Equal(s.T(), http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "conflict", envelope["error"])
	assert.Equal(s.T(), "suggestion is already CONFIRMED", envelope["error_description"])
}

func (s *ReviewErrorMappingSuite) TestUnknownReviewMapsTo404() {
	router, mockService := newMockedRouter(s.T())
	reviewID := id.NewReviewID()
	mockService.EXPECT().GetReview(gomock.Any(), reviewID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "document review not found"))

	rec := serve(router, http.MethodGet, "/document-reviews/"+reviewID.String(), nil)

	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "not_found", envelope["error"])
}

func (s *ReviewErrorMappingSuite) TestForbiddenMapsTo403() {
	router, mockService := newMockedRouter(s.T())
	suggestionID := id.NewSuggestionID()
	mockService.EXPECT().ConfirmSuggestion(gomock.Any(), suggestionID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeForbidden, "suggestion belongs to a different company"))

	body, err := json.Marshal(map[string]string{
		"finding_type": "MINOR_NC",
		"description":  "revision history is missing entirely",
	})
	require.NoError(s.T(), err)
	rec := serve(router, http.MethodPost, "/suggested-findings/"+suggestionID.String()+"/confirm", body)

	assert.Equal(s.T(), http.StatusForbidden, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "forbidden", envelope["error"])
	assert.Equal(s.T(), "suggestion belongs to a different company", envelope["error_description"])
}

func (s *ReviewErrorMappingSuite) TestValidationMessageSurfacesVerbatim() {
	router, mockService := newMockedRouter(s.T())
	itemID := id.NewEvidenceItemID()
	mockService.EXPECT().SubmitReview(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "every checklist item must be answered"))

	body, err := json.Marshal(map[string]any{
		"template_id": id.NewTemplateID().String(),
		"answers":     []map[string]string{},
		"decision":    "ACCEPT",
	})
	require.NoError(s.T(), err)
	rec := serve(router, http.MethodPost, "/evidence-items/"+itemID.String()+"/reviews", body)

	assert.Equal(s.T(), http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "validation_error", envelope["error"])
	assert.Equal(s.T(), "every checklist item must be answered", envelope["error_description"])
}

func (s *ReviewErrorMappingSuite) TestInternalFailureHidesDetails() {
	router, mockService := newMockedRouter(s.T())
	mockService.EXPECT().ListSuggestions(gomock.Any(), models.SuggestionFilter{}).
		Return(nil, dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "failed to list suggestions"))

	rec := serve(router, http.MethodGet, "/suggested-findings", nil)

	assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "internal_error", envelope["error"])
	_, leaked := envelope["error_description"]
	assert.False(s.T(), leaked, "internal details must not reach the caller")
}

func (s *ReviewErrorMappingSuite) TestTemplateListFailureMapsErrors() {
	router, mockService := newMockedRouter(s.T())
	mockService.EXPECT().ListTemplates(gomock.Any(), "").
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context"))

	rec := serve(router, http.MethodGet, "/checklist-templates", nil)

	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "unauthorized", envelope["error"])
}
