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

	"conforma/internal/findings/handler/mocks"
	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler-mocks.go -package=mocks Service
type FindingErrorMappingSuite struct {
	suite.Suite
}

func TestFindingErrorMappingSuite(t *testing.T) {
	suite.Run(t, new(FindingErrorMappingSuite))
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

func (s *FindingErrorMappingSuite) TestInvariantViolationMapsToConflict() {
	router, mockService := newMockedRouter(s.T())
	findingID := id.NewFindingID()
	mockService.EXPECT().ChangeStatus(gomock.Any(), findingID, models.StatusOpen, "").
		Return(nil, dErrors.New(dErrors.CodeInvariantViolation, "finding cannot move from UNDER_REVIEW to OPEN"))

	body, err := json.Marshal(map[string]string{"status": "OPEN"})
	require.NoError(s.T(), err)
	rec := serve(router, http.MethodPost, "/findings/"+findingID.String()+"/status", body)

	assert.Equal(s.T(), http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "invalid_state", envelope["error"])
	assert.Equal(s.T(), "finding cannot move from UNDER_REVIEW to OPEN", envelope["error_description"])
}

func (s *FindingErrorMappingSuite) TestNotFoundMapsTo404() {
	router, mockService := newMockedRouter(s.T())
	findingID := id.NewFindingID()
	mockService.EXPECT().GetFinding(gomock.Any(), findingID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "finding not found"))

	rec := serve(router, http.MethodGet, "/findings/"+findingID.String(), nil)

	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "not_found", envelope["error"])
}

func (s *FindingErrorMappingSuite) TestForbiddenMapsTo403() {
	router, mockService := newMockedRouter(s.T())
	findingID := id.NewFindingID()
	mockService.EXPECT().UpdateFinding(gomock.Any(), findingID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeForbidden, "role does not permit this action"))

	body, err := json.Marshal(map[string]string{"finding_text": "Reworded during the review meeting"})
	require.NoError(s.T(), err)
	rec := serve(router, http.MethodPatch, "/findings/"+findingID.String(), body)

	assert.Equal(s.T(), http.StatusForbidden, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "forbidden", envelope["error"])
	assert.Equal(s.T(), "role does not permit this action", envelope["error_description"])
}

func (s *FindingErrorMappingSuite) TestValidationMessageSurfacesVerbatim() {
	router, mockService := newMockedRouter(s.T())
	findingID := id.NewFindingID()
	mockService.EXPECT().ChangeStatus(gomock.Any(), findingID, models.StatusClosed, "").
		Return(nil, dErrors.New(dErrors.CodeValidation, "a closure note is required to close a major non-conformity"))

	body, err := json.Marshal(map[string]string{"status": "CLOSED"})
	require.NoError(s.T(), err)
	rec := serve(router, http.MethodPost, "/findings/"+findingID.String()+"/status", body)

	assert.Equal(s.T(), http.StatusUnprocessableEntity, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "validation_error", envelope["error"])
	assert.Equal(s.T(), "a closure note is required to close a major non-conformity", envelope["error_description"])
}

func (s *FindingErrorMappingSuite) TestInternalFailureHidesDetails() {
	router, mockService := newMockedRouter(s.T())
	findingID := id.NewFindingID()
	mockService.EXPECT().AddComment(gomock.Any(), findingID, "noted").
		Return(nil, dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "failed to append finding activity"))

	body, err := json.Marshal(map[string]string{"text": "noted"})
	require.NoError(s.T(), err)
	rec := serve(router, http.MethodPost, "/findings/"+findingID.String()+"/comments", body)

	assert.Equal(s.T(), http.StatusInternalServerError, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "internal_error", envelope["error"])
	_, leaked := envelope["error_description"]
	assert.False(s.T(), leaked, "internal details must not reach the caller")
}

func (s *FindingErrorMappingSuite) TestListFailureMapsErrors() {
	router, mockService := newMockedRouter(s.T())
	mockService.EXPECT().ListFindings(gomock.Any(), models.FindingFilter{}).
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context"))

	rec := serve(router, http.MethodGet, "/findings", nil)

	assert.Equal(s.T(), http.StatusUnauthorized, rec.Code)
	envelope := decodeEnvelope(s.T(), rec)
	assert.Equal(s.T(), "unauthorized", envelope["error"])
}
