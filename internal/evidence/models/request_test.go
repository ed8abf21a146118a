package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/evidence/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

type RequestModelSuite struct {
	suite.Suite
	now time.Time
}

func TestRequestModelSuite(t *testing.T) {
	suite.Run(t, new(RequestModelSuite))
}

func (s *RequestModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *RequestModelSuite) newRequest() *models.EvidenceRequest {
	request, err := models.NewRequest(id.NewEvidenceRequestID(), id.NewCompanyID(), id.NewUserID(),
		"Maintenance contract for the sprinkler system", "", id.AuditID{}, id.FindingID{}, id.IndicatorID{},
		nil, s.now)
	s.Require().NoError(err)
	return request
}

// advance walks a fresh request to the given status through the model's own
// transitions.
func (s *RequestModelSuite) advance(target models.Status) *models.EvidenceRequest {
	request := s.newRequest()
	reviewer := id.NewUserID()
	switch target {
	case models.StatusRequested:
	case models.StatusSubmitted:
		s.Require().NoError(request.ReceiveItem(s.now))
	case models.StatusUnderReview:
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Require().NoError(request.OpenReview(s.now))
	case models.StatusAccepted:
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Require().NoError(request.OpenReview(s.now))
		s.Require().NoError(request.Review(models.StatusAccepted, "", reviewer, s.now))
	case models.StatusRejected:
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Require().NoError(request.OpenReview(s.now))
		s.Require().NoError(request.Review(models.StatusRejected, "blurry scan", reviewer, s.now))
	}
	s.Require().Equal(target, request.Status)
	return request
}

// ====== Construction ======

func (s *RequestModelSuite) TestNewRequest() {
	s.Run("valid standalone request starts REQUESTED", func() {
		request := s.newRequest()
		s.Equal(models.StatusRequested, request.Status)
		s.True(request.AuditID.IsNil())
		s.True(request.FindingID.IsNil())
		s.False(request.IsLinkedToFinding())
		s.Empty(request.PortalTokenID)
		s.Nil(request.ReviewedBy)
		s.Nil(request.ReviewedAt)
		s.Equal(s.now, request.CreatedAt)
	})

	s.Run("keeps the audit and finding links", func() {
		auditID := id.NewAuditID()
		findingID := id.NewFindingID()
		due := s.now.AddDate(0, 0, 14)
		request, err := models.NewRequest(id.NewEvidenceRequestID(), id.NewCompanyID(), id.NewUserID(),
			"Calibration certificate", "For the flow meter flagged in FS-02", auditID, findingID, id.NewIndicatorID(),
			&due, s.now)
		s.Require().NoError(err)
		s.Equal(auditID, request.AuditID)
		s.Equal(findingID, request.FindingID)
		s.True(request.IsLinkedToFinding())
		s.Equal(due, *request.DueDate)
	})

	s.Run("trims title and description", func() {
		request, err := models.NewRequest(id.NewEvidenceRequestID(), id.NewCompanyID(), id.NewUserID(),
			"  Waste disposal log  ", "  last quarter  ", id.AuditID{}, id.FindingID{}, id.IndicatorID{}, nil, s.now)
		s.Require().NoError(err)
		s.Equal("Waste disposal log", request.Title)
		s.Equal("last quarter", request.Description)
	})

	s.Run("rejects a blank title", func() {
		_, err := models.NewRequest(id.NewEvidenceRequestID(), id.NewCompanyID(), id.NewUserID(),
			"   ", "", id.AuditID{}, id.FindingID{}, id.IndicatorID{}, nil, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects missing company or requester", func() {
		_, err := models.NewRequest(id.NewEvidenceRequestID(), id.CompanyID{}, id.NewUserID(),
			"Permit copy", "", id.AuditID{}, id.FindingID{}, id.IndicatorID{}, nil, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = models.NewRequest(id.NewEvidenceRequestID(), id.NewCompanyID(), id.UserID{},
			"Permit copy", "", id.AuditID{}, id.FindingID{}, id.IndicatorID{}, nil, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// ====== Uploads ======

func (s *RequestModelSuite) TestReceiveItem() {
	s.Run("first upload moves REQUESTED to SUBMITTED", func() {
		request := s.newRequest()
		later := s.now.Add(2 * time.Hour)
		s.Require().NoError(request.ReceiveItem(later))
		s.Equal(models.StatusSubmitted, request.Status)
		s.Equal(later, request.UpdatedAt)
	})

	s.Run("further uploads keep SUBMITTED", func() {
		request := s.advance(models.StatusSubmitted)
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Equal(models.StatusSubmitted, request.Status)
	})

	s.Run("an upload during review keeps UNDER_REVIEW", func() {
		request := s.advance(models.StatusUnderReview)
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Equal(models.StatusUnderReview, request.Status)
	})

	s.Run("resubmission moves REJECTED back to SUBMITTED", func() {
		request := s.advance(models.StatusRejected)
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Equal(models.StatusSubmitted, request.Status)
		s.Equal("blurry scan", request.ReviewNote, "the earlier review note stays on the record")
	})

	s.Run("an accepted request takes no further uploads", func() {
		request := s.advance(models.StatusAccepted)
		err := request.ReceiveItem(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Equal(models.StatusAccepted, request.Status)
	})
}

// ====== Review ======

func (s *RequestModelSuite) TestOpenReview() {
	s.Run("opens review on a submitted request", func() {
		request := s.advance(models.StatusSubmitted)
		s.Require().NoError(request.OpenReview(s.now))
		s.Equal(models.StatusUnderReview, request.Status)
	})

	s.Run("cannot open review before anything was submitted", func() {
		request := s.newRequest()
		err := request.OpenReview(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Contains(err.Error(), "REQUESTED")
	})

	s.Run("cannot reopen review on a terminal request", func() {
		request := s.advance(models.StatusAccepted)
		err := request.OpenReview(s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *RequestModelSuite) TestReview() {
	s.Run("accepts from under review", func() {
		request := s.advance(models.StatusUnderReview)
		reviewer := id.NewUserID()
		later := s.now.Add(time.Hour)
		s.Require().NoError(request.Review(models.StatusAccepted, "  all pages legible  ", reviewer, later))
		s.Equal(models.StatusAccepted, request.Status)
		s.Equal("all pages legible", request.ReviewNote)
		s.Equal(reviewer, *request.ReviewedBy)
		s.Equal(later, *request.ReviewedAt)
	})

	s.Run("rejects from under review", func() {
		request := s.advance(models.StatusUnderReview)
		s.Require().NoError(request.Review(models.StatusRejected, "wrong document", id.NewUserID(), s.now))
		s.Equal(models.StatusRejected, request.Status)
	})

	s.Run("decision must be terminal", func() {
		request := s.advance(models.StatusUnderReview)
		err := request.Review(models.StatusSubmitted, "", id.NewUserID(), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("cannot decide before review was opened", func() {
		request := s.advance(models.StatusSubmitted)
		err := request.Review(models.StatusAccepted, "", id.NewUserID(), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Contains(err.Error(), "SUBMITTED")
	})

	s.Run("a rejected request can run the full cycle again", func() {
		request := s.advance(models.StatusRejected)
		s.Require().NoError(request.ReceiveItem(s.now))
		s.Require().NoError(request.OpenReview(s.now))
		s.Require().NoError(request.Review(models.StatusAccepted, "resubmission is fine", id.NewUserID(), s.now))
		s.Equal(models.StatusAccepted, request.Status)
	})
}

// ====== Portal token ======

func (s *RequestModelSuite) TestAttachPortalToken() {
	request := s.newRequest()
	request.AttachPortalToken("8c0f", s.now)
	s.Equal("8c0f", request.PortalTokenID)

	request.AttachPortalToken("b17a", s.now.Add(time.Minute))
	s.Equal("b17a", request.PortalTokenID, "re-issue replaces the active token")
}

// ====== Parsing ======

func (s *RequestModelSuite) TestParseStatus() {
	status, err := models.ParseStatus("UNDER_REVIEW")
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, status)

	_, err = models.ParseStatus("PENDING")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
