package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	auditmodels "conforma/internal/audit/models"
	auditStore "conforma/internal/audit/store/audit"
	"conforma/internal/evidence/models"
	itemStore "conforma/internal/evidence/store/item"
	tokenStore "conforma/internal/evidence/store/portaltoken"
	requestStore "conforma/internal/evidence/store/request"
	findingmodels "conforma/internal/findings/models"
	findingsService "conforma/internal/findings/service"
	findingStore "conforma/internal/findings/store/finding"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/requestcontext"
)

// EvidenceServiceSuite drives the evidence service against the memory stores
// with a real findings service behind the FindingLog port, the way the
// server composes them.
type EvidenceServiceSuite struct {
	suite.Suite
	requests *requestStore.InMemory
	items    *itemStore.InMemory
	tokens   *tokenStore.InMemory
	findings *findingsService.Service
	audits   *auditStore.InMemory
	service  *Service

	companyID  id.CompanyID
	reviewerID id.UserID
	auditID    id.AuditID
	now        time.Time
}

func TestEvidenceServiceSuite(t *testing.T) {
	suite.Run(t, new(EvidenceServiceSuite))
}

func (s *EvidenceServiceSuite) SetupTest() {
	s.requests = requestStore.NewInMemory()
	s.items = itemStore.NewInMemory()
	s.tokens = tokenStore.NewInMemory()
	s.audits = auditStore.NewInMemory()
	s.findings = findingsService.New(findingStore.NewInMemory())
	s.companyID = id.NewCompanyID()
	s.reviewerID = id.NewUserID()
	s.now = time.Date(2026, 4, 2, 11, 0, 0, 0, time.UTC)

	audit, err := auditmodels.NewAudit(id.NewAuditID(), s.companyID, s.reviewerID,
		"Annual site audit", auditmodels.TypeInternal, nil, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.audits.Create(context.Background(), audit))
	s.auditID = audit.ID

	s.service = New(s.requests, s.items, s.tokens, s.audits, nil, s.findings)
}

func (s *EvidenceServiceSuite) reviewerCtx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), s.reviewerID, s.companyID, id.RoleReviewer)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *EvidenceServiceSuite) otherCompanyCtx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), id.NewUserID(), id.NewCompanyID(), id.RoleReviewer)
	return requestcontext.WithTime(ctx, s.now)
}

func (s *EvidenceServiceSuite) portalCtx() context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithClientMetadata(ctx, "203.0.113.9", "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/121.0")
}

func (s *EvidenceServiceSuite) create(in CreateRequestInput) (*models.EvidenceRequest, string) {
	r, token, err := s.service.CreateRequest(s.reviewerCtx(), in)
	s.Require().NoError(err)
	return r, token
}

func pdfRef(name string) models.FileRef {
	return models.FileRef{FileName: name, FilePath: "evidence/" + name, MimeType: "application/pdf", SizeBytes: 1024}
}

func (s *EvidenceServiceSuite) TestCreateRequest() {
	s.Run("creates standalone request in REQUESTED", func() {
		r, token := s.create(CreateRequestInput{Title: "Training matrix"})
		s.Equal(models.StatusRequested, r.Status)
		s.Empty(token)
		s.Empty(r.PortalTokenID)
	})

	s.Run("mints portal token when asked", func() {
		r, token := s.create(CreateRequestInput{Title: "Permit copy", IssuePortalToken: true})
		s.NotEmpty(token)
		s.NotEmpty(r.PortalTokenID)

		// The wire token resolves back to the request.
		got, _, err := s.service.PortalRequest(s.portalCtx(), token)
		s.Require().NoError(err)
		s.Equal(r.ID, got.ID)
	})

	s.Run("rejects blank title as validation error", func() {
		_, _, err := s.service.CreateRequest(s.reviewerCtx(), CreateRequestInput{Title: "   "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown audit link", func() {
		_, _, err := s.service.CreateRequest(s.reviewerCtx(), CreateRequestInput{
			Title: "Linked", AuditID: id.NewAuditID(),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects cross-company audit link", func() {
		_, _, err := s.service.CreateRequest(s.otherCompanyCtx(), CreateRequestInput{
			Title: "Linked", AuditID: s.auditID,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects read-only role", func() {
		ctx := requestcontext.WithActor(context.Background(), id.NewUserID(), s.companyID, id.RoleStaffReadOnly)
		_, _, err := s.service.CreateRequest(requestcontext.WithTime(ctx, s.now), CreateRequestInput{Title: "Nope"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *EvidenceServiceSuite) TestFindingLinkWritesActivityLog() {
	finding, err := s.findings.Register(s.reviewerCtx(), findingsService.RegisterInput{
		AuditID:  s.auditID,
		Severity: findingmodels.SeverityMajorNC,
		Text:     "No maintenance log available for the sprinkler system",
	})
	s.Require().NoError(err)

	r, _ := s.create(CreateRequestInput{Title: "Sprinkler maintenance log", FindingID: finding.ID})

	_, err = s.service.SubmitItem(s.reviewerCtx(), r.ID, pdfRef("maintenance-log.pdf"))
	s.Require().NoError(err)

	_, err = s.service.OpenReview(s.reviewerCtx(), r.ID)
	s.Require().NoError(err)
	_, err = s.service.Review(s.reviewerCtx(), r.ID, models.StatusAccepted, "complete and current")
	s.Require().NoError(err)

	entries, err := s.findings.ListActivities(s.reviewerCtx(), finding.ID)
	s.Require().NoError(err)
	var types []findingmodels.ActivityType
	for _, e := range entries {
		types = append(types, e.Type)
	}
	s.Contains(types, findingmodels.ActivityEvidenceRequested)
	s.Contains(types, findingmodels.ActivityEvidenceSubmitted)
	s.Contains(types, findingmodels.ActivityEvidenceReviewed)
}

func (s *EvidenceServiceSuite) TestSubmissionLifecycle() {
	r, _ := s.create(CreateRequestInput{Title: "Calibration certificates"})

	s.Run("first upload moves REQUESTED to SUBMITTED", func() {
		item, err := s.service.SubmitItem(s.reviewerCtx(), r.ID, pdfRef("certs.pdf"))
		s.Require().NoError(err)
		s.Equal(s.reviewerID, *item.UploaderUserID)

		got, items, err := s.service.GetRequest(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, got.Status)
		s.Len(items, 1)
	})

	s.Run("open review requires SUBMITTED", func() {
		_, err := s.service.OpenReview(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		_, err = s.service.OpenReview(s.reviewerCtx(), r.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("upload during review keeps UNDER_REVIEW", func() {
		_, err := s.service.SubmitItem(s.reviewerCtx(), r.ID, pdfRef("certs-addendum.pdf"))
		s.Require().NoError(err)
		got, _, err := s.service.GetRequest(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusUnderReview, got.Status)
	})

	s.Run("rejection invites resubmission", func() {
		_, err := s.service.Review(s.reviewerCtx(), r.ID, models.StatusRejected, "certificates expired")
		s.Require().NoError(err)

		_, err = s.service.SubmitItem(s.reviewerCtx(), r.ID, pdfRef("certs-2026.pdf"))
		s.Require().NoError(err)
		got, _, err := s.service.GetRequest(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, got.Status)
	})

	s.Run("acceptance is terminal for uploads", func() {
		_, err := s.service.OpenReview(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		updated, err := s.service.Review(s.reviewerCtx(), r.ID, models.StatusAccepted, "")
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, updated.Status)
		s.Equal(s.reviewerID, *updated.ReviewedBy)

		_, err = s.service.SubmitItem(s.reviewerCtx(), r.ID, pdfRef("too-late.pdf"))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("review decision must be terminal", func() {
		other, _ := s.create(CreateRequestInput{Title: "Other"})
		_, err := s.service.Review(s.reviewerCtx(), other.ID, models.StatusSubmitted, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *EvidenceServiceSuite) TestCompanyScoping() {
	r, _ := s.create(CreateRequestInput{Title: "Insurance certificate"})

	_, _, err := s.service.GetRequest(s.otherCompanyCtx(), r.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.SubmitItem(s.otherCompanyCtx(), r.ID, pdfRef("sneaky.pdf"))
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	requests, err := s.service.ListRequests(s.otherCompanyCtx(), models.RequestFilter{})
	s.Require().NoError(err)
	s.Empty(requests)
}

func (s *EvidenceServiceSuite) TestPortalFlow() {
	r, wire := s.create(CreateRequestInput{Title: "Waste disposal contract", IssuePortalToken: true})

	s.Run("submit without email fails", func() {
		_, err := s.service.PortalSubmit(s.portalCtx(), wire, PortalSubmission{File: pdfRef("contract.pdf")})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("submit records external uploader and client", func() {
		item, err := s.service.PortalSubmit(s.portalCtx(), wire, PortalSubmission{
			UploaderEmail: "jo.supplier@example.com",
			File:          pdfRef("contract.pdf"),
		})
		s.Require().NoError(err)
		s.Nil(item.UploaderUserID)
		s.Equal("jo.supplier@example.com", item.UploaderEmail)
		s.NotEmpty(item.UploaderName)
		s.NotEmpty(item.ClientBrowser)

		got, _, err := s.service.GetRequest(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusSubmitted, got.Status)
	})

	s.Run("wrong secret collapses to not found", func() {
		tokenID, _, err := models.SplitToken(wire)
		s.Require().NoError(err)
		_, _, err = s.service.PortalRequest(s.portalCtx(), tokenID+".forged")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reissue invalidates the previous token", func() {
		_, fresh, err := s.service.IssuePortalToken(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)
		s.NotEqual(wire, fresh)

		_, _, err = s.service.PortalRequest(s.portalCtx(), fresh)
		s.NoError(err)
	})

	s.Run("expired token collapses to not found", func() {
		_, wire2, err := s.service.IssuePortalToken(s.reviewerCtx(), r.ID)
		s.Require().NoError(err)

		late := requestcontext.WithTime(context.Background(), s.now.Add(DefaultTokenTTL+time.Hour))
		_, _, err = s.service.PortalRequest(late, wire2)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
