package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

type AuditModelSuite struct {
	suite.Suite
	now time.Time
}

func TestAuditModelSuite(t *testing.T) {
	suite.Run(t, new(AuditModelSuite))
}

func (s *AuditModelSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *AuditModelSuite) newDraft() *models.Audit {
	audit, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
		"Annual site audit", models.TypeInternal, nil, nil, s.now)
	s.Require().NoError(err)
	return audit
}

func (s *AuditModelSuite) newScopedDraft() *models.Audit {
	audit := s.newDraft()
	s.Require().NoError(audit.ReplaceScope([]models.ScopeItem{
		{LineItemID: "LI-1001", Label: "Fire safety walkthrough", DomainCode: "fire-safety", Position: 0},
		{LineItemID: "LI-1002", Label: "Chemical storage", DomainCode: "chemicals", Position: 1},
	}, s.now))
	return audit
}

func (s *AuditModelSuite) TestNewAudit() {
	s.Run("valid input yields a draft", func() {
		audit := s.newDraft()
		s.Equal(models.StatusDraft, audit.Status)
		s.Equal("Annual site audit", audit.Title)
		s.False(audit.ScopeLocked())
		s.Empty(audit.Scope)
		s.Equal(s.now, audit.CreatedAt)
		s.Equal(s.now, audit.UpdatedAt)
	})

	s.Run("trims the title", func() {
		audit, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
			"  Q3 review  ", models.TypeExternal, nil, nil, s.now)
		s.Require().NoError(err)
		s.Equal("Q3 review", audit.Title)
	})

	s.Run("rejects empty title", func() {
		_, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
			"   ", models.TypeInternal, nil, nil, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("rejects overlong title", func() {
		_, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
			strings.Repeat("x", 201), models.TypeInternal, nil, nil, s.now)
		s.Require().Error(err)
		s.Contains(err.Error(), "200 characters")
	})

	s.Run("rejects unknown type", func() {
		_, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
			"Audit", models.AuditType("SURPRISE"), nil, nil, s.now)
		s.Require().Error(err)
		s.Contains(err.Error(), "invalid audit type")
	})

	s.Run("rejects inverted scope window", func() {
		start := s.now
		end := s.now.Add(-24 * time.Hour)
		_, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
			"Audit", models.TypeInternal, &start, &end, s.now)
		s.Require().Error(err)
		s.Contains(err.Error(), "scope end")
	})
}

func (s *AuditModelSuite) TestScopeReplacement() {
	s.Run("draft scope is editable and replaceable", func() {
		audit := s.newScopedDraft()
		s.Len(audit.Scope, 2)

		err := audit.ReplaceScope([]models.ScopeItem{
			{LineItemID: "LI-2000", Label: "Legal register", DomainCode: "legal-register"},
		}, s.now.Add(time.Minute))
		s.Require().NoError(err)
		s.Len(audit.Scope, 1)
		s.Equal(id.LineItemID("LI-2000"), audit.Scope[0].LineItemID)
	})

	s.Run("scope is frozen after start", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))

		err := audit.ReplaceScope(nil, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Contains(err.Error(), "locked")
	})

	s.Run("domain codes deduplicate in scope order", func() {
		audit := s.newDraft()
		s.Require().NoError(audit.ReplaceScope([]models.ScopeItem{
			{LineItemID: "a", Label: "A", DomainCode: "fire-safety"},
			{LineItemID: "b", Label: "B", DomainCode: "chemicals"},
			{LineItemID: "c", Label: "C", DomainCode: "fire-safety"},
		}, s.now))
		s.Equal([]string{"fire-safety", "chemicals"}, audit.DomainCodes())
	})
}

func (s *AuditModelSuite) TestStart() {
	s.Run("requires at least one scope item", func() {
		audit := s.newDraft()
		err := audit.Start(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.StatusDraft, audit.Status)
	})

	s.Run("locks scope irreversibly and moves to in progress", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		s.Equal(models.StatusInProgress, audit.Status)
		s.Require().NotNil(audit.ScopeLockedAt)
		s.Equal(s.now, *audit.ScopeLockedAt)
	})

	s.Run("cannot start twice", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		err := audit.Start(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *AuditModelSuite) TestSubmitForReview() {
	s.Run("clears previous review notes", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		audit.ReviewNotes = "fix sampling in section 3"

		s.Require().NoError(audit.SubmitForReview(s.now))
		s.Equal(models.StatusInReview, audit.Status)
		s.Empty(audit.ReviewNotes)
		s.Require().NotNil(audit.SubmittedForReviewAt)
	})

	s.Run("rejected outside in progress", func() {
		audit := s.newScopedDraft()
		err := audit.SubmitForReview(s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *AuditModelSuite) TestRequestChanges() {
	inReview := func() *models.Audit {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		s.Require().NoError(audit.SubmitForReview(s.now))
		return audit
	}

	s.Run("returns the audit to in progress with notes", func() {
		audit := inReview()
		s.Require().NoError(audit.RequestChanges("  section 2 needs evidence  ", s.now))
		s.Equal(models.StatusInProgress, audit.Status)
		s.Equal("section 2 needs evidence", audit.ReviewNotes)
	})

	s.Run("empty notes are rejected", func() {
		audit := inReview()
		err := audit.RequestChanges("   ", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.StatusInReview, audit.Status)
	})

	s.Run("rejected outside in review", func() {
		audit := s.newScopedDraft()
		err := audit.RequestChanges("notes", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("resubmission clears the request-changes notes", func() {
		audit := inReview()
		s.Require().NoError(audit.RequestChanges("rework section 2", s.now))
		s.Require().NoError(audit.SubmitForReview(s.now.Add(time.Hour)))
		s.Empty(audit.ReviewNotes)
	})
}

func (s *AuditModelSuite) TestApprove() {
	s.Run("closes the audit and stamps approval", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		s.Require().NoError(audit.SubmitForReview(s.now))

		later := s.now.Add(2 * time.Hour)
		s.Require().NoError(audit.Approve("accepted with remarks", later))
		s.Equal(models.StatusClosed, audit.Status)
		s.Require().NotNil(audit.ApprovedAt)
		s.Equal(later, *audit.ApprovedAt)
		s.Require().NotNil(audit.ClosedAt)
		s.Equal("accepted with remarks", audit.CloseReason)
	})

	s.Run("reason is optional", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		s.Require().NoError(audit.SubmitForReview(s.now))
		s.Require().NoError(audit.Approve("", s.now))
		s.Empty(audit.CloseReason)
	})

	s.Run("rejected outside in review", func() {
		audit := s.newScopedDraft()
		err := audit.Approve("", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *AuditModelSuite) TestClose() {
	s.Run("closes from draft without a reason when nothing major is open", func() {
		audit := s.newDraft()
		s.Require().NoError(audit.Close("", 0, s.now))
		s.Equal(models.StatusClosed, audit.Status)
		s.Nil(audit.ApprovedAt)
	})

	s.Run("closes from in progress", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		s.Require().NoError(audit.Close("engagement cancelled", 0, s.now))
		s.Equal("engagement cancelled", audit.CloseReason)
	})

	s.Run("open major non-conformities make the reason mandatory", func() {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))

		err := audit.Close("", 2, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.StatusInProgress, audit.Status)

		s.Require().NoError(audit.Close("customer accepts the residual risk", 2, s.now))
		s.Equal(models.StatusClosed, audit.Status)
	})

	s.Run("closing twice is rejected", func() {
		audit := s.newDraft()
		s.Require().NoError(audit.Close("", 0, s.now))
		err := audit.Close("", 0, s.now)
		s.Require().Error(err)
		s.Contains(err.Error(), "already closed")
	})
}

func (s *AuditModelSuite) TestReopen() {
	closedWithApproval := func() *models.Audit {
		audit := s.newScopedDraft()
		s.Require().NoError(audit.Start(s.now))
		s.Require().NoError(audit.SubmitForReview(s.now))
		s.Require().NoError(audit.Approve("", s.now))
		return audit
	}

	s.Run("lands back in review and keeps the approval timestamp", func() {
		audit := closedWithApproval()
		approvedAt := *audit.ApprovedAt

		later := s.now.Add(48 * time.Hour)
		s.Require().NoError(audit.Reopen("late evidence arrived", later))
		s.Equal(models.StatusInReview, audit.Status)
		s.Require().NotNil(audit.ApprovedAt)
		s.Equal(approvedAt, *audit.ApprovedAt)
		s.Require().NotNil(audit.ReopenedAt)
		s.Equal(later, *audit.ReopenedAt)
	})

	s.Run("requires a reason", func() {
		audit := closedWithApproval()
		err := audit.Reopen("  ", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.StatusClosed, audit.Status)
	})

	s.Run("only closed audits reopen", func() {
		audit := s.newScopedDraft()
		err := audit.Reopen("reason", s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("a reopened audit can be closed again", func() {
		audit := closedWithApproval()
		s.Require().NoError(audit.Reopen("late evidence arrived", s.now))
		s.Require().NoError(audit.Close("evidence reviewed, verdict stands", 0, s.now))
		s.Equal(models.StatusClosed, audit.Status)
	})
}

func (s *AuditModelSuite) TestStatusTransitions() {
	s.Run("edges match the state machine", func() {
		s.True(models.StatusDraft.CanTransitionTo(models.StatusInProgress))
		s.True(models.StatusDraft.CanTransitionTo(models.StatusClosed))
		s.False(models.StatusDraft.CanTransitionTo(models.StatusInReview))

		s.True(models.StatusInProgress.CanTransitionTo(models.StatusInReview))
		s.True(models.StatusInProgress.CanTransitionTo(models.StatusClosed))
		s.False(models.StatusInProgress.CanTransitionTo(models.StatusDraft))

		s.True(models.StatusInReview.CanTransitionTo(models.StatusInProgress))
		s.True(models.StatusInReview.CanTransitionTo(models.StatusClosed))

		s.True(models.StatusClosed.CanTransitionTo(models.StatusInReview))
		s.False(models.StatusClosed.CanTransitionTo(models.StatusDraft))
		s.False(models.StatusClosed.CanTransitionTo(models.StatusInProgress))
	})

	s.Run("parse accepts enum literals only", func() {
		status, err := models.ParseStatus("IN_REVIEW")
		s.Require().NoError(err)
		s.Equal(models.StatusInReview, status)

		_, err = models.ParseStatus("REOPENED")
		s.Require().Error(err)
	})
}
