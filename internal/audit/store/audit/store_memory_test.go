package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/sentinel"
)

type AuditStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestAuditStoreSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *AuditStoreSuite) newStoredAudit(companyID id.CompanyID) *models.Audit {
	audit, err := models.NewAudit(id.NewAuditID(), companyID, id.NewUserID(),
		"Warehouse audit", models.TypeInternal, nil, nil, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, audit))
	return audit
}

func (s *AuditStoreSuite) TestCreateAndFind() {
	s.Run("round-trips an audit", func() {
		audit := s.newStoredAudit(id.NewCompanyID())

		found, err := s.store.FindByID(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal(audit.ID, found.ID)
		s.Equal(audit.Title, found.Title)
		s.Equal(models.StatusDraft, found.Status)
	})

	s.Run("duplicate id conflicts", func() {
		audit := s.newStoredAudit(id.NewCompanyID())
		err := s.store.Create(s.ctx, audit)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("missing audit returns ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, id.NewAuditID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned audit is a copy", func() {
		audit := s.newStoredAudit(id.NewCompanyID())
		found, err := s.store.FindByID(s.ctx, audit.ID)
		s.Require().NoError(err)
		found.Title = "tampered"

		again, err := s.store.FindByID(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal("Warehouse audit", again.Title)
	})
}

func (s *AuditStoreSuite) TestListByCompany() {
	s.Run("filters by company, newest first", func() {
		companyID := id.NewCompanyID()
		otherCompany := id.NewCompanyID()

		first, err := models.NewAudit(id.NewAuditID(), companyID, id.NewUserID(),
			"First", models.TypeInternal, nil, nil, s.now)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(s.ctx, first))

		second, err := models.NewAudit(id.NewAuditID(), companyID, id.NewUserID(),
			"Second", models.TypeInternal, nil, nil, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(s.ctx, second))

		s.newStoredAudit(otherCompany)

		audits, err := s.store.ListByCompany(s.ctx, companyID)
		s.Require().NoError(err)
		s.Require().Len(audits, 2)
		s.Equal("Second", audits[0].Title)
		s.Equal("First", audits[1].Title)
	})

	s.Run("unknown company lists empty", func() {
		audits, err := s.store.ListByCompany(s.ctx, id.NewCompanyID())
		s.Require().NoError(err)
		s.Empty(audits)
	})
}

func (s *AuditStoreSuite) TestExecute() {
	scoped := func() *models.Audit {
		audit, err := models.NewAudit(id.NewAuditID(), id.NewCompanyID(), id.NewUserID(),
			"Scoped audit", models.TypeInternal, nil, nil, s.now)
		s.Require().NoError(err)
		s.Require().NoError(audit.ReplaceScope([]models.ScopeItem{
			{LineItemID: "LI-1", Label: "Fire safety", DomainCode: "fire-safety"},
		}, s.now))
		s.Require().NoError(s.store.Create(s.ctx, audit))
		return audit
	}

	s.Run("applies mutation when validation passes", func() {
		audit := scoped()

		updated, err := s.store.Execute(s.ctx, audit.ID,
			func(a *models.Audit) error { return a.CanStart() },
			func(a *models.Audit) { a.ApplyStart(s.now) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, updated.Status)

		persisted, err := s.store.FindByID(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, persisted.Status)
	})

	s.Run("validation failure leaves the audit untouched and returns it", func() {
		audit := scoped()

		current, err := s.store.Execute(s.ctx, audit.ID,
			func(a *models.Audit) error { return a.CanApprove() },
			func(a *models.Audit) { a.ApplyApproval("", s.now) },
		)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		s.Require().NotNil(current)
		s.Equal(models.StatusDraft, current.Status)

		persisted, err := s.store.FindByID(s.ctx, audit.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusDraft, persisted.Status)
	})

	s.Run("missing audit returns ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, id.NewAuditID(),
			func(a *models.Audit) error { return nil },
			func(a *models.Audit) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("second writer loses the status race", func() {
		audit := scoped()

		_, err := s.store.Execute(s.ctx, audit.ID,
			func(a *models.Audit) error { return a.CanClose("", 0) },
			func(a *models.Audit) { a.ApplyClose("", s.now) },
		)
		s.Require().NoError(err)

		// The same transition again now validates against CLOSED.
		_, err = s.store.Execute(s.ctx, audit.ID,
			func(a *models.Audit) error { return a.CanClose("", 0) },
			func(a *models.Audit) { a.ApplyClose("", s.now) },
		)
		s.Require().Error(err)
		s.Contains(err.Error(), "already closed")
	})
}
