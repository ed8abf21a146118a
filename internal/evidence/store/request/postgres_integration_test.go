//go:build integration

package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	auditModels "conforma/internal/audit/models"
	auditStore "conforma/internal/audit/store/audit"
	"conforma/internal/evidence/models"
	"conforma/internal/evidence/store/request"
	findingModels "conforma/internal/findings/models"
	findingStore "conforma/internal/findings/store/finding"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *request.Postgres
	audits   *auditStore.Postgres
	findings *findingStore.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = request.NewPostgres(s.postgres.DB)
	s.audits = auditStore.NewPostgres(s.postgres.DB)
	s.findings = findingStore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// CASCADE clears evidence_items with the requests.
	err := s.postgres.TruncateTables(ctx, "evidence_requests", "findings", "audits")
	s.Require().NoError(err)
}

// newStoredAudit creates the audit row a linked request's FK points at.
func (s *PostgresStoreSuite) newStoredAudit(companyID id.CompanyID) id.AuditID {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a, err := auditModels.NewAudit(id.NewAuditID(), companyID, id.NewUserID(),
		"Integration audit", auditModels.TypeInternal, nil, nil, now)
	s.Require().NoError(err)
	s.Require().NoError(s.audits.Create(ctx, a))
	return a.ID
}

func (s *PostgresStoreSuite) newStoredFinding(companyID id.CompanyID) id.FindingID {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	f, err := findingModels.NewFinding(id.NewFindingID(), companyID, id.NewUserID(),
		findingModels.SeverityMinorNC, "Extinguisher service interval exceeded", now)
	s.Require().NoError(err)
	s.Require().NoError(s.findings.Create(ctx, f))
	return f.ID
}

func (s *PostgresStoreSuite) newRequest(companyID id.CompanyID, auditID id.AuditID, findingID id.FindingID) *models.EvidenceRequest {
	now := time.Now().UTC().Truncate(time.Microsecond)
	r, err := models.NewRequest(id.NewEvidenceRequestID(), companyID, id.NewUserID(),
		"Fire extinguisher maintenance log", "Most recent service report", auditID, findingID, id.IndicatorID{}, nil, now)
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	r := s.newRequest(id.NewCompanyID(), id.AuditID{}, id.FindingID{})

	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ID, found.ID)
	s.Equal(r.CompanyID, found.CompanyID)
	s.True(found.AuditID.IsNil())
	s.True(found.FindingID.IsNil())
	s.True(found.IndicatorID.IsNil())
	s.Equal("Fire extinguisher maintenance log", found.Title)
	s.Equal("Most recent service report", found.Description)
	s.Equal(models.StatusRequested, found.Status)
	s.Nil(found.DueDate)
	s.Empty(found.PortalTokenID)
	s.Equal(r.RequestedBy, found.RequestedBy)
	s.Empty(found.ReviewNote)
	s.Nil(found.ReviewedBy)
	s.Nil(found.ReviewedAt)
}

func (s *PostgresStoreSuite) TestLinkedRequestRoundTrip() {
	ctx := context.Background()
	companyID := id.NewCompanyID()
	auditID := s.newStoredAudit(companyID)
	findingID := s.newStoredFinding(companyID)

	due := time.Now().UTC().Truncate(time.Microsecond).AddDate(0, 0, 14)
	r, err := models.NewRequest(id.NewEvidenceRequestID(), companyID, id.NewUserID(),
		"Corrective action photos", "", auditID, findingID, id.IndicatorID{}, &due,
		time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(auditID, found.AuditID)
	s.Equal(findingID, found.FindingID)
	s.Require().NotNil(found.DueDate)
	s.True(due.Equal(*found.DueDate))
}

func (s *PostgresStoreSuite) TestDuplicateIDConflicts() {
	ctx := context.Background()
	r := s.newRequest(id.NewCompanyID(), id.AuditID{}, id.FindingID{})

	s.Require().NoError(s.store.Create(ctx, r))
	err := s.store.Create(ctx, r)
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestNotFoundError() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, id.NewEvidenceRequestID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Execute(ctx, id.NewEvidenceRequestID(),
		func(r *models.EvidenceRequest) error { return nil },
		func(r *models.EvidenceRequest) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFiltersAndOrder() {
	ctx := context.Background()
	companyID := id.NewCompanyID()
	auditID := s.newStoredAudit(companyID)

	older := s.newRequest(companyID, auditID, id.FindingID{})
	s.Require().NoError(s.store.Create(ctx, older))
	newer := s.newRequest(companyID, id.AuditID{}, id.FindingID{})
	newer.CreatedAt = newer.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, newer))
	s.Require().NoError(s.store.Create(ctx, s.newRequest(id.NewCompanyID(), id.AuditID{}, id.FindingID{})))

	all, err := s.store.List(ctx, companyID, models.RequestFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(newer.ID, all[0].ID)
	s.Equal(older.ID, all[1].ID)

	inAudit, err := s.store.List(ctx, companyID, models.RequestFilter{AuditID: auditID})
	s.Require().NoError(err)
	s.Require().Len(inAudit, 1)
	s.Equal(older.ID, inAudit[0].ID)

	requested, err := s.store.List(ctx, companyID, models.RequestFilter{Status: models.StatusRequested})
	s.Require().NoError(err)
	s.Len(requested, 2)
}

func (s *PostgresStoreSuite) TestExecutePersistsWorkflow() {
	ctx := context.Background()
	r := s.newRequest(id.NewCompanyID(), id.AuditID{}, id.FindingID{})
	s.Require().NoError(s.store.Create(ctx, r))

	now := time.Now().UTC().Truncate(time.Microsecond)
	tokenID := uuid.NewString()
	_, err := s.store.Execute(ctx, r.ID,
		func(req *models.EvidenceRequest) error { return nil },
		func(req *models.EvidenceRequest) { req.AttachPortalToken(tokenID, now) },
	)
	s.Require().NoError(err)

	_, err = s.store.Execute(ctx, r.ID,
		func(req *models.EvidenceRequest) error { return req.CanReceiveItem() },
		func(req *models.EvidenceRequest) { req.ApplyItemReceived(now) },
	)
	s.Require().NoError(err)

	_, err = s.store.Execute(ctx, r.ID,
		func(req *models.EvidenceRequest) error { return req.CanOpenReview() },
		func(req *models.EvidenceRequest) { req.ApplyOpenReview(now) },
	)
	s.Require().NoError(err)

	reviewer := id.NewUserID()
	updated, err := s.store.Execute(ctx, r.ID,
		func(req *models.EvidenceRequest) error { return req.CanReview(models.StatusRejected) },
		func(req *models.EvidenceRequest) {
			req.ApplyReview(models.StatusRejected, "scan is unreadable", reviewer, now)
		},
	)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, updated.Status)

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, found.Status)
	s.Equal(tokenID, found.PortalTokenID)
	s.Equal("scan is unreadable", found.ReviewNote)
	s.Require().NotNil(found.ReviewedBy)
	s.Equal(reviewer, *found.ReviewedBy)
	s.Require().NotNil(found.ReviewedAt)
	s.WithinDuration(now, *found.ReviewedAt, time.Second)
}

func (s *PostgresStoreSuite) TestExecuteValidationFailureRollsBack() {
	ctx := context.Background()
	r := s.newRequest(id.NewCompanyID(), id.AuditID{}, id.FindingID{})
	s.Require().NoError(s.store.Create(ctx, r))

	current, err := s.store.Execute(ctx, r.ID,
		func(req *models.EvidenceRequest) error { return req.CanOpenReview() },
		func(req *models.EvidenceRequest) { req.ApplyOpenReview(time.Now().UTC()) },
	)
	s.Require().Error(err)
	s.Require().NotNil(current)
	s.Equal(models.StatusRequested, current.Status)

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRequested, found.Status)
}
