//go:build integration

package suggestion_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/docreview/models"
	reviewStore "conforma/internal/docreview/store/review"
	"conforma/internal/docreview/store/suggestion"
	"conforma/internal/docreview/store/template"
	evidenceModels "conforma/internal/evidence/models"
	itemStore "conforma/internal/evidence/store/item"
	requestStore "conforma/internal/evidence/store/request"
	findingModels "conforma/internal/findings/models"
	findingStore "conforma/internal/findings/store/finding"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *suggestion.Postgres
	reviews   *reviewStore.Postgres
	templates *template.Postgres
	requests  *requestStore.Postgres
	items     *itemStore.Postgres
	findings  *findingStore.Postgres
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
	s.store = suggestion.NewPostgres(s.postgres.DB)
	s.reviews = reviewStore.NewPostgres(s.postgres.DB)
	s.templates = template.NewPostgres(s.postgres.DB)
	s.requests = requestStore.NewPostgres(s.postgres.DB)
	s.items = itemStore.NewPostgres(s.postgres.DB)
	s.findings = findingStore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"suggested_findings", "document_review_answers", "document_reviews",
		"evidence_items", "evidence_requests", "finding_activities", "findings")
	s.Require().NoError(err)
}

// newStoredReview creates the evidence and review rows a suggestion points at
// and returns the persisted review.
func (s *PostgresStoreSuite) newStoredReview(companyID id.CompanyID) *models.DocumentReview {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	req, err := evidenceModels.NewRequest(id.NewEvidenceRequestID(), companyID, id.NewUserID(),
		"Inspection report", "", id.AuditID{}, id.FindingID{}, id.IndicatorID{}, nil, now)
	s.Require().NoError(err)
	s.Require().NoError(s.requests.Create(ctx, req))

	item, err := evidenceModels.NewInternalItem(id.NewEvidenceItemID(), req.ID, id.NewUserID(),
		evidenceModels.FileRef{FileName: "report.pdf", FilePath: "uploads/report.pdf"}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(ctx, item))

	templates, err := s.templates.List(ctx, "inspection_report")
	s.Require().NoError(err)
	s.Require().NotEmpty(templates)
	t := templates[0]

	answers := make([]models.ItemAnswer, 0, len(t.Items))
	for _, ti := range t.Items {
		answer := models.AnswerYes
		if ti.IsCritical {
			answer = models.AnswerNo
		}
		answers = append(answers, models.ItemAnswer{ItemID: ti.ID, Answer: answer})
	}
	r, err := models.NewDocumentReview(id.NewReviewID(), companyID, item.ID,
		t, answers, models.DecisionReject, "", id.NewUserID(), models.DefaultThresholds, now)
	s.Require().NoError(err)
	s.Require().NoError(s.reviews.Create(ctx, r))
	return r
}

func (s *PostgresStoreSuite) newSuggestion(companyID id.CompanyID) *models.SuggestedFinding {
	r := s.newStoredReview(companyID)
	sg := models.Suggest(id.NewSuggestionID(), r, models.DefaultThresholds, r.CreatedAt)
	s.Require().NotNil(sg)
	return sg
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	sg := s.newSuggestion(id.NewCompanyID())

	s.Require().NoError(s.store.Create(ctx, sg))

	found, err := s.store.FindByID(ctx, sg.ID)
	s.Require().NoError(err)
	s.Equal(sg.ReviewID, found.ReviewID)
	s.Equal(sg.EvidenceItemID, found.EvidenceItemID)
	s.Equal(models.SuggestedMajorNC, found.SuggestedType)
	s.Equal(models.FlagHigh, found.SeverityFlag)
	s.Equal(models.SuggestionPending, found.Status)
	s.True(found.ConfirmedFindingID.IsNil())
	s.Nil(found.ResolvedBy)
	s.Nil(found.ResolvedAt)
}

func (s *PostgresStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	sg := s.newSuggestion(id.NewCompanyID())

	s.Require().NoError(s.store.Create(ctx, sg))
	s.ErrorIs(s.store.Create(ctx, sg), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestNotFoundError() {
	ctx := context.Background()

	_, err := s.store.FindByID(ctx, id.NewSuggestionID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Execute(ctx, id.NewSuggestionID(),
		func(sg *models.SuggestedFinding) error { return nil },
		func(sg *models.SuggestedFinding) {},
	)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	companyID := id.NewCompanyID()

	pending := s.newSuggestion(companyID)
	s.Require().NoError(s.store.Create(ctx, pending))
	dismissed := s.newSuggestion(companyID)
	s.Require().NoError(s.store.Create(ctx, dismissed))
	other := s.newSuggestion(id.NewCompanyID())
	s.Require().NoError(s.store.Create(ctx, other))

	_, err := s.store.Execute(ctx, dismissed.ID,
		func(sg *models.SuggestedFinding) error { return sg.CanResolve() },
		func(sg *models.SuggestedFinding) { sg.ApplyDismiss("duplicate", id.NewUserID(), time.Now().UTC()) },
	)
	s.Require().NoError(err)

	all, err := s.store.List(ctx, companyID, models.SuggestionFilter{})
	s.Require().NoError(err)
	s.Len(all, 2)

	open, err := s.store.List(ctx, companyID, models.SuggestionFilter{Status: models.SuggestionPending})
	s.Require().NoError(err)
	s.Require().Len(open, 1)
	s.Equal(pending.ID, open[0].ID)
}

func (s *PostgresStoreSuite) TestExecutePersistsConfirmation() {
	ctx := context.Background()
	companyID := id.NewCompanyID()
	sg := s.newSuggestion(companyID)
	s.Require().NoError(s.store.Create(ctx, sg))

	now := time.Now().UTC().Truncate(time.Microsecond)
	f, err := findingModels.NewFinding(id.NewFindingID(), companyID, id.NewUserID(),
		findingModels.SeverityMajorNC, "Critical inspection checklist item failed", now)
	s.Require().NoError(err)
	s.Require().NoError(s.findings.Create(ctx, f))

	resolver := id.NewUserID()
	updated, err := s.store.Execute(ctx, sg.ID,
		func(sg *models.SuggestedFinding) error { return sg.CanResolve() },
		func(sg *models.SuggestedFinding) { sg.ApplyConfirmWithFinding(f.ID, resolver, now) },
	)
	s.Require().NoError(err)
	s.Equal(models.SuggestionConfirmed, updated.Status)

	found, err := s.store.FindByID(ctx, sg.ID)
	s.Require().NoError(err)
	s.Equal(models.SuggestionConfirmed, found.Status)
	s.Equal(f.ID, found.ConfirmedFindingID)
	s.Require().NotNil(found.ResolvedBy)
	s.Equal(resolver, *found.ResolvedBy)
	s.Require().NotNil(found.ResolvedAt)
	s.WithinDuration(now, *found.ResolvedAt, time.Second)
}

// TestConcurrentResolutionSingleWinner verifies the PENDING precondition is a
// compare-and-swap: concurrent resolutions serialize on the row lock and
// exactly one wins.
func (s *PostgresStoreSuite) TestConcurrentResolutionSingleWinner() {
	ctx := context.Background()
	sg := s.newSuggestion(id.NewCompanyID())
	s.Require().NoError(s.store.Create(ctx, sg))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := s.store.Execute(ctx, sg.ID,
				func(sg *models.SuggestedFinding) error { return sg.CanResolve() },
				func(sg *models.SuggestedFinding) { sg.ApplyDismiss("", id.NewUserID(), time.Now().UTC()) },
			)
			if err == nil {
				successCount.Add(1)
			}
		}()
	}

	wg.Wait()
	s.Equal(int32(1), successCount.Load(), "exactly one resolution should win")
}
