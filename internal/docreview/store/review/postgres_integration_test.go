//go:build integration

package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/docreview/models"
	"conforma/internal/docreview/store/review"
	"conforma/internal/docreview/store/template"
	evidenceModels "conforma/internal/evidence/models"
	itemStore "conforma/internal/evidence/store/item"
	requestStore "conforma/internal/evidence/store/request"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *review.Postgres
	templates *template.Postgres
	requests  *requestStore.Postgres
	items     *itemStore.Postgres
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
	s.store = review.NewPostgres(s.postgres.DB)
	s.templates = template.NewPostgres(s.postgres.DB)
	s.requests = requestStore.NewPostgres(s.postgres.DB)
	s.items = itemStore.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order; the checklist catalogue stays seeded.
	err := s.postgres.TruncateTables(ctx,
		"document_review_answers", "document_reviews", "evidence_items", "evidence_requests")
	s.Require().NoError(err)
}

// newStoredItem creates the evidence request and item rows the review FKs
// point at.
func (s *PostgresStoreSuite) newStoredItem() id.EvidenceItemID {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	r, err := evidenceModels.NewRequest(id.NewEvidenceRequestID(), id.NewCompanyID(), id.NewUserID(),
		"Fire safety policy", "", id.AuditID{}, id.FindingID{}, id.IndicatorID{}, nil, now)
	s.Require().NoError(err)
	s.Require().NoError(s.requests.Create(ctx, r))

	item, err := evidenceModels.NewInternalItem(id.NewEvidenceItemID(), r.ID, id.NewUserID(),
		evidenceModels.FileRef{FileName: "policy.pdf", FilePath: "uploads/policy.pdf"}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.items.Create(ctx, item))
	return item.ID
}

func (s *PostgresStoreSuite) seededTemplate() *models.ChecklistTemplate {
	templates, err := s.templates.List(context.Background(), "policy_document")
	s.Require().NoError(err)
	s.Require().NotEmpty(templates)
	return templates[0]
}

func (s *PostgresStoreSuite) newReview(t *models.ChecklistTemplate, itemID id.EvidenceItemID) *models.DocumentReview {
	answers := make([]models.ItemAnswer, 0, len(t.Items))
	for i, item := range t.Items {
		answer := models.AnswerYes
		if i == 0 {
			answer = models.AnswerNo
		}
		answers = append(answers, models.ItemAnswer{ItemID: item.ID, Answer: answer})
	}
	r, err := models.NewDocumentReview(id.NewReviewID(), id.NewCompanyID(), itemID,
		t, answers, models.DecisionReject, "missing approval signature", id.NewUserID(),
		models.DefaultThresholds, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return r
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	t := s.seededTemplate()
	r := s.newReview(t, s.newStoredItem())

	s.Require().NoError(s.store.Create(ctx, r))

	found, err := s.store.FindByID(ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.DQSPercent, found.DQSPercent)
	s.Equal(r.CriticalFailures, found.CriticalFailures)
	s.Equal(models.DecisionReject, found.Decision)
	s.Equal("missing approval signature", found.Justification)
	s.Equal(r.ReviewedBy, found.ReviewedBy)
	s.Require().Len(found.Answers, len(t.Items))
	s.Equal(t.Items[0].ID, found.Answers[0].ItemID)
	s.Equal(models.AnswerNo, found.Answers[0].Answer)
}

func (s *PostgresStoreSuite) TestCreateDuplicateConflicts() {
	ctx := context.Background()
	r := s.newReview(s.seededTemplate(), s.newStoredItem())

	s.Require().NoError(s.store.Create(ctx, r))
	s.ErrorIs(s.store.Create(ctx, r), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestNotFoundError() {
	_, err := s.store.FindByID(context.Background(), id.NewReviewID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByItem() {
	ctx := context.Background()
	t := s.seededTemplate()
	itemID := s.newStoredItem()

	first := s.newReview(t, itemID)
	s.Require().NoError(s.store.Create(ctx, first))
	second := s.newReview(t, itemID)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.Create(ctx, second))
	s.Require().NoError(s.store.Create(ctx, s.newReview(t, s.newStoredItem())))

	reviews, err := s.store.ListByItem(ctx, itemID)
	s.Require().NoError(err)
	s.Require().Len(reviews, 2)
	s.Equal(second.ID, reviews[0].ID)
	s.Equal(first.ID, reviews[1].ID)
	s.Len(reviews[0].Answers, len(t.Items))
}
