package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

type ReviewModelSuite struct {
	suite.Suite
	now      time.Time
	template *models.ChecklistTemplate
}

func TestReviewModelSuite(t *testing.T) {
	suite.Run(t, new(ReviewModelSuite))
}

func (s *ReviewModelSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 14, 30, 0, 0, time.UTC)
	s.template = newTemplate(10, 1) // ten items, the first one critical
}

// newTemplate builds a checklist with the given item count; the first
// criticalCount items are flagged critical.
func newTemplate(items, criticalCount int) *models.ChecklistTemplate {
	t := &models.ChecklistTemplate{
		ID:           id.NewTemplateID(),
		DocumentType: "policy_document",
		Version:      1,
		Name:         "Policy document completeness",
		Active:       true,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < items; i++ {
		t.Items = append(t.Items, &models.ChecklistItem{
			ID:         id.NewChecklistItemID(),
			TemplateID: t.ID,
			Prompt:     "Checklist prompt",
			IsCritical: i < criticalCount,
			SortOrder:  i,
		})
	}
	return t
}

// sheet answers every template item with fill, then applies overrides by
// item index.
func sheet(t *models.ChecklistTemplate, fill models.Answer, overrides map[int]models.Answer) []models.ItemAnswer {
	answers := make([]models.ItemAnswer, 0, len(t.Items))
	for i, item := range t.Items {
		answer := fill
		if o, ok := overrides[i]; ok {
			answer = o
		}
		answers = append(answers, models.ItemAnswer{ItemID: item.ID, Answer: answer})
	}
	return answers
}

func (s *ReviewModelSuite) newReview(answers []models.ItemAnswer, decision models.Decision) (*models.DocumentReview, error) {
	return models.NewDocumentReview(id.NewReviewID(), id.NewCompanyID(), id.NewEvidenceItemID(),
		s.template, answers, decision, "", id.NewUserID(), models.DefaultThresholds, s.now)
}

func (s *ReviewModelSuite) TestScoring() {
	s.Run("all yes scores one hundred", func() {
		review, err := s.newReview(sheet(s.template, models.AnswerYes, nil), models.DecisionAccept)
		s.Require().NoError(err)
		s.Equal(100, review.DQSPercent)
		s.Zero(review.CriticalFailures)
		s.False(review.NeedsManualHandling)
		s.False(review.OverrodeSignals)
	})

	s.Run("na items leave the denominator", func() {
		// 1 NO + 2 NA over 10 items: 7 yes of 8 scorable = 88 rounded.
		answers := sheet(s.template, models.AnswerYes, map[int]models.Answer{
			0: models.AnswerNo,
			1: models.AnswerNA,
			2: models.AnswerNA,
		})
		review, err := s.newReview(answers, models.DecisionReject)
		s.Require().NoError(err)
		s.Equal(88, review.DQSPercent)
		s.Equal(1, review.CriticalFailures)
	})

	s.Run("partly counts as scorable but not yes", func() {
		answers := sheet(s.template, models.AnswerYes, map[int]models.Answer{
			3: models.AnswerPartly,
			4: models.AnswerPartly,
		})
		review, err := s.newReview(answers, models.DecisionAccept)
		s.Require().NoError(err)
		s.Equal(80, review.DQSPercent)
		s.Zero(review.CriticalFailures)
	})

	s.Run("non-critical no is not a critical failure", func() {
		answers := sheet(s.template, models.AnswerYes, map[int]models.Answer{5: models.AnswerNo})
		review, err := s.newReview(answers, models.DecisionAccept)
		s.Require().NoError(err)
		s.Zero(review.CriticalFailures)
	})

	s.Run("all na scores zero and flags manual handling", func() {
		review, err := s.newReview(sheet(s.template, models.AnswerNA, nil), models.DecisionAccept)
		s.Require().NoError(err)
		s.Zero(review.DQSPercent)
		s.True(review.NeedsManualHandling)
		s.False(review.OverrodeSignals)
	})
}

func (s *ReviewModelSuite) TestOverrodeSignals() {
	s.Run("accept despite a critical failure", func() {
		answers := sheet(s.template, models.AnswerYes, map[int]models.Answer{0: models.AnswerNo})
		review, err := s.newReview(answers, models.DecisionAccept)
		s.Require().NoError(err)
		s.True(review.OverrodeSignals)
	})

	s.Run("accept below the minor band", func() {
		// 6 of 10 yes = 60, below the default minor band of 80.
		answers := sheet(s.template, models.AnswerYes, map[int]models.Answer{
			1: models.AnswerPartly, 2: models.AnswerPartly,
			3: models.AnswerPartly, 4: models.AnswerPartly,
		})
		review, err := s.newReview(answers, models.DecisionAccept)
		s.Require().NoError(err)
		s.Equal(60, review.DQSPercent)
		s.True(review.OverrodeSignals)
	})

	s.Run("reject never overrides", func() {
		answers := sheet(s.template, models.AnswerYes, map[int]models.Answer{0: models.AnswerNo})
		review, err := s.newReview(answers, models.DecisionReject)
		s.Require().NoError(err)
		s.False(review.OverrodeSignals)
	})
}

func (s *ReviewModelSuite) TestAnswerSheetValidation() {
	s.Run("missing answers are rejected", func() {
		answers := sheet(s.template, models.AnswerYes, nil)[:9]
		_, err := s.newReview(answers, models.DecisionAccept)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "every checklist item")
	})

	s.Run("stray item ids are rejected", func() {
		answers := sheet(s.template, models.AnswerYes, nil)
		answers[0].ItemID = id.NewChecklistItemID()
		_, err := s.newReview(answers, models.DecisionAccept)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate answers are rejected", func() {
		answers := sheet(s.template, models.AnswerYes, nil)
		answers[1].ItemID = answers[0].ItemID
		_, err := s.newReview(answers, models.DecisionAccept)
		s.Require().Error(err)
		s.Contains(err.Error(), "duplicate")
	})

	s.Run("invalid answer values are rejected", func() {
		answers := sheet(s.template, models.AnswerYes, nil)
		answers[0].Answer = models.Answer("MAYBE")
		_, err := s.newReview(answers, models.DecisionAccept)
		s.Require().Error(err)
	})

	s.Run("invalid decision is an invariant violation", func() {
		_, err := s.newReview(sheet(s.template, models.AnswerYes, nil), models.Decision("ESCALATE"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("answers come back in template order", func() {
		answers := sheet(s.template, models.AnswerYes, nil)
		answers[0], answers[9] = answers[9], answers[0]
		review, err := s.newReview(answers, models.DecisionAccept)
		s.Require().NoError(err)
		for i, a := range review.Answers {
			s.Equal(s.template.Items[i].ID, a.ItemID)
		}
	})
}
