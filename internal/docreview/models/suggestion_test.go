package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

type SuggestionModelSuite struct {
	suite.Suite
	now time.Time
}

func TestSuggestionModelSuite(t *testing.T) {
	suite.Run(t, new(SuggestionModelSuite))
}

func (s *SuggestionModelSuite) SetupTest() {
	s.now = time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
}

func (s *SuggestionModelSuite) review(dqs, criticalFailures int, decision models.Decision) *models.DocumentReview {
	return &models.DocumentReview{
		ID:               id.NewReviewID(),
		CompanyID:        id.NewCompanyID(),
		EvidenceItemID:   id.NewEvidenceItemID(),
		TemplateID:       id.NewTemplateID(),
		DQSPercent:       dqs,
		CriticalFailures: criticalFailures,
		Decision:         decision,
		ReviewedBy:       id.NewUserID(),
		CreatedAt:        s.now,
	}
}

func (s *SuggestionModelSuite) suggest(review *models.DocumentReview) *models.SuggestedFinding {
	return models.Suggest(id.NewSuggestionID(), review, models.DefaultThresholds, s.now)
}

func (s *SuggestionModelSuite) TestPolicy() {
	s.Run("clean accept raises nothing", func() {
		s.Nil(s.suggest(s.review(95, 0, models.DecisionAccept)))
	})

	s.Run("critical failure suggests major", func() {
		suggestion := s.suggest(s.review(95, 1, models.DecisionAccept))
		s.Require().NotNil(suggestion)
		s.Equal(models.SuggestedMajorNC, suggestion.SuggestedType)
		s.Equal(models.FlagHigh, suggestion.SeverityFlag)
		s.Equal(models.SuggestionPending, suggestion.Status)
		s.Contains(suggestion.Rationale, "critical")
	})

	s.Run("score below the major band suggests major", func() {
		suggestion := s.suggest(s.review(40, 0, models.DecisionAccept))
		s.Require().NotNil(suggestion)
		s.Equal(models.SuggestedMajorNC, suggestion.SuggestedType)
		s.Equal(models.FlagHigh, suggestion.SeverityFlag)
	})

	s.Run("score below the minor band suggests minor", func() {
		suggestion := s.suggest(s.review(65, 0, models.DecisionAccept))
		s.Require().NotNil(suggestion)
		s.Equal(models.SuggestedMinorNC, suggestion.SuggestedType)
		s.Equal(models.FlagMedium, suggestion.SeverityFlag)
	})

	s.Run("reject with a clean score still suggests minor", func() {
		suggestion := s.suggest(s.review(95, 0, models.DecisionReject))
		s.Require().NotNil(suggestion)
		s.Equal(models.SuggestedMinorNC, suggestion.SuggestedType)
		s.Contains(suggestion.Rationale, "rejected")
	})

	s.Run("custom bands move the cut", func() {
		review := s.review(65, 0, models.DecisionAccept)
		s.Nil(models.Suggest(id.NewSuggestionID(), review, models.Thresholds{MinorBelow: 60, MajorBelow: 30}, s.now))
	})

	s.Run("all na skips the band rules", func() {
		review := s.review(0, 0, models.DecisionAccept)
		review.NeedsManualHandling = true
		s.Nil(s.suggest(review))
	})

	s.Run("all na reject still suggests", func() {
		review := s.review(0, 0, models.DecisionReject)
		review.NeedsManualHandling = true
		suggestion := s.suggest(review)
		s.Require().NotNil(suggestion)
		s.Equal(models.SuggestedMinorNC, suggestion.SuggestedType)
	})
}

func (s *SuggestionModelSuite) TestResolution() {
	pending := func() *models.SuggestedFinding {
		return s.suggest(s.review(40, 1, models.DecisionReject))
	}

	s.Run("confirm with finding links it", func() {
		suggestion := pending()
		findingID := id.NewFindingID()
		resolver := id.NewUserID()

		s.Require().NoError(suggestion.CanResolve())
		suggestion.ApplyConfirmWithFinding(findingID, resolver, s.now)
		s.Equal(models.SuggestionConfirmed, suggestion.Status)
		s.Equal(findingID, suggestion.ConfirmedFindingID)
		s.Empty(suggestion.ResolutionNote)
		s.Require().NotNil(suggestion.ResolvedBy)
		s.Equal(resolver, *suggestion.ResolvedBy)
		s.Require().NotNil(suggestion.ResolvedAt)
	})

	s.Run("observation-only confirm needs a note", func() {
		suggestion := pending()
		err := suggestion.CanConfirmObservation("   ")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(models.SuggestionPending, suggestion.Status)

		s.Require().NoError(suggestion.CanConfirmObservation("Raised verbally with the site manager"))
		suggestion.ApplyConfirmObservation("Raised verbally with the site manager", id.NewUserID(), s.now)
		s.Equal(models.SuggestionConfirmed, suggestion.Status)
		s.True(suggestion.ConfirmedFindingID.IsNil())
		s.Equal("Raised verbally with the site manager", suggestion.ResolutionNote)
	})

	s.Run("dismiss records the reason", func() {
		suggestion := pending()
		suggestion.ApplyDismiss("duplicate of an open finding", id.NewUserID(), s.now)
		s.Equal(models.SuggestionDismissed, suggestion.Status)
		s.Equal("duplicate of an open finding", suggestion.ResolutionNote)
		s.True(suggestion.ConfirmedFindingID.IsNil())
	})

	s.Run("resolution happens once", func() {
		suggestion := pending()
		suggestion.ApplyDismiss("", id.NewUserID(), s.now)

		err := suggestion.CanResolve()
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Contains(err.Error(), "DISMISSED")

		err = suggestion.CanConfirmObservation("note after the fact")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}
