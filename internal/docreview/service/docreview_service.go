package service

import (
	"context"
	"errors"
	"time"

	"conforma/internal/docreview/models"
	evidencemodels "conforma/internal/evidence/models"
	findingmodels "conforma/internal/findings/models"
	findingsservice "conforma/internal/findings/service"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/requestcontext"

	"go.opentelemetry.io/otel/attribute"
)

// ListTemplates returns the checklist catalogue, optionally narrowed to one
// document type.
func (s *Service) ListTemplates(ctx context.Context, documentType string) ([]*models.ChecklistTemplate, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	templates, err := s.templates.List(ctx, documentType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list checklist templates")
	}
	return templates, nil
}

// SubmitReviewInput carries one completed checklist pass.
type SubmitReviewInput struct {
	ItemID        id.EvidenceItemID
	TemplateID    id.TemplateID
	Answers       []models.ItemAnswer
	Decision      models.Decision
	Justification string
}

// ReviewResult pairs a persisted review with the suggestion it raised, if
// any.
type ReviewResult struct {
	Review     *models.DocumentReview
	Suggestion *models.SuggestedFinding
}

// SubmitReview scores the answer sheet, persists the immutable review and,
// when the suggestion policy fires, the PENDING suggestion in the same
// transaction. The reviewer's decision is never blocked by the computed
// signals; an accept that contradicts them is persisted with OverrodeSignals
// set.
func (s *Service) SubmitReview(ctx context.Context, in SubmitReviewInput) (*ReviewResult, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}
	item, _, err := s.loadOwnedItem(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	template, err := s.loadTemplate(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "docreview.SubmitReview")
	defer span.End()

	now := requestcontext.Now(ctx)
	review, err := models.NewDocumentReview(id.NewReviewID(), requestcontext.CompanyID(ctx), item.ID,
		template, in.Answers, in.Decision, in.Justification, requestcontext.UserID(ctx), s.bands, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	suggestion := models.Suggest(id.NewSuggestionID(), review, s.bands, now)

	span.SetAttributes(
		attribute.Int("docreview.dqs_percent", review.DQSPercent),
		attribute.Int("docreview.critical_failures", review.CriticalFailures),
		attribute.Bool("docreview.suggestion_raised", suggestion != nil),
	)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.reviews.Create(txCtx, review); err != nil {
			return wrapReviewErr(err, "failed to create document review")
		}
		if suggestion != nil {
			if err := s.suggestions.Create(txCtx, suggestion); err != nil {
				return wrapSuggestionErr(err, "failed to create suggestion")
			}
		}
		return s.recordCompliance(txCtx, review.CompanyID, reviewSubject(review.ID),
			activity.ActionDocumentReviewSubmitted, string(review.Decision), review.Justification)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "document review submitted", "review_id", review.ID,
		"decision", review.Decision, "dqs_percent", review.DQSPercent,
		"critical_failures", review.CriticalFailures, "overrode_signals", review.OverrodeSignals)
	s.metrics.ObserveReview(string(review.Decision), review.DQSPercent)
	if suggestion != nil {
		s.metrics.IncrementSuggested(string(suggestion.SuggestedType))
	}
	return &ReviewResult{Review: review, Suggestion: suggestion}, nil
}

// GetReview loads a single review, scoped to the acting company.
func (s *Service) GetReview(ctx context.Context, reviewID id.ReviewID) (*models.DocumentReview, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		return nil, wrapReviewErr(err, "failed to load document review")
	}
	if review.CompanyID != requestcontext.CompanyID(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "document review belongs to a different company")
	}
	return review, nil
}

// ListReviews returns an evidence item's reviews, newest first.
func (s *Service) ListReviews(ctx context.Context, itemID id.EvidenceItemID) ([]*models.DocumentReview, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	if _, _, err := s.loadOwnedItem(ctx, itemID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByItem(ctx, itemID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list document reviews")
	}
	return reviews, nil
}

// ListSuggestions returns the company's suggestions, narrowed by the filter.
func (s *Service) ListSuggestions(ctx context.Context, filter models.SuggestionFilter) ([]*models.SuggestedFinding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	suggestions, err := s.suggestions.List(ctx, requestcontext.CompanyID(ctx), filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list suggestions")
	}
	return suggestions, nil
}

// ConfirmInput carries the human's final word on a suggestion. The chosen
// type may differ from the suggested one; NONE records an observation-only
// outcome and registers no finding.
type ConfirmInput struct {
	FindingType models.SuggestedType
	Description string
	OwnerID     *id.UserID
	DueDate     *time.Time
}

// ConfirmResult pairs the resolved suggestion with the finding it registered,
// nil for the observation-only outcome.
type ConfirmResult struct {
	Suggestion *models.SuggestedFinding
	Finding    *findingmodels.Finding
}

// ConfirmSuggestion resolves a PENDING suggestion. With a MINOR_NC or
// MAJOR_NC finding type it registers a finding through the findings service
// and links it; with NONE the description becomes the mandatory resolution
// note. The finding registration and the suggestion's PENDING->CONFIRMED swap
// run in one tx; under the SQL runner a lost race rolls the finding back.
func (s *Service) ConfirmSuggestion(ctx context.Context, suggestionID id.SuggestionID, in ConfirmInput) (*ConfirmResult, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}
	if !in.FindingType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid finding type")
	}

	suggestion, err := s.getOwned(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if err := suggestion.CanResolve(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	result := &ConfirmResult{}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if in.FindingType == models.SuggestedNone {
			return s.confirmObservation(txCtx, suggestionID, in.Description, now, result)
		}
		return s.confirmWithFinding(txCtx, suggestion, in, now, result)
	})
	if err != nil {
		return nil, err
	}

	outcome := "confirmed_observation"
	if result.Finding != nil {
		outcome = "confirmed_finding"
		s.log(ctx, "suggestion confirmed", "suggestion_id", suggestionID, "finding_id", result.Finding.ID)
	} else {
		s.log(ctx, "suggestion confirmed as observation", "suggestion_id", suggestionID)
	}
	s.metrics.IncrementResolved(outcome)
	return result, nil
}

// confirmWithFinding registers the finding, then swaps the suggestion out of
// PENDING under the row lock. Both run in txCtx; under the SQL runner losing
// the swap rolls the finding back. The no-op runner has no rollback, so the
// memory stores can keep the finding when a concurrent resolution wins.
func (s *Service) confirmWithFinding(txCtx context.Context, suggestion *models.SuggestedFinding,
	in ConfirmInput, now time.Time, result *ConfirmResult) error {
	if s.findings == nil {
		return dErrors.New(dErrors.CodeInternal, "finding registration is not available")
	}
	severity := findingmodels.Severity(in.FindingType)
	auditID := s.linkedAudit(txCtx, suggestion.EvidenceItemID)

	finding, err := s.findings.Register(txCtx, findingsservice.RegisterInput{
		AuditID:  auditID,
		Severity: severity,
		Text:     in.Description,
		OwnerID:  in.OwnerID,
		DueDate:  in.DueDate,
	})
	if err != nil {
		return err
	}
	result.Finding = finding

	resolvedBy := requestcontext.UserID(txCtx)
	updated, err := s.suggestions.Execute(txCtx, suggestion.ID,
		func(sg *models.SuggestedFinding) error {
			if err := matchCompany(txCtx, sg); err != nil {
				return err
			}
			return sg.CanResolve()
		},
		func(sg *models.SuggestedFinding) {
			sg.ApplyConfirmWithFinding(finding.ID, resolvedBy, now)
		},
	)
	if err != nil {
		return wrapSuggestionErr(err, "failed to confirm suggestion")
	}
	result.Suggestion = updated

	return s.recordCompliance(txCtx, updated.CompanyID, suggestionSubject(updated.ID),
		activity.ActionSuggestionConfirmed, string(in.FindingType), "finding "+finding.ID.String())
}

// confirmObservation resolves the suggestion without a finding; the note
// records why none was needed.
func (s *Service) confirmObservation(txCtx context.Context, suggestionID id.SuggestionID,
	note string, now time.Time, result *ConfirmResult) error {
	resolvedBy := requestcontext.UserID(txCtx)
	updated, err := s.suggestions.Execute(txCtx, suggestionID,
		func(sg *models.SuggestedFinding) error {
			if err := matchCompany(txCtx, sg); err != nil {
				return err
			}
			return sg.CanConfirmObservation(note)
		},
		func(sg *models.SuggestedFinding) {
			sg.ApplyConfirmObservation(note, resolvedBy, now)
		},
	)
	if err != nil {
		return wrapSuggestionErr(err, "failed to confirm suggestion")
	}
	result.Suggestion = updated

	return s.recordCompliance(txCtx, updated.CompanyID, suggestionSubject(updated.ID),
		activity.ActionSuggestionConfirmed, string(models.SuggestedNone), updated.ResolutionNote)
}

// DismissSuggestion resolves a PENDING suggestion without a finding. The
// reason is optional but kept on the record when given.
func (s *Service) DismissSuggestion(ctx context.Context, suggestionID id.SuggestionID, reason string) (*models.SuggestedFinding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	resolvedBy := requestcontext.UserID(ctx)
	var dismissed *models.SuggestedFinding
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.suggestions.Execute(txCtx, suggestionID,
			func(sg *models.SuggestedFinding) error {
				if err := matchCompany(txCtx, sg); err != nil {
					return err
				}
				return sg.CanResolve()
			},
			func(sg *models.SuggestedFinding) {
				sg.ApplyDismiss(reason, resolvedBy, now)
			},
		)
		if err != nil {
			return wrapSuggestionErr(err, "failed to dismiss suggestion")
		}
		dismissed = updated
		return s.recordCompliance(txCtx, updated.CompanyID, suggestionSubject(updated.ID),
			activity.ActionSuggestionDismissed, string(models.SuggestionDismissed), updated.ResolutionNote)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "suggestion dismissed", "suggestion_id", suggestionID)
	s.metrics.IncrementResolved("dismissed")
	return dismissed, nil
}

// loadOwnedItem resolves an evidence item and its request, rejecting
// cross-company access.
func (s *Service) loadOwnedItem(ctx context.Context, itemID id.EvidenceItemID) (*evidencemodels.EvidenceItem, *evidencemodels.EvidenceRequest, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "evidence item not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence item")
	}
	request, err := s.requests.FindByID(ctx, item.RequestID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence request")
	}
	if request.CompanyID != requestcontext.CompanyID(ctx) {
		return nil, nil, dErrors.New(dErrors.CodeForbidden, "evidence item belongs to a different company")
	}
	return item, request, nil
}

func (s *Service) loadTemplate(ctx context.Context, templateID id.TemplateID) (*models.ChecklistTemplate, error) {
	template, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "checklist template not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load checklist template")
	}
	return template, nil
}

// linkedAudit walks suggestion -> item -> request to inherit the audit link
// for a confirmed finding. Best effort; an unlinked request leaves the
// finding standalone.
func (s *Service) linkedAudit(ctx context.Context, itemID id.EvidenceItemID) id.AuditID {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return id.AuditID{}
	}
	request, err := s.requests.FindByID(ctx, item.RequestID)
	if err != nil {
		return id.AuditID{}
	}
	return request.AuditID
}

func (s *Service) getOwned(ctx context.Context, suggestionID id.SuggestionID) (*models.SuggestedFinding, error) {
	sg, err := s.suggestions.FindByID(ctx, suggestionID)
	if err != nil {
		return nil, wrapSuggestionErr(err, "failed to load suggestion")
	}
	if err := matchCompany(ctx, sg); err != nil {
		return nil, err
	}
	return sg, nil
}
