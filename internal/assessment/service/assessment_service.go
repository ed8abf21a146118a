package service

import (
	"context"
	"fmt"

	"conforma/internal/assessment/models"
	auditmodels "conforma/internal/audit/models"
	findingmodels "conforma/internal/findings/models"
	findings "conforma/internal/findings/service"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/requestcontext"
)

// ListIndicators returns the catalogue indicators covered by the audit's
// scope, in domain and sort order. An audit without scope items sees an
// empty catalogue.
func (s *Service) ListIndicators(ctx context.Context, auditID id.AuditID) ([]*models.TemplateIndicator, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	audit, err := s.loadAudit(ctx, auditID)
	if err != nil {
		return nil, err
	}
	indicators, err := s.catalogue.ListByDomains(ctx, audit.DomainCodes())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list indicators")
	}
	return indicators, nil
}

// ListResponses returns the audit's recorded responses in recording order.
func (s *Service) ListResponses(ctx context.Context, auditID id.AuditID) ([]*models.IndicatorResponse, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.loadAudit(ctx, auditID); err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByAudit(ctx, auditID)
	if err != nil {
		return nil, wrapResponseErr(err, "failed to list responses")
	}
	return responses, nil
}

// RecordResponse rates one indicator for the audit. Recording normally
// happens while the audit is IN_PROGRESS; during IN_REVIEW the entry is
// accepted as a gap-fill and marked as recorded in review. A non-conformity
// rating opens a finding in the register within the same transaction; the
// findings port never sees conforming ratings.
func (s *Service) RecordResponse(ctx context.Context, auditID id.AuditID, indicatorID id.IndicatorID, rating models.Rating, comment string) (*models.IndicatorResponse, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}

	now := requestcontext.Now(ctx)
	var response *models.IndicatorResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		audit, err := s.loadAudit(txCtx, auditID)
		if err != nil {
			return err
		}
		var gapFill bool
		switch audit.Status {
		case auditmodels.StatusInProgress:
		case auditmodels.StatusInReview:
			gapFill = true
		default:
			return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot record responses while the audit is %s", audit.Status)
		}

		indicator, err := s.loadIndicator(txCtx, indicatorID)
		if err != nil {
			return err
		}
		if err := indicatorInScope(indicator, audit); err != nil {
			return err
		}

		created, err := models.NewResponse(id.NewResponseID(), companyID, auditID, indicatorID,
			requestcontext.UserID(txCtx), rating, comment, gapFill, now)
		if err != nil {
			// Convert constructor invariants to validation errors for the API
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
			}
			return err
		}
		if err := s.responses.Create(txCtx, created); err != nil {
			return wrapResponseErr(err, "failed to record response")
		}
		response = created

		if created.Rating.IsNonConformity() {
			return s.openFinding(txCtx, created, indicator)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "response recorded", "audit_id", auditID, "indicator_id", indicatorID,
		"rating", response.Rating, "recorded_in_review", response.RecordedInReview)
	s.trackOps(ctx, response, activity.ActionResponseRecorded, string(response.Rating))
	s.metrics.IncrementRecorded(string(response.Rating))
	return response, nil
}

// UpdateResponse corrects an existing response's rating or comment, the
// update path for a pair that already carries an entry. Corrections are
// allowed only while the audit is IN_PROGRESS and recompute score points
// under the version stored on the row. A correction that changes the rating
// to a non-conformity opens a fresh finding; findings from the earlier rating
// stay in the register until a human closes them.
func (s *Service) UpdateResponse(ctx context.Context, responseID id.ResponseID, rating models.Rating, comment string) (*models.IndicatorResponse, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var response *models.IndicatorResponse
	var from models.Rating
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.responses.Execute(txCtx, responseID,
			func(r *models.IndicatorResponse) error {
				if err := matchCompany(txCtx, r); err != nil {
					return err
				}
				audit, err := s.loadAudit(txCtx, r.AuditID)
				if err != nil {
					return err
				}
				if audit.Status != auditmodels.StatusInProgress {
					return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot correct responses while the audit is %s", audit.Status)
				}
				from = r.Rating
				return r.CanCorrect(rating, comment)
			},
			func(r *models.IndicatorResponse) {
				r.ApplyCorrection(rating, comment, now)
			},
		)
		if err != nil {
			return wrapResponseErr(err, "failed to correct response")
		}
		response = updated

		if rating != from && rating.IsNonConformity() {
			indicator, err := s.loadIndicator(txCtx, response.IndicatorID)
			if err != nil {
				return err
			}
			return s.openFinding(txCtx, response, indicator)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "response corrected", "response_id", responseID, "from", from, "to", response.Rating)
	s.trackOps(ctx, response, activity.ActionResponseUpdated, correctionDetail(from, response.Rating))
	s.metrics.IncrementCorrected(string(response.Rating))
	return response, nil
}

// SetReviewComment stores the lead auditor's annotation on a non-conformity
// response. Only permitted while the audit sits IN_REVIEW.
func (s *Service) SetReviewComment(ctx context.Context, responseID id.ResponseID, comment string) (*models.IndicatorResponse, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	reviewer := requestcontext.UserID(ctx)
	var response *models.IndicatorResponse
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.responses.Execute(txCtx, responseID,
			func(r *models.IndicatorResponse) error {
				if err := matchCompany(txCtx, r); err != nil {
					return err
				}
				audit, err := s.loadAudit(txCtx, r.AuditID)
				if err != nil {
					return err
				}
				if audit.Status != auditmodels.StatusInReview {
					return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot add review comments while the audit is %s", audit.Status)
				}
				return r.CanSetReviewComment(comment)
			},
			func(r *models.IndicatorResponse) {
				r.ApplySetReviewComment(comment, reviewer, now)
			},
		)
		if err != nil {
			return wrapResponseErr(err, "failed to add review comment")
		}
		response = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "review comment added", "response_id", responseID)
	s.trackOps(ctx, response, activity.ActionReviewCommentAdded, "")
	s.metrics.IncrementReviewComment()
	return response, nil
}

// AuditScore computes the audit's aggregate compliance score from its
// recorded responses. This is the score port for the audit lifecycle's
// summary endpoint; callers gate roles themselves.
func (s *Service) AuditScore(ctx context.Context, auditID id.AuditID) (float64, int, int, error) {
	responses, err := s.responses.ListByAudit(ctx, auditID)
	if err != nil {
		return 0, 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses for scoring")
	}
	percent, responded, err := models.Score(responses)
	if err != nil {
		return 0, 0, 0, err
	}
	return percent, models.CurrentScoreVersion, responded, nil
}

// openFinding registers the non-conformity in the findings register, inside
// the caller's transaction.
func (s *Service) openFinding(ctx context.Context, response *models.IndicatorResponse, indicator *models.TemplateIndicator) error {
	if s.findings == nil {
		return nil
	}
	_, err := s.findings.Register(ctx, findings.RegisterInput{
		AuditID:     response.AuditID,
		IndicatorID: response.IndicatorID,
		ResponseID:  response.ID,
		Severity:    severityFor(response.Rating),
		Text:        findingText(indicator, response.Comment),
	})
	return err
}

// severityFor maps a non-conformity rating to the register's severity.
func severityFor(rating models.Rating) findingmodels.Severity {
	if rating == models.RatingMajorNC {
		return findingmodels.SeverityMajorNC
	}
	return findingmodels.SeverityMinorNC
}

// findingText derives the register entry's text from the indicator statement
// and the auditor's comment.
func findingText(indicator *models.TemplateIndicator, comment string) string {
	return fmt.Sprintf("%s (%s)", indicator.Text, comment)
}

// indicatorInScope checks the indicator against the audit's scope domains.
func indicatorInScope(indicator *models.TemplateIndicator, audit *auditmodels.Audit) error {
	if !indicator.Active {
		return dErrors.New(dErrors.CodeValidation, "indicator is no longer active")
	}
	for _, code := range audit.DomainCodes() {
		if code == indicator.DomainCode {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeValidation, "indicator is not in the audit scope")
}

// correctionDetail renders the rating movement for the ops trail.
func correctionDetail(from, to models.Rating) string {
	if from == to {
		return string(to)
	}
	return fmt.Sprintf("%s -> %s", from, to)
}
