package service

import (
	"context"
	"strings"
	"time"

	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/requestcontext"
)

// RegisterInput carries the fields for a new register entry. The audit,
// indicator and response links are optional; a docreview-confirmed finding has
// no response to point at. Owner and due date may be assigned at registration
// so callers permitted to register do not need the separate edit permission.
type RegisterInput struct {
	AuditID     id.AuditID
	IndicatorID id.IndicatorID
	ResponseID  id.ResponseID
	Severity    models.Severity
	Text        string
	OwnerID     *id.UserID
	DueDate     *time.Time
}

// Register opens a new finding in OPEN status and writes the CREATED entry to
// its activity log. Registration and the compliance trail event commit in one
// transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Finding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}

	now := requestcontext.Now(ctx)
	finding, err := models.NewFinding(id.NewFindingID(), companyID, requestcontext.UserID(ctx),
		in.Severity, in.Text, now)
	if err != nil {
		// Convert constructor invariants to validation errors for the API
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}
	finding.AuditID = in.AuditID
	finding.IndicatorID = in.IndicatorID
	finding.ResponseID = in.ResponseID
	if in.OwnerID != nil || in.DueDate != nil {
		finding.ApplyPatch(models.FindingPatch{OwnerID: in.OwnerID, DueDate: in.DueDate}, now)
	}

	actorID := requestcontext.UserID(ctx)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.findings.Create(txCtx, finding); err != nil {
			return wrapFindingErr(err, "failed to create finding")
		}
		entry := models.NewActivity(finding.ID, models.ActivityCreated,
			actorID, string(finding.Severity), now)
		if err := s.appendActivity(txCtx, entry); err != nil {
			return err
		}
		if in.OwnerID != nil {
			entry := models.NewActivity(finding.ID, models.ActivityOwnerAssigned,
				actorID, in.OwnerID.String(), now)
			if err := s.appendActivity(txCtx, entry); err != nil {
				return err
			}
		}
		if in.DueDate != nil {
			entry := models.NewActivity(finding.ID, models.ActivityDueDateSet,
				actorID, in.DueDate.Format("2006-01-02"), now)
			if err := s.appendActivity(txCtx, entry); err != nil {
				return err
			}
		}
		return s.recordCompliance(txCtx, finding, activity.ActionFindingRegistered,
			string(finding.Severity), finding.FindingText)
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "finding registered", "finding_id", finding.ID, "severity", finding.Severity)
	s.metrics.IncrementOpened(string(finding.Severity))
	return finding, nil
}

// GetFinding loads a single finding, scoped to the acting company.
func (s *Service) GetFinding(ctx context.Context, findingID id.FindingID) (*models.Finding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	return s.getOwned(ctx, findingID)
}

// ListFindings lists the acting company's findings, newest first. The filter
// narrows by audit and status; zero values match everything.
func (s *Service) ListFindings(ctx context.Context, filter models.FindingFilter) ([]*models.Finding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}
	findings, err := s.findings.List(ctx, companyID, filter)
	if err != nil {
		return nil, wrapFindingErr(err, "failed to list findings")
	}
	return findings, nil
}

// ListActivities returns the finding's activity log in chronological order.
func (s *Service) ListActivities(ctx context.Context, findingID id.FindingID) ([]*models.FindingActivity, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	if _, err := s.getOwned(ctx, findingID); err != nil {
		return nil, err
	}
	entries, err := s.findings.ListActivities(ctx, findingID)
	if err != nil {
		return nil, wrapFindingErr(err, "failed to list finding activities")
	}
	return entries, nil
}

// UpdateFinding applies register edits: owner, due date, finding text. Owner
// and due date changes land in the activity log; a text edit does not, the
// corrected text simply replaces the old one.
func (s *Service) UpdateFinding(ctx context.Context, findingID id.FindingID, patch models.FindingPatch) (*models.Finding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actorID := requestcontext.UserID(ctx)
	var finding *models.Finding
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.findings.Execute(txCtx, findingID,
			func(f *models.Finding) error {
				if err := matchCompany(txCtx, f); err != nil {
					return err
				}
				return f.CanPatch(patch)
			},
			func(f *models.Finding) {
				f.ApplyPatch(patch, now)
			},
		)
		if err != nil {
			return wrapFindingErr(err, "failed to update finding")
		}
		finding = updated

		if patch.OwnerID != nil {
			entry := models.NewActivity(findingID, models.ActivityOwnerAssigned,
				actorID, patch.OwnerID.String(), now)
			if err := s.appendActivity(txCtx, entry); err != nil {
				return err
			}
		}
		if patch.DueDate != nil {
			entry := models.NewActivity(findingID, models.ActivityDueDateSet,
				actorID, patch.DueDate.Format("2006-01-02"), now)
			if err := s.appendActivity(txCtx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "finding updated", "finding_id", findingID)
	if patch.OwnerID != nil {
		s.trackOps(ctx, finding, activity.ActionFindingOwnerAssigned, patch.OwnerID.String())
	}
	if patch.DueDate != nil {
		s.trackOps(ctx, finding, activity.ActionFindingDueDateSet, patch.DueDate.Format("2006-01-02"))
	}
	return finding, nil
}

// ChangeStatus moves the finding along OPEN -> UNDER_REVIEW -> CLOSED, or
// reopens a CLOSED finding. Closing a MAJOR_NC requires a closure note.
// Closures and reopenings also land in the compliance trail; plain status
// moves are operational only.
func (s *Service) ChangeStatus(ctx context.Context, findingID id.FindingID, next models.Status, closureNote string) (*models.Finding, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var finding *models.Finding
	var from models.Status
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.findings.Execute(txCtx, findingID,
			func(f *models.Finding) error {
				if err := matchCompany(txCtx, f); err != nil {
					return err
				}
				from = f.Status
				return f.CanChangeStatus(next, closureNote)
			},
			func(f *models.Finding) {
				f.ApplyStatus(next, closureNote, now)
			},
		)
		if err != nil {
			return wrapFindingErr(err, "failed to change finding status")
		}
		finding = updated

		entry := models.NewActivity(findingID, models.ActivityForTransition(from, next),
			requestcontext.UserID(txCtx), models.TransitionDetail(from, next), now)
		if err := s.appendActivity(txCtx, entry); err != nil {
			return err
		}

		switch {
		case next == models.StatusClosed:
			return s.recordCompliance(txCtx, finding, activity.ActionFindingClosed, "", finding.ClosureNote)
		case from == models.StatusClosed:
			return s.recordCompliance(txCtx, finding, activity.ActionFindingReopened, "", "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "finding status changed", "finding_id", findingID, "from", from, "to", next)
	s.trackOps(ctx, finding, activity.ActionFindingStatusChanged, models.TransitionDetail(from, next))
	if next == models.StatusClosed {
		s.metrics.IncrementClosed(string(finding.Severity))
	}
	return finding, nil
}

// AddComment appends a free-text comment to the finding's activity log. The
// finding row itself does not change.
func (s *Service) AddComment(ctx context.Context, findingID id.FindingID, text string) (*models.FindingActivity, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "comment text cannot be empty")
	}

	finding, err := s.getOwned(ctx, findingID)
	if err != nil {
		return nil, err
	}

	entry := models.NewActivity(findingID, models.ActivityCommentAdded,
		requestcontext.UserID(ctx), text, requestcontext.Now(ctx))
	if err := s.appendActivity(ctx, entry); err != nil {
		return nil, err
	}

	s.log(ctx, "finding comment added", "finding_id", findingID)
	s.trackOps(ctx, finding, activity.ActionFindingCommentAdded, "")
	return entry, nil
}

// OpenBySeverity reports the audit's open MAJOR_NC and MINOR_NC counts. This
// is the register's port for the audit lifecycle's close and approve guards;
// callers gate roles themselves.
func (s *Service) OpenBySeverity(ctx context.Context, auditID id.AuditID) (int, int, error) {
	major, minor, err := s.findings.CountOpenBySeverity(ctx, auditID)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count open findings")
	}
	return major, minor, nil
}

// RecordEvidenceActivity writes an evidence workflow entry to the finding's
// activity log. This is the port for the evidence module; the actor may be nil
// when the entry originates from the supplier portal, and callers gate roles
// themselves.
func (s *Service) RecordEvidenceActivity(ctx context.Context, findingID id.FindingID, activityType models.ActivityType, detail string) error {
	switch activityType {
	case models.ActivityEvidenceRequested, models.ActivityEvidenceSubmitted, models.ActivityEvidenceReviewed:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "not an evidence activity type")
	}

	entry := models.NewActivity(findingID, activityType,
		requestcontext.UserID(ctx), detail, requestcontext.Now(ctx))
	if err := s.findings.AppendActivity(ctx, entry); err != nil {
		return wrapFindingErr(err, "failed to record evidence activity")
	}
	return nil
}

func (s *Service) getOwned(ctx context.Context, findingID id.FindingID) (*models.Finding, error) {
	finding, err := s.findings.FindByID(ctx, findingID)
	if err != nil {
		return nil, wrapFindingErr(err, "failed to load finding")
	}
	if err := matchCompany(ctx, finding); err != nil {
		return nil, err
	}
	return finding, nil
}

func (s *Service) appendActivity(ctx context.Context, entry *models.FindingActivity) error {
	if err := s.findings.AppendActivity(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append finding activity")
	}
	return nil
}
