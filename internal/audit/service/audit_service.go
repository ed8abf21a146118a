package service

import (
	"context"
	"fmt"
	"time"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/requestcontext"

	"go.opentelemetry.io/otel/attribute"
)

// CreateAudit opens a new DRAFT audit for the acting company.
func (s *Service) CreateAudit(ctx context.Context, title string, auditType models.AuditType, scopeStart, scopeEnd *time.Time) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}

	audit, err := models.NewAudit(id.NewAuditID(), companyID, requestcontext.UserID(ctx),
		title, auditType, scopeStart, scopeEnd, requestcontext.Now(ctx))
	if err != nil {
		// Convert constructor invariants to validation errors for the API
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := s.audits.Create(ctx, audit); err != nil {
		return nil, wrapAuditErr(err, "failed to create audit")
	}

	s.log(ctx, "audit created", "audit_id", audit.ID, "type", audit.Type)
	s.trackOps(ctx, audit, activity.ActionAuditCreated, string(audit.Type))
	s.metrics.IncrementCreated(string(audit.Type))
	return audit, nil
}

// GetAudit loads a single audit, scoped to the acting company.
func (s *Service) GetAudit(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	return s.getOwned(ctx, auditID)
}

// ListAudits lists the acting company's audits, newest first.
func (s *Service) ListAudits(ctx context.Context) ([]*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}
	audits, err := s.audits.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, wrapAuditErr(err, "failed to list audits")
	}
	return audits, nil
}

// ReplaceScope swaps the audit's scope list wholesale. Only permitted while
// the audit is a DRAFT; once started the scope is frozen.
func (s *Service) ReplaceScope(ctx context.Context, auditID id.AuditID, items []models.ScopeItem) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}
	if err := models.ValidateScope(items); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	audit, err := s.audits.Execute(ctx, auditID,
		func(a *models.Audit) error {
			if err := matchCompany(ctx, a); err != nil {
				return err
			}
			return a.CanReplaceScope()
		},
		func(a *models.Audit) {
			a.ApplyScope(items, now)
		},
	)
	if err != nil {
		return nil, wrapAuditErr(err, "failed to replace audit scope")
	}

	s.log(ctx, "audit scope replaced", "audit_id", auditID, "items", len(items))
	s.trackOps(ctx, audit, activity.ActionAuditScopeSet, fmt.Sprintf("%d line items", len(items)))
	return audit, nil
}

// StartAudit moves a DRAFT audit into IN_PROGRESS. Starting needs at least
// one scope line item and locks the scope irreversibly.
func (s *Service) StartAudit(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "audit.StartAudit")
	defer span.End()

	now := requestcontext.Now(ctx)
	var audit *models.Audit
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.audits.Execute(txCtx, auditID,
			func(a *models.Audit) error {
				if err := matchCompany(txCtx, a); err != nil {
					return err
				}
				return a.CanStart()
			},
			func(a *models.Audit) {
				a.ApplyStart(now)
			},
		)
		if err != nil {
			return wrapAuditErr(err, "failed to start audit")
		}
		audit = updated
		return s.recordCompliance(txCtx, audit, activity.ActionAuditStarted, "", "")
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("audit.status", audit.Status.String()))
	s.log(ctx, "audit started", "audit_id", auditID)
	s.metrics.IncrementTransition(models.StatusInProgress.String())
	return audit, nil
}

// SubmitForReview moves an IN_PROGRESS audit into IN_REVIEW and clears any
// review notes left from an earlier round. There is no readiness guard; the
// reviewer decides whether the work is complete.
func (s *Service) SubmitForReview(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "audit.SubmitForReview")
	defer span.End()

	now := requestcontext.Now(ctx)
	var audit *models.Audit
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.audits.Execute(txCtx, auditID,
			func(a *models.Audit) error {
				if err := matchCompany(txCtx, a); err != nil {
					return err
				}
				return a.CanSubmitForReview()
			},
			func(a *models.Audit) {
				a.ApplySubmitForReview(now)
			},
		)
		if err != nil {
			return wrapAuditErr(err, "failed to submit audit for review")
		}
		audit = updated
		return s.recordCompliance(txCtx, audit, activity.ActionAuditSubmittedForReview, "", "")
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("audit.status", audit.Status.String()))
	s.log(ctx, "audit submitted for review", "audit_id", auditID)
	s.metrics.IncrementTransition(models.StatusInReview.String())
	return audit, nil
}

// RequestChanges sends an IN_REVIEW audit back to IN_PROGRESS with the lead
// auditor's notes. Notes are mandatory; the field auditor needs to know what
// to fix.
func (s *Service) RequestChanges(ctx context.Context, auditID id.AuditID, notes string) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "audit.RequestChanges")
	defer span.End()

	now := requestcontext.Now(ctx)
	var audit *models.Audit
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.audits.Execute(txCtx, auditID,
			func(a *models.Audit) error {
				if err := matchCompany(txCtx, a); err != nil {
					return err
				}
				return a.CanRequestChanges(notes)
			},
			func(a *models.Audit) {
				a.ApplyRequestChanges(notes, now)
			},
		)
		if err != nil {
			return wrapAuditErr(err, "failed to request changes")
		}
		audit = updated
		return s.recordCompliance(txCtx, audit, activity.ActionAuditChangesRequested, "", audit.ReviewNotes)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("audit.status", audit.Status.String()))
	s.log(ctx, "audit changes requested", "audit_id", auditID)
	s.metrics.IncrementTransition(models.StatusInProgress.String())
	return audit, nil
}

// Approve closes an IN_REVIEW audit with the lead auditor's sign-off, setting
// both the approval and closing timestamps. Open MAJOR_NC findings do not
// block approval; they are surfaced as the returned openMajor count and
// logged as a warning.
func (s *Service) Approve(ctx context.Context, auditID id.AuditID, reason string) (*models.Audit, int, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin); err != nil {
		return nil, 0, err
	}
	ctx, span := s.tracer.Start(ctx, "audit.Approve")
	defer span.End()

	now := requestcontext.Now(ctx)
	var audit *models.Audit
	var openMajor int
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		major, _, err := s.openFindingCounts(txCtx, auditID)
		if err != nil {
			return err
		}
		openMajor = major

		updated, err := s.audits.Execute(txCtx, auditID,
			func(a *models.Audit) error {
				if err := matchCompany(txCtx, a); err != nil {
					return err
				}
				return a.CanApprove()
			},
			func(a *models.Audit) {
				a.ApplyApproval(reason, now)
			},
		)
		if err != nil {
			return wrapAuditErr(err, "failed to approve audit")
		}
		audit = updated
		return s.recordCompliance(txCtx, audit, activity.ActionAuditApproved, "approved", audit.CloseReason)
	})
	if err != nil {
		return nil, 0, err
	}

	span.SetAttributes(
		attribute.String("audit.status", audit.Status.String()),
		attribute.Int("audit.open_major", openMajor),
	)
	if openMajor > 0 {
		s.logWarn(ctx, "audit approved with open major non-conformities",
			"audit_id", auditID, "open_major", openMajor)
	}
	s.log(ctx, "audit approved", "audit_id", auditID)
	s.metrics.IncrementTransition(models.StatusClosed.String())
	return audit, openMajor, nil
}

// CloseAudit closes the audit directly from any non-CLOSED status, skipping
// the review workflow. A reason is mandatory while the findings register
// still holds open MAJOR_NC findings; otherwise it is optional.
func (s *Service) CloseAudit(ctx context.Context, auditID id.AuditID, reason string) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "audit.CloseAudit")
	defer span.End()

	now := requestcontext.Now(ctx)
	var audit *models.Audit
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		openMajor, _, err := s.openFindingCounts(txCtx, auditID)
		if err != nil {
			return err
		}

		updated, err := s.audits.Execute(txCtx, auditID,
			func(a *models.Audit) error {
				if err := matchCompany(txCtx, a); err != nil {
					return err
				}
				return a.CanClose(reason, openMajor)
			},
			func(a *models.Audit) {
				a.ApplyClose(reason, now)
			},
		)
		if err != nil {
			return wrapAuditErr(err, "failed to close audit")
		}
		audit = updated
		return s.recordCompliance(txCtx, audit, activity.ActionAuditClosed, "", audit.CloseReason)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("audit.status", audit.Status.String()))
	s.log(ctx, "audit closed", "audit_id", auditID)
	s.metrics.IncrementTransition(models.StatusClosed.String())
	return audit, nil
}

// ReopenAudit puts a CLOSED audit back into IN_REVIEW. The stated reason is
// mandatory and lands in the compliance trail; the original approval
// timestamp stays on record.
func (s *Service) ReopenAudit(ctx context.Context, auditID id.AuditID, reason string) (*models.Audit, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "audit.ReopenAudit")
	defer span.End()

	now := requestcontext.Now(ctx)
	var audit *models.Audit
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.audits.Execute(txCtx, auditID,
			func(a *models.Audit) error {
				if err := matchCompany(txCtx, a); err != nil {
					return err
				}
				return a.CanReopen(reason)
			},
			func(a *models.Audit) {
				a.ApplyReopen(now)
			},
		)
		if err != nil {
			return wrapAuditErr(err, "failed to reopen audit")
		}
		audit = updated
		return s.recordCompliance(txCtx, audit, activity.ActionAuditReopened, "", reason)
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("audit.status", audit.Status.String()))
	s.log(ctx, "audit reopened", "audit_id", auditID)
	s.metrics.IncrementTransition(models.StatusInReview.String())
	return audit, nil
}

// GetScore returns the audit's compliance score together with the open
// non-conformity counts.
func (s *Service) GetScore(ctx context.Context, auditID id.AuditID) (*models.ScoreSummary, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	audit, err := s.getOwned(ctx, auditID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &models.ScoreSummary{AuditID: audit.ID}
	if s.scores != nil {
		percent, version, responded, err := s.scores.AuditScore(ctx, auditID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute audit score")
		}
		summary.ScorePercent = percent
		summary.ScoreVersion = version
		summary.Responded = responded
	}

	major, minor, err := s.openFindingCounts(ctx, auditID)
	if err != nil {
		return nil, err
	}
	summary.OpenMajor = major
	summary.OpenMinor = minor

	s.metrics.ObserveScore(start)
	return summary, nil
}

func (s *Service) getOwned(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
	audit, err := s.audits.FindByID(ctx, auditID)
	if err != nil {
		return nil, wrapAuditErr(err, "failed to load audit")
	}
	if err := matchCompany(ctx, audit); err != nil {
		return nil, err
	}
	return audit, nil
}

func (s *Service) openFindingCounts(ctx context.Context, auditID id.AuditID) (int, int, error) {
	if s.findings == nil {
		return 0, 0, nil
	}
	major, minor, err := s.findings.OpenBySeverity(ctx, auditID)
	if err != nil {
		return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count open findings")
	}
	return major, minor, nil
}
