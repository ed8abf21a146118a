package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"conforma/internal/evidence/models"
	findingmodels "conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/requestcontext"
	"conforma/pkg/secrets"
)

// CreateRequestInput carries the fields for a new evidence request. The
// audit, finding and indicator links are optional; each one is checked
// against its register when set.
type CreateRequestInput struct {
	Title            string
	Description      string
	AuditID          id.AuditID
	FindingID        id.FindingID
	IndicatorID      id.IndicatorID
	DueDate          *time.Time
	IssuePortalToken bool
}

// CreateRequest opens an evidence request in REQUESTED. When a portal token
// is asked for it is minted in the same call and the wire form returned
// exactly once; the engine keeps only its hash. A finding link writes the
// EVIDENCE_REQUESTED entry to that finding's log in the same transaction.
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.EvidenceRequest, string, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, "", err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}

	if !in.AuditID.IsNil() && s.audits != nil {
		if _, err := s.loadAudit(ctx, in.AuditID); err != nil {
			return nil, "", err
		}
	}
	if !in.FindingID.IsNil() && s.findings != nil {
		if _, err := s.findings.GetFinding(ctx, in.FindingID); err != nil {
			return nil, "", err
		}
	}
	if !in.IndicatorID.IsNil() && s.catalogue != nil {
		if _, err := s.catalogue.FindByID(ctx, in.IndicatorID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, "", dErrors.New(dErrors.CodeNotFound, "indicator not found")
			}
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load indicator")
		}
	}

	now := requestcontext.Now(ctx)
	r, err := models.NewRequest(id.NewEvidenceRequestID(), companyID, requestcontext.UserID(ctx),
		in.Title, in.Description, in.AuditID, in.FindingID, in.IndicatorID, in.DueDate, now)
	if err != nil {
		// Convert constructor invariants to validation errors for the API
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, "", dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, "", err
	}

	wireToken := ""
	if in.IssuePortalToken {
		token, wire, err := s.mintToken(ctx, r.ID, companyID)
		if err != nil {
			return nil, "", err
		}
		r.AttachPortalToken(token.TokenID, now)
		wireToken = wire
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, r); err != nil {
			return wrapRequestErr(err, "failed to create evidence request")
		}
		if r.IsLinkedToFinding() && s.findings != nil {
			return s.findings.RecordEvidenceActivity(txCtx, r.FindingID,
				findingmodels.ActivityEvidenceRequested, r.Title)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	s.log(ctx, "evidence request created", "request_id", r.ID, "token_issued", wireToken != "")
	s.trackOps(ctx, r, activity.ActionEvidenceRequested, r.Title)
	if wireToken != "" {
		s.trackTokenIssued(ctx, r)
		s.metrics.IncrementTokensIssued()
	}
	return r, wireToken, nil
}

// GetRequest loads one evidence request with its submitted items, scoped to
// the acting company.
func (s *Service) GetRequest(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, []*models.EvidenceItem, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, nil, err
	}
	r, err := s.getOwned(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.items.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidence items")
	}
	return r, items, nil
}

// ListRequests lists the acting company's evidence requests, newest first.
// The filter narrows by audit, finding and status; zero values match
// everything.
func (s *Service) ListRequests(ctx context.Context, filter models.RequestFilter) ([]*models.EvidenceRequest, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer, id.RoleStaffReadOnly); err != nil {
		return nil, err
	}
	companyID := requestcontext.CompanyID(ctx)
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "request is missing company context")
	}
	requests, err := s.requests.List(ctx, companyID, filter)
	if err != nil {
		return nil, wrapRequestErr(err, "failed to list evidence requests")
	}
	return requests, nil
}

// IssuePortalToken mints a fresh portal token for the request, invalidating
// any earlier one. The wire form is returned exactly once. Tokens may be
// issued in any status; for an accepted request the portal simply shows a
// read-only record.
func (s *Service) IssuePortalToken(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, string, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, "", err
	}
	r, err := s.getOwned(ctx, requestID)
	if err != nil {
		return nil, "", err
	}

	now := requestcontext.Now(ctx)
	token, wireToken, err := s.mintToken(ctx, requestID, r.CompanyID)
	if err != nil {
		return nil, "", err
	}
	updated, err := s.requests.Execute(ctx, requestID,
		func(req *models.EvidenceRequest) error { return matchCompany(ctx, req) },
		func(req *models.EvidenceRequest) { req.AttachPortalToken(token.TokenID, now) },
	)
	if err != nil {
		return nil, "", wrapRequestErr(err, "failed to attach portal token")
	}

	s.log(ctx, "portal token issued", "request_id", requestID)
	s.trackTokenIssued(ctx, updated)
	s.metrics.IncrementTokensIssued()
	return updated, wireToken, nil
}

// SubmitItem records an upload by an authenticated user against the request.
// The first upload moves REQUESTED to SUBMITTED and an upload after a
// rejection re-submits; an accepted request takes no more. The item, the
// request's status effect and the finding-log entry commit together.
func (s *Service) SubmitItem(ctx context.Context, requestID id.EvidenceRequestID, file models.FileRef) (*models.EvidenceItem, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	item, err := models.NewInternalItem(id.NewEvidenceItemID(), requestID, requestcontext.UserID(ctx), file, now)
	if err != nil {
		return nil, err
	}

	var updated *models.EvidenceRequest
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.requests.Execute(txCtx, requestID,
			func(req *models.EvidenceRequest) error {
				if err := matchCompany(txCtx, req); err != nil {
					return err
				}
				return req.CanReceiveItem()
			},
			func(req *models.EvidenceRequest) { req.ApplyItemReceived(now) },
		)
		if err != nil {
			return wrapRequestErr(err, "failed to submit evidence item")
		}
		updated = r

		if err := s.items.Create(txCtx, item); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store evidence item")
		}
		if updated.IsLinkedToFinding() && s.findings != nil {
			return s.findings.RecordEvidenceActivity(txCtx, updated.FindingID,
				findingmodels.ActivityEvidenceSubmitted, item.Describe())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "evidence item submitted", "request_id", requestID, "item_id", item.ID)
	s.trackOps(ctx, updated, activity.ActionEvidenceSubmitted, item.Describe())
	s.metrics.IncrementSubmitted("internal")
	return item, nil
}

// OpenReview moves a submitted request under review, marking that a reviewer
// has picked it up. Uploads arriving while the review is open do not knock
// the request back.
func (s *Service) OpenReview(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.requests.Execute(ctx, requestID,
		func(req *models.EvidenceRequest) error {
			if err := matchCompany(ctx, req); err != nil {
				return err
			}
			return req.CanOpenReview()
		},
		func(req *models.EvidenceRequest) { req.ApplyOpenReview(now) },
	)
	if err != nil {
		return nil, wrapRequestErr(err, "failed to open evidence review")
	}

	s.log(ctx, "evidence review opened", "request_id", requestID)
	s.trackOps(ctx, updated, activity.ActionEvidenceReviewOpened, "")
	return updated, nil
}

// Review records the verdict on a request under review. ACCEPTED is
// terminal; REJECTED invites resubmission and the note says what to fix. The
// verdict lands in the compliance trail, and on a linked finding's log, in
// the same transaction.
func (s *Service) Review(ctx context.Context, requestID id.EvidenceRequestID, decision models.Status, note string) (*models.EvidenceRequest, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	reviewer := requestcontext.UserID(ctx)
	var updated *models.EvidenceRequest
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.requests.Execute(txCtx, requestID,
			func(req *models.EvidenceRequest) error {
				if err := matchCompany(txCtx, req); err != nil {
					return err
				}
				return req.CanReview(decision)
			},
			func(req *models.EvidenceRequest) { req.ApplyReview(decision, note, reviewer, now) },
		)
		if err != nil {
			return wrapRequestErr(err, "failed to review evidence request")
		}
		updated = r

		action := activity.ActionEvidenceAccepted
		if decision == models.StatusRejected {
			action = activity.ActionEvidenceRejected
		}
		if err := s.recordCompliance(txCtx, updated, action, string(decision), updated.ReviewNote); err != nil {
			return err
		}
		if updated.IsLinkedToFinding() && s.findings != nil {
			return s.findings.RecordEvidenceActivity(txCtx, updated.FindingID,
				findingmodels.ActivityEvidenceReviewed, reviewDetail(decision, updated.ReviewNote))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "evidence request reviewed", "request_id", requestID, "decision", decision)
	s.metrics.IncrementReviewed(string(decision))
	return updated, nil
}

// ItemForReview loads an evidence item with its request for the document
// review module, scoped to the acting company.
func (s *Service) ItemForReview(ctx context.Context, itemID id.EvidenceItemID) (*models.EvidenceItem, *models.EvidenceRequest, error) {
	if err := requireRole(ctx, id.RoleCompanyAdmin, id.RoleAuditor, id.RoleReviewer); err != nil {
		return nil, nil, err
	}
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "evidence item not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence item")
	}
	r, err := s.getOwned(ctx, item.RequestID)
	if err != nil {
		return nil, nil, err
	}
	return item, r, nil
}

// mintToken generates the portal secret, stores its hash, and returns the
// stored token alongside the wire form handed to the supplier. The token
// lands in the store before the request row references it; a failed attach
// leaves only an orphan record that expires with its TTL.
func (s *Service) mintToken(ctx context.Context, requestID id.EvidenceRequestID, companyID id.CompanyID) (*models.PortalToken, string, error) {
	secret, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate portal secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash portal secret")
	}
	token := &models.PortalToken{
		TokenID:    uuid.NewString(),
		RequestID:  requestID,
		CompanyID:  companyID,
		SecretHash: hash,
		ExpiresAt:  requestcontext.Now(ctx).Add(s.tokenTTL),
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to save portal token")
	}
	return token, models.FormatToken(token.TokenID, secret), nil
}

// reviewDetail renders the finding-log line for a verdict.
func reviewDetail(decision models.Status, note string) string {
	if note == "" {
		return string(decision)
	}
	return fmt.Sprintf("%s (%s)", decision, note)
}
