package service

import (
	"context"
	"errors"
	"fmt"

	"conforma/internal/evidence/device"
	"conforma/internal/evidence/models"
	findingmodels "conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/requestcontext"
	"conforma/pkg/secrets"
)

// portalNotFound is the single answer for every portal token failure.
// Malformed, unknown, expired and wrong-secret all look the same from
// outside.
func portalNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "evidence request not found")
}

// resolvePortalToken authenticates a portal call by token possession. Each
// failure mode lands in the security trail before collapsing to not-found.
func (s *Service) resolvePortalToken(ctx context.Context, wireToken string) (*models.PortalToken, error) {
	tokenID, secret, err := models.SplitToken(wireToken)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Find(ctx, tokenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.trackTokenRejected(ctx, id.CompanyID{}, "token:"+tokenID, "token_not_found")
			return nil, portalNotFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load portal token")
	}
	if token.Expired(requestcontext.Now(ctx)) {
		s.trackTokenRejected(ctx, token.CompanyID, requestSubject(token.RequestID), "token_expired")
		return nil, portalNotFound()
	}
	if err := secrets.Verify(secret, token.SecretHash); err != nil {
		s.trackTokenRejected(ctx, token.CompanyID, requestSubject(token.RequestID), "secret_mismatch")
		return nil, portalNotFound()
	}
	return token, nil
}

// PortalRequest resolves a portal token to its evidence request and the
// items submitted so far. There is no actor; the token is the
// authentication.
func (s *Service) PortalRequest(ctx context.Context, wireToken string) (*models.EvidenceRequest, []*models.EvidenceItem, error) {
	token, err := s.resolvePortalToken(ctx, wireToken)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.requests.FindByID(ctx, token.RequestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, portalNotFound()
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load evidence request")
	}
	items, err := s.items.ListByRequest(ctx, token.RequestID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidence items")
	}
	return r, items, nil
}

// PortalSubmission carries an external supplier's upload. The email
// identifies the uploader; a blank display name is derived from it.
type PortalSubmission struct {
	UploaderName  string
	UploaderEmail string
	File          models.FileRef
}

// PortalSubmit records an upload arriving through the portal. Browser and
// platform are read from the caller's user agent for the forensic record.
// The item and the request's status effect commit together.
func (s *Service) PortalSubmit(ctx context.Context, wireToken string, in PortalSubmission) (*models.EvidenceItem, error) {
	token, err := s.resolvePortalToken(ctx, wireToken)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	browser, platform := device.ParseClient(requestcontext.UserAgent(ctx))
	item, err := models.NewPortalItem(id.NewEvidenceItemID(), token.RequestID,
		in.UploaderName, in.UploaderEmail, in.File, browser, platform, now)
	if err != nil {
		return nil, err
	}

	var updated *models.EvidenceRequest
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		r, err := s.requests.Execute(txCtx, token.RequestID,
			func(req *models.EvidenceRequest) error { return req.CanReceiveItem() },
			func(req *models.EvidenceRequest) { req.ApplyItemReceived(now) },
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return portalNotFound()
			}
			return wrapRequestErr(err, "failed to submit portal evidence")
		}
		updated = r

		if err := s.items.Create(txCtx, item); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store evidence item")
		}
		if updated.IsLinkedToFinding() && s.findings != nil {
			detail := fmt.Sprintf("%s (%s)", item.Describe(), item.UploaderEmail)
			return s.findings.RecordEvidenceActivity(txCtx, updated.FindingID,
				findingmodels.ActivityEvidenceSubmitted, detail)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, "portal evidence item received", "request_id", token.RequestID, "item_id", item.ID)
	s.trackPortalUpload(ctx, token, item)
	s.metrics.IncrementSubmitted("portal")
	return item, nil
}
