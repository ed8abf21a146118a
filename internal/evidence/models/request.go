package models

import (
	"strings"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// Status is the review state of an evidence request.
type Status string

const (
	StatusRequested   Status = "REQUESTED"
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusAccepted    Status = "ACCEPTED"
	StatusRejected    Status = "REJECTED"
)

// IsValid checks the status against the enum.
func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusSubmitted, StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// ParseStatus constructs a Status from external input.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid evidence request status")
	}
	return s, nil
}

// validTransitions lists the permitted status edges. REJECTED -> SUBMITTED is
// the resubmission path; ACCEPTED is the only terminal state.
var validTransitions = map[Status][]Status{
	StatusRequested:   {StatusSubmitted},
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusAccepted, StatusRejected},
	StatusRejected:    {StatusSubmitted},
}

// CanTransitionTo reports whether the edge from s to next is permitted.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// EvidenceRequest tracks one requested document from creation through
// submission to acceptance or rejection.
//
// Invariants:
//   - Title is required
//   - Status follows validTransitions: uploads drive REQUESTED -> SUBMITTED
//     and REJECTED -> SUBMITTED, review actions drive the rest
//   - An ACCEPTED request takes no further uploads; every other status does
//   - AuditID, FindingID and IndicatorID are optional links; they decide
//     where the request surfaces, never how it transitions
//   - The due date is advisory and never enforced
//   - At most one portal token is active per request; re-issuing replaces it
type EvidenceRequest struct {
	ID            id.EvidenceRequestID `json:"id"`
	CompanyID     id.CompanyID         `json:"company_id"`
	AuditID       id.AuditID           `json:"audit_id"`
	FindingID     id.FindingID         `json:"finding_id"`
	IndicatorID   id.IndicatorID       `json:"indicator_id"`
	Title         string               `json:"title"`
	Description   string               `json:"description,omitempty"`
	Status        Status               `json:"status"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	PortalTokenID string               `json:"portal_token_id,omitempty"`
	RequestedBy   id.UserID            `json:"requested_by"`
	ReviewNote    string               `json:"review_note,omitempty"`
	ReviewedBy    *id.UserID           `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time           `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewRequest constructs an evidence request in REQUESTED, validating
// constructor invariants. The audit, finding and indicator links may each be
// nil for a standalone request.
func NewRequest(requestID id.EvidenceRequestID, companyID id.CompanyID, requestedBy id.UserID,
	title, description string, auditID id.AuditID, findingID id.FindingID, indicatorID id.IndicatorID,
	dueDate *time.Time, now time.Time) (*EvidenceRequest, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence request needs a title")
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence request needs a company")
	}
	if requestedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence request needs a requester")
	}
	return &EvidenceRequest{
		ID:          requestID,
		CompanyID:   companyID,
		AuditID:     auditID,
		FindingID:   findingID,
		IndicatorID: indicatorID,
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      StatusRequested,
		DueDate:     dueDate,
		RequestedBy: requestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsLinkedToFinding reports whether the request feeds a finding's activity
// log.
func (r *EvidenceRequest) IsLinkedToFinding() bool {
	return !r.FindingID.IsNil()
}

// CanReceiveItem checks whether an upload may attach. Only acceptance shuts
// the door; a rejected request explicitly invites resubmission.
func (r *EvidenceRequest) CanReceiveItem() error {
	if r.Status == StatusAccepted {
		return dErrors.New(dErrors.CodeInvariantViolation, "an accepted evidence request takes no further uploads")
	}
	return nil
}

// ApplyItemReceived records the status effect of an upload. Call
// CanReceiveItem first. REQUESTED and REJECTED move to SUBMITTED; a request
// already sitting with the reviewer keeps its status, the new item simply
// joins the pile.
func (r *EvidenceRequest) ApplyItemReceived(now time.Time) {
	switch r.Status {
	case StatusRequested, StatusRejected:
		r.Status = StatusSubmitted
	}
	r.UpdatedAt = now
}

// ReceiveItem validates and applies an upload's status effect in one call.
func (r *EvidenceRequest) ReceiveItem(now time.Time) error {
	if err := r.CanReceiveItem(); err != nil {
		return err
	}
	r.ApplyItemReceived(now)
	return nil
}

// CanOpenReview checks the SUBMITTED -> UNDER_REVIEW edge.
func (r *EvidenceRequest) CanOpenReview() error {
	if !r.Status.CanTransitionTo(StatusUnderReview) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "evidence request cannot move from %s to %s", r.Status, StatusUnderReview)
	}
	return nil
}

// ApplyOpenReview performs the edge. Call CanOpenReview first.
func (r *EvidenceRequest) ApplyOpenReview(now time.Time) {
	r.Status = StatusUnderReview
	r.UpdatedAt = now
}

// OpenReview validates and applies the review-open edge in one call.
func (r *EvidenceRequest) OpenReview(now time.Time) error {
	if err := r.CanOpenReview(); err != nil {
		return err
	}
	r.ApplyOpenReview(now)
	return nil
}

// CanReview checks a terminal review decision against the current status.
func (r *EvidenceRequest) CanReview(decision Status) error {
	if decision != StatusAccepted && decision != StatusRejected {
		return dErrors.New(dErrors.CodeInvalidInput, "review decision must be ACCEPTED or REJECTED")
	}
	if !r.Status.CanTransitionTo(decision) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "evidence request cannot move from %s to %s", r.Status, decision)
	}
	return nil
}

// ApplyReview records the decision. Call CanReview first. The note is kept
// across a later resubmission; it stays part of the record.
func (r *EvidenceRequest) ApplyReview(decision Status, note string, reviewedBy id.UserID, now time.Time) {
	r.Status = decision
	r.ReviewNote = strings.TrimSpace(note)
	r.ReviewedBy = &reviewedBy
	r.ReviewedAt = &now
	r.UpdatedAt = now
}

// Review validates and applies a review decision in one call.
func (r *EvidenceRequest) Review(decision Status, note string, reviewedBy id.UserID, now time.Time) error {
	if err := r.CanReview(decision); err != nil {
		return err
	}
	r.ApplyReview(decision, note, reviewedBy, now)
	return nil
}

// AttachPortalToken records the active portal token for the request,
// replacing any earlier one.
func (r *EvidenceRequest) AttachPortalToken(tokenID string, now time.Time) {
	r.PortalTokenID = tokenID
	r.UpdatedAt = now
}

// RequestFilter narrows evidence request listings. Zero values match
// everything.
type RequestFilter struct {
	AuditID   id.AuditID
	FindingID id.FindingID
	Status    Status
}
