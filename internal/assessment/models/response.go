package models

import (
	"strings"
	"time"
	"unicode/utf8"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// Status marks whether the response left anything outstanding. A
// non-conformity rating opens the response; conforming ratings record it
// CLOSED from the start. A correction to a conforming rating closes it again,
// but the finding it spawned stays in the register until a human closes it.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// IndicatorResponse is one auditor rating of a catalogue indicator inside an
// audit.
//
// Invariants:
//   - At most one response exists per (audit, indicator) pair; the stores
//     enforce the pair
//   - A MINOR_NC or MAJOR_NC rating carries a comment of at least 10
//     characters
//   - ScorePoints derive from the rating under ScoreVersion; corrections
//     recompute under the version stored on the row, never the active one
//   - Status follows the rating: OPEN for non-conformities, CLOSED otherwise
//   - ReviewComment attaches to non-conformity ratings only; the IN_REVIEW
//     gate lives in the service, which knows the audit
type IndicatorResponse struct {
	ID               id.ResponseID  `json:"id"`
	CompanyID        id.CompanyID   `json:"company_id"`
	AuditID          id.AuditID     `json:"audit_id"`
	IndicatorID      id.IndicatorID `json:"indicator_id"`
	Rating           Rating         `json:"rating"`
	Comment          string         `json:"comment,omitempty"`
	ScorePoints      int            `json:"score_points"`
	ScoreVersion     int            `json:"score_version"`
	Status           Status         `json:"status"`
	ReviewComment    string         `json:"review_comment,omitempty"`
	ReviewCommentBy  *id.UserID     `json:"review_comment_by,omitempty"`
	RecordedInReview bool           `json:"recorded_in_review"`
	CreatedBy        id.UserID      `json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewResponse constructs a response, computing score points under the active
// mapping version. recordedInReview marks gap-fill entries added while the
// audit sits IN_REVIEW.
func NewResponse(responseID id.ResponseID, companyID id.CompanyID, auditID id.AuditID, indicatorID id.IndicatorID, createdBy id.UserID, rating Rating, comment string, recordedInReview bool, now time.Time) (*IndicatorResponse, error) {
	comment = strings.TrimSpace(comment)
	if !rating.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid indicator rating")
	}
	if ncCommentTooShort(rating, comment) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, ncCommentMessage)
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response company cannot be empty")
	}
	if auditID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response audit cannot be empty")
	}
	if indicatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response indicator cannot be empty")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "response creator cannot be empty")
	}
	points, err := PointsFor(rating, CurrentScoreVersion)
	if err != nil {
		return nil, err
	}
	return &IndicatorResponse{
		ID:               responseID,
		CompanyID:        companyID,
		AuditID:          auditID,
		IndicatorID:      indicatorID,
		Rating:           rating,
		Comment:          comment,
		ScorePoints:      points,
		ScoreVersion:     CurrentScoreVersion,
		Status:           statusFor(rating),
		RecordedInReview: recordedInReview,
		CreatedBy:        createdBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

const ncCommentMessage = "a comment of at least 10 characters is required for non-conformity ratings"

// ncCommentTooShort reports whether the rating demands a longer comment.
func ncCommentTooShort(rating Rating, comment string) bool {
	return rating.IsNonConformity() && utf8.RuneCountInString(comment) < 10
}

// statusFor derives the response status from the rating.
func statusFor(rating Rating) Status {
	if rating.IsNonConformity() {
		return StatusOpen
	}
	return StatusClosed
}

// CanCorrect validates a correction to the rating or comment. The audit
// status gate (corrections only while IN_PROGRESS) lives in the service.
func (ir *IndicatorResponse) CanCorrect(rating Rating, comment string) error {
	if !rating.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid indicator rating")
	}
	if ncCommentTooShort(rating, strings.TrimSpace(comment)) {
		return dErrors.New(dErrors.CodeValidation, ncCommentMessage)
	}
	if _, err := PointsFor(rating, ir.ScoreVersion); err != nil {
		return err
	}
	return nil
}

// ApplyCorrection replaces the rating and comment, recomputing score points
// under the version stored on the row. Run CanCorrect first.
func (ir *IndicatorResponse) ApplyCorrection(rating Rating, comment string, now time.Time) {
	points, _ := PointsFor(rating, ir.ScoreVersion)
	ir.Rating = rating
	ir.Comment = strings.TrimSpace(comment)
	ir.ScorePoints = points
	ir.Status = statusFor(rating)
	ir.UpdatedAt = now
}

// Correct validates and applies a correction in one call.
func (ir *IndicatorResponse) Correct(rating Rating, comment string, now time.Time) error {
	if err := ir.CanCorrect(rating, comment); err != nil {
		return err
	}
	ir.ApplyCorrection(rating, comment, now)
	return nil
}

// CanSetReviewComment validates a lead-auditor annotation. Review comments
// attach to non-conformity ratings only; conforming responses have nothing to
// annotate.
func (ir *IndicatorResponse) CanSetReviewComment(comment string) error {
	if strings.TrimSpace(comment) == "" {
		return dErrors.New(dErrors.CodeValidation, "review comment cannot be empty")
	}
	if !ir.Rating.IsNonConformity() {
		return dErrors.New(dErrors.CodeInvariantViolation, "review comments can only be added to non-conformity ratings")
	}
	return nil
}

// ApplySetReviewComment stores the annotation and its author.
func (ir *IndicatorResponse) ApplySetReviewComment(comment string, reviewedBy id.UserID, now time.Time) {
	ir.ReviewComment = strings.TrimSpace(comment)
	ir.ReviewCommentBy = &reviewedBy
	ir.UpdatedAt = now
}

// SetReviewComment validates and applies the annotation in one call.
func (ir *IndicatorResponse) SetReviewComment(comment string, reviewedBy id.UserID, now time.Time) error {
	if err := ir.CanSetReviewComment(comment); err != nil {
		return err
	}
	ir.ApplySetReviewComment(comment, reviewedBy, now)
	return nil
}
