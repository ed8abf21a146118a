package handler

import (
	"strings"

	"conforma/internal/assessment/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// RecordResponseRequest is the HTTP request body for
// POST /audits/{id}/responses. The comment floor for non-conformity ratings
// is enforced by the response model so its message reaches the caller
// unchanged.
type RecordResponseRequest struct {
	IndicatorID string `json:"indicator_id"`
	Rating      string `json:"rating"`
	Comment     string `json:"comment"`

	parsedIndicatorID id.IndicatorID
	parsedRating      models.Rating
}

// Normalize trims the free-text fields.
func (r *RecordResponseRequest) Normalize() {
	r.Rating = strings.TrimSpace(r.Rating)
	r.Comment = strings.TrimSpace(r.Comment)
}

// Validate validates and parses the request.
func (r *RecordResponseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	indicatorID, err := id.ParseIndicatorID(strings.TrimSpace(r.IndicatorID))
	if err != nil {
		return err
	}
	r.parsedIndicatorID = indicatorID

	rating, err := models.ParseRating(r.Rating)
	if err != nil {
		return err
	}
	r.parsedRating = rating
	return nil
}

// ParsedIndicatorID returns the validated indicator ID.
func (r *RecordResponseRequest) ParsedIndicatorID() id.IndicatorID {
	return r.parsedIndicatorID
}

// ParsedRating returns the validated rating.
func (r *RecordResponseRequest) ParsedRating() models.Rating {
	return r.parsedRating
}

// UpdateResponseRequest is the HTTP request body for PUT /responses/{id}.
// Corrections replace the rating and comment together; the comment floor is
// enforced by the response model.
type UpdateResponseRequest struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment"`

	parsedRating models.Rating
}

// Normalize trims the free-text fields.
func (r *UpdateResponseRequest) Normalize() {
	r.Rating = strings.TrimSpace(r.Rating)
	r.Comment = strings.TrimSpace(r.Comment)
}

// Validate validates and parses the request.
func (r *UpdateResponseRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	rating, err := models.ParseRating(r.Rating)
	if err != nil {
		return err
	}
	r.parsedRating = rating
	return nil
}

// ParsedRating returns the validated rating.
func (r *UpdateResponseRequest) ParsedRating() models.Rating {
	return r.parsedRating
}

// ReviewCommentRequest is the HTTP request body for
// PUT /responses/{id}/review-comment. The non-empty requirement is enforced
// by the response model.
type ReviewCommentRequest struct {
	Comment string `json:"comment"`
}

// Normalize trims the comment.
func (r *ReviewCommentRequest) Normalize() {
	r.Comment = strings.TrimSpace(r.Comment)
}
