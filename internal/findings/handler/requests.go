package handler

import (
	"strings"
	"time"

	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// UpdateFindingRequest is the HTTP request body for PATCH /findings/{id}.
// All fields are optional; absent fields stay untouched.
type UpdateFindingRequest struct {
	OwnerID     *string    `json:"owner_id"`
	DueDate     *time.Time `json:"due_date"`
	FindingText *string    `json:"finding_text"`

	parsedPatch models.FindingPatch
}

// Validate validates and parses the request. Emptiness and the finding text
// floor are checked by the register itself.
func (r *UpdateFindingRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	if r.OwnerID != nil {
		ownerID, err := id.ParseUserID(strings.TrimSpace(*r.OwnerID))
		if err != nil {
			return err
		}
		r.parsedPatch.OwnerID = &ownerID
	}
	r.parsedPatch.DueDate = r.DueDate
	r.parsedPatch.FindingText = r.FindingText
	return nil
}

// ParsedPatch returns the validated patch.
func (r *UpdateFindingRequest) ParsedPatch() models.FindingPatch {
	return r.parsedPatch
}

// ChangeStatusRequest is the HTTP request body for POST /findings/{id}/status.
// The closure note requirement for MAJOR_NC findings is enforced by the
// finding state machine so its message reaches the caller unchanged.
type ChangeStatusRequest struct {
	Status      string `json:"status"`
	ClosureNote string `json:"closure_note"`

	parsedStatus models.Status
}

// Validate validates and parses the request.
func (r *ChangeStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	status, err := models.ParseStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return err
	}
	r.parsedStatus = status
	r.ClosureNote = strings.TrimSpace(r.ClosureNote)
	return nil
}

// ParsedStatus returns the validated target status.
func (r *ChangeStatusRequest) ParsedStatus() models.Status {
	return r.parsedStatus
}

// AddCommentRequest is the HTTP request body for POST /findings/{id}/comments.
// The non-empty requirement is enforced by the register.
type AddCommentRequest struct {
	Text string `json:"text"`
}

// Normalize trims the comment text.
func (r *AddCommentRequest) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
}
