package handler

import (
	"strings"
	"time"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// CreateAuditRequest is the HTTP request body for POST /audits.
type CreateAuditRequest struct {
	Title      string     `json:"title"`
	Type       string     `json:"type"`
	ScopeStart *time.Time `json:"scope_start"`
	ScopeEnd   *time.Time `json:"scope_end"`

	parsedType models.AuditType
}

// Validate validates and parses the request.
func (r *CreateAuditRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if len(r.Title) > 200 {
		return dErrors.New(dErrors.CodeValidation, "title must be 200 characters or less")
	}

	auditType, err := models.ParseAuditType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	r.parsedType = auditType

	if r.ScopeStart != nil && r.ScopeEnd != nil && r.ScopeEnd.Before(*r.ScopeStart) {
		return dErrors.New(dErrors.CodeValidation, "scope_end cannot be before scope_start")
	}

	return nil
}

// ParsedType returns the validated audit type.
func (r *CreateAuditRequest) ParsedType() models.AuditType {
	return r.parsedType
}

// ScopeItemRequest is one engagement line item in a scope replacement.
type ScopeItemRequest struct {
	LineItemID string `json:"line_item_id"`
	Label      string `json:"label"`
	DomainCode string `json:"domain_code"`
}

// ReplaceScopeRequest is the HTTP request body for PUT /audits/{id}/scope.
// The submitted list replaces the scope wholesale; order determines position.
type ReplaceScopeRequest struct {
	Items []ScopeItemRequest `json:"items"`

	parsedItems []models.ScopeItem
}

// Validate validates and parses the request.
func (r *ReplaceScopeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	items := make([]models.ScopeItem, 0, len(r.Items))
	for _, item := range r.Items {
		lineItemID, err := id.ParseLineItemID(item.LineItemID)
		if err != nil {
			return err
		}
		items = append(items, models.ScopeItem{
			LineItemID: lineItemID,
			Label:      strings.TrimSpace(item.Label),
			DomainCode: strings.TrimSpace(item.DomainCode),
		})
	}
	if err := models.ValidateScope(items); err != nil {
		return err
	}

	r.parsedItems = items
	return nil
}

// ParsedItems returns the validated scope items.
func (r *ReplaceScopeRequest) ParsedItems() []models.ScopeItem {
	return r.parsedItems
}

// RequestChangesRequest is the HTTP request body for
// POST /audits/{id}/request-changes. The notes requirement is enforced by the
// audit state machine so its message reaches the caller unchanged.
type RequestChangesRequest struct {
	Notes string `json:"notes"`
}

// Normalize trims the notes.
func (r *RequestChangesRequest) Normalize() {
	r.Notes = strings.TrimSpace(r.Notes)
}

// ApproveAuditRequest is the optional HTTP request body for
// POST /audits/{id}/approve.
type ApproveAuditRequest struct {
	Reason string `json:"reason"`
}

// Normalize trims the reason.
func (r *ApproveAuditRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

// CloseAuditRequest is the optional HTTP request body for
// POST /audits/{id}/close. Whether the reason is mandatory depends on the
// open findings, so the check lives in the service.
type CloseAuditRequest struct {
	Reason string `json:"reason"`
}

// Normalize trims the reason.
func (r *CloseAuditRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

// ReopenAuditRequest is the HTTP request body for POST /audits/{id}/reopen.
// The reason requirement is enforced by the audit state machine.
type ReopenAuditRequest struct {
	Reason string `json:"reason"`
}

// Normalize trims the reason.
func (r *ReopenAuditRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}
