// Package domain holds cross-module primitives: typed identifiers and the
// actor role enum. Typed IDs prevent cross-entity assignment at compile time;
// parse helpers enforce validity at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "conforma/pkg/domain-errors"
)

// Typed identifiers. Each wraps uuid.UUID so an AuditID can never be passed
// where a FindingID is expected.
type (
	// CompanyID identifies the tenant that owns an audit and its records.
	CompanyID uuid.UUID

	// UserID identifies an actor (auditor, reviewer, admin, staff).
	UserID uuid.UUID

	// AuditID identifies an audit engagement.
	AuditID uuid.UUID

	// IndicatorID identifies a catalogue indicator scoped into an audit.
	IndicatorID uuid.UUID

	// ResponseID identifies a recorded indicator response.
	ResponseID uuid.UUID

	// FindingID identifies a registered finding.
	FindingID uuid.UUID

	// EvidenceRequestID identifies an evidence request sent to a company.
	EvidenceRequestID uuid.UUID

	// EvidenceItemID identifies a single uploaded evidence document.
	EvidenceItemID uuid.UUID

	// ReviewID identifies a document checklist review of an evidence item.
	ReviewID uuid.UUID

	// SuggestionID identifies a suggested finding produced by a review.
	SuggestionID uuid.UUID

	// TemplateID identifies a document checklist template.
	TemplateID uuid.UUID

	// ChecklistItemID identifies one item of a checklist template.
	ChecklistItemID uuid.UUID

	// ActivityID identifies one entry in a finding's activity log.
	ActivityID uuid.UUID
)

// LineItemID references an engagement line item in the commercial system that
// ordered the audit. Opaque external identifier, not a UUID.
type LineItemID string

// parseUUID enforces the shared ID invariant: valid, non-empty, non-nil.
// All ParseXxxID helpers funnel through here so behavior stays identical
// across types.
func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", what)
	}
	return id, nil
}

// ParseCompanyID parses external input into a CompanyID.
func ParseCompanyID(s string) (CompanyID, error) {
	id, err := parseUUID(s, "company id")
	return CompanyID(id), err
}

// ParseUserID parses external input into a UserID.
func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user id")
	return UserID(id), err
}

// ParseAuditID parses external input into an AuditID.
func ParseAuditID(s string) (AuditID, error) {
	id, err := parseUUID(s, "audit id")
	return AuditID(id), err
}

// ParseIndicatorID parses external input into an IndicatorID.
func ParseIndicatorID(s string) (IndicatorID, error) {
	id, err := parseUUID(s, "indicator id")
	return IndicatorID(id), err
}

// ParseResponseID parses external input into a ResponseID.
func ParseResponseID(s string) (ResponseID, error) {
	id, err := parseUUID(s, "response id")
	return ResponseID(id), err
}

// ParseFindingID parses external input into a FindingID.
func ParseFindingID(s string) (FindingID, error) {
	id, err := parseUUID(s, "finding id")
	return FindingID(id), err
}

// ParseEvidenceRequestID parses external input into an EvidenceRequestID.
func ParseEvidenceRequestID(s string) (EvidenceRequestID, error) {
	id, err := parseUUID(s, "evidence request id")
	return EvidenceRequestID(id), err
}

// ParseEvidenceItemID parses external input into an EvidenceItemID.
func ParseEvidenceItemID(s string) (EvidenceItemID, error) {
	id, err := parseUUID(s, "evidence item id")
	return EvidenceItemID(id), err
}

// ParseReviewID parses external input into a ReviewID.
func ParseReviewID(s string) (ReviewID, error) {
	id, err := parseUUID(s, "review id")
	return ReviewID(id), err
}

// ParseSuggestionID parses external input into a SuggestionID.
func ParseSuggestionID(s string) (SuggestionID, error) {
	id, err := parseUUID(s, "suggestion id")
	return SuggestionID(id), err
}

// ParseTemplateID parses external input into a TemplateID.
func ParseTemplateID(s string) (TemplateID, error) {
	id, err := parseUUID(s, "template id")
	return TemplateID(id), err
}

// ParseChecklistItemID parses external input into a ChecklistItemID.
func ParseChecklistItemID(s string) (ChecklistItemID, error) {
	id, err := parseUUID(s, "checklist item id")
	return ChecklistItemID(id), err
}

// ParseActivityID parses external input into an ActivityID.
func ParseActivityID(s string) (ActivityID, error) {
	id, err := parseUUID(s, "activity id")
	return ActivityID(id), err
}

// ParseLineItemID validates external input as a LineItemID.
func ParseLineItemID(s string) (LineItemID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "line item id cannot be empty")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "line item id must be 64 characters or less")
	}
	return LineItemID(s), nil
}

func (id CompanyID) String() string         { return uuid.UUID(id).String() }
func (id UserID) String() string            { return uuid.UUID(id).String() }
func (id AuditID) String() string           { return uuid.UUID(id).String() }
func (id IndicatorID) String() string       { return uuid.UUID(id).String() }
func (id ResponseID) String() string        { return uuid.UUID(id).String() }
func (id FindingID) String() string         { return uuid.UUID(id).String() }
func (id EvidenceRequestID) String() string { return uuid.UUID(id).String() }
func (id EvidenceItemID) String() string    { return uuid.UUID(id).String() }
func (id ReviewID) String() string          { return uuid.UUID(id).String() }
func (id SuggestionID) String() string      { return uuid.UUID(id).String() }
func (id TemplateID) String() string        { return uuid.UUID(id).String() }
func (id ChecklistItemID) String() string   { return uuid.UUID(id).String() }
func (id ActivityID) String() string        { return uuid.UUID(id).String() }
func (id LineItemID) String() string        { return string(id) }

func (id CompanyID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id AuditID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id IndicatorID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id FindingID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceItemID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ReviewID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id SuggestionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TemplateID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ChecklistItemID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id LineItemID) IsEmpty() bool      { return id == "" }

// NewCompanyID returns a fresh random CompanyID.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewAuditID returns a fresh random AuditID.
func NewAuditID() AuditID { return AuditID(uuid.New()) }

// NewIndicatorID returns a fresh random IndicatorID.
func NewIndicatorID() IndicatorID { return IndicatorID(uuid.New()) }

// NewResponseID returns a fresh random ResponseID.
func NewResponseID() ResponseID { return ResponseID(uuid.New()) }

// NewFindingID returns a fresh random FindingID.
func NewFindingID() FindingID { return FindingID(uuid.New()) }

// NewEvidenceRequestID returns a fresh random EvidenceRequestID.
func NewEvidenceRequestID() EvidenceRequestID { return EvidenceRequestID(uuid.New()) }

// NewEvidenceItemID returns a fresh random EvidenceItemID.
func NewEvidenceItemID() EvidenceItemID { return EvidenceItemID(uuid.New()) }

// NewReviewID returns a fresh random ReviewID.
func NewReviewID() ReviewID { return ReviewID(uuid.New()) }

// NewSuggestionID returns a fresh random SuggestionID.
func NewSuggestionID() SuggestionID { return SuggestionID(uuid.New()) }

// NewTemplateID returns a fresh random TemplateID.
func NewTemplateID() TemplateID { return TemplateID(uuid.New()) }

// NewChecklistItemID returns a fresh random ChecklistItemID.
func NewChecklistItemID() ChecklistItemID { return ChecklistItemID(uuid.New()) }

// NewActivityID returns a fresh random ActivityID.
func NewActivityID() ActivityID { return ActivityID(uuid.New()) }

