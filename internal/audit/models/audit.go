package models

import (
	"strings"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// AuditType distinguishes audits run by the company's own staff from audits
// run against an external party.
type AuditType string

const (
	TypeInternal AuditType = "INTERNAL"
	TypeExternal AuditType = "EXTERNAL"
)

// IsValid checks the audit type against the enum.
func (t AuditType) IsValid() bool {
	return t == TypeInternal || t == TypeExternal
}

// ParseAuditType constructs an AuditType from external input.
func ParseAuditType(v string) (AuditType, error) {
	t := AuditType(v)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid audit type")
	}
	return t, nil
}

// ScopeItem is one selected engagement line item. DomainCode ties the line
// item to a catalogue domain so the assessment module can filter indicators.
type ScopeItem struct {
	LineItemID id.LineItemID `json:"line_item_id"`
	Label      string        `json:"label"`
	DomainCode string        `json:"domain_code"`
	Position   int           `json:"position"`
}

// ValidateScope checks a proposed scope list item by item. An empty list is
// valid while drafting; the non-empty requirement belongs to CanStart.
func ValidateScope(items []ScopeItem) error {
	seen := make(map[id.LineItemID]bool, len(items))
	for _, item := range items {
		if item.LineItemID.IsEmpty() {
			return dErrors.New(dErrors.CodeValidation, "scope line item id cannot be empty")
		}
		if strings.TrimSpace(item.Label) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "scope line item %s needs a label", item.LineItemID)
		}
		if strings.TrimSpace(item.DomainCode) == "" {
			return dErrors.Newf(dErrors.CodeValidation, "scope line item %s needs a domain code", item.LineItemID)
		}
		if seen[item.LineItemID] {
			return dErrors.Newf(dErrors.CodeValidation, "scope line item %s appears more than once", item.LineItemID)
		}
		seen[item.LineItemID] = true
	}
	return nil
}

// Audit is the aggregate root for an audit engagement.
//
// Invariants:
//   - Title is non-empty and at most 200 characters
//   - Status follows the state machine in status.go
//   - Scope is mutable only while DRAFT; starting the audit stamps
//     ScopeLockedAt and the lock is irreversible
//   - Starting requires at least one scope item
//   - ReviewNotes are cleared on submit and required on request-changes
//   - Closing with open MAJOR_NC findings requires a close reason (checked at
//     the service layer, which knows the findings register)
//   - Reopening never clears ApprovedAt; the approval stays on record
type Audit struct {
	ID                   id.AuditID   `json:"id"`
	CompanyID            id.CompanyID `json:"company_id"`
	Title                string       `json:"title"`
	Type                 AuditType    `json:"type"`
	Status               Status       `json:"status"`
	ScopeStart           *time.Time   `json:"scope_start,omitempty"`
	ScopeEnd             *time.Time   `json:"scope_end,omitempty"`
	Scope                []ScopeItem  `json:"scope"`
	ScopeLockedAt        *time.Time   `json:"scope_locked_at,omitempty"`
	ReviewNotes          string       `json:"review_notes,omitempty"`
	SubmittedForReviewAt *time.Time   `json:"submitted_for_review_at,omitempty"`
	ApprovedAt           *time.Time   `json:"approved_at,omitempty"`
	CloseReason          string       `json:"close_reason,omitempty"`
	ClosedAt             *time.Time   `json:"closed_at,omitempty"`
	ReopenedAt           *time.Time   `json:"reopened_at,omitempty"`
	CreatedBy            id.UserID    `json:"created_by"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// NewAudit constructs a DRAFT audit, validating constructor invariants.
func NewAudit(auditID id.AuditID, companyID id.CompanyID, createdBy id.UserID, title string, auditType AuditType, scopeStart, scopeEnd *time.Time, now time.Time) (*Audit, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit title cannot be empty")
	}
	if len(title) > 200 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "audit title must be 200 characters or less")
	}
	if !auditType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid audit type")
	}
	if scopeStart != nil && scopeEnd != nil && scopeEnd.Before(*scopeStart) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "scope end cannot be before scope start")
	}
	return &Audit{
		ID:         auditID,
		CompanyID:  companyID,
		Title:      title,
		Type:       auditType,
		Status:     StatusDraft,
		ScopeStart: scopeStart,
		ScopeEnd:   scopeEnd,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ScopeLocked reports whether the scope has been frozen. The lock is set when
// the audit starts and is never cleared.
func (a *Audit) ScopeLocked() bool {
	return a.ScopeLockedAt != nil
}

// DomainCodes returns the distinct domain codes across the scope, preserving
// scope order.
func (a *Audit) DomainCodes() []string {
	seen := make(map[string]bool, len(a.Scope))
	var codes []string
	for _, item := range a.Scope {
		if item.DomainCode == "" || seen[item.DomainCode] {
			continue
		}
		seen[item.DomainCode] = true
		codes = append(codes, item.DomainCode)
	}
	return codes
}

// CanReplaceScope checks that the scope is still editable.
// Use with ApplyScope in Execute callbacks.
func (a *Audit) CanReplaceScope() error {
	if a.ScopeLocked() {
		return dErrors.New(dErrors.CodeInvariantViolation, "audit scope is locked")
	}
	if a.Status != StatusDraft {
		return dErrors.New(dErrors.CodeInvariantViolation, "audit scope can only be changed while the audit is a draft")
	}
	return nil
}

// ApplyScope replaces the scope list and renumbers positions by list order.
// Call CanReplaceScope first.
func (a *Audit) ApplyScope(items []ScopeItem, now time.Time) {
	for i := range items {
		items[i].Position = i
	}
	a.Scope = items
	a.UpdatedAt = now
}

// ReplaceScope validates and applies a scope replacement in one call.
func (a *Audit) ReplaceScope(items []ScopeItem, now time.Time) error {
	if err := a.CanReplaceScope(); err != nil {
		return err
	}
	a.ApplyScope(items, now)
	return nil
}

// CanStart checks the DRAFT → IN_PROGRESS transition. Starting requires at
// least one scope line item.
func (a *Audit) CanStart() error {
	if !a.Status.CanTransitionTo(StatusInProgress) || a.Status != StatusDraft {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "audit cannot start from status %s", a.Status)
	}
	if len(a.Scope) == 0 {
		return dErrors.New(dErrors.CodeValidation, "audit needs at least one scope line item before it can start")
	}
	return nil
}

// ApplyStart transitions to IN_PROGRESS and locks the scope.
// Call CanStart first.
func (a *Audit) ApplyStart(now time.Time) {
	a.Status = StatusInProgress
	a.ScopeLockedAt = &now
	a.UpdatedAt = now
}

// Start validates and applies the start transition in one call.
func (a *Audit) Start(now time.Time) error {
	if err := a.CanStart(); err != nil {
		return err
	}
	a.ApplyStart(now)
	return nil
}

// CanSubmitForReview checks the IN_PROGRESS → IN_REVIEW transition. Any
// auditor may submit; there is no numeric readiness guard.
func (a *Audit) CanSubmitForReview() error {
	if a.Status != StatusInProgress {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "audit cannot be submitted for review from status %s", a.Status)
	}
	return nil
}

// ApplySubmitForReview transitions to IN_REVIEW. Previous review notes are
// cleared: a fresh review starts without the last round's remarks.
func (a *Audit) ApplySubmitForReview(now time.Time) {
	a.Status = StatusInReview
	a.ReviewNotes = ""
	a.SubmittedForReviewAt = &now
	a.UpdatedAt = now
}

// SubmitForReview validates and applies the submit transition in one call.
func (a *Audit) SubmitForReview(now time.Time) error {
	if err := a.CanSubmitForReview(); err != nil {
		return err
	}
	a.ApplySubmitForReview(now)
	return nil
}

// CanRequestChanges checks the IN_REVIEW → IN_PROGRESS transition. The lead
// auditor must state what needs to change.
func (a *Audit) CanRequestChanges(notes string) error {
	if a.Status != StatusInReview {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "changes can only be requested while the audit is in review, not %s", a.Status)
	}
	if strings.TrimSpace(notes) == "" {
		return dErrors.New(dErrors.CodeValidation, "review notes are required when requesting changes")
	}
	return nil
}

// ApplyRequestChanges sends the audit back to IN_PROGRESS with the lead
// auditor's notes. Call CanRequestChanges first.
func (a *Audit) ApplyRequestChanges(notes string, now time.Time) {
	a.Status = StatusInProgress
	a.ReviewNotes = strings.TrimSpace(notes)
	a.UpdatedAt = now
}

// RequestChanges validates and applies the request-changes transition in one call.
func (a *Audit) RequestChanges(notes string, now time.Time) error {
	if err := a.CanRequestChanges(notes); err != nil {
		return err
	}
	a.ApplyRequestChanges(notes, now)
	return nil
}

// CanApprove checks the IN_REVIEW → CLOSED approval. Open MAJOR_NC findings
// do not block approval; that remains the lead auditor's judgment call and is
// surfaced as a warning, not a guard.
func (a *Audit) CanApprove() error {
	if a.Status != StatusInReview {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "audit cannot be approved from status %s", a.Status)
	}
	return nil
}

// ApplyApproval closes the audit with the lead auditor's approval. The
// optional reason lands in CloseReason for the trail. Call CanApprove first.
func (a *Audit) ApplyApproval(reason string, now time.Time) {
	a.Status = StatusClosed
	a.ApprovedAt = &now
	a.ClosedAt = &now
	a.CloseReason = strings.TrimSpace(reason)
	a.UpdatedAt = now
}

// Approve validates and applies the approval in one call.
func (a *Audit) Approve(reason string, now time.Time) error {
	if err := a.CanApprove(); err != nil {
		return err
	}
	a.ApplyApproval(reason, now)
	return nil
}

// CanClose checks the direct close path from any non-CLOSED state. When the
// findings register still holds open MAJOR_NC findings, a reason is
// mandatory; otherwise it is optional.
func (a *Audit) CanClose(reason string, openMajorCount int) error {
	if a.Status == StatusClosed {
		return dErrors.New(dErrors.CodeInvariantViolation, "audit is already closed")
	}
	if openMajorCount > 0 && strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "a close reason is required while major non-conformities are open")
	}
	return nil
}

// ApplyClose closes the audit without approval. Call CanClose first.
func (a *Audit) ApplyClose(reason string, now time.Time) {
	a.Status = StatusClosed
	a.ClosedAt = &now
	a.CloseReason = strings.TrimSpace(reason)
	a.UpdatedAt = now
}

// Close validates and applies the direct close in one call.
func (a *Audit) Close(reason string, openMajorCount int, now time.Time) error {
	if err := a.CanClose(reason, openMajorCount); err != nil {
		return err
	}
	a.ApplyClose(reason, now)
	return nil
}

// CanReopen checks the CLOSED → IN_REVIEW transition. Reopening always needs
// a stated reason.
func (a *Audit) CanReopen(reason string) error {
	if a.Status != StatusClosed {
		return dErrors.New(dErrors.CodeInvariantViolation, "only a closed audit can be reopened")
	}
	if strings.TrimSpace(reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "a reason is required to reopen an audit")
	}
	return nil
}

// ApplyReopen puts the audit back into IN_REVIEW. ApprovedAt is kept: the
// earlier approval remains part of the record. Call CanReopen first.
func (a *Audit) ApplyReopen(now time.Time) {
	a.Status = StatusInReview
	a.ReopenedAt = &now
	a.UpdatedAt = now
}

// Reopen validates and applies the reopen transition in one call.
func (a *Audit) Reopen(reason string, now time.Time) error {
	if err := a.CanReopen(reason); err != nil {
		return err
	}
	a.ApplyReopen(now)
	return nil
}
