package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// Severity mirrors the non-conformity rating that raised the finding.
type Severity string

const (
	SeverityMinorNC Severity = "MINOR_NC"
	SeverityMajorNC Severity = "MAJOR_NC"
)

// IsValid checks the severity against the enum.
func (s Severity) IsValid() bool {
	return s == SeverityMinorNC || s == SeverityMajorNC
}

// ParseSeverity constructs a Severity from external input.
func ParseSeverity(v string) (Severity, error) {
	s := Severity(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid finding severity")
	}
	return s, nil
}

// Status is the register state of a finding.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusClosed      Status = "CLOSED"
)

// IsValid checks the status against the enum.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusUnderReview, StatusClosed:
		return true
	}
	return false
}

// ParseStatus constructs a Status from external input.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid finding status")
	}
	return s, nil
}

// validTransitions lists the permitted status edges. CLOSED -> OPEN is the
// reopen-by-edit path; it carries no guard beyond the caller's role check.
var validTransitions = map[Status][]Status{
	StatusOpen:        {StatusUnderReview, StatusClosed},
	StatusUnderReview: {StatusClosed},
	StatusClosed:      {StatusOpen},
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

// Finding is one formal non-conformance in the register.
//
// Invariants:
//   - FindingText is at least 10 characters
//   - Severity is MINOR_NC or MAJOR_NC
//   - Status follows validTransitions; closing a MAJOR_NC finding requires a
//     closure note
//   - AuditID, IndicatorID and ResponseID may be nil: findings confirmed from
//     document reviews are not tied to an indicator response
//   - Correcting the triggering response never closes the finding; only the
//     register does
type Finding struct {
	ID          id.FindingID    `json:"id"`
	CompanyID   id.CompanyID    `json:"company_id"`
	AuditID     id.AuditID      `json:"audit_id"`
	IndicatorID id.IndicatorID  `json:"indicator_id"`
	ResponseID  id.ResponseID   `json:"response_id"`
	Severity    Severity        `json:"severity"`
	FindingText string          `json:"finding_text"`
	Status      Status          `json:"status"`
	OwnerID     *id.UserID      `json:"owner_id,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	ClosureNote string          `json:"closure_note,omitempty"`
	CreatedBy   id.UserID       `json:"created_by"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewFinding constructs an OPEN finding, validating constructor invariants.
func NewFinding(findingID id.FindingID, companyID id.CompanyID, createdBy id.UserID, severity Severity, text string, now time.Time) (*Finding, error) {
	text = strings.TrimSpace(text)
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid finding severity")
	}
	if utf8.RuneCountInString(text) < 10 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "finding text must be at least 10 characters")
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "finding needs a company")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "finding needs a creator")
	}
	return &Finding{
		ID:          findingID,
		CompanyID:   companyID,
		Severity:    severity,
		FindingText: text,
		Status:      StatusOpen,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsOpen reports whether the finding still counts against the audit. Only
// status OPEN counts; UNDER_REVIEW findings are already being handled.
func (f *Finding) IsOpen() bool {
	return f.Status == StatusOpen
}

// CanPatch validates register edits. The 10-character floor on finding text
// applies to edits as well as creation.
func (f *Finding) CanPatch(patch FindingPatch) error {
	if patch.IsEmpty() {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	if patch.FindingText != nil && utf8.RuneCountInString(strings.TrimSpace(*patch.FindingText)) < 10 {
		return dErrors.New(dErrors.CodeValidation, "finding text must be at least 10 characters")
	}
	return nil
}

// ApplyPatch applies the edits. Call CanPatch first.
func (f *Finding) ApplyPatch(patch FindingPatch, now time.Time) {
	if patch.OwnerID != nil {
		owner := *patch.OwnerID
		f.OwnerID = &owner
	}
	if patch.DueDate != nil {
		due := *patch.DueDate
		f.DueDate = &due
	}
	if patch.FindingText != nil {
		f.FindingText = strings.TrimSpace(*patch.FindingText)
	}
	f.UpdatedAt = now
}

// Patch validates and applies register edits in one call.
func (f *Finding) Patch(patch FindingPatch, now time.Time) error {
	if err := f.CanPatch(patch); err != nil {
		return err
	}
	f.ApplyPatch(patch, now)
	return nil
}

// CanChangeStatus checks a status edit. Closing a MAJOR_NC finding demands a
// closure note so the register explains how the non-conformity was resolved.
func (f *Finding) CanChangeStatus(next Status, closureNote string) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid finding status")
	}
	if next == f.Status {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "finding is already %s", f.Status)
	}
	if !f.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "finding cannot move from %s to %s", f.Status, next)
	}
	if next == StatusClosed && f.Severity == SeverityMajorNC && strings.TrimSpace(closureNote) == "" {
		return dErrors.New(dErrors.CodeValidation, "a closure note is required to close a major non-conformity")
	}
	return nil
}

// ApplyStatus performs the status edit. Call CanChangeStatus first. The
// closure note is kept across a reopen; it stays part of the record.
func (f *Finding) ApplyStatus(next Status, closureNote string, now time.Time) {
	f.Status = next
	if next == StatusClosed {
		f.ClosedAt = &now
		if note := strings.TrimSpace(closureNote); note != "" {
			f.ClosureNote = note
		}
	}
	f.UpdatedAt = now
}

// ChangeStatus validates and applies a status edit in one call.
func (f *Finding) ChangeStatus(next Status, closureNote string, now time.Time) error {
	if err := f.CanChangeStatus(next, closureNote); err != nil {
		return err
	}
	f.ApplyStatus(next, closureNote, now)
	return nil
}

// TransitionDetail renders a "FROM -> TO" line for the activity log.
func TransitionDetail(from, to Status) string {
	return fmt.Sprintf("%s -> %s", from, to)
}

// FindingFilter narrows register listings. Zero values match everything.
type FindingFilter struct {
	AuditID id.AuditID
	Status  Status
}

// FindingPatch carries the register's editable fields. Nil fields are left
// unchanged.
type FindingPatch struct {
	OwnerID     *id.UserID
	DueDate     *time.Time
	FindingText *string
}

// IsEmpty reports whether the patch changes nothing.
func (p FindingPatch) IsEmpty() bool {
	return p.OwnerID == nil && p.DueDate == nil && p.FindingText == nil
}
