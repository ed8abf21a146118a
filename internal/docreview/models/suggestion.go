package models

import (
	"fmt"
	"strings"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// SuggestedType is the non-conformity class a review's signals point at.
type SuggestedType string

const (
	SuggestedNone    SuggestedType = "NONE"
	SuggestedMinorNC SuggestedType = "MINOR_NC"
	SuggestedMajorNC SuggestedType = "MAJOR_NC"
)

// IsValid checks the suggested type against the enum.
func (t SuggestedType) IsValid() bool {
	switch t {
	case SuggestedNone, SuggestedMinorNC, SuggestedMajorNC:
		return true
	}
	return false
}

// ParseSuggestedType constructs a SuggestedType from external input.
func ParseSuggestedType(v string) (SuggestedType, error) {
	t := SuggestedType(v)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid finding type")
	}
	return t, nil
}

// SeverityFlag is a coarse advisory hint shown next to a suggestion.
type SeverityFlag string

const (
	FlagLow    SeverityFlag = "LOW"
	FlagMedium SeverityFlag = "MEDIUM"
	FlagHigh   SeverityFlag = "HIGH"
)

// SuggestionStatus tracks a suggestion through its single resolution.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "PENDING"
	SuggestionConfirmed SuggestionStatus = "CONFIRMED"
	SuggestionDismissed SuggestionStatus = "DISMISSED"
)

// IsValid checks the status against the enum.
func (s SuggestionStatus) IsValid() bool {
	switch s {
	case SuggestionPending, SuggestionConfirmed, SuggestionDismissed:
		return true
	}
	return false
}

// ParseSuggestionStatus constructs a SuggestionStatus from external input.
func ParseSuggestionStatus(v string) (SuggestionStatus, error) {
	s := SuggestionStatus(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid suggestion status")
	}
	return s, nil
}

// SuggestedFinding is a non-binding proposal raised by the review engine. It
// never becomes a Finding on its own; a human confirms or dismisses it.
//
// Invariants:
//   - Leaves PENDING exactly once, via confirm or dismiss
//   - CONFIRMED carries exactly one of ConfirmedFindingID (a Finding was
//     registered) or a non-empty ResolutionNote (observation-only outcome)
//   - DISMISSED records the dismisser; the reason is optional
type SuggestedFinding struct {
	ID                 id.SuggestionID   `json:"id"`
	CompanyID          id.CompanyID      `json:"company_id"`
	ReviewID           id.ReviewID       `json:"review_id"`
	EvidenceItemID     id.EvidenceItemID `json:"evidence_item_id"`
	SuggestedType      SuggestedType     `json:"suggested_type"`
	SeverityFlag       SeverityFlag      `json:"severity_flag"`
	Rationale          string            `json:"rationale"`
	Status             SuggestionStatus  `json:"status"`
	ConfirmedFindingID id.FindingID      `json:"confirmed_finding_id,omitempty"`
	ResolutionNote     string            `json:"resolution_note,omitempty"`
	ResolvedBy         *id.UserID        `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time        `json:"resolved_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

// Suggest evaluates the suggestion policy against a persisted review. It
// returns nil when no signal fires: an accepted document with a clean score
// raises nothing.
//
// Policy: MAJOR_NC when a critical item failed or the score fell below the
// major band; MINOR_NC when the reviewer rejected or the score fell below the
// minor band. All-NA reviews skip the band rules (their score of 0 is a
// placeholder, not a signal) but the reject and critical rules still apply.
func Suggest(suggestionID id.SuggestionID, review *DocumentReview, bands Thresholds, now time.Time) *SuggestedFinding {
	scored := !review.NeedsManualHandling
	dqs := float64(review.DQSPercent)

	var suggestedType SuggestedType
	switch {
	case review.CriticalFailures > 0 || (scored && dqs < bands.MajorBelow):
		suggestedType = SuggestedMajorNC
	case review.Decision == DecisionReject || (scored && dqs < bands.MinorBelow):
		suggestedType = SuggestedMinorNC
	default:
		return nil
	}

	flag := FlagLow
	if scored && dqs < bands.MinorBelow || review.Decision == DecisionReject {
		flag = FlagMedium
	}
	if review.CriticalFailures > 0 || (scored && dqs < bands.MajorBelow) {
		flag = FlagHigh
	}

	return &SuggestedFinding{
		ID:             suggestionID,
		CompanyID:      review.CompanyID,
		ReviewID:       review.ID,
		EvidenceItemID: review.EvidenceItemID,
		SuggestedType:  suggestedType,
		SeverityFlag:   flag,
		Rationale:      rationale(review, bands),
		Status:         SuggestionPending,
		CreatedAt:      now,
	}
}

// rationale renders the triggered signals as one human-readable line.
func rationale(review *DocumentReview, bands Thresholds) string {
	var parts []string
	if review.CriticalFailures > 0 {
		parts = append(parts, fmt.Sprintf("%d critical checklist item(s) failed", review.CriticalFailures))
	}
	if review.Decision == DecisionReject {
		parts = append(parts, "document rejected by reviewer")
	}
	if !review.NeedsManualHandling {
		dqs := float64(review.DQSPercent)
		if dqs < bands.MajorBelow {
			parts = append(parts, fmt.Sprintf("quality score %d%% below major band %.0f%%", review.DQSPercent, bands.MajorBelow))
		} else if dqs < bands.MinorBelow {
			parts = append(parts, fmt.Sprintf("quality score %d%% below minor band %.0f%%", review.DQSPercent, bands.MinorBelow))
		}
	}
	return strings.Join(parts, "; ")
}

// CanResolve checks the compare-and-swap guard: only a PENDING suggestion can
// be resolved, and only once.
func (s *SuggestedFinding) CanResolve() error {
	if s.Status != SuggestionPending {
		return dErrors.Newf(dErrors.CodeConflict, "suggestion is already %s", s.Status)
	}
	return nil
}

// ApplyConfirmWithFinding marks the suggestion CONFIRMED against a registered
// finding. Call CanResolve first.
func (s *SuggestedFinding) ApplyConfirmWithFinding(findingID id.FindingID, resolvedBy id.UserID, now time.Time) {
	s.Status = SuggestionConfirmed
	s.ConfirmedFindingID = findingID
	s.ResolutionNote = ""
	s.ResolvedBy = &resolvedBy
	s.ResolvedAt = &now
}

// CanConfirmObservation validates the observation-only confirmation. The note
// is what distinguishes it from a dismissal, so it is mandatory.
func (s *SuggestedFinding) CanConfirmObservation(note string) error {
	if err := s.CanResolve(); err != nil {
		return err
	}
	if strings.TrimSpace(note) == "" {
		return dErrors.New(dErrors.CodeValidation, "an observation-only confirmation requires a resolution note")
	}
	return nil
}

// ApplyConfirmObservation marks the suggestion CONFIRMED without a finding.
// Call CanConfirmObservation first.
func (s *SuggestedFinding) ApplyConfirmObservation(note string, resolvedBy id.UserID, now time.Time) {
	s.Status = SuggestionConfirmed
	s.ConfirmedFindingID = id.FindingID{}
	s.ResolutionNote = strings.TrimSpace(note)
	s.ResolvedBy = &resolvedBy
	s.ResolvedAt = &now
}

// ApplyDismiss marks the suggestion DISMISSED. Call CanResolve first. No
// finding is ever created on this path.
func (s *SuggestedFinding) ApplyDismiss(reason string, resolvedBy id.UserID, now time.Time) {
	s.Status = SuggestionDismissed
	s.ResolutionNote = strings.TrimSpace(reason)
	s.ResolvedBy = &resolvedBy
	s.ResolvedAt = &now
}

// SuggestionFilter narrows suggestion listings. Zero values match everything.
type SuggestionFilter struct {
	Status SuggestionStatus
}
