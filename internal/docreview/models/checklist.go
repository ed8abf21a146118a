package models

import (
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// Answer is a reviewer's response to one checklist item.
type Answer string

const (
	AnswerYes    Answer = "YES"
	AnswerNo     Answer = "NO"
	AnswerPartly Answer = "PARTLY"
	AnswerNA     Answer = "NA"
)

// IsValid checks the answer against the enum.
func (a Answer) IsValid() bool {
	switch a {
	case AnswerYes, AnswerNo, AnswerPartly, AnswerNA:
		return true
	}
	return false
}

// ParseAnswer constructs an Answer from external input.
func ParseAnswer(v string) (Answer, error) {
	a := Answer(v)
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid checklist answer")
	}
	return a, nil
}

// Scorable reports whether the answer counts toward the documentation
// quality score. NA items are excluded from the denominator.
func (a Answer) Scorable() bool {
	return a != AnswerNA
}

// ChecklistItem is one prompt on a checklist template. Critical items carry
// extra weight in the suggestion policy: a NO on a critical item counts as a
// critical failure.
type ChecklistItem struct {
	ID         id.ChecklistItemID `json:"id"`
	TemplateID id.TemplateID      `json:"template_id"`
	Prompt     string             `json:"prompt"`
	IsCritical bool               `json:"is_critical"`
	SortOrder  int                `json:"sort_order"`
}

// ChecklistTemplate is a versioned checklist for one document type. Templates
// are immutable once published; a rule change ships as a new version, and
// only the latest version per document type stays active.
type ChecklistTemplate struct {
	ID           id.TemplateID    `json:"id"`
	DocumentType string           `json:"document_type"`
	Version      int              `json:"version"`
	Name         string           `json:"name"`
	Active       bool             `json:"active"`
	CreatedAt    time.Time        `json:"created_at"`
	Items        []*ChecklistItem `json:"items"`
}

// Item returns the template item with the given id, or nil.
func (t *ChecklistTemplate) Item(itemID id.ChecklistItemID) *ChecklistItem {
	for _, item := range t.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}
