package models

import (
	"math"
	"strings"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// Decision is the reviewer's explicit verdict on the document. It is a human
// choice, never derived from the computed score.
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// IsValid checks the decision against the enum.
func (d Decision) IsValid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// ParseDecision constructs a Decision from external input.
func ParseDecision(v string) (Decision, error) {
	d := Decision(v)
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid review decision")
	}
	return d, nil
}

// ItemAnswer pairs a checklist item with the reviewer's answer.
type ItemAnswer struct {
	ItemID id.ChecklistItemID `json:"item_id"`
	Answer Answer             `json:"answer"`
}

// Thresholds holds the score bands the suggestion policy reads. A score below
// MinorBelow yields a MINOR_NC suggestion, below MajorBelow a MAJOR_NC one.
// Configurable because standards evolve; the values are percent.
type Thresholds struct {
	MinorBelow float64
	MajorBelow float64
}

// DefaultThresholds are the bands used when configuration provides none.
var DefaultThresholds = Thresholds{MinorBelow: 80, MajorBelow: 50}

// DocumentReview is one completed checklist pass over a submitted evidence
// item.
//
// Invariants:
//   - Immutable once created; a second opinion is a new review
//   - Every template item is answered exactly once, no unknown items
//   - DQSPercent = round(YES / scorable * 100) where scorable excludes NA
//   - All items NA: DQSPercent is 0 and NeedsManualHandling is set
//   - Decision is the reviewer's call; the computed signals never block it
type DocumentReview struct {
	ID                  id.ReviewID       `json:"id"`
	CompanyID           id.CompanyID      `json:"company_id"`
	EvidenceItemID      id.EvidenceItemID `json:"evidence_item_id"`
	TemplateID          id.TemplateID     `json:"template_id"`
	Answers             []ItemAnswer      `json:"answers"`
	DQSPercent          int               `json:"dqs_percent"`
	CriticalFailures    int               `json:"critical_failures"`
	Decision            Decision          `json:"decision"`
	Justification       string            `json:"justification,omitempty"`
	NeedsManualHandling bool              `json:"needs_manual_handling"`
	OverrodeSignals     bool              `json:"overrode_signals"`
	ReviewedBy          id.UserID         `json:"reviewed_by"`
	CreatedAt           time.Time         `json:"created_at"`
}

// NewDocumentReview scores the answer sheet against the template and builds
// the immutable review record. The answer sheet must cover the template
// exactly: one answer per item, no strays.
func NewDocumentReview(reviewID id.ReviewID, companyID id.CompanyID, itemID id.EvidenceItemID,
	template *ChecklistTemplate, answers []ItemAnswer, decision Decision, justification string,
	reviewedBy id.UserID, bands Thresholds, now time.Time) (*DocumentReview, error) {
	if !decision.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid review decision")
	}
	if companyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "review needs a company")
	}
	if reviewedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "review needs a reviewer")
	}

	answered := make(map[id.ChecklistItemID]Answer, len(answers))
	for _, a := range answers {
		if !a.Answer.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid checklist answer")
		}
		if template.Item(a.ItemID) == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "answer references an item not on the checklist")
		}
		if _, dup := answered[a.ItemID]; dup {
			return nil, dErrors.New(dErrors.CodeValidation, "duplicate answer for a checklist item")
		}
		answered[a.ItemID] = a.Answer
	}
	if len(answered) != len(template.Items) {
		return nil, dErrors.New(dErrors.CodeValidation, "every checklist item must be answered")
	}

	var yes, scorable, criticalFailures int
	for _, item := range template.Items {
		answer := answered[item.ID]
		if answer.Scorable() {
			scorable++
			if answer == AnswerYes {
				yes++
			}
		}
		if item.IsCritical && answer == AnswerNo {
			criticalFailures++
		}
	}

	// All-NA sheets score 0 rather than undefined. Observed production
	// behavior; the manual-handling flag routes these to a human.
	dqs := 0
	allNA := scorable == 0
	if !allNA {
		dqs = int(math.Round(float64(yes) / float64(scorable) * 100))
	}

	overrode := decision == DecisionAccept &&
		(criticalFailures > 0 || (!allNA && float64(dqs) < bands.MinorBelow))

	return &DocumentReview{
		ID:                  reviewID,
		CompanyID:           companyID,
		EvidenceItemID:      itemID,
		TemplateID:          template.ID,
		Answers:             orderedAnswers(template, answered),
		DQSPercent:          dqs,
		CriticalFailures:    criticalFailures,
		Decision:            decision,
		Justification:       strings.TrimSpace(justification),
		NeedsManualHandling: allNA,
		OverrodeSignals:     overrode,
		ReviewedBy:          reviewedBy,
		CreatedAt:           now,
	}, nil
}

// orderedAnswers lays the sheet out in template order so listings are stable.
func orderedAnswers(template *ChecklistTemplate, answered map[id.ChecklistItemID]Answer) []ItemAnswer {
	out := make([]ItemAnswer, 0, len(template.Items))
	for _, item := range template.Items {
		out = append(out, ItemAnswer{ItemID: item.ID, Answer: answered[item.ID]})
	}
	return out
}
