package handler

import (
	"strings"
	"time"

	"conforma/internal/docreview/models"
	"conforma/internal/docreview/service"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// AnswerEntry is one checklist answer in a review submission.
type AnswerEntry struct {
	ItemID string `json:"item_id"`
	Answer string `json:"answer"`
}

// SubmitReviewRequest is the HTTP request body for
// POST /evidence-items/{id}/reviews. Answer sheet completeness is checked by
// the review itself so its message reaches the caller unchanged.
type SubmitReviewRequest struct {
	TemplateID    string        `json:"template_id"`
	Answers       []AnswerEntry `json:"answers"`
	Decision      string        `json:"decision"`
	Justification string        `json:"justification"`

	parsedTemplateID id.TemplateID
	parsedAnswers    []models.ItemAnswer
	parsedDecision   models.Decision
}

// Normalize trims the free-text fields.
func (r *SubmitReviewRequest) Normalize() {
	r.Justification = strings.TrimSpace(r.Justification)
}

// Validate validates and parses the request.
func (r *SubmitReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	templateID, err := id.ParseTemplateID(strings.TrimSpace(r.TemplateID))
	if err != nil {
		return err
	}
	r.parsedTemplateID = templateID

	decision, err := models.ParseDecision(strings.TrimSpace(r.Decision))
	if err != nil {
		return err
	}
	r.parsedDecision = decision

	r.parsedAnswers = make([]models.ItemAnswer, 0, len(r.Answers))
	for _, entry := range r.Answers {
		itemID, err := id.ParseChecklistItemID(strings.TrimSpace(entry.ItemID))
		if err != nil {
			return err
		}
		answer, err := models.ParseAnswer(strings.TrimSpace(entry.Answer))
		if err != nil {
			return err
		}
		r.parsedAnswers = append(r.parsedAnswers, models.ItemAnswer{ItemID: itemID, Answer: answer})
	}
	return nil
}

// ParsedInput returns the validated submission for the given evidence item.
func (r *SubmitReviewRequest) ParsedInput(itemID id.EvidenceItemID) service.SubmitReviewInput {
	return service.SubmitReviewInput{
		ItemID:        itemID,
		TemplateID:    r.parsedTemplateID,
		Answers:       r.parsedAnswers,
		Decision:      r.parsedDecision,
		Justification: r.Justification,
	}
}

// ConfirmRequest is the HTTP request body for
// POST /suggested-findings/{id}/confirm. The finding type may differ from the
// suggested one; NONE records an observation-only outcome and the description
// becomes the mandatory resolution note.
type ConfirmRequest struct {
	FindingType string     `json:"finding_type"`
	Description string     `json:"description"`
	OwnerID     *string    `json:"owner_id"`
	DueDate     *time.Time `json:"due_date"`

	parsedInput service.ConfirmInput
}

// Validate validates and parses the request.
func (r *ConfirmRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	findingType, err := models.ParseSuggestedType(strings.TrimSpace(r.FindingType))
	if err != nil {
		return err
	}
	r.parsedInput = service.ConfirmInput{
		FindingType: findingType,
		Description: strings.TrimSpace(r.Description),
		DueDate:     r.DueDate,
	}
	if r.OwnerID != nil {
		ownerID, err := id.ParseUserID(strings.TrimSpace(*r.OwnerID))
		if err != nil {
			return err
		}
		r.parsedInput.OwnerID = &ownerID
	}
	return nil
}

// ParsedInput returns the validated confirmation.
func (r *ConfirmRequest) ParsedInput() service.ConfirmInput {
	return r.parsedInput
}

// DismissRequest is the optional HTTP request body for
// POST /suggested-findings/{id}/dismiss.
type DismissRequest struct {
	Reason string `json:"reason"`
}

// Normalize trims the reason.
func (r *DismissRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}
