package handler

import (
	"time"

	"conforma/internal/docreview/models"
	"conforma/internal/docreview/service"
	findinghandler "conforma/internal/findings/handler"
)

// TemplateItemResponse is one checklist question of a template.
type TemplateItemResponse struct {
	ID         string `json:"id"`
	Prompt     string `json:"prompt"`
	IsCritical bool   `json:"is_critical"`
	SortOrder  int    `json:"sort_order"`
}

// TemplateResponse is the HTTP representation of a checklist template.
type TemplateResponse struct {
	ID           string                  `json:"id"`
	DocumentType string                  `json:"document_type"`
	Version      int                     `json:"version"`
	Name         string                  `json:"name"`
	Active       bool                    `json:"active"`
	Items        []*TemplateItemResponse `json:"items"`
	CreatedAt    time.Time               `json:"created_at"`
}

// FromTemplate converts a checklist template to its HTTP representation.
func FromTemplate(t *models.ChecklistTemplate) *TemplateResponse {
	items := make([]*TemplateItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, &TemplateItemResponse{
			ID:         item.ID.String(),
			Prompt:     item.Prompt,
			IsCritical: item.IsCritical,
			SortOrder:  item.SortOrder,
		})
	}
	return &TemplateResponse{
		ID:           t.ID.String(),
		DocumentType: t.DocumentType,
		Version:      t.Version,
		Name:         t.Name,
		Active:       t.Active,
		Items:        items,
		CreatedAt:    t.CreatedAt,
	}
}

// ListTemplatesResponse is the HTTP response for GET /checklist-templates.
type ListTemplatesResponse struct {
	Templates []*TemplateResponse `json:"templates"`
}

// FromTemplateList converts a template catalogue.
func FromTemplateList(templates []*models.ChecklistTemplate) *ListTemplatesResponse {
	out := make([]*TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, FromTemplate(t))
	}
	return &ListTemplatesResponse{Templates: out}
}

// AnswerResponse is one recorded checklist answer.
type AnswerResponse struct {
	ItemID string `json:"item_id"`
	Answer string `json:"answer"`
}

// ReviewResponse is the HTTP representation of a document review.
type ReviewResponse struct {
	ID                  string            `json:"id"`
	CompanyID           string            `json:"company_id"`
	EvidenceItemID      string            `json:"evidence_item_id"`
	TemplateID          string            `json:"template_id"`
	Answers             []*AnswerResponse `json:"answers"`
	DQSPercent          int               `json:"dqs_percent"`
	CriticalFailures    int               `json:"critical_failures"`
	Decision            string            `json:"decision"`
	Justification       string            `json:"justification,omitempty"`
	NeedsManualHandling bool              `json:"needs_manual_handling"`
	OverrodeSignals     bool              `json:"overrode_signals"`
	ReviewedBy          string            `json:"reviewed_by"`
	CreatedAt           time.Time         `json:"created_at"`
}

// FromReview converts a document review to its HTTP representation.
func FromReview(r *models.DocumentReview) *ReviewResponse {
	answers := make([]*AnswerResponse, 0, len(r.Answers))
	for _, a := range r.Answers {
		answers = append(answers, &AnswerResponse{ItemID: a.ItemID.String(), Answer: string(a.Answer)})
	}
	return &ReviewResponse{
		ID:                  r.ID.String(),
		CompanyID:           r.CompanyID.String(),
		EvidenceItemID:      r.EvidenceItemID.String(),
		TemplateID:          r.TemplateID.String(),
		Answers:             answers,
		DQSPercent:          r.DQSPercent,
		CriticalFailures:    r.CriticalFailures,
		Decision:            string(r.Decision),
		Justification:       r.Justification,
		NeedsManualHandling: r.NeedsManualHandling,
		OverrodeSignals:     r.OverrodeSignals,
		ReviewedBy:          r.ReviewedBy.String(),
		CreatedAt:           r.CreatedAt,
	}
}

// ListReviewsResponse is the HTTP response for GET /evidence-items/{id}/reviews.
type ListReviewsResponse struct {
	Reviews []*ReviewResponse `json:"reviews"`
}

// FromReviewList converts a list of reviews.
func FromReviewList(reviews []*models.DocumentReview) *ListReviewsResponse {
	out := make([]*ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, FromReview(r))
	}
	return &ListReviewsResponse{Reviews: out}
}

// SuggestionResponse is the HTTP representation of a suggested finding. The
// confirmed finding link and resolution fields are omitted while a suggestion
// is still pending.
type SuggestionResponse struct {
	ID                 string     `json:"id"`
	CompanyID          string     `json:"company_id"`
	ReviewID           string     `json:"review_id"`
	EvidenceItemID     string     `json:"evidence_item_id"`
	SuggestedType      string     `json:"suggested_type"`
	SeverityFlag       string     `json:"severity_flag"`
	Rationale          string     `json:"rationale"`
	Status             string     `json:"status"`
	ConfirmedFindingID *string    `json:"confirmed_finding_id,omitempty"`
	ResolutionNote     string     `json:"resolution_note,omitempty"`
	ResolvedBy         *string    `json:"resolved_by,omitempty"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// FromSuggestion converts a suggested finding to its HTTP representation.
func FromSuggestion(sg *models.SuggestedFinding) *SuggestionResponse {
	resp := &SuggestionResponse{
		ID:             sg.ID.String(),
		CompanyID:      sg.CompanyID.String(),
		ReviewID:       sg.ReviewID.String(),
		EvidenceItemID: sg.EvidenceItemID.String(),
		SuggestedType:  string(sg.SuggestedType),
		SeverityFlag:   string(sg.SeverityFlag),
		Rationale:      sg.Rationale,
		Status:         string(sg.Status),
		ResolutionNote: sg.ResolutionNote,
		ResolvedAt:     sg.ResolvedAt,
		CreatedAt:      sg.CreatedAt,
	}
	if !sg.ConfirmedFindingID.IsNil() {
		s := sg.ConfirmedFindingID.String()
		resp.ConfirmedFindingID = &s
	}
	if sg.ResolvedBy != nil {
		s := sg.ResolvedBy.String()
		resp.ResolvedBy = &s
	}
	return resp
}

// ListSuggestionsResponse is the HTTP response for GET /suggested-findings.
type ListSuggestionsResponse struct {
	Suggestions []*SuggestionResponse `json:"suggestions"`
}

// FromSuggestionList converts a list of suggested findings.
func FromSuggestionList(suggestions []*models.SuggestedFinding) *ListSuggestionsResponse {
	out := make([]*SuggestionResponse, 0, len(suggestions))
	for _, sg := range suggestions {
		out = append(out, FromSuggestion(sg))
	}
	return &ListSuggestionsResponse{Suggestions: out}
}

// SubmitReviewResponse is the HTTP response for a submitted review. The
// suggestion is present only when the review raised one.
type SubmitReviewResponse struct {
	Review     *ReviewResponse     `json:"review"`
	Suggestion *SuggestionResponse `json:"suggestion,omitempty"`
}

// FromReviewResult converts a review submission outcome.
func FromReviewResult(result *service.ReviewResult) *SubmitReviewResponse {
	resp := &SubmitReviewResponse{Review: FromReview(result.Review)}
	if result.Suggestion != nil {
		resp.Suggestion = FromSuggestion(result.Suggestion)
	}
	return resp
}

// ConfirmSuggestionResponse is the HTTP response for a confirmed suggestion.
// The finding is absent for observation-only confirmations.
type ConfirmSuggestionResponse struct {
	Suggestion *SuggestionResponse             `json:"suggestion"`
	Finding    *findinghandler.FindingResponse `json:"finding,omitempty"`
}

// FromConfirmResult converts a confirmation outcome.
func FromConfirmResult(result *service.ConfirmResult) *ConfirmSuggestionResponse {
	resp := &ConfirmSuggestionResponse{Suggestion: FromSuggestion(result.Suggestion)}
	if result.Finding != nil {
		resp.Finding = findinghandler.FromFinding(result.Finding)
	}
	return resp
}
