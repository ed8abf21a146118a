package handler

import (
	"fmt"
	"time"

	"conforma/internal/audit/models"
)

// ScopeItemResponse is one scope line item in an audit response.
type ScopeItemResponse struct {
	LineItemID string `json:"line_item_id"`
	Label      string `json:"label"`
	DomainCode string `json:"domain_code"`
	Position   int    `json:"position"`
}

// AuditResponse is the HTTP representation of an audit.
type AuditResponse struct {
	ID                   string              `json:"id"`
	CompanyID            string              `json:"company_id"`
	Title                string              `json:"title"`
	Type                 string              `json:"type"`
	Status               string              `json:"status"`
	ScopeStart           *time.Time          `json:"scope_start,omitempty"`
	ScopeEnd             *time.Time          `json:"scope_end,omitempty"`
	Scope                []ScopeItemResponse `json:"scope"`
	ScopeLocked          bool                `json:"scope_locked"`
	ReviewNotes          string              `json:"review_notes,omitempty"`
	SubmittedForReviewAt *time.Time          `json:"submitted_for_review_at,omitempty"`
	ApprovedAt           *time.Time          `json:"approved_at,omitempty"`
	CloseReason          string              `json:"close_reason,omitempty"`
	ClosedAt             *time.Time          `json:"closed_at,omitempty"`
	ReopenedAt           *time.Time          `json:"reopened_at,omitempty"`
	CreatedBy            string              `json:"created_by"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// FromAudit converts a domain audit to its HTTP representation.
func FromAudit(a *models.Audit) *AuditResponse {
	scope := make([]ScopeItemResponse, 0, len(a.Scope))
	for _, item := range a.Scope {
		scope = append(scope, ScopeItemResponse{
			LineItemID: item.LineItemID.String(),
			Label:      item.Label,
			DomainCode: item.DomainCode,
			Position:   item.Position,
		})
	}
	return &AuditResponse{
		ID:                   a.ID.String(),
		CompanyID:            a.CompanyID.String(),
		Title:                a.Title,
		Type:                 string(a.Type),
		Status:               a.Status.String(),
		ScopeStart:           a.ScopeStart,
		ScopeEnd:             a.ScopeEnd,
		Scope:                scope,
		ScopeLocked:          a.ScopeLocked(),
		ReviewNotes:          a.ReviewNotes,
		SubmittedForReviewAt: a.SubmittedForReviewAt,
		ApprovedAt:           a.ApprovedAt,
		CloseReason:          a.CloseReason,
		ClosedAt:             a.ClosedAt,
		ReopenedAt:           a.ReopenedAt,
		CreatedBy:            a.CreatedBy.String(),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

// ListAuditsResponse is the HTTP response for GET /audits.
type ListAuditsResponse struct {
	Audits []*AuditResponse `json:"audits"`
}

// FromAuditList converts a list of audits.
func FromAuditList(audits []*models.Audit) *ListAuditsResponse {
	out := make([]*AuditResponse, 0, len(audits))
	for _, a := range audits {
		out = append(out, FromAudit(a))
	}
	return &ListAuditsResponse{Audits: out}
}

// ApproveAuditResponse is the HTTP response for POST /audits/{id}/approve.
// Warning is set when the audit was approved while MAJOR_NC findings were
// still open.
type ApproveAuditResponse struct {
	AuditResponse
	Warning string `json:"warning,omitempty"`
}

// FromApproval converts an approval outcome.
func FromApproval(a *models.Audit, openMajor int) *ApproveAuditResponse {
	resp := &ApproveAuditResponse{AuditResponse: *FromAudit(a)}
	if openMajor > 0 {
		resp.Warning = fmt.Sprintf("%d major non-conformities remain open", openMajor)
	}
	return resp
}

// ScoreResponse is the HTTP response for GET /audits/{id}/score.
type ScoreResponse struct {
	AuditID      string  `json:"audit_id"`
	ScorePercent float64 `json:"score_percent"`
	ScoreVersion int     `json:"score_version"`
	Responded    int     `json:"responded"`
	OpenMajor    int     `json:"open_major"`
	OpenMinor    int     `json:"open_minor"`
}

// FromScore converts a score summary.
func FromScore(s *models.ScoreSummary) *ScoreResponse {
	return &ScoreResponse{
		AuditID:      s.AuditID.String(),
		ScorePercent: s.ScorePercent,
		ScoreVersion: s.ScoreVersion,
		Responded:    s.Responded,
		OpenMajor:    s.OpenMajor,
		OpenMinor:    s.OpenMinor,
	}
}
