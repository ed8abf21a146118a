package handler

import (
	"time"

	"conforma/internal/assessment/models"
)

// IndicatorView is the HTTP representation of a template indicator.
type IndicatorView struct {
	ID         string `json:"id"`
	DomainCode string `json:"domain_code"`
	Code       string `json:"code"`
	Text       string `json:"text"`
	Guidance   string `json:"guidance,omitempty"`
	SortOrder  int    `json:"sort_order"`
}

// FromIndicator converts a template indicator to its HTTP representation.
func FromIndicator(ti *models.TemplateIndicator) *IndicatorView {
	return &IndicatorView{
		ID:         ti.ID.String(),
		DomainCode: ti.DomainCode,
		Code:       ti.Code,
		Text:       ti.Text,
		Guidance:   ti.Guidance,
		SortOrder:  ti.SortOrder,
	}
}

// ListIndicatorsResponse is the HTTP response for GET /audits/{id}/indicators.
type ListIndicatorsResponse struct {
	Indicators []*IndicatorView `json:"indicators"`
}

// FromIndicatorList converts the indicator catalogue for an audit.
func FromIndicatorList(indicators []*models.TemplateIndicator) *ListIndicatorsResponse {
	out := make([]*IndicatorView, 0, len(indicators))
	for _, ti := range indicators {
		out = append(out, FromIndicator(ti))
	}
	return &ListIndicatorsResponse{Indicators: out}
}

// ResponseView is the HTTP representation of an indicator response. The View
// suffix avoids stuttering with the entity name for the wire types.
type ResponseView struct {
	ID               string    `json:"id"`
	CompanyID        string    `json:"company_id"`
	AuditID          string    `json:"audit_id"`
	IndicatorID      string    `json:"indicator_id"`
	Rating           string    `json:"rating"`
	Comment          string    `json:"comment,omitempty"`
	ScorePoints      int       `json:"score_points"`
	ScoreVersion     int       `json:"score_version"`
	Status           string    `json:"status"`
	ReviewComment    string    `json:"review_comment,omitempty"`
	ReviewCommentBy  *string   `json:"review_comment_by,omitempty"`
	RecordedInReview bool      `json:"recorded_in_review"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FromResponse converts an indicator response to its HTTP representation.
func FromResponse(ir *models.IndicatorResponse) *ResponseView {
	resp := &ResponseView{
		ID:               ir.ID.String(),
		CompanyID:        ir.CompanyID.String(),
		AuditID:          ir.AuditID.String(),
		IndicatorID:      ir.IndicatorID.String(),
		Rating:           string(ir.Rating),
		Comment:          ir.Comment,
		ScorePoints:      ir.ScorePoints,
		ScoreVersion:     ir.ScoreVersion,
		Status:           string(ir.Status),
		ReviewComment:    ir.ReviewComment,
		RecordedInReview: ir.RecordedInReview,
		CreatedBy:        ir.CreatedBy.String(),
		CreatedAt:        ir.CreatedAt,
		UpdatedAt:        ir.UpdatedAt,
	}
	if ir.ReviewCommentBy != nil {
		s := ir.ReviewCommentBy.String()
		resp.ReviewCommentBy = &s
	}
	return resp
}

// ListResponsesResponse is the HTTP response for GET /audits/{id}/responses.
type ListResponsesResponse struct {
	Responses []*ResponseView `json:"responses"`
}

// FromResponseList converts a list of indicator responses.
func FromResponseList(responses []*models.IndicatorResponse) *ListResponsesResponse {
	out := make([]*ResponseView, 0, len(responses))
	for _, ir := range responses {
		out = append(out, FromResponse(ir))
	}
	return &ListResponsesResponse{Responses: out}
}
