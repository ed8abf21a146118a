package handler

import (
	"time"

	"conforma/internal/findings/models"
)

// FindingResponse is the HTTP representation of a finding. The audit,
// indicator and response links are omitted when a finding is not tied to one.
type FindingResponse struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	AuditID     *string    `json:"audit_id,omitempty"`
	IndicatorID *string    `json:"indicator_id,omitempty"`
	ResponseID  *string    `json:"response_id,omitempty"`
	Severity    string     `json:"severity"`
	FindingText string     `json:"finding_text"`
	Status      string     `json:"status"`
	OwnerID     *string    `json:"owner_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ClosureNote string     `json:"closure_note,omitempty"`
	CreatedBy   string     `json:"created_by"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FromFinding converts a domain finding to its HTTP representation.
func FromFinding(f *models.Finding) *FindingResponse {
	resp := &FindingResponse{
		ID:          f.ID.String(),
		CompanyID:   f.CompanyID.String(),
		Severity:    string(f.Severity),
		FindingText: f.FindingText,
		Status:      string(f.Status),
		DueDate:     f.DueDate,
		ClosureNote: f.ClosureNote,
		CreatedBy:   f.CreatedBy.String(),
		ClosedAt:    f.ClosedAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if !f.AuditID.IsNil() {
		s := f.AuditID.String()
		resp.AuditID = &s
	}
	if !f.IndicatorID.IsNil() {
		s := f.IndicatorID.String()
		resp.IndicatorID = &s
	}
	if !f.ResponseID.IsNil() {
		s := f.ResponseID.String()
		resp.ResponseID = &s
	}
	if f.OwnerID != nil {
		s := f.OwnerID.String()
		resp.OwnerID = &s
	}
	return resp
}

// ListFindingsResponse is the HTTP response for GET /findings.
type ListFindingsResponse struct {
	Findings []*FindingResponse `json:"findings"`
}

// FromFindingList converts a list of findings.
func FromFindingList(findings []*models.Finding) *ListFindingsResponse {
	out := make([]*FindingResponse, 0, len(findings))
	for _, f := range findings {
		out = append(out, FromFinding(f))
	}
	return &ListFindingsResponse{Findings: out}
}

// ActivityResponse is one entry of a finding's activity log.
type ActivityResponse struct {
	ID        string    `json:"id"`
	FindingID string    `json:"finding_id"`
	Type      string    `json:"type"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FromActivity converts an activity log entry. The actor is omitted for
// entries recorded from the anonymous portal path.
func FromActivity(a *models.FindingActivity) *ActivityResponse {
	resp := &ActivityResponse{
		ID:        a.ID.String(),
		FindingID: a.FindingID.String(),
		Type:      string(a.Type),
		Detail:    a.Detail,
		CreatedAt: a.CreatedAt,
	}
	if !a.ActorID.IsNil() {
		s := a.ActorID.String()
		resp.ActorID = &s
	}
	return resp
}

// ListActivitiesResponse is the HTTP response for GET /findings/{id}/activities.
type ListActivitiesResponse struct {
	Activities []*ActivityResponse `json:"activities"`
}

// FromActivityList converts an activity log.
func FromActivityList(entries []*models.FindingActivity) *ListActivitiesResponse {
	out := make([]*ActivityResponse, 0, len(entries))
	for _, a := range entries {
		out = append(out, FromActivity(a))
	}
	return &ListActivitiesResponse{Activities: out}
}
