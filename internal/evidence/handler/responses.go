package handler

import (
	"time"

	"conforma/internal/evidence/models"
)

// RequestView is the HTTP representation of an evidence request. The View
// suffix avoids the stutter the entity name would force on the usual
// XResponse convention.
type RequestView struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	AuditID     *string    `json:"audit_id,omitempty"`
	FindingID   *string    `json:"finding_id,omitempty"`
	IndicatorID *string    `json:"indicator_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	HasPortal   bool       `json:"has_portal_token"`
	RequestedBy string     `json:"requested_by"`
	ReviewNote  string     `json:"review_note,omitempty"`
	ReviewedBy  *string    `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// FromRequest converts an evidence request to its HTTP representation. The
// portal token id itself never leaves the engine; only its presence shows.
func FromRequest(r *models.EvidenceRequest) *RequestView {
	view := &RequestView{
		ID:          r.ID.String(),
		CompanyID:   r.CompanyID.String(),
		Title:       r.Title,
		Description: r.Description,
		Status:      string(r.Status),
		DueDate:     r.DueDate,
		HasPortal:   r.PortalTokenID != "",
		RequestedBy: r.RequestedBy.String(),
		ReviewNote:  r.ReviewNote,
		ReviewedAt:  r.ReviewedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if !r.AuditID.IsNil() {
		s := r.AuditID.String()
		view.AuditID = &s
	}
	if !r.FindingID.IsNil() {
		s := r.FindingID.String()
		view.FindingID = &s
	}
	if !r.IndicatorID.IsNil() {
		s := r.IndicatorID.String()
		view.IndicatorID = &s
	}
	if r.ReviewedBy != nil {
		s := r.ReviewedBy.String()
		view.ReviewedBy = &s
	}
	return view
}

// CreatedRequestView is the HTTP response for POST /evidence-requests and
// the portal-token endpoint. The wire token appears here exactly once; the
// engine keeps only its hash.
type CreatedRequestView struct {
	Request     *RequestView `json:"request"`
	PortalToken string       `json:"portal_token,omitempty"`
}

// ItemView is the HTTP representation of a submitted evidence item.
type ItemView struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	UploaderUserID *string   `json:"uploader_user_id,omitempty"`
	UploaderName   string    `json:"uploader_name,omitempty"`
	UploaderEmail  string    `json:"uploader_email,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
	FilePath       string    `json:"file_path,omitempty"`
	MimeType       string    `json:"mime_type,omitempty"`
	SizeBytes      int64     `json:"size_bytes,omitempty"`
	LinkURL        string    `json:"link_url,omitempty"`
	ClientBrowser  string    `json:"client_browser,omitempty"`
	ClientOS       string    `json:"client_os,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FromItem converts an evidence item to its HTTP representation.
func FromItem(i *models.EvidenceItem) *ItemView {
	view := &ItemView{
		ID:            i.ID.String(),
		RequestID:     i.RequestID.String(),
		UploaderName:  i.UploaderName,
		UploaderEmail: i.UploaderEmail,
		FileName:      i.FileName,
		FilePath:      i.FilePath,
		MimeType:      i.MimeType,
		SizeBytes:     i.SizeBytes,
		LinkURL:       i.LinkURL,
		ClientBrowser: i.ClientBrowser,
		ClientOS:      i.ClientOS,
		CreatedAt:     i.CreatedAt,
	}
	if i.UploaderUserID != nil {
		s := i.UploaderUserID.String()
		view.UploaderUserID = &s
	}
	return view
}

// FromItemList converts a list of items.
func FromItemList(items []*models.EvidenceItem) []*ItemView {
	out := make([]*ItemView, 0, len(items))
	for _, i := range items {
		out = append(out, FromItem(i))
	}
	return out
}

// RequestDetailView is the HTTP response for GET /evidence-requests/{id}:
// the request with every item submitted against it, newest last.
type RequestDetailView struct {
	Request *RequestView `json:"request"`
	Items   []*ItemView  `json:"items"`
}

// ListRequestsView is the HTTP response for GET /evidence-requests.
type ListRequestsView struct {
	Requests []*RequestView `json:"requests"`
}

// FromRequestList converts a list of evidence requests.
func FromRequestList(requests []*models.EvidenceRequest) *ListRequestsView {
	out := make([]*RequestView, 0, len(requests))
	for _, r := range requests {
		out = append(out, FromRequest(r))
	}
	return &ListRequestsView{Requests: out}
}

// PortalRequestView is what an external supplier sees when resolving a
// portal link. Internal identifiers and reviewer identities stay inside.
type PortalRequestView struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReviewNote  string     `json:"review_note,omitempty"`
	Items       []*PortalItemView `json:"items"`
}

// PortalItemView is the supplier-facing slice of a submitted item.
type PortalItemView struct {
	FileName     string    `json:"file_name,omitempty"`
	LinkURL      string    `json:"link_url,omitempty"`
	UploaderName string    `json:"uploader_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromPortalRequest converts a request and its items to the supplier view.
func FromPortalRequest(r *models.EvidenceRequest, items []*models.EvidenceItem) *PortalRequestView {
	view := &PortalRequestView{
		Title:       r.Title,
		Description: r.Description,
		Status:      string(r.Status),
		DueDate:     r.DueDate,
		ReviewNote:  r.ReviewNote,
		Items:       make([]*PortalItemView, 0, len(items)),
	}
	for _, i := range items {
		view.Items = append(view.Items, &PortalItemView{
			FileName:     i.FileName,
			LinkURL:      i.LinkURL,
			UploaderName: i.UploaderName,
			CreatedAt:    i.CreatedAt,
		})
	}
	return view
}
