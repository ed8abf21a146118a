package handler

import (
	"strings"
	"time"

	"conforma/internal/evidence/models"
	"conforma/internal/evidence/service"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// CreateEvidenceRequest is the HTTP request body for POST /evidence-requests.
// The audit, finding and indicator links are optional; a request may also be
// fully standalone.
type CreateEvidenceRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	AuditID          string     `json:"audit_id"`
	FindingID        string     `json:"finding_id"`
	IndicatorID      string     `json:"indicator_id"`
	DueDate          *time.Time `json:"due_date"`
	IssuePortalToken bool       `json:"issue_portal_token"`

	parsed service.CreateRequestInput
}

// Normalize trims the free-text fields.
func (r *CreateEvidenceRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.AuditID = strings.TrimSpace(r.AuditID)
	r.FindingID = strings.TrimSpace(r.FindingID)
	r.IndicatorID = strings.TrimSpace(r.IndicatorID)
}

// Validate parses the optional links. Title presence is checked by the
// request constructor so its message reaches the caller unchanged.
func (r *CreateEvidenceRequest) Validate() error {
	r.parsed = service.CreateRequestInput{
		Title:            r.Title,
		Description:      r.Description,
		DueDate:          r.DueDate,
		IssuePortalToken: r.IssuePortalToken,
	}
	if r.AuditID != "" {
		auditID, err := id.ParseAuditID(r.AuditID)
		if err != nil {
			return err
		}
		r.parsed.AuditID = auditID
	}
	if r.FindingID != "" {
		findingID, err := id.ParseFindingID(r.FindingID)
		if err != nil {
			return err
		}
		r.parsed.FindingID = findingID
	}
	if r.IndicatorID != "" {
		indicatorID, err := id.ParseIndicatorID(r.IndicatorID)
		if err != nil {
			return err
		}
		r.parsed.IndicatorID = indicatorID
	}
	return nil
}

// ParsedInput returns the validated service input.
func (r *CreateEvidenceRequest) ParsedInput() service.CreateRequestInput {
	return r.parsed
}

// SubmitItemRequest is the HTTP request body for the internal upload path,
// POST /evidence-requests/{id}/items. It carries the storage reference only;
// the file bytes never pass through this API.
type SubmitItemRequest struct {
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	LinkURL   string `json:"link_url"`
}

// Normalize trims the reference fields.
func (r *SubmitItemRequest) Normalize() {
	r.FileName = strings.TrimSpace(r.FileName)
	r.FilePath = strings.TrimSpace(r.FilePath)
	r.MimeType = strings.TrimSpace(r.MimeType)
	r.LinkURL = strings.TrimSpace(r.LinkURL)
}

// Validate rejects negative sizes; the file-or-link requirement is enforced
// by the item constructor.
func (r *SubmitItemRequest) Validate() error {
	if r.SizeBytes < 0 {
		return dErrors.New(dErrors.CodeValidation, "size_bytes cannot be negative")
	}
	return nil
}

// FileRef returns the submitted storage reference.
func (r *SubmitItemRequest) FileRef() models.FileRef {
	return models.FileRef{
		FileName:  r.FileName,
		FilePath:  r.FilePath,
		MimeType:  r.MimeType,
		SizeBytes: r.SizeBytes,
		LinkURL:   r.LinkURL,
	}
}

// ReviewRequest is the optional HTTP request body for the accept and reject
// endpoints. The note is advisory on acceptance and tells the supplier what
// to fix on rejection.
type ReviewRequest struct {
	Note string `json:"note"`
}

// Normalize trims the note.
func (r *ReviewRequest) Normalize() {
	r.Note = strings.TrimSpace(r.Note)
}

// PortalSubmitRequest is the HTTP request body for the public portal upload,
// POST /portal/evidence/{token}/items. The email identifies the external
// uploader; its validity is checked by the item constructor.
type PortalSubmitRequest struct {
	UploaderName  string `json:"uploader_name"`
	UploaderEmail string `json:"uploader_email"`
	FileName      string `json:"file_name"`
	FilePath      string `json:"file_path"`
	MimeType      string `json:"mime_type"`
	SizeBytes     int64  `json:"size_bytes"`
	LinkURL       string `json:"link_url"`
}

// Normalize trims all fields.
func (r *PortalSubmitRequest) Normalize() {
	r.UploaderName = strings.TrimSpace(r.UploaderName)
	r.UploaderEmail = strings.TrimSpace(r.UploaderEmail)
	r.FileName = strings.TrimSpace(r.FileName)
	r.FilePath = strings.TrimSpace(r.FilePath)
	r.MimeType = strings.TrimSpace(r.MimeType)
	r.LinkURL = strings.TrimSpace(r.LinkURL)
}

// Validate rejects negative sizes.
func (r *PortalSubmitRequest) Validate() error {
	if r.SizeBytes < 0 {
		return dErrors.New(dErrors.CodeValidation, "size_bytes cannot be negative")
	}
	return nil
}

// Submission returns the parsed portal submission.
func (r *PortalSubmitRequest) Submission() service.PortalSubmission {
	return service.PortalSubmission{
		UploaderName:  r.UploaderName,
		UploaderEmail: r.UploaderEmail,
		File: models.FileRef{
			FileName:  r.FileName,
			FilePath:  r.FilePath,
			MimeType:  r.MimeType,
			SizeBytes: r.SizeBytes,
			LinkURL:   r.LinkURL,
		},
	}
}
