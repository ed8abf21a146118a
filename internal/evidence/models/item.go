package models

import (
	"net/mail"
	"strings"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/email"
)

// FileRef carries the reference to a submitted document. The engine stores
// the reference only; the bytes live with the storage collaborator.
type FileRef struct {
	FileName  string
	FilePath  string
	MimeType  string
	SizeBytes int64
	LinkURL   string
}

// validate requires either a file reference or a link.
func (f FileRef) validate() error {
	hasFile := strings.TrimSpace(f.FileName) != "" && strings.TrimSpace(f.FilePath) != ""
	hasLink := strings.TrimSpace(f.LinkURL) != ""
	if !hasFile && !hasLink {
		return dErrors.New(dErrors.CodeValidation, "evidence needs a file reference or a link")
	}
	return nil
}

// EvidenceItem is one submitted document against an evidence request.
//
// Invariants:
//   - Immutable once created; resubmission appends a new item
//   - Carries either a file reference (name + path) or a link URL
//   - Exactly one uploader identity: an internal user id, or the external
//     name/email pair collected by the portal
type EvidenceItem struct {
	ID             id.EvidenceItemID    `json:"id"`
	RequestID      id.EvidenceRequestID `json:"request_id"`
	UploaderUserID *id.UserID           `json:"uploader_user_id,omitempty"`
	UploaderName   string               `json:"uploader_name,omitempty"`
	UploaderEmail  string               `json:"uploader_email,omitempty"`
	FileName       string               `json:"file_name,omitempty"`
	FilePath       string               `json:"file_path,omitempty"`
	MimeType       string               `json:"mime_type,omitempty"`
	SizeBytes      int64                `json:"size_bytes,omitempty"`
	LinkURL        string               `json:"link_url,omitempty"`
	ClientBrowser  string               `json:"client_browser,omitempty"`
	ClientOS       string               `json:"client_os,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// NewInternalItem constructs an item uploaded by an authenticated user.
func NewInternalItem(itemID id.EvidenceItemID, requestID id.EvidenceRequestID, uploadedBy id.UserID,
	file FileRef, now time.Time) (*EvidenceItem, error) {
	if uploadedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "evidence item needs an uploader")
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	uploader := uploadedBy
	return newItem(itemID, requestID, file, now, func(item *EvidenceItem) {
		item.UploaderUserID = &uploader
	}), nil
}

// NewPortalItem constructs an item uploaded through the public portal. The
// email is required; a blank display name is derived from it so every item
// renders with an uploader.
func NewPortalItem(itemID id.EvidenceItemID, requestID id.EvidenceRequestID,
	uploaderName, uploaderEmail string, file FileRef, clientBrowser, clientOS string,
	now time.Time) (*EvidenceItem, error) {
	uploaderEmail = strings.TrimSpace(uploaderEmail)
	if uploaderEmail == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "uploader email is required")
	}
	if _, err := mail.ParseAddress(uploaderEmail); err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "uploader email is not a valid address")
	}
	uploaderName = strings.TrimSpace(uploaderName)
	if uploaderName == "" {
		first, last := email.DeriveNameFromEmail(uploaderEmail)
		uploaderName = first + " " + last
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return newItem(itemID, requestID, file, now, func(item *EvidenceItem) {
		item.UploaderName = uploaderName
		item.UploaderEmail = uploaderEmail
		item.ClientBrowser = clientBrowser
		item.ClientOS = clientOS
	}), nil
}

func newItem(itemID id.EvidenceItemID, requestID id.EvidenceRequestID, file FileRef, now time.Time,
	uploader func(*EvidenceItem)) *EvidenceItem {
	item := &EvidenceItem{
		ID:        itemID,
		RequestID: requestID,
		FileName:  strings.TrimSpace(file.FileName),
		FilePath:  strings.TrimSpace(file.FilePath),
		MimeType:  strings.TrimSpace(file.MimeType),
		SizeBytes: file.SizeBytes,
		LinkURL:   strings.TrimSpace(file.LinkURL),
		CreatedAt: now,
	}
	uploader(item)
	return item
}

// Describe renders a short line for activity logs: the file name or link.
func (i *EvidenceItem) Describe() string {
	if i.FileName != "" {
		return i.FileName
	}
	return i.LinkURL
}
