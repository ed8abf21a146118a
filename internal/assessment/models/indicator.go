package models

import (
	id "conforma/pkg/domain"
)

// TemplateIndicator is one requirement from the assessment catalogue. The
// catalogue is read-only at runtime; rows arrive through seed migrations and
// are grouped into domains that audit scope items reference by code.
type TemplateIndicator struct {
	ID         id.IndicatorID `json:"id"`
	DomainCode string         `json:"domain_code"`
	Code       string         `json:"code"`
	Text       string         `json:"text"`
	Guidance   string         `json:"guidance,omitempty"`
	SortOrder  int            `json:"sort_order"`
	Active     bool           `json:"active"`
}
