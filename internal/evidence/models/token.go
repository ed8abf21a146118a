package models

import (
	"strings"
	"time"

	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
)

// PortalToken authorizes unauthenticated portal access to one evidence
// request. The plaintext secret leaves the system exactly once, inside the
// issued link; only its bcrypt hash is stored.
type PortalToken struct {
	TokenID    string               `json:"token_id"`
	RequestID  id.EvidenceRequestID `json:"request_id"`
	CompanyID  id.CompanyID         `json:"company_id"`
	SecretHash string               `json:"secret_hash"`
	ExpiresAt  time.Time            `json:"expires_at"`
}

// Expired reports whether the token is past its TTL.
func (t *PortalToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// FormatToken renders the wire form a portal link carries.
func FormatToken(tokenID, secret string) string {
	return tokenID + "." + secret
}

// SplitToken splits a wire token into its id and secret parts. Malformed
// tokens fail with not_found so the portal reveals nothing about which token
// ids exist.
func SplitToken(token string) (tokenID, secret string, err error) {
	tokenID, secret, ok := strings.Cut(token, ".")
	if !ok || tokenID == "" || secret == "" {
		return "", "", dErrors.New(dErrors.CodeNotFound, "evidence request not found")
	}
	return tokenID, secret, nil
}
