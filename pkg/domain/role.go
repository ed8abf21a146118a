package domain

import dErrors "conforma/pkg/domain-errors"

// Role is the actor role attached to every authenticated request.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

// Supported actor roles.
const (
	// RoleCompanyAdmin administers the company account and acts as lead
	// auditor on its audits.
	RoleCompanyAdmin Role = "COMPANY_ADMIN"

	// RoleAuditor performs audit work: scoping, responses, findings,
	// evidence requests, document reviews.
	RoleAuditor Role = "AUDITOR"

	// RoleReviewer performs the independent review stage on submitted
	// audits and may annotate responses.
	RoleReviewer Role = "REVIEWER"

	// RoleStaffReadOnly may read everything and change nothing.
	RoleStaffReadOnly Role = "STAFF_READ_ONLY"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleCompanyAdmin:  true,
	RoleAuditor:       true,
	RoleReviewer:      true,
	RoleStaffReadOnly: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// CanWrite reports whether the role may mutate audit records at all.
// Fine-grained checks remain with each operation; this is the coarse gate
// that keeps read-only staff out of every write path.
func (r Role) CanWrite() bool {
	return r == RoleCompanyAdmin || r == RoleAuditor || r == RoleReviewer
}
