package models

import dErrors "conforma/pkg/domain-errors"

// Status is the lifecycle state of an audit.
//
// DRAFT → IN_PROGRESS → IN_REVIEW → CLOSED is the regular path. Any non-CLOSED
// status may close directly; a reopened audit lands back in IN_REVIEW rather
// than a distinct state.
type Status string

const (
	// StatusDraft is the initial state: scope is still editable.
	StatusDraft Status = "DRAFT"

	// StatusInProgress means fieldwork is running. Entering it locks the
	// scope irreversibly.
	StatusInProgress Status = "IN_PROGRESS"

	// StatusInReview means the audit awaits the lead auditor's verdict.
	StatusInReview Status = "IN_REVIEW"

	// StatusClosed is terminal except for an explicit reopen.
	StatusClosed Status = "CLOSED"
)

// validTransitions encodes the state machine edges. Closing is modeled
// explicitly from every non-CLOSED state (the direct close path).
var validTransitions = map[Status][]Status{
	StatusDraft:      {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusInReview, StatusClosed},
	StatusInReview:   {StatusInProgress, StatusClosed},
	StatusClosed:     {StatusInReview},
}

// CanTransitionTo reports whether the edge from s to target exists.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsValid checks the status against the enum.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// IsTerminal reports whether the audit is closed.
func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus constructs a Status from external input (query filters).
//
// Errors: returns CodeInvalidInput for unknown literals.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid audit status")
	}
	return s, nil
}
