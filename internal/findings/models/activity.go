package models

import (
	"time"

	id "conforma/pkg/domain"
)

// ActivityType names what happened to a finding. The activity log is the
// system of record for the finding's history; the enum below is its complete
// vocabulary.
type ActivityType string

const (
	ActivityCreated           ActivityType = "CREATED"
	ActivityStatusChanged     ActivityType = "STATUS_CHANGED"
	ActivityOwnerAssigned     ActivityType = "OWNER_ASSIGNED"
	ActivityDueDateSet        ActivityType = "DUE_DATE_SET"
	ActivityCommentAdded      ActivityType = "COMMENT_ADDED"
	ActivityEvidenceRequested ActivityType = "EVIDENCE_REQUESTED"
	ActivityEvidenceSubmitted ActivityType = "EVIDENCE_SUBMITTED"
	ActivityEvidenceReviewed  ActivityType = "EVIDENCE_REVIEWED"
	ActivityClosureInitiated  ActivityType = "CLOSURE_INITIATED"
	ActivityClosed            ActivityType = "CLOSED"
	ActivityReopened          ActivityType = "REOPENED"
)

// FindingActivity is one append-only entry in a finding's history. Entries
// are never updated or deleted.
type FindingActivity struct {
	ID        id.ActivityID `json:"id"`
	FindingID id.FindingID  `json:"finding_id"`
	Type      ActivityType  `json:"type"`
	ActorID   id.UserID     `json:"actor_id"`
	Detail    string        `json:"detail,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewActivity constructs a log entry for the given finding.
func NewActivity(findingID id.FindingID, activityType ActivityType, actorID id.UserID, detail string, now time.Time) *FindingActivity {
	return &FindingActivity{
		ID:        id.NewActivityID(),
		FindingID: findingID,
		Type:      activityType,
		ActorID:   actorID,
		Detail:    detail,
		CreatedAt: now,
	}
}

// ActivityForTransition maps a status edit onto its most specific activity
// type. Generic edits fall back to STATUS_CHANGED.
func ActivityForTransition(from, to Status) ActivityType {
	switch {
	case to == StatusClosed:
		return ActivityClosed
	case to == StatusUnderReview:
		return ActivityClosureInitiated
	case from == StatusClosed:
		return ActivityReopened
	default:
		return ActivityStatusChanged
	}
}
