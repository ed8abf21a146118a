package activity

import (
	"context"
	"time"

	id "conforma/pkg/domain"
)

// EventCategory classifies activity events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: audit
	// lifecycle decisions, finding registrations and closures, evidence
	// verdicts, suggestion resolutions. These require tamper-proof storage
	// and long retention (e.g., 7 years).
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring and
	// forensics: portal token issuance and rejection, external uploads.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine recording activity useful for
	// debugging and operational visibility. These can be sampled or
	// aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	CompanyID id.CompanyID
	// ActorID is the internal user who performed the action. Nil for
	// anonymous portal actions; the uploader identity then lives in Detail.
	ActorID   id.UserID
	Subject   string // entity identifier, e.g. "audit:<uuid>"
	Action    string
	Detail    string // free-form detail: reason text, rating, note
	Decision  string // outcome where the action carries one (e.g. "accepted")
	Reason    string
	IP        string // client IP for security events
	RequestID string // correlation ID from HTTP request context
	Severity  string // security events only
}

// Store persists activity events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCompany(ctx context.Context, companyID id.CompanyID) ([]Event, error)
}

// Action names every domain event the engine records.
type Action string

const (
	// Audit lifecycle events
	ActionAuditCreated            Action = "audit_created"
	ActionAuditScopeSet           Action = "audit_scope_set"
	ActionAuditStarted            Action = "audit_started"
	ActionAuditSubmittedForReview Action = "audit_submitted_for_review"
	ActionAuditChangesRequested   Action = "audit_changes_requested"
	ActionAuditApproved           Action = "audit_approved"
	ActionAuditClosed             Action = "audit_closed"
	ActionAuditReopened           Action = "audit_reopened"

	// Assessment events
	ActionResponseRecorded   Action = "response_recorded"
	ActionResponseUpdated    Action = "response_updated"
	ActionReviewCommentAdded Action = "review_comment_added"

	// Finding events
	ActionFindingRegistered    Action = "finding_registered"
	ActionFindingStatusChanged Action = "finding_status_changed"
	ActionFindingOwnerAssigned Action = "finding_owner_assigned"
	ActionFindingDueDateSet    Action = "finding_due_date_set"
	ActionFindingCommentAdded  Action = "finding_comment_added"
	ActionFindingClosed        Action = "finding_closed"
	ActionFindingReopened      Action = "finding_reopened"

	// Evidence events
	ActionEvidenceRequested    Action = "evidence_requested"
	ActionEvidenceSubmitted    Action = "evidence_submitted"
	ActionEvidenceReviewOpened Action = "evidence_review_opened"
	ActionEvidenceAccepted     Action = "evidence_accepted"
	ActionEvidenceRejected     Action = "evidence_rejected"

	// Portal events
	ActionPortalTokenIssued    Action = "portal_token_issued"
	ActionPortalTokenRejected  Action = "portal_token_rejected"
	ActionPortalUploadReceived Action = "portal_upload_received"

	// Document review events
	ActionDocumentReviewSubmitted Action = "document_review_submitted"
	ActionSuggestionConfirmed     Action = "suggestion_confirmed"
	ActionSuggestionDismissed     Action = "suggestion_dismissed"
)

// actionCategories maps each action to its category.
// Compliance: regulatory significance, long retention required.
// Security: portal/forensic relevance, SIEM integration.
// Operations: routine recording activity, can be sampled.
var actionCategories = map[Action]EventCategory{
	// Compliance events - require tamper-proof storage
	ActionAuditStarted:            CategoryCompliance,
	ActionAuditSubmittedForReview: CategoryCompliance,
	ActionAuditChangesRequested:   CategoryCompliance,
	ActionAuditApproved:           CategoryCompliance,
	ActionAuditClosed:             CategoryCompliance,
	ActionAuditReopened:           CategoryCompliance,
	ActionFindingRegistered:       CategoryCompliance,
	ActionFindingClosed:           CategoryCompliance,
	ActionFindingReopened:         CategoryCompliance,
	ActionEvidenceAccepted:        CategoryCompliance,
	ActionEvidenceRejected:        CategoryCompliance,
	ActionDocumentReviewSubmitted: CategoryCompliance,
	ActionSuggestionConfirmed:     CategoryCompliance,
	ActionSuggestionDismissed:     CategoryCompliance,

	// Security events - portal surface, feed into SIEM
	ActionPortalTokenIssued:    CategorySecurity,
	ActionPortalTokenRejected:  CategorySecurity,
	ActionPortalUploadReceived: CategorySecurity,

	// Operations events - routine activity, can be sampled
	ActionAuditCreated:         CategoryOperations,
	ActionAuditScopeSet:        CategoryOperations,
	ActionResponseRecorded:     CategoryOperations,
	ActionResponseUpdated:      CategoryOperations,
	ActionReviewCommentAdded:   CategoryOperations,
	ActionFindingStatusChanged: CategoryOperations,
	ActionFindingOwnerAssigned: CategoryOperations,
	ActionFindingDueDateSet:    CategoryOperations,
	ActionFindingCommentAdded:  CategoryOperations,
	ActionEvidenceRequested:    CategoryOperations,
	ActionEvidenceSubmitted:    CategoryOperations,
	ActionEvidenceReviewOpened: CategoryOperations,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// -----------------------------------------------------------------------------
// Right-sized event types for the tri-publisher architecture
// -----------------------------------------------------------------------------

// ComplianceEvent captures regulatory-significant actions requiring guaranteed
// persistence. Use with the compliance publisher for fail-closed semantics.
type ComplianceEvent struct {
	Timestamp time.Time    // When the event occurred (set automatically if zero)
	CompanyID id.CompanyID // The tenant affected (required)
	ActorID   id.UserID    // Who performed the action
	Subject   string       // Entity identifier, e.g. "audit:<uuid>"
	Action    string       // The action taken (e.g., "audit_approved")
	Decision  string       // Outcome of the action (e.g., "accepted", "rejected")
	Reason    string       // Stated reason where the action carries one
	RequestID string       // Correlation ID for request tracing
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the generic Event type for store compatibility.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:  CategoryCompliance,
		Timestamp: e.Timestamp,
		CompanyID: e.CompanyID,
		ActorID:   e.ActorID,
		Subject:   e.Subject,
		Action:    e.Action,
		Decision:  e.Decision,
		Reason:    e.Reason,
		RequestID: e.RequestID,
	}
}

// SecurityEvent captures portal and forensic actions for SIEM and alerting.
// Events are processed asynchronously with buffering; the oldest are dropped
// under pressure. Use with the security publisher for non-blocking emission.
type SecurityEvent struct {
	Timestamp time.Time    // When the event occurred (set automatically if zero)
	CompanyID id.CompanyID // The tenant involved
	ActorID   id.UserID    // Internal actor, nil for anonymous portal calls
	Subject   string       // Entity involved (request id, token id, IP)
	Action    string       // Security action (e.g., "portal_token_rejected")
	Reason    string       // Why this happened (e.g., "token_expired")
	IP        string       // Client IP address (critical for forensics)
	RequestID string       // Correlation ID
	Severity  Severity     // "info", "warning", "critical" for SIEM routing
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Category returns CategorySecurity (always).
func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

// ToEvent converts to the generic Event type for store compatibility.
func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:  CategorySecurity,
		Timestamp: e.Timestamp,
		CompanyID: e.CompanyID,
		ActorID:   e.ActorID,
		Subject:   e.Subject,
		Action:    e.Action,
		Reason:    e.Reason,
		IP:        e.IP,
		RequestID: e.RequestID,
		Severity:  string(e.Severity),
	}
}

// OpsEvent captures routine recording activity with minimal overhead.
// Events are fire-and-forget with optional sampling. Use with the ops tracker.
type OpsEvent struct {
	Timestamp time.Time    // When the event occurred (set automatically if zero)
	CompanyID id.CompanyID // The tenant involved
	ActorID   id.UserID    // Who performed the action
	Subject   string       // Entity involved
	Action    string       // Operational action (e.g., "response_recorded")
	Detail    string       // Short detail: rating, field name
	RequestID string       // Correlation ID
}

// Category returns CategoryOperations (always).
func (e OpsEvent) Category() EventCategory { return CategoryOperations }

// ToEvent converts to the generic Event type for store compatibility.
func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		CompanyID: e.CompanyID,
		ActorID:   e.ActorID,
		Subject:   e.Subject,
		Action:    e.Action,
		Detail:    e.Detail,
		RequestID: e.RequestID,
	}
}
