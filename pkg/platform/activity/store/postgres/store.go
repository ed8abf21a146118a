package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "conforma/pkg/domain"
	"conforma/pkg/platform/activity"
	txcontext "conforma/pkg/platform/tx"
)

// Store implements activity.Store using the transactional outbox pattern.
// Every Append writes the event to the outbox table and materializes it into
// activity_events inside the same transaction as the domain write; the outbox
// worker publishes the row to Kafka afterwards, and the topic consumers fan
// events out into the per-category tables.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL activity store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// outboxPayload is the JSON structure published to Kafka.
// Field names match activity.Event for proper deserialization by the consumer.
type outboxPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	CompanyID string `json:"CompanyID,omitempty"`
	ActorID   string `json:"ActorID,omitempty"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Detail    string `json:"Detail,omitempty"`
	Decision  string `json:"Decision,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	IP        string `json:"IP,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
	Severity  string `json:"Severity,omitempty"`
}

// Append writes an activity event to the outbox for Kafka publishing and
// materializes it into activity_events. Both inserts join the caller's
// transaction when one is carried in ctx, so the trail commits or rolls back
// with the domain write.
func (s *Store) Append(ctx context.Context, event activity.Event) error {
	eventID := uuid.New()

	// Always derive category from action - actionCategories is the source of truth
	category := activity.Action(event.Action).Category()
	event.Category = category

	payload := outboxPayload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Subject:   event.Subject,
		Action:    event.Action,
		Detail:    event.Detail,
		Decision:  event.Decision,
		Reason:    event.Reason,
		IP:        event.IP,
		RequestID: event.RequestID,
		Severity:  event.Severity,
	}
	if !event.CompanyID.IsNil() {
		payload.CompanyID = event.CompanyID.String()
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal activity payload: %w", err)
	}

	aggregateType := "activity"
	aggregateID := eventID.String()
	if !event.CompanyID.IsNil() {
		aggregateType = "company"
		aggregateID = event.CompanyID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	); err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	return s.appendEvent(ctx, eventID, event)
}

// appendEvent materializes an event into the activity_events table for querying.
// Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) appendEvent(ctx context.Context, eventID uuid.UUID, event activity.Event) error {
	query := `
		INSERT INTO activity_events (
			id, category, timestamp, company_id, actor_id, subject, action,
			detail, decision, reason, ip, request_id, severity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	var companyID, actorID *uuid.UUID
	if !event.CompanyID.IsNil() {
		cid := uuid.UUID(event.CompanyID)
		companyID = &cid
	}
	if !event.ActorID.IsNil() {
		aid := uuid.UUID(event.ActorID)
		actorID = &aid
	}

	if _, err := s.execer(ctx).ExecContext(ctx, query,
		eventID,
		string(event.Category),
		event.Timestamp,
		companyID,
		actorID,
		event.Subject,
		event.Action,
		event.Detail,
		event.Decision,
		event.Reason,
		event.IP,
		event.RequestID,
		event.Severity,
	); err != nil {
		return fmt.Errorf("insert activity event: %w", err)
	}
	return nil
}

// ListByCompany returns events for a specific company, newest first.
func (s *Store) ListByCompany(ctx context.Context, companyID id.CompanyID) ([]activity.Event, error) {
	query := `
		SELECT category, timestamp, company_id, actor_id, subject, action,
			   detail, decision, reason, ip, request_id, severity
		FROM activity_events
		WHERE company_id = $1
		ORDER BY timestamp DESC
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(companyID))
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

// ListRecent returns the N most recent events for a company.
func (s *Store) ListRecent(ctx context.Context, companyID id.CompanyID, limit int) ([]activity.Event, error) {
	query := `
		SELECT category, timestamp, company_id, actor_id, subject, action,
			   detail, decision, reason, ip, request_id, severity
		FROM activity_events
		WHERE company_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(companyID), limit)
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *Store) scanEvents(rows *sql.Rows) ([]activity.Event, error) {
	var events []activity.Event

	for rows.Next() {
		var (
			category          string
			event             activity.Event
			companyIDNullable *uuid.UUID
			actorIDNullable   *uuid.UUID
		)

		err := rows.Scan(
			&category,
			&event.Timestamp,
			&companyIDNullable,
			&actorIDNullable,
			&event.Subject,
			&event.Action,
			&event.Detail,
			&event.Decision,
			&event.Reason,
			&event.IP,
			&event.RequestID,
			&event.Severity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}

		event.Category = activity.EventCategory(category)
		if companyIDNullable != nil {
			event.CompanyID = id.CompanyID(*companyIDNullable)
		}
		if actorIDNullable != nil {
			event.ActorID = id.UserID(*actorIDNullable)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity events: %w", err)
	}

	return events, nil
}

// -----------------------------------------------------------------------------
// Outbox relay queries
// -----------------------------------------------------------------------------

// OutboxEntry is one unpublished outbox row. The row ID doubles as the event
// ID and becomes the Kafka message key.
type OutboxEntry struct {
	ID        uuid.UUID
	Action    string
	Payload   []byte
	CreatedAt time.Time
}

// FetchUnpublished returns up to limit outbox rows not yet shipped to Kafka,
// oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}

	return entries, nil
}

// MarkPublished stamps an outbox row as shipped. Rows are never deleted; a
// retention job can prune published rows out of band.
func (s *Store) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	query := `UPDATE outbox SET published_at = $2 WHERE id = $1 AND published_at IS NULL`
	if _, err := s.db.ExecContext(ctx, query, entryID, time.Now()); err != nil {
		return fmt.Errorf("mark outbox entry published: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Category-specific storage methods for partitioned tables
// -----------------------------------------------------------------------------

// ComplianceRecord represents a compliance event for the activity_compliance table.
type ComplianceRecord struct {
	Timestamp time.Time
	CompanyID id.CompanyID
	ActorID   id.UserID
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
}

// AppendCompliance inserts a compliance event into the activity_compliance table.
// Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) AppendCompliance(ctx context.Context, eventID uuid.UUID, record ComplianceRecord) error {
	query := `
		INSERT INTO activity_compliance (
			id, timestamp, company_id, actor_id, subject, action,
			decision, reason, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	var actorID *uuid.UUID
	if !record.ActorID.IsNil() {
		aid := uuid.UUID(record.ActorID)
		actorID = &aid
	}

	if _, err := s.db.ExecContext(ctx, query,
		eventID,
		record.Timestamp,
		uuid.UUID(record.CompanyID),
		actorID,
		record.Subject,
		record.Action,
		record.Decision,
		record.Reason,
		record.RequestID,
	); err != nil {
		return fmt.Errorf("insert compliance event: %w", err)
	}
	return nil
}

// SecurityRecord represents a security event for the activity_security table.
type SecurityRecord struct {
	Timestamp time.Time
	CompanyID id.CompanyID
	Subject   string
	Action    string
	Reason    string
	IP        string
	RequestID string
	Severity  string
}

// AppendSecurity inserts a security event into the activity_security table.
// Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) AppendSecurity(ctx context.Context, eventID uuid.UUID, record SecurityRecord) error {
	query := `
		INSERT INTO activity_security (
			id, timestamp, company_id, subject, action, reason,
			ip, request_id, severity
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	var companyID *uuid.UUID
	if !record.CompanyID.IsNil() {
		cid := uuid.UUID(record.CompanyID)
		companyID = &cid
	}

	if _, err := s.db.ExecContext(ctx, query,
		eventID,
		record.Timestamp,
		companyID,
		record.Subject,
		record.Action,
		record.Reason,
		record.IP,
		record.RequestID,
		record.Severity,
	); err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}
	return nil
}

// OpsRecord represents an operational event for the activity_ops table.
type OpsRecord struct {
	Timestamp time.Time
	CompanyID id.CompanyID
	Subject   string
	Action    string
	Detail    string
	RequestID string
}

// AppendOps inserts an ops event into the activity_ops table.
// Idempotent via ON CONFLICT DO NOTHING.
func (s *Store) AppendOps(ctx context.Context, eventID uuid.UUID, record OpsRecord) error {
	query := `
		INSERT INTO activity_ops (
			id, timestamp, company_id, subject, action, detail, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id, timestamp) DO NOTHING
	`

	var companyID *uuid.UUID
	if !record.CompanyID.IsNil() {
		cid := uuid.UUID(record.CompanyID)
		companyID = &cid
	}

	if _, err := s.db.ExecContext(ctx, query,
		eventID,
		record.Timestamp,
		companyID,
		record.Subject,
		record.Action,
		record.Detail,
		record.RequestID,
	); err != nil {
		return fmt.Errorf("insert ops event: %w", err)
	}
	return nil
}
