package main

import (
	"context"

	"github.com/google/uuid"

	activityconsumer "conforma/pkg/platform/activity/consumer"
	activitypostgres "conforma/pkg/platform/activity/store/postgres"
	"conforma/pkg/platform/activity/worker"
)

// outboxSource adapts the Postgres activity store to the outbox relay
// worker. The store returns its own row type; the worker wants entries.
type outboxSource struct {
	store *activitypostgres.Store
}

func (s outboxSource) FetchUnpublished(ctx context.Context, limit int) ([]worker.Entry, error) {
	rows, err := s.store.FetchUnpublished(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]worker.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, worker.Entry{
			ID:        row.ID,
			Action:    row.Action,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}

func (s outboxSource) MarkPublished(ctx context.Context, entryID uuid.UUID) error {
	return s.store.MarkPublished(ctx, entryID)
}

// complianceSink, securitySink and opsSink bridge the consumer handlers to
// the per-category tables in the Postgres activity store.
type complianceSink struct {
	store *activitypostgres.Store
}

func (s complianceSink) AppendCompliance(ctx context.Context, eventID uuid.UUID, event activityconsumer.ComplianceRecord) error {
	return s.store.AppendCompliance(ctx, eventID, activitypostgres.ComplianceRecord{
		Timestamp: event.Timestamp,
		CompanyID: event.CompanyID,
		ActorID:   event.ActorID,
		Subject:   event.Subject,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
}

type securitySink struct {
	store *activitypostgres.Store
}

func (s securitySink) AppendSecurity(ctx context.Context, eventID uuid.UUID, event activityconsumer.SecurityRecord) error {
	return s.store.AppendSecurity(ctx, eventID, activitypostgres.SecurityRecord{
		Timestamp: event.Timestamp,
		CompanyID: event.CompanyID,
		Subject:   event.Subject,
		Action:    event.Action,
		Reason:    event.Reason,
		IP:        event.IP,
		RequestID: event.RequestID,
		Severity:  event.Severity,
	})
}

type opsSink struct {
	store *activitypostgres.Store
}

func (s opsSink) AppendOps(ctx context.Context, eventID uuid.UUID, event activityconsumer.OpsRecord) error {
	return s.store.AppendOps(ctx, eventID, activitypostgres.OpsRecord{
		Timestamp: event.Timestamp,
		CompanyID: event.CompanyID,
		Subject:   event.Subject,
		Action:    event.Action,
		Detail:    event.Detail,
		RequestID: event.RequestID,
	})
}
