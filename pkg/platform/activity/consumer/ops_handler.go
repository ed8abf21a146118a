package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conforma/internal/platform/kafka/consumer"
	id "conforma/pkg/domain"
)

// OpsHandler processes operational activity events from Kafka.
// Events are written to the activity_ops table with short retention.
type OpsHandler struct {
	store  OpsStore
	logger *slog.Logger
}

// OpsStore defines the storage interface for ops events.
type OpsStore interface {
	AppendOps(ctx context.Context, eventID uuid.UUID, event OpsRecord) error
}

// OpsRecord represents an operational activity event for storage.
type OpsRecord struct {
	Timestamp time.Time
	CompanyID id.CompanyID
	Subject   string
	Action    string
	Detail    string
	RequestID string
}

// NewOpsHandler creates an ops event handler.
func NewOpsHandler(store OpsStore, logger *slog.Logger) *OpsHandler {
	return &OpsHandler{
		store:  store,
		logger: logger,
	}
}

// opsPayload matches the JSON structure for ops events.
type opsPayload struct {
	Timestamp string `json:"Timestamp"`
	CompanyID string `json:"CompanyID"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	Detail    string `json:"Detail"`
	RequestID string `json:"RequestID"`
}

// Handle processes an operational activity event.
func (h *OpsHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		// Ops events are best-effort - log and continue
		h.logger.Debug("failed to parse ops event ID",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	var payload opsPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Debug("failed to unmarshal ops payload",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	record := OpsRecord{
		Subject:   payload.Subject,
		Action:    payload.Action,
		Detail:    payload.Detail,
		RequestID: payload.RequestID,
	}

	// Parse timestamp
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			record.Timestamp = ts
		} else {
			record.Timestamp = time.Now()
		}
	} else {
		record.Timestamp = time.Now()
	}

	if cid, err := uuid.Parse(payload.CompanyID); err == nil {
		record.CompanyID = id.CompanyID(cid)
	}

	// Store ops event - errors are logged but don't prevent commit
	if err := h.store.AppendOps(ctx, eventID, record); err != nil {
		h.logger.Debug("failed to store ops event",
			"event_id", eventID,
			"action", record.Action,
			"error", err,
		)
		// Return nil to commit - ops events are best-effort
		return nil
	}

	return nil
}
