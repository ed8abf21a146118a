package portaltoken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"conforma/internal/evidence/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

const (
	// Redis key prefixes for token records and the per-request pointer that
	// makes re-issue replace the previous token.
	tokenKeyPrefix   = "portal:token:"
	requestKeyPrefix = "portal:request:"
)

// tokenRecord is the serialized form of a portal token. IDs travel as
// strings, matching how every store renders them.
type tokenRecord struct {
	TokenID    string    `json:"token_id"`
	RequestID  string    `json:"request_id"`
	CompanyID  string    `json:"company_id"`
	SecretHash string    `json:"secret_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Redis stores portal tokens in Redis with a TTL matching the token's
// expiry. The recommended store for multi-instance deployments: any instance
// can resolve a portal link.
type Redis struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed portal token store.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Save stores the token with its remaining TTL, replacing any earlier token
// for the same request.
func (s *Redis) Save(ctx context.Context, token *models.PortalToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("portal token is already expired")
	}
	payload, err := json.Marshal(tokenRecord{
		TokenID:    token.TokenID,
		RequestID:  token.RequestID.String(),
		CompanyID:  token.CompanyID.String(),
		SecretHash: token.SecretHash,
		ExpiresAt:  token.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal portal token: %w", err)
	}

	requestKey := requestKeyPrefix + token.RequestID.String()
	previous, err := s.client.Get(ctx, requestKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("load previous portal token id: %w", err)
	}

	pipe := s.client.TxPipeline()
	if previous != "" {
		pipe.Del(ctx, tokenKeyPrefix+previous)
	}
	pipe.Set(ctx, tokenKeyPrefix+token.TokenID, payload, ttl)
	pipe.Set(ctx, requestKey, token.TokenID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save portal token: %w", err)
	}
	return nil
}

// Find returns the token. Expired tokens vanish with their TTL.
func (s *Redis) Find(ctx context.Context, tokenID string) (*models.PortalToken, error) {
	payload, err := s.client.Get(ctx, tokenKeyPrefix+tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("portal token not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load portal token: %w", err)
	}

	var record tokenRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("unmarshal portal token: %w", err)
	}
	requestID, err := id.ParseEvidenceRequestID(record.RequestID)
	if err != nil {
		return nil, fmt.Errorf("unmarshal portal token request id: %w", err)
	}
	companyID, err := id.ParseCompanyID(record.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("unmarshal portal token company id: %w", err)
	}
	return &models.PortalToken{
		TokenID:    record.TokenID,
		RequestID:  requestID,
		CompanyID:  companyID,
		SecretHash: record.SecretHash,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}
