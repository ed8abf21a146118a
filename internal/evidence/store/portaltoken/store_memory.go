package portaltoken

import (
	"context"
	"fmt"
	"sync"

	"conforma/internal/evidence/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores portal tokens in memory for tests and single-instance
// deployments without Redis. Expiry is enforced by the service against the
// token's ExpiresAt, so the store keeps records until they are replaced.
type InMemory struct {
	mu        sync.RWMutex
	tokens    map[string]*models.PortalToken
	byRequest map[id.EvidenceRequestID]string
}

// NewInMemory constructs an empty in-memory portal token store.
func NewInMemory() *InMemory {
	return &InMemory{
		tokens:    make(map[string]*models.PortalToken),
		byRequest: make(map[id.EvidenceRequestID]string),
	}
}

// Save stores the token, replacing any earlier token for the same request.
func (s *InMemory) Save(_ context.Context, token *models.PortalToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, ok := s.byRequest[token.RequestID]; ok {
		delete(s.tokens, previous)
	}
	t := *token
	s.tokens[token.TokenID] = &t
	s.byRequest[token.RequestID] = token.TokenID
	return nil
}

// Find returns a copy of the token.
func (s *InMemory) Find(_ context.Context, tokenID string) (*models.PortalToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[tokenID]
	if !ok {
		return nil, fmt.Errorf("portal token not found: %w", sentinel.ErrNotFound)
	}
	t := *token
	return &t, nil
}
