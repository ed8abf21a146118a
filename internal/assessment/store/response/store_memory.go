package response

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/assessment/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores indicator responses in memory for tests and development.
// The (audit, indicator) pair is enforced with a keyed map, mirroring the
// unique constraint the Postgres store relies on.
//
// Error contract: sentinel.ErrNotFound / sentinel.ErrConflict (wrapped) for
// infrastructure facts; validation errors from Execute callbacks pass through
// untouched.
type InMemory struct {
	mu        sync.RWMutex
	responses map[id.ResponseID]*models.IndicatorResponse
	pairs     map[pairKey]id.ResponseID
}

type pairKey struct {
	auditID     id.AuditID
	indicatorID id.IndicatorID
}

// NewInMemory constructs an empty in-memory response store.
func NewInMemory() *InMemory {
	return &InMemory{
		responses: make(map[id.ResponseID]*models.IndicatorResponse),
		pairs:     make(map[pairKey]id.ResponseID),
	}
}

func cloneResponse(r *models.IndicatorResponse) *models.IndicatorResponse {
	c := *r
	if r.ReviewCommentBy != nil {
		reviewer := *r.ReviewCommentBy
		c.ReviewCommentBy = &reviewer
	}
	return &c
}

// Create persists a new response. The id and the (audit, indicator) pair must
// both be unused.
func (s *InMemory) Create(_ context.Context, r *models.IndicatorResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.responses[r.ID]; exists {
		return fmt.Errorf("response %s already exists: %w", r.ID, sentinel.ErrConflict)
	}
	key := pairKey{auditID: r.AuditID, indicatorID: r.IndicatorID}
	if _, exists := s.pairs[key]; exists {
		return fmt.Errorf("response for indicator %s already exists: %w", r.IndicatorID, sentinel.ErrConflict)
	}
	s.responses[r.ID] = cloneResponse(r)
	s.pairs[key] = r.ID
	return nil
}

// FindByID returns a copy of the response.
func (s *InMemory) FindByID(_ context.Context, responseID id.ResponseID) (*models.IndicatorResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[responseID]
	if !ok {
		return nil, fmt.Errorf("response not found: %w", sentinel.ErrNotFound)
	}
	return cloneResponse(r), nil
}

// ListByAudit returns the audit's responses in recording order.
func (s *InMemory) ListByAudit(_ context.Context, auditID id.AuditID) ([]*models.IndicatorResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var responses []*models.IndicatorResponse
	for _, r := range s.responses {
		if r.AuditID != auditID {
			continue
		}
		responses = append(responses, cloneResponse(r))
	}
	sort.Slice(responses, func(i, j int) bool {
		if !responses[i].CreatedAt.Equal(responses[j].CreatedAt) {
			return responses[i].CreatedAt.Before(responses[j].CreatedAt)
		}
		return responses[i].ID.String() < responses[j].ID.String()
	})
	return responses, nil
}

// Execute runs validate-then-mutate while holding the entry lock. The
// (possibly unchanged) response is returned even when validation fails.
func (s *InMemory) Execute(_ context.Context, responseID id.ResponseID, validate func(*models.IndicatorResponse) error, mutate func(*models.IndicatorResponse)) (*models.IndicatorResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.responses[responseID]
	if !ok {
		return nil, fmt.Errorf("response not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(r); err != nil {
		return cloneResponse(r), err
	}
	mutate(r)
	return cloneResponse(r), nil
}
