package request

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/evidence/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores evidence requests in memory for tests and development.
//
// Error contract: sentinel.ErrNotFound / sentinel.ErrConflict (wrapped) for
// infrastructure facts; validation errors from Execute callbacks pass through
// untouched.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.EvidenceRequestID]*models.EvidenceRequest
}

// NewInMemory constructs an empty in-memory evidence request store.
func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.EvidenceRequestID]*models.EvidenceRequest)}
}

func cloneRequest(r *models.EvidenceRequest) *models.EvidenceRequest {
	c := *r
	if r.DueDate != nil {
		due := *r.DueDate
		c.DueDate = &due
	}
	if r.ReviewedBy != nil {
		reviewer := *r.ReviewedBy
		c.ReviewedBy = &reviewer
	}
	if r.ReviewedAt != nil {
		reviewed := *r.ReviewedAt
		c.ReviewedAt = &reviewed
	}
	return &c
}

// Create persists a new evidence request. The id must be unused.
func (s *InMemory) Create(_ context.Context, r *models.EvidenceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[r.ID]; exists {
		return fmt.Errorf("evidence request %s already exists: %w", r.ID, sentinel.ErrConflict)
	}
	s.requests[r.ID] = cloneRequest(r)
	return nil
}

// FindByID returns a copy of the evidence request.
func (s *InMemory) FindByID(_ context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("evidence request not found: %w", sentinel.ErrNotFound)
	}
	return cloneRequest(r), nil
}

// List returns the company's evidence requests, newest first, narrowed by the
// filter.
func (s *InMemory) List(_ context.Context, companyID id.CompanyID, filter models.RequestFilter) ([]*models.EvidenceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var requests []*models.EvidenceRequest
	for _, r := range s.requests {
		if r.CompanyID != companyID {
			continue
		}
		if !filter.AuditID.IsNil() && r.AuditID != filter.AuditID {
			continue
		}
		if !filter.FindingID.IsNil() && r.FindingID != filter.FindingID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		requests = append(requests, cloneRequest(r))
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})
	return requests, nil
}

// Execute runs validate-then-mutate while holding the entry lock. The
// (possibly unchanged) request is returned even when validation fails.
func (s *InMemory) Execute(_ context.Context, requestID id.EvidenceRequestID, validate func(*models.EvidenceRequest) error, mutate func(*models.EvidenceRequest)) (*models.EvidenceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, fmt.Errorf("evidence request not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(r); err != nil {
		return cloneRequest(r), err
	}
	mutate(r)
	return cloneRequest(r), nil
}
