package review

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores document reviews in memory for tests and development.
// Reviews are immutable, so the store only appends and reads.
//
// Error contract: sentinel.ErrNotFound / sentinel.ErrConflict (wrapped).
type InMemory struct {
	mu      sync.RWMutex
	reviews map[id.ReviewID]*models.DocumentReview
}

// NewInMemory constructs an empty in-memory review store.
func NewInMemory() *InMemory {
	return &InMemory{reviews: make(map[id.ReviewID]*models.DocumentReview)}
}

func cloneReview(r *models.DocumentReview) *models.DocumentReview {
	c := *r
	c.Answers = make([]models.ItemAnswer, len(r.Answers))
	copy(c.Answers, r.Answers)
	return &c
}

// Create persists a new review. The id must be unused.
func (s *InMemory) Create(_ context.Context, r *models.DocumentReview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reviews[r.ID]; exists {
		return fmt.Errorf("document review %s already exists: %w", r.ID, sentinel.ErrConflict)
	}
	s.reviews[r.ID] = cloneReview(r)
	return nil
}

// FindByID returns a copy of the review with its answer sheet.
func (s *InMemory) FindByID(_ context.Context, reviewID id.ReviewID) (*models.DocumentReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, fmt.Errorf("document review not found: %w", sentinel.ErrNotFound)
	}
	return cloneReview(r), nil
}

// ListByItem returns the evidence item's reviews, newest first.
func (s *InMemory) ListByItem(_ context.Context, itemID id.EvidenceItemID) ([]*models.DocumentReview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reviews []*models.DocumentReview
	for _, r := range s.reviews {
		if r.EvidenceItemID != itemID {
			continue
		}
		reviews = append(reviews, cloneReview(r))
	}
	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews, nil
}
