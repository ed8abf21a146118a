package item

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/evidence/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores evidence items in memory for tests and development. Items
// are immutable, so the store only ever appends.
type InMemory struct {
	mu    sync.RWMutex
	items map[id.EvidenceItemID]*models.EvidenceItem
}

// NewInMemory constructs an empty in-memory evidence item store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[id.EvidenceItemID]*models.EvidenceItem)}
}

func cloneItem(i *models.EvidenceItem) *models.EvidenceItem {
	c := *i
	if i.UploaderUserID != nil {
		uploader := *i.UploaderUserID
		c.UploaderUserID = &uploader
	}
	return &c
}

// Create persists a new evidence item. The id must be unused.
func (s *InMemory) Create(_ context.Context, i *models.EvidenceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[i.ID]; exists {
		return fmt.Errorf("evidence item %s already exists: %w", i.ID, sentinel.ErrConflict)
	}
	s.items[i.ID] = cloneItem(i)
	return nil
}

// FindByID returns a copy of the evidence item.
func (s *InMemory) FindByID(_ context.Context, itemID id.EvidenceItemID) (*models.EvidenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.items[itemID]
	if !ok {
		return nil, fmt.Errorf("evidence item not found: %w", sentinel.ErrNotFound)
	}
	return cloneItem(i), nil
}

// ListByRequest returns the request's items in upload order.
func (s *InMemory) ListByRequest(_ context.Context, requestID id.EvidenceRequestID) ([]*models.EvidenceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*models.EvidenceItem
	for _, i := range s.items {
		if i.RequestID != requestID {
			continue
		}
		items = append(items, cloneItem(i))
	}
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].CreatedAt.Before(items[b].CreatedAt)
	})
	return items, nil
}
