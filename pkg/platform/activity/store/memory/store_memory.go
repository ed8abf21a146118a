package memory

import (
	"context"
	"sync"

	id "conforma/pkg/domain"
	"conforma/pkg/platform/activity"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.CompanyID][]activity.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.CompanyID][]activity.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.CompanyID][]activity.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event activity.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.CompanyID] = append(s.events[event.CompanyID], event)
	return nil
}

func (s *InMemoryStore) ListByCompany(_ context.Context, companyID id.CompanyID) ([]activity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]activity.Event{}, s.events[companyID]...), nil
}

// ListAll returns all activity events across all companies (staff-only operation).
func (s *InMemoryStore) ListAll(_ context.Context) ([]activity.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allEvents []activity.Event
	for _, companyEvents := range s.events {
		allEvents = append(allEvents, companyEvents...)
	}

	return allEvents, nil
}
