package indicator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/assessment/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory holds the template indicator catalogue in memory for tests and
// development. The runtime catalogue never changes after seeding.
//
// Error contract: sentinel.ErrNotFound (wrapped) for missing indicators.
type InMemory struct {
	mu         sync.RWMutex
	indicators map[id.IndicatorID]*models.TemplateIndicator
}

// NewInMemory constructs the catalogue store, seeded with the given rows.
func NewInMemory(indicators ...*models.TemplateIndicator) *InMemory {
	s := &InMemory{indicators: make(map[id.IndicatorID]*models.TemplateIndicator, len(indicators))}
	s.Add(indicators...)
	return s
}

// Add seeds further catalogue rows.
func (s *InMemory) Add(indicators ...*models.TemplateIndicator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, indicator := range indicators {
		c := *indicator
		s.indicators[indicator.ID] = &c
	}
}

// FindByID returns a copy of the indicator, active or not.
func (s *InMemory) FindByID(_ context.Context, indicatorID id.IndicatorID) (*models.TemplateIndicator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	indicator, ok := s.indicators[indicatorID]
	if !ok {
		return nil, fmt.Errorf("indicator not found: %w", sentinel.ErrNotFound)
	}
	c := *indicator
	return &c, nil
}

// ListByDomains returns the active indicators for the given domain codes in
// domain and sort order. An empty code list matches nothing.
func (s *InMemory) ListByDomains(_ context.Context, domainCodes []string) ([]*models.TemplateIndicator, error) {
	wanted := make(map[string]bool, len(domainCodes))
	for _, code := range domainCodes {
		wanted[code] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var indicators []*models.TemplateIndicator
	for _, indicator := range s.indicators {
		if !indicator.Active || !wanted[indicator.DomainCode] {
			continue
		}
		c := *indicator
		indicators = append(indicators, &c)
	}
	sort.Slice(indicators, func(i, j int) bool {
		if indicators[i].DomainCode != indicators[j].DomainCode {
			return indicators[i].DomainCode < indicators[j].DomainCode
		}
		if indicators[i].SortOrder != indicators[j].SortOrder {
			return indicators[i].SortOrder < indicators[j].SortOrder
		}
		return indicators[i].Code < indicators[j].Code
	})
	return indicators, nil
}
