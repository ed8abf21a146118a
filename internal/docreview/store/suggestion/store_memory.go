package suggestion

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores suggested findings in memory for tests and development.
//
// Error contract: sentinel.ErrNotFound / sentinel.ErrConflict (wrapped) for
// infrastructure facts; validation errors from Execute callbacks pass through
// untouched.
type InMemory struct {
	mu          sync.RWMutex
	suggestions map[id.SuggestionID]*models.SuggestedFinding
}

// NewInMemory constructs an empty in-memory suggestion store.
func NewInMemory() *InMemory {
	return &InMemory{suggestions: make(map[id.SuggestionID]*models.SuggestedFinding)}
}

func cloneSuggestion(sg *models.SuggestedFinding) *models.SuggestedFinding {
	c := *sg
	if sg.ResolvedBy != nil {
		resolver := *sg.ResolvedBy
		c.ResolvedBy = &resolver
	}
	if sg.ResolvedAt != nil {
		resolved := *sg.ResolvedAt
		c.ResolvedAt = &resolved
	}
	return &c
}

// Create persists a new suggestion. The id must be unused.
func (s *InMemory) Create(_ context.Context, sg *models.SuggestedFinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.suggestions[sg.ID]; exists {
		return fmt.Errorf("suggestion %s already exists: %w", sg.ID, sentinel.ErrConflict)
	}
	s.suggestions[sg.ID] = cloneSuggestion(sg)
	return nil
}

// FindByID returns a copy of the suggestion.
func (s *InMemory) FindByID(_ context.Context, suggestionID id.SuggestionID) (*models.SuggestedFinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sg, ok := s.suggestions[suggestionID]
	if !ok {
		return nil, fmt.Errorf("suggestion not found: %w", sentinel.ErrNotFound)
	}
	return cloneSuggestion(sg), nil
}

// List returns the company's suggestions, newest first, narrowed by the
// filter.
func (s *InMemory) List(_ context.Context, companyID id.CompanyID, filter models.SuggestionFilter) ([]*models.SuggestedFinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var suggestions []*models.SuggestedFinding
	for _, sg := range s.suggestions {
		if sg.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && sg.Status != filter.Status {
			continue
		}
		suggestions = append(suggestions, cloneSuggestion(sg))
	}
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].CreatedAt.After(suggestions[j].CreatedAt)
	})
	return suggestions, nil
}

// Execute runs validate-then-mutate while holding the entry lock, making the
// PENDING check and the resolution one atomic step. The (possibly unchanged)
// suggestion is returned even when validation fails.
func (s *InMemory) Execute(_ context.Context, suggestionID id.SuggestionID, validate func(*models.SuggestedFinding) error, mutate func(*models.SuggestedFinding)) (*models.SuggestedFinding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.suggestions[suggestionID]
	if !ok {
		return nil, fmt.Errorf("suggestion not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(sg); err != nil {
		return cloneSuggestion(sg), err
	}
	mutate(sg)
	return cloneSuggestion(sg), nil
}
