package template

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory holds the checklist template catalogue in memory for tests and
// development. Templates never change after seeding; versioning happens by
// adding rows.
//
// Error contract: sentinel.ErrNotFound (wrapped) for missing templates.
type InMemory struct {
	mu        sync.RWMutex
	templates map[id.TemplateID]*models.ChecklistTemplate
}

// NewInMemory constructs the catalogue store, seeded with the given
// templates.
func NewInMemory(templates ...*models.ChecklistTemplate) *InMemory {
	s := &InMemory{templates: make(map[id.TemplateID]*models.ChecklistTemplate, len(templates))}
	s.Add(templates...)
	return s
}

// Add seeds further templates.
func (s *InMemory) Add(templates ...*models.ChecklistTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range templates {
		s.templates[t.ID] = cloneTemplate(t)
	}
}

func cloneTemplate(t *models.ChecklistTemplate) *models.ChecklistTemplate {
	c := *t
	c.Items = make([]*models.ChecklistItem, len(t.Items))
	for i, item := range t.Items {
		ic := *item
		c.Items[i] = &ic
	}
	return &c
}

// FindByID returns a copy of the template with its items.
func (s *InMemory) FindByID(_ context.Context, templateID id.TemplateID) (*models.ChecklistTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("checklist template not found: %w", sentinel.ErrNotFound)
	}
	return cloneTemplate(t), nil
}

// List returns templates ordered by document type, newest version first. An
// empty documentType matches all types.
func (s *InMemory) List(_ context.Context, documentType string) ([]*models.ChecklistTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var templates []*models.ChecklistTemplate
	for _, t := range s.templates {
		if documentType != "" && t.DocumentType != documentType {
			continue
		}
		templates = append(templates, cloneTemplate(t))
	}
	sort.Slice(templates, func(i, j int) bool {
		if templates[i].DocumentType != templates[j].DocumentType {
			return templates[i].DocumentType < templates[j].DocumentType
		}
		return templates[i].Version > templates[j].Version
	})
	return templates, nil
}
