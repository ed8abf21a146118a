package template

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

type TemplateStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestTemplateStoreSuite(t *testing.T) {
	suite.Run(t, new(TemplateStoreSuite))
}

func (s *TemplateStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *TemplateStoreSuite) newTemplate(documentType string, version int, active bool) *models.ChecklistTemplate {
	t := &models.ChecklistTemplate{
		ID:           id.NewTemplateID(),
		DocumentType: documentType,
		Version:      version,
		Name:         "Completeness checklist",
		Active:       active,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 3; i++ {
		t.Items = append(t.Items, &models.ChecklistItem{
			ID:         id.NewChecklistItemID(),
			TemplateID: t.ID,
			Prompt:     "Checklist prompt",
			IsCritical: i == 0,
			SortOrder:  i,
		})
	}
	s.store.Add(t)
	return t
}

func (s *TemplateStoreSuite) TestFindByID() {
	s.Run("round-trips a template with items", func() {
		t := s.newTemplate("policy_document", 1, true)

		found, err := s.store.FindByID(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal(t.DocumentType, found.DocumentType)
		s.Require().Len(found.Items, 3)
		s.True(found.Items[0].IsCritical)
	})

	s.Run("missing template returns ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, id.NewTemplateID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("copies are independent of the store", func() {
		t := s.newTemplate("policy_document", 2, true)

		found, err := s.store.FindByID(s.ctx, t.ID)
		s.Require().NoError(err)
		found.Items[0].Prompt = "mutated"

		again, err := s.store.FindByID(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal("Checklist prompt", again.Items[0].Prompt)
	})
}

func (s *TemplateStoreSuite) TestList() {
	s.newTemplate("policy_document", 1, false)
	s.newTemplate("policy_document", 2, true)
	s.newTemplate("inspection_report", 1, true)

	s.Run("filters by document type, newest version first", func() {
		templates, err := s.store.List(s.ctx, "policy_document")
		s.Require().NoError(err)
		s.Require().Len(templates, 2)
		s.Equal(2, templates[0].Version)
		s.Equal(1, templates[1].Version)
	})

	s.Run("empty type matches everything", func() {
		templates, err := s.store.List(s.ctx, "")
		s.Require().NoError(err)
		s.Len(templates, 3)
	})

	s.Run("unknown type matches nothing", func() {
		templates, err := s.store.List(s.ctx, "shipping_manifest")
		s.Require().NoError(err)
		s.Empty(templates)
	})
}
