//go:build integration

package template_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"conforma/internal/docreview/store/template"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	"conforma/pkg/testutil/containers"
)

// PostgresStoreSuite reads the checklist catalogue the migrations seed. The
// store never writes, so the tests assert against the seeded rows.
type PostgresStoreSuite struct {
	suite.Suite
	store *template.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.store = template.NewPostgres(mgr.GetPostgres(s.T()).DB)
}

func (s *PostgresStoreSuite) TestListSeededCatalogue() {
	ctx := context.Background()

	templates, err := s.store.List(ctx, "policy_document")
	s.Require().NoError(err)
	s.Require().NotEmpty(templates)

	t := templates[0]
	s.Equal("policy_document", t.DocumentType)
	s.Equal(1, t.Version)
	s.True(t.Active)
	s.Require().NotEmpty(t.Items)

	// Items come back in sort order with at least one critical prompt.
	critical := 0
	for i, item := range t.Items {
		s.Equal(i, item.SortOrder)
		s.Equal(t.ID, item.TemplateID)
		if item.IsCritical {
			critical++
		}
	}
	s.Positive(critical)
}

func (s *PostgresStoreSuite) TestFindByID() {
	ctx := context.Background()

	templates, err := s.store.List(ctx, "inspection_report")
	s.Require().NoError(err)
	s.Require().NotEmpty(templates)

	found, err := s.store.FindByID(ctx, templates[0].ID)
	s.Require().NoError(err)
	s.Equal(templates[0].Name, found.Name)
	s.Len(found.Items, len(templates[0].Items))

	_, err = s.store.FindByID(ctx, id.NewTemplateID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListAllTypes() {
	ctx := context.Background()

	templates, err := s.store.List(ctx, "")
	s.Require().NoError(err)
	s.GreaterOrEqual(len(templates), 2)
}
