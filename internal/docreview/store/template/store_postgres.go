package template

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conforma/internal/docreview/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

// Postgres reads the checklist template catalogue from PostgreSQL. Rows are
// seeded by migration; this store never writes.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed template store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const templateColumns = `id, document_type, version, name, active, created_at`

// FindByID loads one template with its items in sort order.
func (s *Postgres) FindByID(ctx context.Context, templateID id.TemplateID) (*models.ChecklistTemplate, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM checklist_templates WHERE id = $1`, templateID.String())
	t, err := scanTemplate(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns templates ordered by document type, newest version first,
// items included. An empty documentType matches all types.
func (s *Postgres) List(ctx context.Context, documentType string) ([]*models.ChecklistTemplate, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM checklist_templates
		WHERE $1 = '' OR document_type = $1
		ORDER BY document_type, version DESC
	`, documentType)
	if err != nil {
		return nil, fmt.Errorf("query checklist templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.ChecklistTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist templates: %w", err)
	}
	for _, t := range templates {
		if err := s.loadItems(ctx, t); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

func (s *Postgres) loadItems(ctx context.Context, t *models.ChecklistTemplate) error {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, template_id, prompt, is_critical, sort_order
		FROM checklist_items
		WHERE template_id = $1
		ORDER BY sort_order, id
	`, t.ID.String())
	if err != nil {
		return fmt.Errorf("query checklist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item          models.ChecklistItem
			idStr, tmplID string
		)
		if err := rows.Scan(&idStr, &tmplID, &item.Prompt, &item.IsCritical, &item.SortOrder); err != nil {
			return fmt.Errorf("scan checklist item: %w", err)
		}
		itemID, err := id.ParseChecklistItemID(idStr)
		if err != nil {
			return fmt.Errorf("scan checklist item id: %w", err)
		}
		templateID, err := id.ParseTemplateID(tmplID)
		if err != nil {
			return fmt.Errorf("scan checklist item template id: %w", err)
		}
		item.ID = itemID
		item.TemplateID = templateID
		t.Items = append(t.Items, &item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate checklist items: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*models.ChecklistTemplate, error) {
	var (
		t     models.ChecklistTemplate
		idStr string
	)
	err := row.Scan(&idStr, &t.DocumentType, &t.Version, &t.Name, &t.Active, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("checklist template not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan checklist template: %w", err)
	}

	templateID, err := id.ParseTemplateID(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan checklist template id: %w", err)
	}
	t.ID = templateID
	return &t, nil
}
