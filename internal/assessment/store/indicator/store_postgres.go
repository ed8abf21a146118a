package indicator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"conforma/internal/assessment/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

// Postgres reads the template indicator catalogue from PostgreSQL. Rows are
// seeded by migration; this store never writes. Reads join a transaction
// carried in ctx so in-transaction scope checks see consistent state.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalogue store.
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

const indicatorColumns = `id, domain_code, code, text, guidance, sort_order, active`

// FindByID loads one indicator, active or not.
func (s *Postgres) FindByID(ctx context.Context, indicatorID id.IndicatorID) (*models.TemplateIndicator, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+indicatorColumns+` FROM template_indicators WHERE id = $1`, indicatorID.String())
	return scanIndicator(row)
}

// ListByDomains returns the active indicators for the given domain codes in
// domain and sort order. An empty code list matches nothing.
func (s *Postgres) ListByDomains(ctx context.Context, domainCodes []string) ([]*models.TemplateIndicator, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+indicatorColumns+`
		FROM template_indicators
		WHERE domain_code = ANY($1) AND active
		ORDER BY domain_code, sort_order, code
	`, pq.Array(domainCodes))
	if err != nil {
		return nil, fmt.Errorf("query indicators: %w", err)
	}
	defer rows.Close()

	var indicators []*models.TemplateIndicator
	for rows.Next() {
		indicator, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, indicator)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicators: %w", err)
	}
	return indicators, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIndicator(row rowScanner) (*models.TemplateIndicator, error) {
	var (
		indicator models.TemplateIndicator
		idStr     string
	)
	err := row.Scan(
		&idStr,
		&indicator.DomainCode,
		&indicator.Code,
		&indicator.Text,
		&indicator.Guidance,
		&indicator.SortOrder,
		&indicator.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("indicator not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan indicator: %w", err)
	}

	indicatorID, err := id.ParseIndicatorID(idStr)
	if err != nil {
		return nil, fmt.Errorf("scan indicator id: %w", err)
	}
	indicator.ID = indicatorID
	return &indicator, nil
}
