package suggestion

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

// Postgres persists suggested findings in PostgreSQL.
//
// Execute locks the suggestion row with SELECT ... FOR UPDATE so the PENDING
// precondition and the resolution write act on the same state. Methods join a
// transaction carried in ctx, letting confirm commit the suggestion update
// together with the finding it registers.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed suggestion store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const suggestionColumns = `id, company_id, review_id, evidence_item_id, suggested_type,
	severity_flag, rationale, status, confirmed_finding_id, resolution_note,
	resolved_by, resolved_at, created_at`

// Create inserts the suggestion. Joins a context transaction when one is
// present so it commits with the review that raised it.
func (s *Postgres) Create(ctx context.Context, sg *models.SuggestedFinding) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO suggested_findings (`+suggestionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`,
		sg.ID.String(),
		sg.CompanyID.String(),
		sg.ReviewID.String(),
		sg.EvidenceItemID.String(),
		string(sg.SuggestedType),
		string(sg.SeverityFlag),
		sg.Rationale,
		string(sg.Status),
		nullableID(sg.ConfirmedFindingID.String(), sg.ConfirmedFindingID.IsNil()),
		sg.ResolutionNote,
		nullableUser(sg.ResolvedBy),
		sg.ResolvedAt,
		sg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert suggestion: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("suggestion %s already exists: %w", sg.ID, sentinel.ErrConflict)
	}
	return nil
}

// FindByID loads one suggestion.
func (s *Postgres) FindByID(ctx context.Context, suggestionID id.SuggestionID) (*models.SuggestedFinding, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggested_findings WHERE id = $1`, suggestionID.String())
	return scanSuggestion(row)
}

// List returns the company's suggestions, newest first, narrowed by the
// filter.
func (s *Postgres) List(ctx context.Context, companyID id.CompanyID, filter models.SuggestionFilter) ([]*models.SuggestedFinding, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggested_findings WHERE company_id = $1`
	args := []any{companyID.String()}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []*models.SuggestedFinding
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suggestions: %w", err)
	}
	return suggestions, nil
}

// Execute locks the suggestion row, runs validate against the locked state,
// then mutate, and persists the result. Joins a transaction carried in ctx.
func (s *Postgres) Execute(ctx context.Context, suggestionID id.SuggestionID, validate func(*models.SuggestedFinding) error, mutate func(*models.SuggestedFinding)) (*models.SuggestedFinding, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, tx, suggestionID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin suggestion tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sg, err := s.executeLocked(ctx, tx, suggestionID, validate, mutate)
	if err != nil {
		return sg, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit suggestion tx: %w", err)
	}
	return sg, nil
}

func (s *Postgres) executeLocked(ctx context.Context, tx *sql.Tx, suggestionID id.SuggestionID, validate func(*models.SuggestedFinding) error, mutate func(*models.SuggestedFinding)) (*models.SuggestedFinding, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggested_findings WHERE id = $1 FOR UPDATE`, suggestionID.String())
	sg, err := scanSuggestion(row)
	if err != nil {
		return nil, err
	}

	if err := validate(sg); err != nil {
		return sg, err
	}
	mutate(sg)

	if _, err := tx.ExecContext(ctx, `
		UPDATE suggested_findings
		SET status = $2, confirmed_finding_id = $3, resolution_note = $4,
		    resolved_by = $5, resolved_at = $6
		WHERE id = $1
	`,
		sg.ID.String(),
		string(sg.Status),
		nullableID(sg.ConfirmedFindingID.String(), sg.ConfirmedFindingID.IsNil()),
		sg.ResolutionNote,
		nullableUser(sg.ResolvedBy),
		sg.ResolvedAt,
	); err != nil {
		return nil, fmt.Errorf("update suggestion: %w", err)
	}
	return sg, nil
}

func nullableID(s string, isNil bool) any {
	if isNil {
		return nil
	}
	return s
}

func nullableUser(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return userID.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSuggestion(row rowScanner) (*models.SuggestedFinding, error) {
	var (
		sg          models.SuggestedFinding
		sgStr       string
		companyStr  string
		reviewStr   string
		itemStr     string
		typeStr     string
		flagStr     string
		statusStr   string
		findingStr  sql.NullString
		resolverStr sql.NullString
	)
	err := row.Scan(
		&sgStr,
		&companyStr,
		&reviewStr,
		&itemStr,
		&typeStr,
		&flagStr,
		&sg.Rationale,
		&statusStr,
		&findingStr,
		&sg.ResolutionNote,
		&resolverStr,
		&sg.ResolvedAt,
		&sg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("suggestion not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan suggestion: %w", err)
	}

	suggestionID, err := id.ParseSuggestionID(sgStr)
	if err != nil {
		return nil, fmt.Errorf("scan suggestion id: %w", err)
	}
	companyID, err := id.ParseCompanyID(companyStr)
	if err != nil {
		return nil, fmt.Errorf("scan suggestion company id: %w", err)
	}
	reviewID, err := id.ParseReviewID(reviewStr)
	if err != nil {
		return nil, fmt.Errorf("scan suggestion review id: %w", err)
	}
	itemID, err := id.ParseEvidenceItemID(itemStr)
	if err != nil {
		return nil, fmt.Errorf("scan suggestion item id: %w", err)
	}
	sg.ID = suggestionID
	sg.CompanyID = companyID
	sg.ReviewID = reviewID
	sg.EvidenceItemID = itemID
	sg.SuggestedType = models.SuggestedType(typeStr)
	sg.SeverityFlag = models.SeverityFlag(flagStr)
	sg.Status = models.SuggestionStatus(statusStr)

	if findingStr.Valid {
		findingID, err := id.ParseFindingID(findingStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion finding id: %w", err)
		}
		sg.ConfirmedFindingID = findingID
	}
	if resolverStr.Valid {
		resolvedBy, err := id.ParseUserID(resolverStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan suggestion resolver id: %w", err)
		}
		sg.ResolvedBy = &resolvedBy
	}
	return &sg, nil
}
