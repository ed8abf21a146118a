package response

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conforma/internal/assessment/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

// Postgres persists indicator responses in PostgreSQL. The (audit, indicator)
// pair is guarded by the table's unique constraint; concurrent inserts for
// the same pair lose with ErrConflict.
//
// Execute locks the response row with SELECT ... FOR UPDATE so validation and
// mutation act on the same state. All methods join a transaction carried in
// ctx, letting the service commit a response write together with the finding
// it opens.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed response store.
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

const responseColumns = `id, company_id, audit_id, indicator_id, rating, comment,
	score_points, score_version, status, review_comment, review_comment_by,
	recorded_in_review, created_by, created_at, updated_at`

// Create inserts the response. ON CONFLICT DO NOTHING covers both the id and
// the (audit, indicator) pair constraint; zero rows affected means a
// duplicate either way.
func (s *Postgres) Create(ctx context.Context, r *models.IndicatorResponse) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO indicator_responses (`+responseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT DO NOTHING
	`,
		r.ID.String(),
		r.CompanyID.String(),
		r.AuditID.String(),
		r.IndicatorID.String(),
		string(r.Rating),
		r.Comment,
		r.ScorePoints,
		r.ScoreVersion,
		string(r.Status),
		r.ReviewComment,
		nullableUser(r.ReviewCommentBy),
		r.RecordedInReview,
		r.CreatedBy.String(),
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("response for indicator %s already exists: %w", r.IndicatorID, sentinel.ErrConflict)
	}
	return nil
}

// FindByID loads one response.
func (s *Postgres) FindByID(ctx context.Context, responseID id.ResponseID) (*models.IndicatorResponse, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+responseColumns+` FROM indicator_responses WHERE id = $1`, responseID.String())
	return scanResponse(row)
}

// ListByAudit returns the audit's responses in recording order.
func (s *Postgres) ListByAudit(ctx context.Context, auditID id.AuditID) ([]*models.IndicatorResponse, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+responseColumns+`
		FROM indicator_responses
		WHERE audit_id = $1
		ORDER BY created_at, id
	`, auditID.String())
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.IndicatorResponse
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return responses, nil
}

// Execute locks the response row, runs validate against the locked state,
// then mutate, and persists the result. Joins a transaction carried in ctx.
func (s *Postgres) Execute(ctx context.Context, responseID id.ResponseID, validate func(*models.IndicatorResponse) error, mutate func(*models.IndicatorResponse)) (*models.IndicatorResponse, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, tx, responseID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin response tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	r, err := s.executeLocked(ctx, tx, responseID, validate, mutate)
	if err != nil {
		return r, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit response tx: %w", err)
	}
	return r, nil
}

func (s *Postgres) executeLocked(ctx context.Context, tx *sql.Tx, responseID id.ResponseID, validate func(*models.IndicatorResponse) error, mutate func(*models.IndicatorResponse)) (*models.IndicatorResponse, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+responseColumns+` FROM indicator_responses WHERE id = $1 FOR UPDATE`, responseID.String())
	r, err := scanResponse(row)
	if err != nil {
		return nil, err
	}

	if err := validate(r); err != nil {
		return r, err
	}
	mutate(r)

	if _, err := tx.ExecContext(ctx, `
		UPDATE indicator_responses
		SET rating = $2, comment = $3, score_points = $4, status = $5,
		    review_comment = $6, review_comment_by = $7, updated_at = $8
		WHERE id = $1
	`,
		r.ID.String(),
		string(r.Rating),
		r.Comment,
		r.ScorePoints,
		string(r.Status),
		r.ReviewComment,
		nullableUser(r.ReviewCommentBy),
		r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update response: %w", err)
	}
	return r, nil
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

func scanResponse(row rowScanner) (*models.IndicatorResponse, error) {
	var (
		r            models.IndicatorResponse
		responseStr  string
		companyStr   string
		auditStr     string
		indicatorStr string
		ratingStr    string
		statusStr    string
		reviewerStr  sql.NullString
		createdByStr string
	)
	err := row.Scan(
		&responseStr,
		&companyStr,
		&auditStr,
		&indicatorStr,
		&ratingStr,
		&r.Comment,
		&r.ScorePoints,
		&r.ScoreVersion,
		&statusStr,
		&r.ReviewComment,
		&reviewerStr,
		&r.RecordedInReview,
		&createdByStr,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("response not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan response: %w", err)
	}

	responseID, err := id.ParseResponseID(responseStr)
	if err != nil {
		return nil, fmt.Errorf("scan response id: %w", err)
	}
	companyID, err := id.ParseCompanyID(companyStr)
	if err != nil {
		return nil, fmt.Errorf("scan response company id: %w", err)
	}
	auditID, err := id.ParseAuditID(auditStr)
	if err != nil {
		return nil, fmt.Errorf("scan response audit id: %w", err)
	}
	indicatorID, err := id.ParseIndicatorID(indicatorStr)
	if err != nil {
		return nil, fmt.Errorf("scan response indicator id: %w", err)
	}
	createdBy, err := id.ParseUserID(createdByStr)
	if err != nil {
		return nil, fmt.Errorf("scan response creator id: %w", err)
	}
	r.ID = responseID
	r.CompanyID = companyID
	r.AuditID = auditID
	r.IndicatorID = indicatorID
	r.CreatedBy = createdBy
	r.Rating = models.Rating(ratingStr)
	r.Status = models.Status(statusStr)

	if reviewerStr.Valid {
		reviewerID, err := id.ParseUserID(reviewerStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan response reviewer id: %w", err)
		}
		r.ReviewCommentBy = &reviewerID
	}
	return &r, nil
}
