package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conforma/internal/evidence/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

// Postgres persists evidence requests in PostgreSQL.
//
// Execute locks the request row with SELECT ... FOR UPDATE so validation and
// mutation act on the same state. All methods join a transaction carried in
// ctx.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed evidence request store.
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

const requestColumns = `id, company_id, audit_id, finding_id, indicator_id, title, description,
	status, due_date, portal_token_id, requested_by, review_note, reviewed_by,
	reviewed_at, created_at, updated_at`

// Create inserts the evidence request. Joins a context transaction when one
// is present.
func (s *Postgres) Create(ctx context.Context, r *models.EvidenceRequest) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO evidence_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`,
		r.ID.String(),
		r.CompanyID.String(),
		nullableID(r.AuditID.String(), r.AuditID.IsNil()),
		nullableID(r.FindingID.String(), r.FindingID.IsNil()),
		nullableID(r.IndicatorID.String(), r.IndicatorID.IsNil()),
		r.Title,
		r.Description,
		string(r.Status),
		r.DueDate,
		nullableID(r.PortalTokenID, r.PortalTokenID == ""),
		r.RequestedBy.String(),
		r.ReviewNote,
		nullableUser(r.ReviewedBy),
		r.ReviewedAt,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence request: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("evidence request %s already exists: %w", r.ID, sentinel.ErrConflict)
	}
	return nil
}

// FindByID loads one evidence request.
func (s *Postgres) FindByID(ctx context.Context, requestID id.EvidenceRequestID) (*models.EvidenceRequest, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM evidence_requests WHERE id = $1`, requestID.String())
	return scanRequest(row)
}

// List returns the company's evidence requests, newest first, narrowed by the
// filter.
func (s *Postgres) List(ctx context.Context, companyID id.CompanyID, filter models.RequestFilter) ([]*models.EvidenceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM evidence_requests WHERE company_id = $1`
	args := []any{companyID.String()}
	if !filter.AuditID.IsNil() {
		args = append(args, filter.AuditID.String())
		query += fmt.Sprintf(" AND audit_id = $%d", len(args))
	}
	if !filter.FindingID.IsNil() {
		args = append(args, filter.FindingID.String())
		query += fmt.Sprintf(" AND finding_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evidence requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.EvidenceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence requests: %w", err)
	}
	return requests, nil
}

// Execute locks the request row, runs validate against the locked state, then
// mutate, and persists the result. Joins a transaction carried in ctx.
func (s *Postgres) Execute(ctx context.Context, requestID id.EvidenceRequestID, validate func(*models.EvidenceRequest) error, mutate func(*models.EvidenceRequest)) (*models.EvidenceRequest, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, tx, requestID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin evidence request tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	r, err := s.executeLocked(ctx, tx, requestID, validate, mutate)
	if err != nil {
		return r, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit evidence request tx: %w", err)
	}
	return r, nil
}

func (s *Postgres) executeLocked(ctx context.Context, tx *sql.Tx, requestID id.EvidenceRequestID, validate func(*models.EvidenceRequest) error, mutate func(*models.EvidenceRequest)) (*models.EvidenceRequest, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM evidence_requests WHERE id = $1 FOR UPDATE`, requestID.String())
	r, err := scanRequest(row)
	if err != nil {
		return nil, err
	}

	if err := validate(r); err != nil {
		return r, err
	}
	mutate(r)

	if _, err := tx.ExecContext(ctx, `
		UPDATE evidence_requests
		SET status = $2, portal_token_id = $3, review_note = $4, reviewed_by = $5,
		    reviewed_at = $6, updated_at = $7
		WHERE id = $1
	`,
		r.ID.String(),
		string(r.Status),
		nullableID(r.PortalTokenID, r.PortalTokenID == ""),
		r.ReviewNote,
		nullableUser(r.ReviewedBy),
		r.ReviewedAt,
		r.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update evidence request: %w", err)
	}
	return r, nil
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

func scanRequest(row rowScanner) (*models.EvidenceRequest, error) {
	var (
		r            models.EvidenceRequest
		requestIDStr string
		companyStr   string
		auditStr     sql.NullString
		findingStr   sql.NullString
		indicatorStr sql.NullString
		statusStr    string
		tokenStr     sql.NullString
		requesterStr string
		reviewerStr  sql.NullString
	)
	err := row.Scan(
		&requestIDStr,
		&companyStr,
		&auditStr,
		&findingStr,
		&indicatorStr,
		&r.Title,
		&r.Description,
		&statusStr,
		&r.DueDate,
		&tokenStr,
		&requesterStr,
		&r.ReviewNote,
		&reviewerStr,
		&r.ReviewedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("evidence request not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan evidence request: %w", err)
	}

	requestID, err := id.ParseEvidenceRequestID(requestIDStr)
	if err != nil {
		return nil, fmt.Errorf("scan evidence request id: %w", err)
	}
	companyID, err := id.ParseCompanyID(companyStr)
	if err != nil {
		return nil, fmt.Errorf("scan evidence request company id: %w", err)
	}
	requestedBy, err := id.ParseUserID(requesterStr)
	if err != nil {
		return nil, fmt.Errorf("scan evidence request requester id: %w", err)
	}
	r.ID = requestID
	r.CompanyID = companyID
	r.RequestedBy = requestedBy
	r.Status = models.Status(statusStr)
	if tokenStr.Valid {
		r.PortalTokenID = tokenStr.String
	}

	if auditStr.Valid {
		auditID, err := id.ParseAuditID(auditStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan evidence request audit id: %w", err)
		}
		r.AuditID = auditID
	}
	if findingStr.Valid {
		findingID, err := id.ParseFindingID(findingStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan evidence request finding id: %w", err)
		}
		r.FindingID = findingID
	}
	if indicatorStr.Valid {
		indicatorID, err := id.ParseIndicatorID(indicatorStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan evidence request indicator id: %w", err)
		}
		r.IndicatorID = indicatorID
	}
	if reviewerStr.Valid {
		reviewerID, err := id.ParseUserID(reviewerStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan evidence request reviewer id: %w", err)
		}
		r.ReviewedBy = &reviewerID
	}
	return &r, nil
}
