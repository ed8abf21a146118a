package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

// Postgres persists audits in PostgreSQL.
//
// Execute implements the single-writer guarantee with SELECT ... FOR UPDATE:
// validation and mutation run against the row state under lock, inside one
// transaction. When the caller's context already carries a transaction (tx
// runner), Execute joins it so activity events commit with the transition.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
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

const auditColumns = `id, company_id, title, audit_type, status, scope_start, scope_end,
	scope_locked_at, review_notes, submitted_for_review_at, approved_at,
	close_reason, closed_at, reopened_at, created_by, created_at, updated_at`

// Create inserts the audit and its scope rows. Joins a context transaction
// when one is present.
func (s *Postgres) Create(ctx context.Context, audit *models.Audit) error {
	q := s.execer(ctx)

	query := `
		INSERT INTO audits (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := q.ExecContext(ctx, query,
		audit.ID.String(),
		audit.CompanyID.String(),
		audit.Title,
		string(audit.Type),
		string(audit.Status),
		audit.ScopeStart,
		audit.ScopeEnd,
		audit.ScopeLockedAt,
		audit.ReviewNotes,
		audit.SubmittedForReviewAt,
		audit.ApprovedAt,
		audit.CloseReason,
		audit.ClosedAt,
		audit.ReopenedAt,
		audit.CreatedBy.String(),
		audit.CreatedAt,
		audit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("audit %s already exists: %w", audit.ID, sentinel.ErrConflict)
	}

	return s.replaceScopeItems(ctx, q, audit)
}

// FindByID loads the audit with its scope.
func (s *Postgres) FindByID(ctx context.Context, auditID id.AuditID) (*models.Audit, error) {
	q := s.execer(ctx)
	row := q.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audits WHERE id = $1`, auditID.String())
	audit, err := scanAudit(row)
	if err != nil {
		return nil, err
	}

	scopes, err := s.loadScopes(ctx, q, []id.AuditID{auditID})
	if err != nil {
		return nil, err
	}
	audit.Scope = scopes[auditID]
	return audit, nil
}

// ListByCompany returns the company's audits with scopes, newest first.
func (s *Postgres) ListByCompany(ctx context.Context, companyID id.CompanyID) ([]*models.Audit, error) {
	q := s.execer(ctx)
	rows, err := q.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audits
		WHERE company_id = $1
		ORDER BY created_at DESC
	`, companyID.String())
	if err != nil {
		return nil, fmt.Errorf("query audits: %w", err)
	}
	defer rows.Close()

	var audits []*models.Audit
	var ids []id.AuditID
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, audit)
		ids = append(ids, audit.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audits: %w", err)
	}
	if len(audits) == 0 {
		return audits, nil
	}

	scopes, err := s.loadScopes(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for _, audit := range audits {
		audit.Scope = scopes[audit.ID]
	}
	return audits, nil
}

// Execute locks the audit row, runs validate against the locked state, then
// mutate, and persists the result. The whole sequence is one transaction; a
// transaction already carried in ctx is joined instead.
func (s *Postgres) Execute(ctx context.Context, auditID id.AuditID, validate func(*models.Audit) error, mutate func(*models.Audit)) (*models.Audit, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, tx, auditID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	audit, err := s.executeLocked(ctx, tx, auditID, validate, mutate)
	if err != nil {
		return audit, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit audit tx: %w", err)
	}
	return audit, nil
}

func (s *Postgres) executeLocked(ctx context.Context, tx *sql.Tx, auditID id.AuditID, validate func(*models.Audit) error, mutate func(*models.Audit)) (*models.Audit, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+auditColumns+` FROM audits WHERE id = $1 FOR UPDATE`, auditID.String())
	audit, err := scanAudit(row)
	if err != nil {
		return nil, err
	}

	scopes, err := s.loadScopes(ctx, tx, []id.AuditID{auditID})
	if err != nil {
		return nil, err
	}
	audit.Scope = scopes[auditID]

	if err := validate(audit); err != nil {
		return audit, err
	}
	mutate(audit)

	if _, err := tx.ExecContext(ctx, `
		UPDATE audits
		SET status = $2, scope_locked_at = $3, review_notes = $4,
		    submitted_for_review_at = $5, approved_at = $6, close_reason = $7,
		    closed_at = $8, reopened_at = $9, updated_at = $10
		WHERE id = $1
	`,
		audit.ID.String(),
		string(audit.Status),
		audit.ScopeLockedAt,
		audit.ReviewNotes,
		audit.SubmittedForReviewAt,
		audit.ApprovedAt,
		audit.CloseReason,
		audit.ClosedAt,
		audit.ReopenedAt,
		audit.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update audit: %w", err)
	}

	if err := s.replaceScopeItems(ctx, tx, audit); err != nil {
		return nil, err
	}
	return audit, nil
}

func (s *Postgres) replaceScopeItems(ctx context.Context, q dbExecutor, audit *models.Audit) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM audit_scope_items WHERE audit_id = $1`, audit.ID.String()); err != nil {
		return fmt.Errorf("clear audit scope: %w", err)
	}
	for i, item := range audit.Scope {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO audit_scope_items (audit_id, line_item_id, label, domain_code, position)
			VALUES ($1, $2, $3, $4, $5)
		`, audit.ID.String(), item.LineItemID.String(), item.Label, item.DomainCode, i); err != nil {
			return fmt.Errorf("insert audit scope item: %w", err)
		}
	}
	return nil
}

func (s *Postgres) loadScopes(ctx context.Context, q dbExecutor, auditIDs []id.AuditID) (map[id.AuditID][]models.ScopeItem, error) {
	idStrings := make([]string, len(auditIDs))
	for i, aid := range auditIDs {
		idStrings[i] = aid.String()
	}

	rows, err := q.QueryContext(ctx, `
		SELECT audit_id, line_item_id, label, domain_code, position
		FROM audit_scope_items
		WHERE audit_id = ANY($1)
		ORDER BY audit_id, position
	`, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("query audit scope items: %w", err)
	}
	defer rows.Close()

	scopes := make(map[id.AuditID][]models.ScopeItem)
	for rows.Next() {
		var (
			auditIDStr string
			item       models.ScopeItem
			lineItemID string
		)
		if err := rows.Scan(&auditIDStr, &lineItemID, &item.Label, &item.DomainCode, &item.Position); err != nil {
			return nil, fmt.Errorf("scan audit scope item: %w", err)
		}
		item.LineItemID = id.LineItemID(lineItemID)
		auditID, err := id.ParseAuditID(auditIDStr)
		if err != nil {
			return nil, fmt.Errorf("scan audit scope item id: %w", err)
		}
		scopes[auditID] = append(scopes[auditID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit scope items: %w", err)
	}
	return scopes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAudit(row rowScanner) (*models.Audit, error) {
	var (
		audit      models.Audit
		auditIDStr string
		companyStr string
		typeStr    string
		statusStr  string
		createdBy  string
	)
	err := row.Scan(
		&auditIDStr,
		&companyStr,
		&audit.Title,
		&typeStr,
		&statusStr,
		&audit.ScopeStart,
		&audit.ScopeEnd,
		&audit.ScopeLockedAt,
		&audit.ReviewNotes,
		&audit.SubmittedForReviewAt,
		&audit.ApprovedAt,
		&audit.CloseReason,
		&audit.ClosedAt,
		&audit.ReopenedAt,
		&createdBy,
		&audit.CreatedAt,
		&audit.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan audit: %w", err)
	}

	auditID, err := id.ParseAuditID(auditIDStr)
	if err != nil {
		return nil, fmt.Errorf("scan audit id: %w", err)
	}
	companyID, err := id.ParseCompanyID(companyStr)
	if err != nil {
		return nil, fmt.Errorf("scan audit company id: %w", err)
	}
	creatorID, err := id.ParseUserID(createdBy)
	if err != nil {
		return nil, fmt.Errorf("scan audit creator id: %w", err)
	}

	audit.ID = auditID
	audit.CompanyID = companyID
	audit.CreatedBy = creatorID
	audit.Type = models.AuditType(typeStr)
	audit.Status = models.Status(statusStr)
	return &audit, nil
}
