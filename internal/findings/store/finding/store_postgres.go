package finding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

// Postgres persists findings and their activity logs in PostgreSQL.
//
// Execute locks the finding row with SELECT ... FOR UPDATE so validation and
// mutation act on the same state. All methods join a transaction carried in
// ctx, letting the services commit finding writes together with response
// writes and activity events.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed finding store.
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

const findingColumns = `id, company_id, audit_id, indicator_id, response_id, severity,
	finding_text, status, owner_id, due_date, closure_note, created_by,
	closed_at, created_at, updated_at`

// Create inserts the finding. Joins a context transaction when one is present.
func (s *Postgres) Create(ctx context.Context, f *models.Finding) error {
	q := s.execer(ctx)
	res, err := q.ExecContext(ctx, `
		INSERT INTO findings (`+findingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`,
		f.ID.String(),
		f.CompanyID.String(),
		nullableID(f.AuditID.String(), f.AuditID.IsNil()),
		nullableID(f.IndicatorID.String(), f.IndicatorID.IsNil()),
		nullableID(f.ResponseID.String(), f.ResponseID.IsNil()),
		string(f.Severity),
		f.FindingText,
		string(f.Status),
		nullableUser(f.OwnerID),
		f.DueDate,
		f.ClosureNote,
		f.CreatedBy.String(),
		f.ClosedAt,
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert finding: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finding %s already exists: %w", f.ID, sentinel.ErrConflict)
	}
	return nil
}

// FindByID loads one finding.
func (s *Postgres) FindByID(ctx context.Context, findingID id.FindingID) (*models.Finding, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+findingColumns+` FROM findings WHERE id = $1`, findingID.String())
	return scanFinding(row)
}

// List returns the company's findings, newest first, narrowed by the filter.
func (s *Postgres) List(ctx context.Context, companyID id.CompanyID, filter models.FindingFilter) ([]*models.Finding, error) {
	query := `SELECT ` + findingColumns + ` FROM findings WHERE company_id = $1`
	args := []any{companyID.String()}
	if !filter.AuditID.IsNil() {
		args = append(args, filter.AuditID.String())
		query += fmt.Sprintf(" AND audit_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []*models.Finding
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}
	return findings, nil
}

// Execute locks the finding row, runs validate against the locked state, then
// mutate, and persists the result. Joins a transaction carried in ctx.
func (s *Postgres) Execute(ctx context.Context, findingID id.FindingID, validate func(*models.Finding) error, mutate func(*models.Finding)) (*models.Finding, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeLocked(ctx, tx, findingID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin finding tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	f, err := s.executeLocked(ctx, tx, findingID, validate, mutate)
	if err != nil {
		return f, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit finding tx: %w", err)
	}
	return f, nil
}

func (s *Postgres) executeLocked(ctx context.Context, tx *sql.Tx, findingID id.FindingID, validate func(*models.Finding) error, mutate func(*models.Finding)) (*models.Finding, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+findingColumns+` FROM findings WHERE id = $1 FOR UPDATE`, findingID.String())
	f, err := scanFinding(row)
	if err != nil {
		return nil, err
	}

	if err := validate(f); err != nil {
		return f, err
	}
	mutate(f)

	if _, err := tx.ExecContext(ctx, `
		UPDATE findings
		SET severity = $2, finding_text = $3, status = $4, owner_id = $5,
		    due_date = $6, closure_note = $7, closed_at = $8, updated_at = $9
		WHERE id = $1
	`,
		f.ID.String(),
		string(f.Severity),
		f.FindingText,
		string(f.Status),
		nullableUser(f.OwnerID),
		f.DueDate,
		f.ClosureNote,
		f.ClosedAt,
		f.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("update finding: %w", err)
	}
	return f, nil
}

// AppendActivity adds a log entry. Joins a context transaction when one is
// present so the entry commits with the mutation it describes.
func (s *Postgres) AppendActivity(ctx context.Context, activity *models.FindingActivity) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO finding_activities (id, finding_id, activity_type, actor_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		activity.ID.String(),
		activity.FindingID.String(),
		string(activity.Type),
		nullableID(activity.ActorID.String(), activity.ActorID.IsNil()),
		activity.Detail,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert finding activity: %w", err)
	}
	return nil
}

// ListActivities returns the finding's log in chronological order.
func (s *Postgres) ListActivities(ctx context.Context, findingID id.FindingID) ([]*models.FindingActivity, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, finding_id, activity_type, actor_id, detail, created_at
		FROM finding_activities
		WHERE finding_id = $1
		ORDER BY created_at
	`, findingID.String())
	if err != nil {
		return nil, fmt.Errorf("query finding activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.FindingActivity
	for rows.Next() {
		var (
			entry        models.FindingActivity
			entryIDStr   string
			findingIDStr string
			typeStr      string
			actorStr     sql.NullString
		)
		if err := rows.Scan(&entryIDStr, &findingIDStr, &typeStr, &actorStr, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan finding activity: %w", err)
		}
		entryID, err := id.ParseActivityID(entryIDStr)
		if err != nil {
			return nil, fmt.Errorf("scan finding activity id: %w", err)
		}
		fid, err := id.ParseFindingID(findingIDStr)
		if err != nil {
			return nil, fmt.Errorf("scan finding activity finding id: %w", err)
		}
		entry.ID = entryID
		entry.FindingID = fid
		entry.Type = models.ActivityType(typeStr)
		if actorStr.Valid {
			actorID, err := id.ParseUserID(actorStr.String)
			if err != nil {
				return nil, fmt.Errorf("scan finding activity actor id: %w", err)
			}
			entry.ActorID = actorID
		}
		activities = append(activities, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate finding activities: %w", err)
	}
	return activities, nil
}

// CountOpenBySeverity counts the audit's findings still in status OPEN.
func (s *Postgres) CountOpenBySeverity(ctx context.Context, auditID id.AuditID) (major, minor int, err error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT severity, COUNT(*)
		FROM findings
		WHERE audit_id = $1 AND status = $2
		GROUP BY severity
	`, auditID.String(), string(models.StatusOpen))
	if err != nil {
		return 0, 0, fmt.Errorf("count open findings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return 0, 0, fmt.Errorf("scan open finding count: %w", err)
		}
		switch models.Severity(severity) {
		case models.SeverityMajorNC:
			major = count
		case models.SeverityMinorNC:
			minor = count
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("iterate open finding counts: %w", err)
	}
	return major, minor, nil
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

func scanFinding(row rowScanner) (*models.Finding, error) {
	var (
		f            models.Finding
		findingIDStr string
		companyStr   string
		auditStr     sql.NullString
		indicatorStr sql.NullString
		responseStr  sql.NullString
		severityStr  string
		statusStr    string
		ownerStr     sql.NullString
		createdByStr string
	)
	err := row.Scan(
		&findingIDStr,
		&companyStr,
		&auditStr,
		&indicatorStr,
		&responseStr,
		&severityStr,
		&f.FindingText,
		&statusStr,
		&ownerStr,
		&f.DueDate,
		&f.ClosureNote,
		&createdByStr,
		&f.ClosedAt,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("finding not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan finding: %w", err)
	}

	findingID, err := id.ParseFindingID(findingIDStr)
	if err != nil {
		return nil, fmt.Errorf("scan finding id: %w", err)
	}
	companyID, err := id.ParseCompanyID(companyStr)
	if err != nil {
		return nil, fmt.Errorf("scan finding company id: %w", err)
	}
	createdBy, err := id.ParseUserID(createdByStr)
	if err != nil {
		return nil, fmt.Errorf("scan finding creator id: %w", err)
	}
	f.ID = findingID
	f.CompanyID = companyID
	f.CreatedBy = createdBy
	f.Severity = models.Severity(severityStr)
	f.Status = models.Status(statusStr)

	if auditStr.Valid {
		auditID, err := id.ParseAuditID(auditStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan finding audit id: %w", err)
		}
		f.AuditID = auditID
	}
	if indicatorStr.Valid {
		indicatorID, err := id.ParseIndicatorID(indicatorStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan finding indicator id: %w", err)
		}
		f.IndicatorID = indicatorID
	}
	if responseStr.Valid {
		responseID, err := id.ParseResponseID(responseStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan finding response id: %w", err)
		}
		f.ResponseID = responseID
	}
	if ownerStr.Valid {
		ownerID, err := id.ParseUserID(ownerStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan finding owner id: %w", err)
		}
		f.OwnerID = &ownerID
	}
	return &f, nil
}
