package item

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

// Postgres persists evidence items in PostgreSQL. Items are immutable, so the
// store only inserts and reads. All methods join a transaction carried in
// ctx.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed evidence item store.
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

const itemColumns = `id, request_id, uploader_user_id, uploader_name, uploader_email,
	file_name, file_path, mime_type, size_bytes, link_url, client_browser,
	client_os, created_at`

// Create inserts the evidence item. Joins a context transaction when one is
// present so the insert commits with the request's status change.
func (s *Postgres) Create(ctx context.Context, i *models.EvidenceItem) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO evidence_items (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`,
		i.ID.String(),
		i.RequestID.String(),
		nullableUser(i.UploaderUserID),
		i.UploaderName,
		i.UploaderEmail,
		i.FileName,
		i.FilePath,
		i.MimeType,
		i.SizeBytes,
		i.LinkURL,
		i.ClientBrowser,
		i.ClientOS,
		i.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evidence item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("evidence item %s already exists: %w", i.ID, sentinel.ErrConflict)
	}
	return nil
}

// FindByID loads one evidence item.
func (s *Postgres) FindByID(ctx context.Context, itemID id.EvidenceItemID) (*models.EvidenceItem, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM evidence_items WHERE id = $1`, itemID.String())
	return scanItem(row)
}

// ListByRequest returns the request's items in upload order.
func (s *Postgres) ListByRequest(ctx context.Context, requestID id.EvidenceRequestID) ([]*models.EvidenceItem, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+itemColumns+` FROM evidence_items WHERE request_id = $1 ORDER BY created_at`,
		requestID.String())
	if err != nil {
		return nil, fmt.Errorf("query evidence items: %w", err)
	}
	defer rows.Close()

	var items []*models.EvidenceItem
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence items: %w", err)
	}
	return items, nil
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

func scanItem(row rowScanner) (*models.EvidenceItem, error) {
	var (
		i           models.EvidenceItem
		itemIDStr   string
		requestStr  string
		uploaderStr sql.NullString
	)
	err := row.Scan(
		&itemIDStr,
		&requestStr,
		&uploaderStr,
		&i.UploaderName,
		&i.UploaderEmail,
		&i.FileName,
		&i.FilePath,
		&i.MimeType,
		&i.SizeBytes,
		&i.LinkURL,
		&i.ClientBrowser,
		&i.ClientOS,
		&i.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("evidence item not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan evidence item: %w", err)
	}

	itemID, err := id.ParseEvidenceItemID(itemIDStr)
	if err != nil {
		return nil, fmt.Errorf("scan evidence item id: %w", err)
	}
	requestID, err := id.ParseEvidenceRequestID(requestStr)
	if err != nil {
		return nil, fmt.Errorf("scan evidence item request id: %w", err)
	}
	i.ID = itemID
	i.RequestID = requestID
	if uploaderStr.Valid {
		uploaderID, err := id.ParseUserID(uploaderStr.String)
		if err != nil {
			return nil, fmt.Errorf("scan evidence item uploader id: %w", err)
		}
		i.UploaderUserID = &uploaderID
	}
	return &i, nil
}
