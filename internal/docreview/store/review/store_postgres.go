package review

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

// Postgres persists document reviews and their answer sheets in PostgreSQL.
// Reviews are immutable; the review row and its answers insert together and
// join a transaction carried in ctx.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed review store.
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

const reviewColumns = `id, company_id, evidence_item_id, template_id, dqs_percent,
	critical_failures, decision, justification, needs_manual_handling,
	overrode_signals, reviewed_by, created_at`

// Create inserts the review and its answer rows. Joins a context transaction
// when one is present.
func (s *Postgres) Create(ctx context.Context, r *models.DocumentReview) error {
	q := s.execer(ctx)
	res, err := q.ExecContext(ctx, `
		INSERT INTO document_reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`,
		r.ID.String(),
		r.CompanyID.String(),
		r.EvidenceItemID.String(),
		r.TemplateID.String(),
		r.DQSPercent,
		r.CriticalFailures,
		string(r.Decision),
		r.Justification,
		r.NeedsManualHandling,
		r.OverrodeSignals,
		r.ReviewedBy.String(),
		r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document review: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("document review %s already exists: %w", r.ID, sentinel.ErrConflict)
	}

	for _, a := range r.Answers {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO document_review_answers (review_id, item_id, answer)
			VALUES ($1, $2, $3)
		`, r.ID.String(), a.ItemID.String(), string(a.Answer)); err != nil {
			return fmt.Errorf("insert review answer: %w", err)
		}
	}
	return nil
}

// FindByID loads one review with its answer sheet.
func (s *Postgres) FindByID(ctx context.Context, reviewID id.ReviewID) (*models.DocumentReview, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM document_reviews WHERE id = $1`, reviewID.String())
	r, err := scanReview(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadAnswers(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListByItem returns the evidence item's reviews, newest first, answer sheets
// included.
func (s *Postgres) ListByItem(ctx context.Context, itemID id.EvidenceItemID) ([]*models.DocumentReview, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+reviewColumns+`
		FROM document_reviews
		WHERE evidence_item_id = $1
		ORDER BY created_at DESC
	`, itemID.String())
	if err != nil {
		return nil, fmt.Errorf("query document reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.DocumentReview
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document reviews: %w", err)
	}
	for _, r := range reviews {
		if err := s.loadAnswers(ctx, r); err != nil {
			return nil, err
		}
	}
	return reviews, nil
}

func (s *Postgres) loadAnswers(ctx context.Context, r *models.DocumentReview) error {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT a.item_id, a.answer
		FROM document_review_answers a
		JOIN checklist_items i ON i.id = a.item_id
		WHERE a.review_id = $1
		ORDER BY i.sort_order, i.id
	`, r.ID.String())
	if err != nil {
		return fmt.Errorf("query review answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemStr, answerStr string
		if err := rows.Scan(&itemStr, &answerStr); err != nil {
			return fmt.Errorf("scan review answer: %w", err)
		}
		itemID, err := id.ParseChecklistItemID(itemStr)
		if err != nil {
			return fmt.Errorf("scan review answer item id: %w", err)
		}
		r.Answers = append(r.Answers, models.ItemAnswer{ItemID: itemID, Answer: models.Answer(answerStr)})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate review answers: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*models.DocumentReview, error) {
	var (
		r           models.DocumentReview
		reviewStr   string
		companyStr  string
		itemStr     string
		templateStr string
		decisionStr string
		reviewerStr string
	)
	err := row.Scan(
		&reviewStr,
		&companyStr,
		&itemStr,
		&templateStr,
		&r.DQSPercent,
		&r.CriticalFailures,
		&decisionStr,
		&r.Justification,
		&r.NeedsManualHandling,
		&r.OverrodeSignals,
		&reviewerStr,
		&r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document review not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan document review: %w", err)
	}

	reviewID, err := id.ParseReviewID(reviewStr)
	if err != nil {
		return nil, fmt.Errorf("scan review id: %w", err)
	}
	companyID, err := id.ParseCompanyID(companyStr)
	if err != nil {
		return nil, fmt.Errorf("scan review company id: %w", err)
	}
	itemID, err := id.ParseEvidenceItemID(itemStr)
	if err != nil {
		return nil, fmt.Errorf("scan review item id: %w", err)
	}
	templateID, err := id.ParseTemplateID(templateStr)
	if err != nil {
		return nil, fmt.Errorf("scan review template id: %w", err)
	}
	reviewedBy, err := id.ParseUserID(reviewerStr)
	if err != nil {
		return nil, fmt.Errorf("scan review reviewer id: %w", err)
	}
	r.ID = reviewID
	r.CompanyID = companyID
	r.EvidenceItemID = itemID
	r.TemplateID = templateID
	r.ReviewedBy = reviewedBy
	r.Decision = models.Decision(decisionStr)
	return &r, nil
}
