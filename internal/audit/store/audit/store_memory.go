package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/audit/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores audits in memory for tests and development.
//
// Error contract: methods return sentinel.ErrNotFound / sentinel.ErrConflict
// (wrapped) for infrastructure facts; validation errors from Execute callbacks
// pass through untouched.
type InMemory struct {
	mu     sync.RWMutex
	audits map[id.AuditID]*models.Audit
}

// NewInMemory constructs an empty in-memory audit store.
func NewInMemory() *InMemory {
	return &InMemory{
		audits: make(map[id.AuditID]*models.Audit),
	}
}

func cloneAudit(a *models.Audit) *models.Audit {
	c := *a
	if len(a.Scope) > 0 {
		c.Scope = append([]models.ScopeItem(nil), a.Scope...)
	}
	return &c
}

// Create persists a new audit. The id must be unused.
func (s *InMemory) Create(_ context.Context, audit *models.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.audits[audit.ID]; exists {
		return fmt.Errorf("audit %s already exists: %w", audit.ID, sentinel.ErrConflict)
	}
	s.audits[audit.ID] = cloneAudit(audit)
	return nil
}

// FindByID returns a copy of the audit.
func (s *InMemory) FindByID(_ context.Context, auditID id.AuditID) (*models.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audit, ok := s.audits[auditID]
	if !ok {
		return nil, fmt.Errorf("audit not found: %w", sentinel.ErrNotFound)
	}
	return cloneAudit(audit), nil
}

// ListByCompany returns the company's audits, newest first.
func (s *InMemory) ListByCompany(_ context.Context, companyID id.CompanyID) ([]*models.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var audits []*models.Audit
	for _, audit := range s.audits {
		if audit.CompanyID == companyID {
			audits = append(audits, cloneAudit(audit))
		}
	}
	sort.Slice(audits, func(i, j int) bool {
		return audits[i].CreatedAt.After(audits[j].CreatedAt)
	})
	return audits, nil
}

// Execute runs validate-then-mutate while holding the entry lock, so the
// status checked by validate is the status mutate acts on. The (possibly
// unchanged) audit is returned even when validation fails, letting callers
// inspect the losing state.
func (s *InMemory) Execute(_ context.Context, auditID id.AuditID, validate func(*models.Audit) error, mutate func(*models.Audit)) (*models.Audit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	audit, ok := s.audits[auditID]
	if !ok {
		return nil, fmt.Errorf("audit not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(audit); err != nil {
		return cloneAudit(audit), err
	}
	mutate(audit)
	return cloneAudit(audit), nil
}
