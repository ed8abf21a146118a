package finding

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"conforma/internal/findings/models"
	id "conforma/pkg/domain"
	"conforma/pkg/platform/sentinel"
)

// InMemory stores findings and their activity logs in memory for tests and
// development.
//
// Error contract: sentinel.ErrNotFound / sentinel.ErrConflict (wrapped) for
// infrastructure facts; validation errors from Execute callbacks pass through
// untouched.
type InMemory struct {
	mu         sync.RWMutex
	findings   map[id.FindingID]*models.Finding
	activities map[id.FindingID][]*models.FindingActivity
}

// NewInMemory constructs an empty in-memory finding store.
func NewInMemory() *InMemory {
	return &InMemory{
		findings:   make(map[id.FindingID]*models.Finding),
		activities: make(map[id.FindingID][]*models.FindingActivity),
	}
}

func cloneFinding(f *models.Finding) *models.Finding {
	c := *f
	if f.OwnerID != nil {
		owner := *f.OwnerID
		c.OwnerID = &owner
	}
	if f.DueDate != nil {
		due := *f.DueDate
		c.DueDate = &due
	}
	if f.ClosedAt != nil {
		closed := *f.ClosedAt
		c.ClosedAt = &closed
	}
	return &c
}

// Create persists a new finding. The id must be unused.
func (s *InMemory) Create(_ context.Context, f *models.Finding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.findings[f.ID]; exists {
		return fmt.Errorf("finding %s already exists: %w", f.ID, sentinel.ErrConflict)
	}
	s.findings[f.ID] = cloneFinding(f)
	return nil
}

// FindByID returns a copy of the finding.
func (s *InMemory) FindByID(_ context.Context, findingID id.FindingID) (*models.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.findings[findingID]
	if !ok {
		return nil, fmt.Errorf("finding not found: %w", sentinel.ErrNotFound)
	}
	return cloneFinding(f), nil
}

// List returns the company's findings, newest first, narrowed by the filter.
func (s *InMemory) List(_ context.Context, companyID id.CompanyID, filter models.FindingFilter) ([]*models.Finding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var findings []*models.Finding
	for _, f := range s.findings {
		if f.CompanyID != companyID {
			continue
		}
		if !filter.AuditID.IsNil() && f.AuditID != filter.AuditID {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		findings = append(findings, cloneFinding(f))
	}
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].CreatedAt.After(findings[j].CreatedAt)
	})
	return findings, nil
}

// Execute runs validate-then-mutate while holding the entry lock. The
// (possibly unchanged) finding is returned even when validation fails.
func (s *InMemory) Execute(_ context.Context, findingID id.FindingID, validate func(*models.Finding) error, mutate func(*models.Finding)) (*models.Finding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.findings[findingID]
	if !ok {
		return nil, fmt.Errorf("finding not found: %w", sentinel.ErrNotFound)
	}
	if err := validate(f); err != nil {
		return cloneFinding(f), err
	}
	mutate(f)
	return cloneFinding(f), nil
}

// AppendActivity adds a log entry. The finding must exist.
func (s *InMemory) AppendActivity(_ context.Context, activity *models.FindingActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findings[activity.FindingID]; !ok {
		return fmt.Errorf("finding not found: %w", sentinel.ErrNotFound)
	}
	entry := *activity
	s.activities[activity.FindingID] = append(s.activities[activity.FindingID], &entry)
	return nil
}

// ListActivities returns the finding's log in chronological order.
func (s *InMemory) ListActivities(_ context.Context, findingID id.FindingID) ([]*models.FindingActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.findings[findingID]; !ok {
		return nil, fmt.Errorf("finding not found: %w", sentinel.ErrNotFound)
	}
	entries := s.activities[findingID]
	out := make([]*models.FindingActivity, len(entries))
	for i, entry := range entries {
		e := *entry
		out[i] = &e
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CountOpenBySeverity counts the audit's findings still in status OPEN.
func (s *InMemory) CountOpenBySeverity(_ context.Context, auditID id.AuditID) (major, minor int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.findings {
		if f.AuditID != auditID || !f.IsOpen() {
			continue
		}
		switch f.Severity {
		case models.SeverityMajorNC:
			major++
		case models.SeverityMinorNC:
			minor++
		}
	}
	return major, minor, nil
}
