package audit

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	Status() int
	Field(path string) (any, error)
	SaveField(path, name string) error
}

// RegisterSteps registers the audit lifecycle steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &auditSteps{tc: tc}

	ctx.Step(`^I create an (INTERNAL|EXTERNAL) audit titled "([^"]*)"$`, steps.createAudit)
	ctx.Step(`^I scope the audit to domains "([^"]*)"$`, steps.scopeAudit)
	ctx.Step(`^I start the audit$`, steps.startAudit)
	ctx.Step(`^I submit the audit for review$`, steps.submitForReview)
	ctx.Step(`^I approve the audit$`, steps.approveAudit)
	ctx.Step(`^I close the audit with reason "([^"]*)"$`, steps.closeAudit)
	ctx.Step(`^I reopen the audit with reason "([^"]*)"$`, steps.reopenAudit)
	ctx.Step(`^the audit status is "([^"]*)"$`, steps.assertStatus)
}

type auditSteps struct {
	tc TestContext
}

func (s *auditSteps) createAudit(auditType, title string) error {
	if err := s.tc.POST("/api/v1/audits", map[string]any{
		"title": title,
		"type":  auditType,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("create audit returned status %d", s.tc.Status())
	}
	return s.tc.SaveField("id", "audit_id")
}

func (s *auditSteps) scopeAudit(domainList string) error {
	var items []map[string]any
	for i, code := range strings.Split(domainList, ",") {
		code = strings.TrimSpace(code)
		items = append(items, map[string]any{
			"line_item_id": fmt.Sprintf("LI-%d", i+1),
			"label":        code,
			"domain_code":  code,
		})
	}
	return s.tc.PUT("/api/v1/audits/${audit_id}/scope", map[string]any{"items": items})
}

func (s *auditSteps) startAudit() error {
	return s.tc.POST("/api/v1/audits/${audit_id}/start", nil)
}

func (s *auditSteps) submitForReview() error {
	return s.tc.POST("/api/v1/audits/${audit_id}/submit-review", nil)
}

func (s *auditSteps) approveAudit() error {
	return s.tc.POST("/api/v1/audits/${audit_id}/approve", nil)
}

func (s *auditSteps) closeAudit(reason string) error {
	return s.tc.POST("/api/v1/audits/${audit_id}/close", map[string]any{"reason": reason})
}

func (s *auditSteps) reopenAudit(reason string) error {
	return s.tc.POST("/api/v1/audits/${audit_id}/reopen", map[string]any{"reason": reason})
}

func (s *auditSteps) assertStatus(expected string) error {
	if err := s.tc.GET("/api/v1/audits/${audit_id}"); err != nil {
		return err
	}
	value, err := s.tc.Field("status")
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected audit status %q, got %v", expected, value)
	}
	return nil
}
