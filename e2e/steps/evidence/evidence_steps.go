package evidence

import (
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	Status() int
	Field(path string) (any, error)
	SaveField(path, name string) error
}

// RegisterSteps registers the evidence request and portal steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &evidenceSteps{tc: tc}

	ctx.Step(`^I request evidence titled "([^"]*)" for the audit with a portal link$`, steps.requestEvidence)
	ctx.Step(`^an external uploader named "([^"]*)" submits "([^"]*)" through the portal$`, steps.portalSubmit)
	ctx.Step(`^the portal shows the request title "([^"]*)"$`, steps.portalShowsTitle)
	ctx.Step(`^I open review on the evidence request$`, steps.openReview)
	ctx.Step(`^I accept the evidence request with note "([^"]*)"$`, steps.acceptRequest)
	ctx.Step(`^the evidence request has (\d+) uploaded items?$`, steps.assertItemCount)
	ctx.Step(`^the evidence request status is "([^"]*)"$`, steps.assertStatus)
}

type evidenceSteps struct {
	tc TestContext
}

func (s *evidenceSteps) requestEvidence(title string) error {
	if err := s.tc.POST("/api/v1/evidence-requests", map[string]any{
		"title":              title,
		"audit_id":           "${audit_id}",
		"issue_portal_token": true,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("create evidence request returned status %d", s.tc.Status())
	}
	if err := s.tc.SaveField("request.id", "request_id"); err != nil {
		return err
	}
	return s.tc.SaveField("portal_token", "portal_token")
}

func (s *evidenceSteps) portalSubmit(name, fileName string) error {
	if err := s.tc.POST("/portal/evidence/${portal_token}/items", map[string]any{
		"uploader_name":  name,
		"uploader_email": "uploader@example.com",
		"file_name":      fileName,
		"file_path":      "uploads/" + fileName,
		"mime_type":      "application/pdf",
		"size_bytes":     10240,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("portal submit returned status %d", s.tc.Status())
	}
	return s.tc.SaveField("id", "item_id")
}

func (s *evidenceSteps) portalShowsTitle(title string) error {
	if err := s.tc.GET("/portal/evidence/${portal_token}"); err != nil {
		return err
	}
	value, err := s.tc.Field("title")
	if err != nil {
		return err
	}
	if value != title {
		return fmt.Errorf("expected portal title %q, got %v", title, value)
	}
	return nil
}

func (s *evidenceSteps) openReview() error {
	return s.tc.POST("/api/v1/evidence-requests/${request_id}/open-review", nil)
}

func (s *evidenceSteps) acceptRequest(note string) error {
	return s.tc.POST("/api/v1/evidence-requests/${request_id}/accept", map[string]any{"note": note})
}

func (s *evidenceSteps) assertItemCount(expected int) error {
	if err := s.tc.GET("/api/v1/evidence-requests/${request_id}"); err != nil {
		return err
	}
	value, err := s.tc.Field("items")
	if err != nil {
		return err
	}
	items, ok := value.([]any)
	if !ok || len(items) != expected {
		return fmt.Errorf("expected %d items, got %v", expected, value)
	}
	return nil
}

func (s *evidenceSteps) assertStatus(expected string) error {
	if err := s.tc.GET("/api/v1/evidence-requests/${request_id}"); err != nil {
		return err
	}
	value, err := s.tc.Field("request.status")
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected request status %q, got %v", expected, value)
	}
	return nil
}
