package review

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
	Saved(name string) string
}

// RegisterSteps registers the document review and suggested finding steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &reviewSteps{tc: tc}

	ctx.Step(`^I load the "([^"]*)" checklist$`, steps.loadChecklist)
	ctx.Step(`^I review the uploaded item failing the critical checks with decision "([^"]*)" because "([^"]*)"$`, steps.reviewFailingCritical)
	ctx.Step(`^I review the uploaded item passing every check with decision "([^"]*)"$`, steps.reviewAllPassing)
	ctx.Step(`^the review scores (\d+)% with (\d+) critical failures?$`, steps.assertScore)
	ctx.Step(`^a "([^"]*)" suggestion with severity "([^"]*)" is pending$`, steps.assertSuggestion)
	ctx.Step(`^I confirm the suggestion as a "([^"]*)" finding described as "([^"]*)"$`, steps.confirmSuggestion)
	ctx.Step(`^I dismiss the suggestion because "([^"]*)"$`, steps.dismissSuggestion)
	ctx.Step(`^the suggestion is linked to the new finding$`, steps.assertLinked)
	ctx.Step(`^the finding is listed as "([^"]*)"$`, steps.assertFindingStatus)
}

type checklistItem struct {
	id       string
	critical bool
}

type reviewSteps struct {
	tc    TestContext
	items []checklistItem
}

// loadChecklist fetches the active template for the document type and
// remembers its item ids so the review steps can build answer sheets.
func (s *reviewSteps) loadChecklist(documentType string) error {
	if err := s.tc.GET("/api/v1/checklist-templates?document_type=" + documentType); err != nil {
		return err
	}
	if err := s.tc.SaveField("templates.0.id", "template_id"); err != nil {
		return err
	}

	raw, err := s.tc.Field("templates.0.items")
	if err != nil {
		return err
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return fmt.Errorf("template for %q has no items", documentType)
	}

	s.items = s.items[:0]
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			return fmt.Errorf("unexpected checklist item shape: %v", entry)
		}
		id, _ := item["id"].(string)
		critical, _ := item["is_critical"].(bool)
		s.items = append(s.items, checklistItem{id: id, critical: critical})
	}
	return nil
}

func (s *reviewSteps) submitReview(failCritical bool, decision, justification string) error {
	if len(s.items) == 0 {
		return fmt.Errorf("no checklist loaded; add a load step first")
	}
	var answers []map[string]any
	for _, item := range s.items {
		answer := "YES"
		if failCritical && item.critical {
			answer = "NO"
		}
		answers = append(answers, map[string]any{"item_id": item.id, "answer": answer})
	}
	if err := s.tc.POST("/api/v1/evidence-items/${item_id}/reviews", map[string]any{
		"template_id":   "${template_id}",
		"answers":       answers,
		"decision":      decision,
		"justification": justification,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("submit review returned status %d", s.tc.Status())
	}
	return nil
}

func (s *reviewSteps) reviewFailingCritical(decision, justification string) error {
	if err := s.submitReview(true, decision, justification); err != nil {
		return err
	}
	return s.tc.SaveField("suggestion.id", "suggestion_id")
}

func (s *reviewSteps) reviewAllPassing(decision string) error {
	return s.submitReview(false, decision, "")
}

func (s *reviewSteps) assertScore(percent, criticalFailures int) error {
	dqs, err := s.tc.Field("review.dqs_percent")
	if err != nil {
		return err
	}
	if n, ok := dqs.(float64); !ok || int(n) != percent {
		return fmt.Errorf("expected dqs %d%%, got %v", percent, dqs)
	}
	failures, err := s.tc.Field("review.critical_failures")
	if err != nil {
		return err
	}
	if n, ok := failures.(float64); !ok || int(n) != criticalFailures {
		return fmt.Errorf("expected %d critical failures, got %v", criticalFailures, failures)
	}
	return nil
}

func (s *reviewSteps) assertSuggestion(suggestedType, severity string) error {
	value, err := s.tc.Field("suggestion.suggested_type")
	if err != nil {
		return err
	}
	if value != suggestedType {
		return fmt.Errorf("expected suggested type %q, got %v", suggestedType, value)
	}
	value, err = s.tc.Field("suggestion.severity_flag")
	if err != nil {
		return err
	}
	if value != severity {
		return fmt.Errorf("expected severity flag %q, got %v", severity, value)
	}
	value, err = s.tc.Field("suggestion.status")
	if err != nil {
		return err
	}
	if value != "PENDING" {
		return fmt.Errorf("expected a pending suggestion, got %v", value)
	}
	return nil
}

func (s *reviewSteps) confirmSuggestion(findingType, description string) error {
	if err := s.tc.POST("/api/v1/suggested-findings/${suggestion_id}/confirm", map[string]any{
		"finding_type": findingType,
		"description":  description,
	}); err != nil {
		return err
	}
	if s.tc.Status() != 200 {
		return fmt.Errorf("confirm suggestion returned status %d", s.tc.Status())
	}
	return s.tc.SaveField("finding.id", "finding_id")
}

func (s *reviewSteps) dismissSuggestion(reason string) error {
	return s.tc.POST("/api/v1/suggested-findings/${suggestion_id}/dismiss", map[string]any{
		"reason": reason,
	})
}

func (s *reviewSteps) assertLinked() error {
	value, err := s.tc.Field("suggestion.confirmed_finding_id")
	if err != nil {
		return err
	}
	if value != s.tc.Saved("finding_id") {
		return fmt.Errorf("suggestion links %v, expected %s", value, s.tc.Saved("finding_id"))
	}
	return nil
}

func (s *reviewSteps) assertFindingStatus(expected string) error {
	if err := s.tc.GET("/api/v1/findings/${finding_id}"); err != nil {
		return err
	}
	value, err := s.tc.Field("status")
	if err != nil {
		return err
	}
	if value != expected {
		return fmt.Errorf("expected finding status %q, got %v", expected, value)
	}
	return nil
}
