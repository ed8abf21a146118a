package common

import (
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	SignInAs(role string) error
	GET(path string) error
	POST(path string, body any) error
	Status() int
	Field(path string) (any, error)
	SaveField(path, name string) error
	Expand(s string) string
}

// RegisterSteps registers the generic auth, request and assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^I am signed in as an? (COMPANY_ADMIN|AUDITOR|REVIEWER|STAFF_READ_ONLY)$`, steps.signIn)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)" with:$`, steps.postWithBody)
	ctx.Step(`^the response status is (\d+)$`, steps.assertStatus)
	ctx.Step(`^the response field "([^"]*)" is "([^"]*)"$`, steps.assertFieldString)
	ctx.Step(`^the response field "([^"]*)" is (\d+)$`, steps.assertFieldNumber)
	ctx.Step(`^I save the response field "([^"]*)" as "([^"]*)"$`, steps.saveField)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) signIn(role string) error {
	return s.tc.SignInAs(role)
}

func (s *commonSteps) get(path string) error {
	return s.tc.GET(path)
}

func (s *commonSteps) postWithBody(path string, payload *godog.DocString) error {
	var body any
	if err := json.Unmarshal([]byte(s.tc.Expand(payload.Content)), &body); err != nil {
		return fmt.Errorf("step body is not valid JSON: %w", err)
	}
	return s.tc.POST(path, body)
}

func (s *commonSteps) assertStatus(expected int) error {
	if s.tc.Status() != expected {
		return fmt.Errorf("expected status %d, got %d", expected, s.tc.Status())
	}
	return nil
}

func (s *commonSteps) assertFieldString(path, expected string) error {
	value, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	actual := fmt.Sprintf("%v", value)
	if actual != s.tc.Expand(expected) {
		return fmt.Errorf("expected %q = %q, got %q", path, expected, actual)
	}
	return nil
}

func (s *commonSteps) assertFieldNumber(path string, expected int) error {
	value, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	number, ok := value.(float64)
	if !ok || int(number) != expected {
		return fmt.Errorf("expected %q = %d, got %v", path, expected, value)
	}
	return nil
}

func (s *commonSteps) saveField(path, name string) error {
	return s.tc.SaveField(path, name)
}
