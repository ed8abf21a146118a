package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs every feature under features/ against the server named
// by CONFORMA_E2E_URL. Set CONFORMA_E2E=1 to enable; the suite needs a
// running server and is skipped otherwise.
func TestFeatures(t *testing.T) {
	if os.Getenv("CONFORMA_E2E") == "" {
		t.Skip("set CONFORMA_E2E=1 and CONFORMA_E2E_URL to run the e2e suite")
	}

	tc := NewTestContext()
	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return c, nil
			})
			RegisterSteps(ctx, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("e2e suite failed")
	}
}
