package e2e

import (
	"github.com/cucumber/godog"

	"conforma/e2e/steps/audit"
	"conforma/e2e/steps/common"
	"conforma/e2e/steps/evidence"
	"conforma/e2e/steps/review"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic request, auth and assertion steps.
	common.RegisterSteps(ctx, tc)

	// Audit lifecycle steps.
	audit.RegisterSteps(ctx, tc)

	// Evidence request and portal steps.
	evidence.RegisterSteps(ctx, tc)

	// Document review and suggestion steps.
	review.RegisterSteps(ctx, tc)
}
