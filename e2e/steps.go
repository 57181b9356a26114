package e2e

import (
	"github.com/cucumber/godog"

	"siret-api/e2e/steps/common"
	"siret-api/e2e/steps/company"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and status assertions
	common.RegisterSteps(ctx, tc)

	// Registry lifecycle
	company.RegisterSteps(ctx, tc)
}
