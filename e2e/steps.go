package e2e

import (
	"github.com/cucumber/godog"

	"carewatch/e2e/steps/booking"
	"carewatch/e2e/steps/common"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	booking.RegisterSteps(ctx, tc)
}
