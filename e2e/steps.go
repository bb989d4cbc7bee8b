package e2e

import (
	"github.com/cucumber/godog"

	"aidledger/e2e/steps/common"
	"aidledger/e2e/steps/ledger"
	"aidledger/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	ledger.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
