package ratelimit

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers rate limiting step definitions. The server must run
// with RATELIMIT_WRITES small enough for the scenario to exhaust it.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I submit (\d+) malformed donations$`, steps.submitMalformedDonations)
	ctx.Step(`^at least one submission should return (\d+)$`, steps.someSubmissionShouldReturn)
}

type ratelimitSteps struct {
	tc       TestContext
	statuses []int
}

// submitMalformedDonations posts donations referencing unknown parties, so
// each one is rejected without touching the audit log but still counts
// against the write budget.
func (s *ratelimitSteps) submitMalformedDonations(ctx context.Context, n int) error {
	s.statuses = s.statuses[:0]
	for range n {
		err := s.tc.POST("/v1/donations", map[string]string{
			"donor_id": "00000000-0000-4000-8000-000000000001",
			"ngo_id":   "00000000-0000-4000-8000-000000000002",
			"amount":   "1",
		})
		if err != nil {
			return err
		}
		s.statuses = append(s.statuses, s.tc.GetLastResponseStatus())
	}
	return nil
}

func (s *ratelimitSteps) someSubmissionShouldReturn(ctx context.Context, status int) error {
	for _, got := range s.statuses {
		if got == status {
			return nil
		}
	}
	return fmt.Errorf("no submission returned %d: %v", status, s.statuses)
}
