package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/cucumber/godog"
)

// TestFeatures runs the feature files against CAREWATCH_BASE_URL, e.g.
//
//	CAREWATCH_BASE_URL=http://localhost:8080 go test ./...
func TestFeatures(t *testing.T) {
	baseURL := os.Getenv("CAREWATCH_BASE_URL")
	if baseURL == "" {
		t.Skip("CAREWATCH_BASE_URL not set")
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			tc := NewTestContext(baseURL)
			sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
				tc.Reset()
				return ctx, nil
			})
			RegisterSteps(sc, tc)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}
