package common

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(ctx context.Context, path string) error
	POST(ctx context.Context, path string, body any) error
	SetRole(role string)
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers background, request and assertion steps shared by every feature.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the carewatch server is running$`, steps.serverIsRunning)
	ctx.Step(`^I act as "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^I POST to "([^"]*)" with:$`, steps.postWith)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
	ctx.Step(`^the response field "([^"]*)" should be present$`, steps.fieldShouldBePresent)
	ctx.Step(`^the response field "([^"]*)" should be absent$`, steps.fieldShouldBeAbsent)
	ctx.Step(`^the response list "([^"]*)" should have (\d+) items?$`, steps.listShouldHaveItems)
	ctx.Step(`^the response header "([^"]*)" should be present$`, steps.headerShouldBePresent)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) serverIsRunning(ctx context.Context) error {
	if err := s.tc.GET(ctx, "/healthz"); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusOK {
		return fmt.Errorf("server not healthy: %s", s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) actAs(role string) error {
	s.tc.SetRole(role)
	return nil
}

func (s *commonSteps) get(ctx context.Context, path string) error {
	return s.tc.GET(ctx, path)
}

func (s *commonSteps) postWith(ctx context.Context, path string, body *godog.DocString) error {
	return s.tc.POST(ctx, path, body.Content)
}

func (s *commonSteps) statusShouldBe(expected int) error {
	if got := s.tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(field, expected string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBePresent(field string) error {
	_, err := s.tc.GetResponseField(field)
	return err
}

func (s *commonSteps) fieldShouldBeAbsent(field string) error {
	if _, err := s.tc.GetResponseField(field); err == nil {
		return fmt.Errorf("expected %s to be absent", field)
	}
	return nil
}

func (s *commonSteps) listShouldHaveItems(field string, n int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%s is not a list", field)
	}
	if len(list) != n {
		return fmt.Errorf("expected %d items in %s, got %d", n, field, len(list))
	}
	return nil
}

func (s *commonSteps) headerShouldBePresent(name string) error {
	if s.tc.GetLastResponseHeader(name) == "" {
		return fmt.Errorf("expected header %s", name)
	}
	return nil
}
