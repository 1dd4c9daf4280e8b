package booking

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(ctx context.Context, path string) error
	POST(ctx context.Context, path string, body any) error
	Set(name, value string)
	Get(name string) string
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers visit booking step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &bookingSteps{tc: tc}

	ctx.Step(`^I book the "([^"]*)" slot at "([^"]*)" on "([^"]*)" for "([^"]*)"$`, steps.book)
	ctx.Step(`^I cancel that booking$`, steps.cancel)
	ctx.Step(`^I look up that booking$`, steps.lookUp)
	ctx.Step(`^the slot "([^"]*)" at "([^"]*)" on "([^"]*)" should be (available|unavailable)$`, steps.slotShouldBe)
}

type bookingSteps struct {
	tc TestContext
}

func (s *bookingSteps) book(ctx context.Context, slot, institution, date, visitor string) error {
	err := s.tc.POST(ctx, "/institutions/"+institution+"/bookings", map[string]string{
		"visit_date":   date,
		"visitor_name": visitor,
		"time_slot":    slot,
	})
	if err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusCreated {
		return nil
	}
	id, err := s.tc.GetResponseField("id")
	if err != nil {
		return err
	}
	s.tc.Set("booking_id", fmt.Sprint(id))
	return nil
}

func (s *bookingSteps) cancel(ctx context.Context) error {
	id := s.tc.Get("booking_id")
	if id == "" {
		return fmt.Errorf("no booking recorded in this scenario")
	}
	return s.tc.POST(ctx, "/bookings/"+id+"/cancel", nil)
}

func (s *bookingSteps) lookUp(ctx context.Context) error {
	id := s.tc.Get("booking_id")
	if id == "" {
		return fmt.Errorf("no booking recorded in this scenario")
	}
	return s.tc.GET(ctx, "/bookings/"+id)
}

func (s *bookingSteps) slotShouldBe(ctx context.Context, slot, institution, date, state string) error {
	if err := s.tc.GET(ctx, "/institutions/"+institution+"/slots?date="+date); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusOK {
		return fmt.Errorf("slot lookup failed: %s", s.tc.GetLastResponseBody())
	}
	raw, err := s.tc.GetResponseField("slots")
	if err != nil {
		return err
	}
	list, _ := raw.([]any)
	available := slices.ContainsFunc(list, func(v any) bool { return fmt.Sprint(v) == slot })
	if available != (state == "available") {
		return fmt.Errorf("expected slot %s to be %s, slots are %v", slot, state, list)
	}
	return nil
}
