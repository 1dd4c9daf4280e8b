package testutil

import "testing"

// Given opens a scenario: the state the system is in before the request.
func Given(t *testing.T, state string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+state, fn)
}

// When names the request or call made against that state.
func When(t *testing.T, action string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+action, fn)
}

// Then names the observable outcome.
func Then(t *testing.T, outcome string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+outcome, fn)
}
