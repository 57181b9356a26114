package testutil

import "testing"

// Given opens a scenario step as a named subtest. Nest When and Then inside it
// to read a wiring test as setup, action and outcome.
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

// When names the action under test.
func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

// Then names an expected outcome. It runs after earlier siblings, so it may
// assert on state they left behind.
func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
