package mocks

import "errors"

var (
	// ErrMessageNotFound is returned when a message doesn't exist.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInjected is a generic failure tests can hand to a xxxFn override.
	ErrInjected = errors.New("injected failure")
)
