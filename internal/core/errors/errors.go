// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Configuration errors.
var (
	// ErrInvalidEmojiConfig indicates the emoji configuration string is malformed.
	ErrInvalidEmojiConfig = errors.New("invalid emoji config")

	// ErrDuplicateEmoji indicates the same emoji was configured more than once.
	ErrDuplicateEmoji = errors.New("duplicate emoji in config")

	// ErrInvalidTimezone indicates the configured timezone cannot be loaded.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Request authentication errors.
var (
	// ErrInvalidSignature indicates the webhook signature did not verify.
	ErrInvalidSignature = errors.New("invalid request signature")

	// ErrHostNotAllowed indicates the request host is not in the allow-list.
	ErrHostNotAllowed = errors.New("host not allowed")
)

// Chat platform errors.
var (
	// ErrMessageNotFound indicates a message could not be found.
	ErrMessageNotFound = errors.New("message not found")
)

// Archive errors.
var (
	// ErrArchiveStatus indicates the archive API answered with a non-success status.
	ErrArchiveStatus = errors.New("archive unexpected status")

	// ErrArchiveAuth indicates the archive rejected our credentials.
	ErrArchiveAuth = errors.New("archive authentication failed")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")
)

// Query errors.
var (
	// ErrFutureDate indicates a query date lies in the future.
	ErrFutureDate = errors.New("date is in the future")

	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")
)

// Storage errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)
