// internal/apperrors/errors.go
package apperrors

import "fmt"

// TokenRetrievalError signals that an identity provider refused or failed
// to issue a bearer token.
type TokenRetrievalError struct {
	Source string
	Err    error
}

func (e *TokenRetrievalError) Error() string {
	return fmt.Sprintf("failed to retrieve access token from %s: %v", e.Source, e.Err)
}

func (e *TokenRetrievalError) Unwrap() error { return e.Err }

// RetriesExhaustedError wraps the last failure after a bounded retry loop
// gave up.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }
