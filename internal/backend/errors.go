package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrPaymentNotSuccessful is the backend's business error for an order
	// whose payment the gateway has not settled yet. It is the only error
	// the order submitter's retry policy accepts.
	ErrPaymentNotSuccessful = errors.New("payment not successful")

	// ErrSessionExpired is returned for 401 responses carrying a
	// token-specific error code; stored credentials are cleared first.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx backend response that is not one of the typed
// conditions above.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d", e.StatusCode)
}
