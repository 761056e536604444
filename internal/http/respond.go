package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/cart"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/orchestrator"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/service"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/validation"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

var validationErrors = []error{
	validation.ErrMissingEmail,
	validation.ErrInvalidEmail,
	validation.ErrMissingName,
	validation.ErrNoItems,
	validation.ErrMissingShippingAddress,
	validation.ErrMissingBillingAddress,
	validation.ErrMissingRecurringFrequency,
	validation.ErrInvalidRecurringFrequency,
}

// handleServiceError converts domain errors to HTTP status codes. Payment
// failure messages pass through verbatim so the client can show them as-is.
func handleServiceError(w http.ResponseWriter, err error) {
	for _, verr := range validationErrors {
		if errors.Is(err, verr) {
			respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, orchestrator.ErrPaymentFailed):
		respondError(w, http.StatusPaymentRequired, "payment_failed", orchestrator.ErrPaymentFailed.Error())
	case errors.Is(err, backend.ErrPaymentNotSuccessful):
		respondError(w, http.StatusPaymentRequired, "payment_failed", orchestrator.ErrPaymentFailed.Error())
	case errors.Is(err, backend.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, "session_expired", "session expired, please sign in again")
	case errors.Is(err, cart.ErrCartNotFound), errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			respondError(w, apiErr.StatusCode, apiErr.Code, apiErr.Message)
			return
		}
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
