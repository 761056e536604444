package gateway

import "context"

// ConfirmStatus is the status enum the gateway reports for a confirm call.
type ConfirmStatus string

const (
	StatusSucceeded      ConfirmStatus = "succeeded"
	StatusProcessing     ConfirmStatus = "processing"
	StatusRequiresAction ConfirmStatus = "requires_action"
	StatusFailed         ConfirmStatus = "failed"
)

// CardDetails references a tokenized payment method plus the billing details
// attached to the confirmation. Raw card numbers never transit this service.
type CardDetails struct {
	PaymentMethodToken string `json:"payment_method"`
	BillingName        string `json:"billing_name"`
	BillingEmail       string `json:"billing_email"`
}

// SetupResult is the outcome of confirm-card-setup: the attached payment
// method reference is what the backend needs to activate a subscription.
type SetupResult struct {
	Status          ConfirmStatus
	SetupIntentID   string
	PaymentMethodID string
}

// PaymentResult is the outcome of confirm-card-payment.
type PaymentResult struct {
	Status          ConfirmStatus
	PaymentIntentID string
}

// Gateway is the payment gateway SDK surface the orchestrator consumes.
// Calls are opaque third-party operations; errors come back verbatim.
type Gateway interface {
	ConfirmCardSetup(ctx context.Context, clientSecret string, card CardDetails) (*SetupResult, error)
	ConfirmCardPayment(ctx context.Context, clientSecret string, card CardDetails) (*PaymentResult, error)
}
