package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
)

type CreateIntentRequest struct {
	Amount             int64  `json:"amount"`
	Currency           string `json:"currency"`
	CustomerEmail      string `json:"customer_email"`
	CustomerName       string `json:"customer_name"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurringFrequency string `json:"recurring_frequency,omitempty"`
}

// intentResponse mirrors the backend's duck-typed payload: which fields are
// set depends on the subscription state. decode() turns it into the tagged
// IntentOutcome so the rest of the code never branches on field presence.
type intentResponse struct {
	ClientSecret       string `json:"clientSecret,omitempty"`
	PaymentIntentID    string `json:"paymentIntentId,omitempty"`
	SetupIntentID      string `json:"setupIntentId,omitempty"`
	RequiresSetup      bool   `json:"requiresSetup,omitempty"`
	StripeCustomerID   string `json:"stripeCustomerId,omitempty"`
	SubscriptionID     string `json:"subscriptionId,omitempty"`
	SubscriptionStatus string `json:"subscriptionStatus,omitempty"`
}

var ErrMalformedIntent = errors.New("backend returned a payment intent response with no usable shape")

func (r *intentResponse) decode() (*domain.IntentOutcome, error) {
	outcome := &domain.IntentOutcome{
		ClientSecret:       r.ClientSecret,
		PaymentIntentID:    r.PaymentIntentID,
		SetupIntentID:      r.SetupIntentID,
		StripeCustomerID:   r.StripeCustomerID,
		SubscriptionID:     r.SubscriptionID,
		SubscriptionStatus: r.SubscriptionStatus,
	}

	switch {
	case r.SubscriptionStatus == "active" && r.ClientSecret == "":
		outcome.Kind = domain.IntentActiveSubscription
	case r.RequiresSetup && r.ClientSecret != "":
		outcome.Kind = domain.IntentSetupRequired
	case r.ClientSecret != "":
		outcome.Kind = domain.IntentPaymentRequired
	default:
		return nil, ErrMalformedIntent
	}

	return outcome, nil
}

// CreatePaymentIntent asks the backend for a one-time PaymentIntent or a
// subscription SetupIntent and decodes the answer once at this boundary.
func (c *Client) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*domain.IntentOutcome, error) {
	var resp intentResponse
	if err := c.doJSON(ctx, http.MethodPost, "/payment/create-payment-intent", req, &resp); err != nil {
		return nil, err
	}
	return resp.decode()
}

type ActivateSubscriptionRequest struct {
	SubscriptionID  string `json:"subscriptionId,omitempty"`
	SetupIntentID   string `json:"setupIntentId,omitempty"`
	PaymentMethodID string `json:"paymentMethodId"`
}

// ActivateSubscription attaches the confirmed payment method to the pending
// subscription so the backend can start billing it.
func (c *Client) ActivateSubscription(ctx context.Context, req ActivateSubscriptionRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/payment/subscriptions/activate", req, nil)
}
