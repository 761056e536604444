package domain

// IntentKind discriminates the three shapes the payment backend may answer
// with when asked to create a payment intent.
type IntentKind string

const (
	// IntentActiveSubscription: the subscription is already billable with an
	// existing payment method, no client-side confirmation needed.
	IntentActiveSubscription IntentKind = "active"
	// IntentSetupRequired: a payment method has to be attached first via the
	// gateway's confirm-card-setup, then the subscription activated.
	IntentSetupRequired IntentKind = "setup_required"
	// IntentPaymentRequired: a regular one-time charge to confirm with the
	// gateway's confirm-card-payment.
	IntentPaymentRequired IntentKind = "payment_required"
)

// IntentOutcome is the tagged form of the backend's create-payment-intent
// response, decoded once at the API boundary.
type IntentOutcome struct {
	Kind               IntentKind
	ClientSecret       string
	PaymentIntentID    string
	SetupIntentID      string
	StripeCustomerID   string
	SubscriptionID     string
	SubscriptionStatus string
}
