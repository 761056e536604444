package domain

type CheckoutStatus string

const (
	CheckoutStatusInitiated        CheckoutStatus = "INITIATED"
	CheckoutStatusPaymentPending   CheckoutStatus = "PAYMENT_PENDING"
	CheckoutStatusPaymentCompleted CheckoutStatus = "PAYMENT_COMPLETED"
	CheckoutStatusCompleted        CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed           CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

var allowedTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated:        {CheckoutStatusPaymentPending, CheckoutStatusFailed},
	CheckoutStatusPaymentPending:   {CheckoutStatusPaymentCompleted, CheckoutStatusFailed},
	CheckoutStatusPaymentCompleted: {CheckoutStatusCompleted, CheckoutStatusFailed},
}

// CanTransitionTo reports whether moving from one checkout status to another
// is a legal step of the checkout lifecycle.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
