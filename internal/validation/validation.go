package validation

import (
	"errors"
	"fmt"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingEmail              = errors.New("customer email is required")
	ErrInvalidEmail              = errors.New("customer email is not a valid email address")
	ErrMissingName               = errors.New("customer name is required")
	ErrNoItems                   = errors.New("order has no items")
	ErrMissingShippingAddress    = errors.New("shipping address is required for delivery orders")
	ErrMissingBillingAddress     = errors.New("billing address is required for card payments")
	ErrMissingRecurringFrequency = errors.New("recurring frequency is required for recurring orders")
	ErrInvalidRecurringFrequency = errors.New("recurring frequency must be weekly, biweekly, monthly or quarterly")
)

// Validator aggregates the pre-submit checks over an OrderDraft. Checks are
// pure gating predicates; the first, most specific violation is returned.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

// ValidateDraft runs every precondition a draft must satisfy before any
// network call is made. Validation failures never reach the backend.
func (v *Validator) ValidateDraft(draft *domain.OrderDraft) error {
	if len(draft.Items) == 0 {
		return ErrNoItems
	}

	if draft.CustomerEmail == "" {
		return ErrMissingEmail
	}
	if err := v.validate.Var(draft.CustomerEmail, "email"); err != nil {
		return ErrInvalidEmail
	}
	if draft.CustomerName == "" {
		return ErrMissingName
	}

	if draft.DeliveryMethod == domain.DeliveryMethodDelivery {
		if err := v.requireAddress(draft.ShippingAddress); err != nil {
			return ErrMissingShippingAddress
		}
	}

	if draft.PaymentMethod == domain.PaymentMethodCard {
		if err := v.requireAddress(draft.BillingAddress); err != nil {
			return ErrMissingBillingAddress
		}
	}

	if draft.IsRecurring() {
		if draft.RecurringFrequency == "" {
			return ErrMissingRecurringFrequency
		}
		if !draft.RecurringFrequency.IsValid() {
			return fmt.Errorf("%w: got %q", ErrInvalidRecurringFrequency, draft.RecurringFrequency)
		}
	}

	return nil
}

func (v *Validator) requireAddress(addr *domain.Address) error {
	if addr == nil {
		return errors.New("address missing")
	}
	return v.validate.Struct(struct {
		FullName    string `validate:"required"`
		AddressLine string `validate:"required"`
		City        string `validate:"required"`
		PostalCode  string `validate:"required"`
		Country     string `validate:"required"`
	}{
		FullName:    addr.FullName,
		AddressLine: addr.AddressLine,
		City:        addr.City,
		PostalCode:  addr.PostalCode,
		Country:     addr.Country,
	})
}
