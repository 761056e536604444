package submitter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/retry"
)

// ErrMissingSubscriptionRef marks an internal invariant violation: a
// recurring card order reached submission without a subscription or
// setup-intent reference. It fails fast, before any network call.
var ErrMissingSubscriptionRef = errors.New("recurring card order has neither subscription id nor setup intent id")

// OrderBackend is the slice of the backend client the submitter needs.
type OrderBackend interface {
	CreateOrder(ctx context.Context, req backend.CreateOrderRequest) (*backend.OrderRef, error)
}

// Submitter persists a finalized draft remotely under a bounded retry
// policy. Retries cover asynchronous gateway webhook lag only: the backend's
// "payment not successful" answer.
type Submitter struct {
	backend OrderBackend
	policy  retry.Policy
}

func New(b OrderBackend) *Submitter {
	return &Submitter{
		backend: b,
		policy: retry.Policy{
			MaxAttempts: 3,
			Backoff: func(attempt int) time.Duration {
				return time.Duration(attempt) * 2 * time.Second
			},
			Retryable: func(err error) bool {
				return errors.Is(err, backend.ErrPaymentNotSuccessful)
			},
		},
	}
}

// WithPolicy replaces the retry policy (tests inject a timer-free sleep).
func (s *Submitter) WithPolicy(p retry.Policy) *Submitter {
	s.policy = p
	return s
}

// Submit sends the identical payload on every attempt. On success the caller
// owns clearing the cart; that is the single place cart state may be emptied.
func (s *Submitter) Submit(ctx context.Context, draft *domain.OrderDraft, refs *domain.PaymentRefs) (*backend.OrderRef, error) {
	if err := checkPaymentRefs(draft, refs); err != nil {
		return nil, err
	}

	req := backend.CreateOrderRequest{Draft: draft, PaymentRefs: refs}

	var ref *backend.OrderRef
	err := s.policy.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			log.Printf("resubmitting order for user %s, attempt %d", draft.UserID, attempt)
		}
		created, submitErr := s.backend.CreateOrder(ctx, req)
		if submitErr != nil {
			return submitErr
		}
		ref = created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("order submission failed: %w", err)
	}

	return ref, nil
}

func checkPaymentRefs(draft *domain.OrderDraft, refs *domain.PaymentRefs) error {
	if !draft.IsRecurring() || draft.PaymentMethod != domain.PaymentMethodCard {
		return nil
	}
	if refs == nil || (refs.SubscriptionID == "" && refs.SetupIntentID == "") {
		return ErrMissingSubscriptionRef
	}
	return nil
}
