package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/gateway"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/retry"
)

// ErrPaymentFailed carries the user-facing message for a gateway confirmation
// that ended in any status other than succeeded or processing.
var ErrPaymentFailed = errors.New("Payment was not successful. Please try again.")

// PaymentBackend is the slice of the backend client the orchestrator needs.
type PaymentBackend interface {
	CreatePaymentIntent(ctx context.Context, req backend.CreateIntentRequest) (*domain.IntentOutcome, error)
	ActivateSubscription(ctx context.Context, req backend.ActivateSubscriptionRequest) error
}

// Request describes one payment confirmation: the amount in minor units,
// the customer, whether billing recurs, and the tokenized card.
type Request struct {
	Amount             int64
	Currency           string
	CustomerEmail      string
	CustomerName       string
	IsRecurring        bool
	RecurringFrequency domain.RecurringFrequency
	Card               gateway.CardDetails
}

// Orchestrator drives a single payment through
// creating_intent -> confirming_with_gateway -> confirmed | failed.
// It never retries; webhook-lag retries belong to the order submitter.
type Orchestrator struct {
	backend     PaymentBackend
	gateway     gateway.Gateway
	settleDelay time.Duration
	sleep       retry.SleepFunc
}

func New(b PaymentBackend, g gateway.Gateway) *Orchestrator {
	return &Orchestrator{
		backend:     b,
		gateway:     g,
		settleDelay: 2 * time.Second,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// WithSettleDelay overrides the post-activation wait (tests inject zero).
func (o *Orchestrator) WithSettleDelay(d time.Duration, sleep retry.SleepFunc) *Orchestrator {
	o.settleDelay = d
	if sleep != nil {
		o.sleep = sleep
	}
	return o
}

// Confirm requests intent creation and branches on the backend's answer.
// On success the returned refs identify what was confirmed; on failure no
// partial state is persisted anywhere.
func (o *Orchestrator) Confirm(ctx context.Context, req Request) (*domain.PaymentRefs, error) {
	outcome, err := o.backend.CreatePaymentIntent(ctx, backend.CreateIntentRequest{
		Amount:             req.Amount,
		Currency:           req.Currency,
		CustomerEmail:      req.CustomerEmail,
		CustomerName:       req.CustomerName,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: string(req.RecurringFrequency),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	switch outcome.Kind {
	case domain.IntentActiveSubscription:
		// already billable with an existing payment method, nothing to confirm
		log.Printf("subscription %s already active, skipping gateway confirmation", outcome.SubscriptionID)
		return &domain.PaymentRefs{SubscriptionID: outcome.SubscriptionID}, nil

	case domain.IntentSetupRequired:
		return o.confirmSetup(ctx, outcome, req.Card)

	case domain.IntentPaymentRequired:
		return o.confirmPayment(ctx, outcome, req.Card)

	default:
		return nil, fmt.Errorf("unknown intent outcome kind %q", outcome.Kind)
	}
}

func (o *Orchestrator) confirmSetup(ctx context.Context, outcome *domain.IntentOutcome, card gateway.CardDetails) (*domain.PaymentRefs, error) {
	result, err := o.gateway.ConfirmCardSetup(ctx, outcome.ClientSecret, card)
	if err != nil {
		return nil, fmt.Errorf("payment method setup failed: %w", err)
	}
	if result.Status != gateway.StatusSucceeded {
		return nil, fmt.Errorf("payment method setup failed: gateway status %s", result.Status)
	}

	err = o.backend.ActivateSubscription(ctx, backend.ActivateSubscriptionRequest{
		SubscriptionID:  outcome.SubscriptionID,
		SetupIntentID:   outcome.SetupIntentID,
		PaymentMethodID: result.PaymentMethodID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}

	// give asynchronous webhook processing a moment to catch up before the
	// order is submitted
	if o.settleDelay > 0 {
		if err := o.sleep(ctx, o.settleDelay); err != nil {
			return nil, err
		}
	}

	return &domain.PaymentRefs{
		SubscriptionID:  outcome.SubscriptionID,
		SetupIntentID:   outcome.SetupIntentID,
		PaymentMethodID: result.PaymentMethodID,
	}, nil
}

func (o *Orchestrator) confirmPayment(ctx context.Context, outcome *domain.IntentOutcome, card gateway.CardDetails) (*domain.PaymentRefs, error) {
	result, err := o.gateway.ConfirmCardPayment(ctx, outcome.ClientSecret, card)
	if err != nil {
		return nil, fmt.Errorf("payment confirmation failed: %w", err)
	}

	// processing counts as success: the backend reconciles via webhooks and
	// the submitter retries on "payment not successful"
	if result.Status != gateway.StatusSucceeded && result.Status != gateway.StatusProcessing {
		return nil, ErrPaymentFailed
	}

	paymentIntentID := result.PaymentIntentID
	if paymentIntentID == "" {
		paymentIntentID = outcome.PaymentIntentID
	}
	return &domain.PaymentRefs{PaymentIntentID: paymentIntentID}, nil
}
