package service

import (
	"context"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/orchestrator"
)

func (s *CheckoutServiceImpl) processPayment(
	ctx context.Context,
	checkoutId string,
	status domain.CheckoutStatus,
	request *CheckoutRequest,
	draft *domain.OrderDraft) (*domain.PaymentRefs, error) {

	if !domain.CanTransitionTo(status, domain.CheckoutStatusPaymentPending) {
		return nil, IllegalTransitionError
	}
	pendingStatus := domain.CheckoutStatusPaymentPending
	if err := s.repo.UpdateCheckoutSessionStatus(ctx, &checkoutId, &pendingStatus); err != nil {
		return nil, err
	}

	var refs *domain.PaymentRefs
	if draft.PaymentMethod == domain.PaymentMethodCard {
		var err error
		refs, err = s.payments.Confirm(ctx, orchestrator.Request{
			Amount:             draft.Totals.TotalPrice,
			Currency:           draft.Currency,
			CustomerEmail:      draft.CustomerEmail,
			CustomerName:       draft.CustomerName,
			IsRecurring:        draft.IsRecurring(),
			RecurringFrequency: draft.RecurringFrequency,
			Card:               request.Card,
		})
		if err != nil {
			return nil, err
		}
	} else {
		// cash on delivery settles offline, nothing to confirm
		refs = &domain.PaymentRefs{}
	}

	paidStatus := domain.CheckoutStatusPaymentCompleted
	if dbError := s.repo.SetPayment(ctx, &checkoutId, &paidStatus, refs); dbError != nil {
		return nil, dbError
	}
	return refs, nil
}
