package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
)

// complete submits the order and records the terminal state. If the
// submission fails the session stays at PAYMENT_COMPLETED so the recovery
// poller can replay it; the caller still gets the error.
func (s *CheckoutServiceImpl) complete(
	ctx context.Context,
	checkoutId string,
	userId string,
	draft *domain.OrderDraft,
	refs *domain.PaymentRefs) (*CheckoutResponse, error) {

	ref, err := s.orders.Submit(ctx, draft, refs)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransitionTo(domain.CheckoutStatusPaymentCompleted, domain.CheckoutStatusCompleted) {
		return nil, IllegalTransitionError
	}

	payload := map[string]interface{}{
		"checkout_id":  checkoutId,
		"user_id":      userId,
		"order_id":     ref.OrderID,
		"total_amount": draft.Totals.TotalPrice,
		"currency":     draft.Currency,
		"completed_at": time.Now(),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout payload: %w", err)
	}

	completedStatus := domain.CheckoutStatusCompleted
	if err := s.repo.CompleteCheckoutSession(ctx, &checkoutId, &ref.OrderID, payloadJSON, &completedStatus); err != nil {
		return nil, err
	}

	// The one place cart state gets emptied. The janitor consumer replays
	// this from the completed event if the clear is lost.
	if err := s.carts.ClearCart(ctx, userId); err != nil {
		log.Printf("failed to clear cart for user %s after checkout %s: %v", userId, checkoutId, err)
	}

	return &CheckoutResponse{
		CheckoutID:  checkoutId,
		Status:      domain.CheckoutStatusCompleted,
		OrderID:     ref.OrderID,
		OrderNumber: ref.OrderNumber,
	}, nil
}
