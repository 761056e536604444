package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/gateway"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/orchestrator"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/pricing"
	r "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/repository"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/validation"
)

func testCart() *domain.Cart {
	return &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			{ProductID: 1, ProductName: "Olive Oil 1L", Price: 2500, Quantity: 2},
			{ProductID: 2, ProductName: "Dates 500g", Price: 1500, Quantity: 1, FreeQuantity: 1},
		},
	}
}

func testRequest() *CheckoutRequest {
	return &CheckoutRequest{
		UserID:         "user-1",
		IdempotencyKey: "key-1",
		CustomerEmail:  "jane@example.com",
		CustomerName:   "Jane Doe",
		DeliveryMethod: domain.DeliveryMethodPickup,
		PaymentMethod:  domain.PaymentMethodCard,
		OrderFrequency: domain.OrderFrequencyOneTime,
		BillingAddress: &domain.Address{
			FullName:    "Jane Doe",
			AddressLine: "1 Marina Walk",
			City:        "Dubai",
			PostalCode:  "00000",
			Country:     "AE",
		},
		Card: gateway.CardDetails{PaymentMethodToken: "pm_tok"},
	}
}

func errIdemNotFound() error {
	return r.ErrIdempotencyKeyNotFound
}

func TestInitiateCheckout_DuplicateIdempotencyKey(t *testing.T) {
	existingID := "checkout-existing"
	completed := domain.CheckoutStatusCompleted
	orderID := "order-5"
	repo := &MockRepository{
		GetKey:    &existingID,
		GetStatus: &completed,
		Session: &r.CheckoutSession{
			ID:      existingID,
			Status:  completed,
			OrderID: &orderID,
		},
	}
	carts := &MockCartProvider{}
	payments := &MockOrchestrator{}
	orders := &MockSubmitter{}
	s := newTestCheckoutService(repo, carts, payments, orders)

	resp, err := s.InitiateCheckout(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, existingID, resp.CheckoutID)
	assert.Equal(t, domain.CheckoutStatusCompleted, resp.Status)
	assert.Equal(t, "order-5", resp.OrderID)

	// nothing downstream runs on a replay
	assert.Nil(t, repo.CreatedSession)
	assert.Equal(t, 0, payments.CallCount)
	assert.Equal(t, 0, orders.CallCount)
}

func TestInitiateCheckout_LostInsertRaceRepliesLikeReplay(t *testing.T) {
	// both requests miss the idempotency lookup; the loser's insert hits the
	// unique key and must answer with the winner's session, not a 500
	winnerID := "checkout-winner"
	pending := domain.CheckoutStatusPaymentPending
	repo := &MockRepository{
		GetErr:               errIdemNotFound(),
		CreateErr:            r.ErrDuplicateIdempotencyKey,
		GetKeyAfterCreate:    &winnerID,
		GetStatusAfterCreate: &pending,
	}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{}
	orders := &MockSubmitter{}
	s := newTestCheckoutService(repo, carts, payments, orders)

	resp, err := s.InitiateCheckout(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, winnerID, resp.CheckoutID)
	assert.Equal(t, domain.CheckoutStatusPaymentPending, resp.Status)

	// the loser must not run its own payment or submission
	assert.Equal(t, 0, payments.CallCount)
	assert.Equal(t, 0, orders.CallCount)
	assert.Empty(t, carts.ClearedUsers)
}

func TestInitiateCheckout_CardOneTime(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{Refs: &domain.PaymentRefs{PaymentIntentID: "pi_1"}}
	orders := &MockSubmitter{Ref: &backend.OrderRef{OrderID: "order-1", OrderNumber: "PQF-0001", Status: "confirmed"}}
	s := newTestCheckoutService(repo, carts, payments, orders)

	resp, err := s.InitiateCheckout(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.CheckoutStatusCompleted, resp.Status)
	assert.Equal(t, "order-1", resp.OrderID)
	assert.Equal(t, "PQF-0001", resp.OrderNumber)

	// paid units only: 2*2500, the second item is fully promotion-granted
	require.NotNil(t, repo.CreatedSession)
	assert.EqualValues(t, 5000, repo.CreatedSession.TotalAmount)

	assert.Equal(t, []domain.CheckoutStatus{domain.CheckoutStatusPaymentPending}, repo.StatusUpdates)
	require.NotNil(t, repo.PaymentStatus)
	assert.Equal(t, domain.CheckoutStatusPaymentCompleted, *repo.PaymentStatus)
	assert.Equal(t, "pi_1", repo.PaymentRefs.PaymentIntentID)

	assert.Equal(t, 1, payments.CallCount)
	assert.EqualValues(t, 5000, payments.GotRequest.Amount)

	require.NotNil(t, repo.CompletedOrder)
	assert.Equal(t, "order-1", *repo.CompletedOrder)
	assert.Equal(t, []string{"user-1"}, carts.ClearedUsers)
}

func TestInitiateCheckout_CashSkipsOrchestrator(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{}
	orders := &MockSubmitter{Ref: &backend.OrderRef{OrderID: "order-2", Status: "confirmed"}}
	s := newTestCheckoutService(repo, carts, payments, orders)

	req := testRequest()
	req.PaymentMethod = domain.PaymentMethodCash
	req.BillingAddress = nil

	resp, err := s.InitiateCheckout(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0, payments.CallCount)
	assert.Equal(t, 1, orders.CallCount)
	assert.Equal(t, domain.CheckoutStatusCompleted, resp.Status)
	require.NotNil(t, orders.GotRefs)
	assert.Empty(t, orders.GotRefs.PaymentIntentID)
}

func TestInitiateCheckout_EmptyCart(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: &domain.Cart{UserID: "user-1"}}
	s := newTestCheckoutService(repo, carts, &MockOrchestrator{}, &MockSubmitter{})

	_, err := s.InitiateCheckout(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Nil(t, repo.CreatedSession)
}

func TestInitiateCheckout_ValidationStopsBeforeSession(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{}
	s := newTestCheckoutService(repo, carts, payments, &MockSubmitter{})

	req := testRequest()
	req.CustomerEmail = ""

	_, err := s.InitiateCheckout(context.Background(), req)
	assert.ErrorIs(t, err, validation.ErrMissingEmail)
	assert.Nil(t, repo.CreatedSession)
	assert.Equal(t, 0, payments.CallCount)
}

func TestInitiateCheckout_PaymentFailureFailsSession(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{Err: orchestrator.ErrPaymentFailed}
	orders := &MockSubmitter{}
	s := newTestCheckoutService(repo, carts, payments, orders)

	_, err := s.InitiateCheckout(context.Background(), testRequest())
	assert.ErrorIs(t, err, orchestrator.ErrPaymentFailed)

	assert.NotEmpty(t, repo.FailedReason)
	assert.Equal(t, 0, orders.CallCount)
	assert.Empty(t, carts.ClearedUsers)
	assert.Nil(t, repo.CompletedID)
}

func TestInitiateCheckout_SubmitFailureLeavesSessionRecoverable(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{Refs: &domain.PaymentRefs{PaymentIntentID: "pi_1"}}
	orders := &MockSubmitter{Err: errors.New("order submission failed: payment not successful")}
	s := newTestCheckoutService(repo, carts, payments, orders)

	_, err := s.InitiateCheckout(context.Background(), testRequest())
	require.Error(t, err)

	// the payment went through, so the session stays at PAYMENT_COMPLETED
	// for the recovery poller instead of being failed
	assert.Empty(t, repo.FailedReason)
	require.NotNil(t, repo.PaymentStatus)
	assert.Equal(t, domain.CheckoutStatusPaymentCompleted, *repo.PaymentStatus)
	assert.Nil(t, repo.CompletedID)
	assert.Empty(t, carts.ClearedUsers)
}

func TestInitiateCheckout_PromotionSummaryDrivesTotal(t *testing.T) {
	repo := &MockRepository{GetErr: errIdemNotFound()}
	carts := &MockCartProvider{Cart: testCart()}
	payments := &MockOrchestrator{Refs: &domain.PaymentRefs{PaymentIntentID: "pi_1"}}
	orders := &MockSubmitter{Ref: &backend.OrderRef{OrderID: "order-3", Status: "confirmed"}}
	s := newTestCheckoutService(repo, carts, payments, orders)

	req := testRequest()
	req.PromotionSummary = &pricing.Summary{OriginalTotal: 5000, TotalDiscount: 1000, HasTotals: true}

	_, err := s.InitiateCheckout(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 4000, repo.CreatedSession.TotalAmount)
	assert.EqualValues(t, 4000, payments.GotRequest.Amount)
}
