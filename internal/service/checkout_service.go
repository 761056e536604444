package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/gateway"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/orchestrator"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/pricing"
	r "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/repository"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/validation"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	IllegalTransitionError = errors.New("illegal checkout status transition")
)

type CheckoutRequest struct {
	UserID             string
	IdempotencyKey     string
	CustomerEmail      string
	CustomerName       string
	ShippingAddress    *domain.Address
	BillingAddress     *domain.Address
	DeliveryMethod     domain.DeliveryMethod
	PaymentMethod      domain.PaymentMethod
	OrderFrequency     domain.OrderFrequency
	RecurringFrequency domain.RecurringFrequency
	Card               gateway.CardDetails
	PromotionSummary   *pricing.Summary
	Currency           string
}

type CheckoutResponse struct {
	CheckoutID  string
	Status      domain.CheckoutStatus
	OrderID     string
	OrderNumber string
}

// CartProvider is the slice of the cart service the checkout flow needs.
type CartProvider interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type PaymentOrchestrator interface {
	Confirm(ctx context.Context, req orchestrator.Request) (*domain.PaymentRefs, error)
}

type OrderSubmitter interface {
	Submit(ctx context.Context, draft *domain.OrderDraft, refs *domain.PaymentRefs) (*backend.OrderRef, error)
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResponse, error)
}

type CheckoutServiceImpl struct {
	repo      r.RepoInterface
	carts     CartProvider
	validator *validation.Validator
	payments  PaymentOrchestrator
	orders    OrderSubmitter
}

func NewCheckoutService(
	repo r.RepoInterface,
	carts CartProvider,
	validator *validation.Validator,
	payments PaymentOrchestrator,
	orders OrderSubmitter) *CheckoutServiceImpl {

	return &CheckoutServiceImpl{
		repo:      repo,
		carts:     carts,
		validator: validator,
		payments:  payments,
		orders:    orders,
	}
}

func (s *CheckoutServiceImpl) InitiateCheckout(
	ctx context.Context,
	request *CheckoutRequest) (*CheckoutResponse, error) {

	// check session by idempotency key from repository
	existingSessionId, status, err := s.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
	if err != nil && !errors.Is(err, r.ErrIdempotencyKeyNotFound) {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}

	if existingSessionId != nil {
		// This checkout already exists!
		// Return the cached result (could be COMPLETED, FAILED, or in flight)
		log.Printf("Duplicate request detected idempotency_key = %v with checkout_id = %v and status = %v", request.IdempotencyKey, *existingSessionId, status)
		return s.cachedResponse(ctx, existingSessionId, status)
	}

	cart, err := s.carts.GetCart(ctx, request.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	draft := buildDraft(request, cart)
	if err := s.validator.ValidateDraft(draft); err != nil {
		return nil, err
	}

	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order draft: %w", err)
	}

	session := &r.CheckoutSession{
		ID:             uuid.New().String(),
		UserID:         request.UserID,
		IdempotencyKey: request.IdempotencyKey,
		OrderDraft:     draftJSON,
		TotalAmount:    draft.Totals.TotalPrice,
		Currency:       draft.Currency,
	}
	if err := s.repo.CreateCheckoutSession(ctx, session); err != nil {
		if errors.Is(err, r.ErrDuplicateIdempotencyKey) {
			// a concurrent request with the same key created the session
			// between our lookup and the insert; answer like any replay
			existingSessionId, status, lookupErr := s.repo.GetCheckoutSessionByIdempotencyKey(ctx, request.IdempotencyKey)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to load concurrent checkout session: %w", lookupErr)
			}
			log.Printf("Duplicate request detected idempotency_key = %v with checkout_id = %v and status = %v", request.IdempotencyKey, *existingSessionId, status)
			return s.cachedResponse(ctx, existingSessionId, status)
		}
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	refs, err := s.processPayment(ctx, session.ID, domain.CheckoutStatusInitiated, request, draft)
	if err != nil {
		s.fail(ctx, session.ID, err)
		return nil, err
	}

	response, err := s.complete(ctx, session.ID, request.UserID, draft, refs)
	if err != nil {
		return nil, err
	}
	return response, nil
}

func (s *CheckoutServiceImpl) cachedResponse(
	ctx context.Context,
	id *string,
	status *domain.CheckoutStatus) (*CheckoutResponse, error) {

	response := &CheckoutResponse{CheckoutID: *id}
	if status != nil {
		response.Status = *status
	}

	session, err := s.repo.GetCheckoutSession(ctx, id)
	if err != nil {
		// status alone is still a useful answer
		return response, nil
	}
	if session.OrderID != nil {
		response.OrderID = *session.OrderID
	}
	return response, nil
}

func (s *CheckoutServiceImpl) fail(ctx context.Context, checkoutId string, cause error) {
	if err := s.repo.FailCheckoutSession(ctx, &checkoutId, cause.Error()); err != nil {
		log.Printf("failed to mark checkout %s as failed: %v", checkoutId, err)
	}
}

func buildDraft(request *CheckoutRequest, cart *domain.Cart) *domain.OrderDraft {
	currency := request.Currency
	if currency == "" {
		currency = "aed"
	}
	return &domain.OrderDraft{
		UserID:             request.UserID,
		CustomerEmail:      request.CustomerEmail,
		CustomerName:       request.CustomerName,
		Items:              cart.Items,
		ShippingAddress:    request.ShippingAddress,
		BillingAddress:     request.BillingAddress,
		DeliveryMethod:     request.DeliveryMethod,
		PaymentMethod:      request.PaymentMethod,
		OrderFrequency:     request.OrderFrequency,
		RecurringFrequency: request.RecurringFrequency,
		Totals:             pricing.Calculate(cart.Items, request.PromotionSummary),
		Currency:           currency,
		CreatedAt:          time.Now(),
	}
}
