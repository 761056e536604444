package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/gateway"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/pricing"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/service"
)

type CheckoutHandler struct {
	checkout service.CheckoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout service.CheckoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type PromotionDTO struct {
	OriginalTotal int64 `json:"original_total"`
	TotalDiscount int64 `json:"total_discount"`
}

type InitiateCheckoutRequestDTO struct {
	IdempotencyKey     string          `json:"idempotency_key"`
	CustomerEmail      string          `json:"customer_email"`
	CustomerName       string          `json:"customer_name"`
	ShippingAddress    *domain.Address `json:"shipping_address,omitempty"`
	BillingAddress     *domain.Address `json:"billing_address,omitempty"`
	DeliveryMethod     string          `json:"delivery_method"`
	PaymentMethod      string          `json:"payment_method"`
	OrderFrequency     string          `json:"order_frequency"`
	RecurringFrequency string          `json:"recurring_frequency,omitempty"`
	PaymentMethodToken string          `json:"payment_method_token,omitempty"`
	Promotion          *PromotionDTO   `json:"promotion,omitempty"`
	Currency           string          `json:"currency,omitempty"`
}

type CheckoutResponseDTO struct {
	CheckoutID  string `json:"checkout_id"`
	Status      string `json:"status"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req InitiateCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.IdempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "missing_idempotency_key",
			"idempotency_key is required")
		return
	}
	if req.PaymentMethod == string(domain.PaymentMethodCard) && req.PaymentMethodToken == "" {
		respondError(w, http.StatusBadRequest, "missing_payment_method_token",
			"payment_method_token is required for card payments")
		return
	}

	checkoutReq := &service.CheckoutRequest{
		UserID:             userID,
		IdempotencyKey:     req.IdempotencyKey,
		CustomerEmail:      req.CustomerEmail,
		CustomerName:       req.CustomerName,
		ShippingAddress:    req.ShippingAddress,
		BillingAddress:     req.BillingAddress,
		DeliveryMethod:     domain.DeliveryMethod(req.DeliveryMethod),
		PaymentMethod:      domain.PaymentMethod(req.PaymentMethod),
		OrderFrequency:     domain.OrderFrequency(req.OrderFrequency),
		RecurringFrequency: domain.RecurringFrequency(req.RecurringFrequency),
		Currency:           req.Currency,
		Card: gateway.CardDetails{
			PaymentMethodToken: req.PaymentMethodToken,
			BillingName:        req.CustomerName,
			BillingEmail:       req.CustomerEmail,
		},
	}
	if req.Promotion != nil {
		checkoutReq.PromotionSummary = &pricing.Summary{
			OriginalTotal: req.Promotion.OriginalTotal,
			TotalDiscount: req.Promotion.TotalDiscount,
			HasTotals:     true,
		}
	}

	resp, err := h.checkout.InitiateCheckout(ctx, checkoutReq)
	if err != nil {
		log.Printf("checkout failed for user %s request %s: %v", userID, getRequestID(r.Context()), err)
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		CheckoutID:  resp.CheckoutID,
		Status:      resp.Status.String(),
		OrderID:     resp.OrderID,
		OrderNumber: resp.OrderNumber,
	})
}
