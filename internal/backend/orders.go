package backend

import (
	"context"
	"net/http"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
)

type CreateOrderRequest struct {
	Draft       *domain.OrderDraft  `json:"order"`
	PaymentRefs *domain.PaymentRefs `json:"payment,omitempty"`
}

type OrderRef struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
}

// CreateOrder persists the finalized draft remotely. A "payment not
// successful" business error maps to ErrPaymentNotSuccessful, which the
// submitter's retry policy treats as webhook lag.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderRef, error) {
	var ref OrderRef
	if err := c.doJSON(ctx, http.MethodPost, "/payment/create-order", req, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}
