package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// CartCleaner is the slice of the cart service the janitor needs.
type CartCleaner interface {
	ClearCart(ctx context.Context, userID string) error
}

// CheckoutCompletedEvent mirrors the payload the outbox publisher writes for
// completed checkouts.
type CheckoutCompletedEvent struct {
	CheckoutID  string `json:"checkout_id"`
	UserID      string `json:"user_id"`
	OrderID     string `json:"order_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
}

// Consumer is a janitor for cart state: the checkout flow clears the cart
// synchronously after the order is confirmed, but if the process dies between
// the confirmation and the clear, the completed event replays the clear here.
type Consumer struct {
	carts  CartCleaner
	reader *kafka.Reader
}

func NewConsumer(carts CartCleaner, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-outbox",
		GroupID:  "cart-janitor",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{carts, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	err := c.reader.Close()
	if err != nil {
		log.Printf("error closing kafka reader: %v", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("error reading message: %v", err)
		return
	}

	var event CheckoutCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		log.Printf("error parsing message: %v", err)
		return
	}

	if event.UserID == "" {
		log.Printf("checkout event %q has no user id, skipping", event.CheckoutID)
		return
	}

	// ClearCart tolerates an already-empty cart, so replays are harmless.
	if err := c.carts.ClearCart(ctx, event.UserID); err != nil {
		log.Printf("failed to clear cart for user %s after checkout %s: %v", event.UserID, event.CheckoutID, err)
		return
	}

	log.Printf("cart cleared for user %s after checkout %s", event.UserID, event.CheckoutID)
}
