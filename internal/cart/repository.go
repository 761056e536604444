package cart

import (
	"context"
	"errors"
	"time"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID int64, quantity int64) error
	RemoveItem(ctx context.Context, userID string, productID int64) error
	DeleteCart(ctx context.Context, userID string) error
	// ListAbandoned returns non-empty carts untouched since the cutoff,
	// surfaced for recovery/reorder flows.
	ListAbandoned(ctx context.Context, cutoff time.Time, limit int64) ([]domain.Cart, error)
}
