package domain

import "time"

type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"-"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// CartItem prices are in minor currency units. FreeQuantity units were
// granted by a promotion and are never charged.
type CartItem struct {
	ProductID    int64     `bson:"product_id" json:"product_id"`
	ProductName  string    `bson:"product_name" json:"product_name"`
	Price        int64     `bson:"price" json:"price"`
	Quantity     int64     `bson:"quantity" json:"quantity"`
	FreeQuantity int64     `bson:"free_quantity" json:"free_quantity"`
	AddedAt      time.Time `bson:"added_at" json:"added_at"`
}

// IsFullyFree reports whether every unit of the item is promotion-granted.
func (i CartItem) IsFullyFree() bool {
	return i.Quantity > 0 && i.FreeQuantity >= i.Quantity
}

// PaidQuantity is the number of units that are actually charged.
func (i CartItem) PaidQuantity() int64 {
	paid := i.Quantity - i.FreeQuantity
	if paid < 0 {
		return 0
	}
	return paid
}

// Chargeable returns the amount charged for the item in minor units.
func (i CartItem) Chargeable() int64 {
	if i.IsFullyFree() {
		return 0
	}
	return i.Price * i.PaidQuantity()
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
