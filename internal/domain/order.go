package domain

import "time"

type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodPickup   DeliveryMethod = "pickup"
)

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

type OrderFrequency string

const (
	OrderFrequencyOneTime   OrderFrequency = "one_time"
	OrderFrequencyRecurring OrderFrequency = "recurring"
)

type RecurringFrequency string

const (
	RecurringWeekly    RecurringFrequency = "weekly"
	RecurringBiweekly  RecurringFrequency = "biweekly"
	RecurringMonthly   RecurringFrequency = "monthly"
	RecurringQuarterly RecurringFrequency = "quarterly"
)

func (f RecurringFrequency) IsValid() bool {
	switch f {
	case RecurringWeekly, RecurringBiweekly, RecurringMonthly, RecurringQuarterly:
		return true
	}
	return false
}

type Address struct {
	FullName    string `bson:"full_name" json:"full_name"`
	AddressLine string `bson:"address_line" json:"address_line"`
	City        string `bson:"city" json:"city"`
	PostalCode  string `bson:"postal_code" json:"postal_code"`
	Country     string `bson:"country" json:"country"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Totals amounts are in minor currency units.
// Invariant: TotalPrice = max(0, OriginalTotal - TotalDiscount).
type Totals struct {
	ItemsPrice    int64 `json:"items_price"`
	OriginalTotal int64 `json:"original_total"`
	TotalDiscount int64 `json:"total_discount"`
	TotalPrice    int64 `json:"total_price"`
}

// OrderDraft is built once from the checkout request plus the cart snapshot
// and never mutated after submission starts.
type OrderDraft struct {
	UserID             string             `json:"user_id"`
	CustomerEmail      string             `json:"customer_email"`
	CustomerName       string             `json:"customer_name"`
	Items              []CartItem         `json:"items"`
	ShippingAddress    *Address           `json:"shipping_address,omitempty"`
	BillingAddress     *Address           `json:"billing_address,omitempty"`
	DeliveryMethod     DeliveryMethod     `json:"delivery_method"`
	PaymentMethod      PaymentMethod      `json:"payment_method"`
	OrderFrequency     OrderFrequency     `json:"order_frequency"`
	RecurringFrequency RecurringFrequency `json:"recurring_frequency,omitempty"`
	Totals             Totals             `json:"totals"`
	Currency           string             `json:"currency"`
	CreatedAt          time.Time          `json:"created_at"`
}

func (d *OrderDraft) IsRecurring() bool {
	return d.OrderFrequency == OrderFrequencyRecurring
}

// PaymentRefs carries the gateway/backend identifiers produced by the payment
// orchestration, attached to the order on submission.
type PaymentRefs struct {
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	SetupIntentID   string `json:"setup_intent_id,omitempty"`
	SubscriptionID  string `json:"subscription_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
}
