package models

import "time"

// CheckoutItem is one cart line submitted for checkout. Price is the
// caller-supplied unit price; the checkout path does not re-price against
// the catalog (pricing is the catalog service's responsibility upstream).
type CheckoutItem struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Price     int    `json:"price"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
}

// CheckoutRequest is the payload accepted by the checkout endpoint. The
// shipping address and payment details are opaque to this service.
type CheckoutRequest struct {
	UserID          string                 `json:"user_id"`
	Items           []CheckoutItem         `json:"items" binding:"required,dive"`
	ShippingAddress map[string]interface{} `json:"shipping_address" binding:"required"`
	PaymentMethod   string                 `json:"payment_method" binding:"required"`
	PaymentDetails  map[string]interface{} `json:"payment_details,omitempty"`
}

// FormattedOrder is the client-facing view of an order returned after a
// successful checkout. Payment details are never echoed back.
type FormattedOrder struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	UserID          string                 `json:"user_id"`
	Items           []OrderItem            `json:"items"`
	Subtotal        int                    `json:"subtotal"`
	Taxes           int                    `json:"taxes"`
	Shipping        int                    `json:"shipping"`
	Total           int                    `json:"total"`
	Currency        string                 `json:"currency"`
	Status          OrderStatus            `json:"status"`
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
	CreatedAt       time.Time              `json:"created_at"`
}

// CheckoutResult is the success payload of ProcessCheckout.
type CheckoutResult struct {
	Success      bool           `json:"success"`
	Order        FormattedOrder `json:"order"`
	StockUpdates []StockUpdate  `json:"stock_updates"`
	Message      string         `json:"message,omitempty"`
}

// ItemAvailability reports the live availability of one requested item.
// A subsequent reservation may still fail: stock is live.
type ItemAvailability struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name,omitempty"`
	Requested    int    `json:"requested,omitempty"`
	Available    bool   `json:"available"`
	CurrentStock int    `json:"current_stock,omitempty"`
	CurrentPrice int    `json:"current_price,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// AvailabilityResult is the read-only, non-reserving bulk availability check
// used for pre-checkout validation.
type AvailabilityResult struct {
	AllAvailable bool               `json:"all_available"`
	Items        []ItemAvailability `json:"items"`
}

// OrderCreatedEvent is published after a checkout transaction commits.
type OrderCreatedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Total       int       `json:"total"`
	Currency    string    `json:"currency"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}
