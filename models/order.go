package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// StatusEvent is one entry of an order's status history.
type StatusEvent struct {
	Status    OrderStatus `bson:"status" json:"status"`
	Timestamp time.Time   `bson:"timestamp" json:"timestamp"`
	Note      string      `bson:"note,omitempty" json:"note,omitempty"`
}

// OrderItem is a snapshot of a cart line at checkout time. It is copied into
// the order so later catalog price or stock changes never mutate history.
type OrderItem struct {
	ProductID string `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	Price     int    `bson:"price" json:"price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	ImageURL  string `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// Totals holds the amounts computed once per checkout.
type Totals struct {
	Subtotal int    `bson:"subtotal" json:"subtotal"`
	Taxes    int    `bson:"taxes" json:"taxes"`
	Shipping int    `bson:"shipping" json:"shipping"`
	Total    int    `bson:"total" json:"total"`
	Currency string `bson:"currency" json:"currency"`
}

// Order is created only by a successful checkout transaction. It is never
// deleted afterwards, only status-transitioned.
type Order struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	OrderNumber     string                 `bson:"order_number" json:"order_number"`
	UserID          string                 `bson:"user_id" json:"user_id"`
	Items           []OrderItem            `bson:"items" json:"items"`
	Subtotal        int                    `bson:"subtotal" json:"subtotal"`
	Taxes           int                    `bson:"taxes" json:"taxes"`
	Shipping        int                    `bson:"shipping" json:"shipping"`
	Total           int                    `bson:"total" json:"total"`
	Currency        string                 `bson:"currency" json:"currency"`
	ShippingAddress map[string]interface{} `bson:"shipping_address" json:"shipping_address"`
	PaymentMethod   string                 `bson:"payment_method" json:"payment_method"`
	PaymentDetails  map[string]interface{} `bson:"payment_details,omitempty" json:"-"`
	Status          OrderStatus            `bson:"status" json:"status"`
	StatusHistory   []StatusEvent          `bson:"status_history" json:"status_history"`
	CreatedAt       time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at" json:"updated_at"`
}
