package models

import "time"

// Product mirrors the catalog document as far as checkout cares about it.
// Stock is only ever mutated through the conditional-decrement reservation
// path in the repository layer.
type Product struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Price     int       `bson:"price" json:"price"`
	Stock     int       `bson:"stock" json:"stock"`
	Active    bool      `bson:"active" json:"active"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// StockUpdate records a single reservation applied during a checkout. It is
// returned to the caller for auditing and is the unit of manual compensation
// when stock has to be reverted outside the transaction boundary.
type StockUpdate struct {
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	PreviousStock int    `json:"previous_stock"`
	NewStock      int    `json:"new_stock"`
	Reserved      int    `json:"reserved"`
}
