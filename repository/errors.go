package repository

import "fmt"

// ProductNotFoundError reports that a referenced product does not exist or
// is no longer active.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

// InsufficientStockError reports that a product exists but does not carry
// enough stock at reservation time. Available and Requested are carried for
// the client-facing "only N left" message.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}
