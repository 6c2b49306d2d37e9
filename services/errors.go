package services

// Error codes returned to clients. They map one-to-one onto the HTTP status
// the controller responds with.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodePersistenceError  = "PERSISTENCE_ERROR"
)

// ProductStockInfo lets the UI say "only N left" on stock failures.
type ProductStockInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
	Requested int    `json:"requested"`
}

// CheckoutError is the structured failure returned by the checkout service.
// Infrastructure faults carry a generic message so internal store errors are
// never leaked to clients.
type CheckoutError struct {
	StatusCode int               `json:"-"`
	Code       string            `json:"error"`
	Message    string            `json:"message"`
	Product    *ProductStockInfo `json:"product,omitempty"`
	ProductID  string            `json:"product_id,omitempty"`
}

func (e *CheckoutError) Error() string {
	return e.Message
}
