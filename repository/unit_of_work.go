package repository

import "context"

// UnitOfWork groups reads and writes into one atomic commit boundary.
//
// WithTransaction runs fn inside a transaction. The context handed to fn
// carries the transaction; repository calls made with that context join the
// same commit. Returning an error from fn aborts the transaction and undoes
// every write made inside it, including conditional stock decrements.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
