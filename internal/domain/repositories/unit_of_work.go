package repositories

import "context"

// UnitOfWork groups ledger writes into one store transaction. Repositories
// called with the context passed to fn join that transaction; a failure in
// fn, a panic or a failed commit leaves no write behind.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(txCtx context.Context) error) error
}
