package repository

import (
	"context"
	"reflect"
)

// UnitOfWork is the transaction boundary plus type-safe repository
// access. All repositories obtained from one UnitOfWork share the same
// DB session, so a balance check and the debit that depends on it are
// atomic when performed inside a single Do.
//
// Example:
//
//	repoAny, err := uow.GetRepository(reflect.TypeOf((*LedgerRepository)(nil)).Elem())
//	repo := repoAny.(LedgerRepository)
type UnitOfWork interface {
	// Do executes fn within a transaction. If fn returns an error the
	// transaction is rolled back and nothing is persisted.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested interface
	// type, bound to the current transaction.
	GetRepository(repoType reflect.Type) (any, error)

	// Typed convenience accessors.
	LedgerRepository() (LedgerRepository, error)
	WithdrawalRepository() (WithdrawalRepository, error)
	HistoryRepository() (HistoryRepository, error)
	DestinationRepository() (DestinationRepository, error)
}
