// Package repository holds the GORM-backed persistence layer: one
// sub-package per aggregate plus the unit-of-work that binds them to a
// shared transaction.
package repository

import (
	"context"
	"fmt"
	"reflect"

	destinationrepo "github.com/sellerhub/payouts/infra/repository/destination"
	historyrepo "github.com/sellerhub/payouts/infra/repository/history"
	ledgerrepo "github.com/sellerhub/payouts/infra/repository/ledger"
	withdrawalrepo "github.com/sellerhub/payouts/infra/repository/withdrawal"
	"github.com/sellerhub/payouts/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. All repositories handed out inside one Do share the
// transaction session, so the ledger check and the withdrawal debit
// that depends on it commit or roll back together.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			reflect.TypeOf((*repository.LedgerRepository)(nil)).Elem():      func(db *gorm.DB) any { return ledgerrepo.New(db) },
			reflect.TypeOf((*repository.WithdrawalRepository)(nil)).Elem():  func(db *gorm.DB) any { return withdrawalrepo.New(db) },
			reflect.TypeOf((*repository.HistoryRepository)(nil)).Elem():     func(db *gorm.DB) any { return historyrepo.New(db) },
			reflect.TypeOf((*repository.DestinationRepository)(nil)).Elem(): func(db *gorm.DB) any { return destinationrepo.New(db) },
		},
	}
}

// Do runs fn inside a database transaction, handing it a UoW bound to
// that transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txnUow := &UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry}
		return fn(txnUow)
	})
}

// GetRepository provides generic access to repositories bound to the
// transaction session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

// LedgerRepository implements repository.UnitOfWork.
func (u *UoW) LedgerRepository() (repository.LedgerRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.LedgerRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.LedgerRepository), nil
}

// WithdrawalRepository implements repository.UnitOfWork.
func (u *UoW) WithdrawalRepository() (repository.WithdrawalRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.WithdrawalRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.WithdrawalRepository), nil
}

// HistoryRepository implements repository.UnitOfWork.
func (u *UoW) HistoryRepository() (repository.HistoryRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.HistoryRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.HistoryRepository), nil
}

// DestinationRepository implements repository.UnitOfWork.
func (u *UoW) DestinationRepository() (repository.DestinationRepository, error) {
	r, err := u.GetRepository(reflect.TypeOf((*repository.DestinationRepository)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	return r.(repository.DestinationRepository), nil
}

// session returns the transaction when inside Do, the base connection
// otherwise. Read-only callers may use repositories without a
// transaction.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

var _ repository.UnitOfWork = (*UoW)(nil)
