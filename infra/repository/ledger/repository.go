package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/infra/repository/gormerr"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ledgerRepository struct {
	db *gorm.DB
}

// New creates a ledger repository using the provided *gorm.DB.
func New(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Get implements repository.LedgerRepository.
func (r *ledgerRepository) Get(ctx context.Context, storeID uuid.UUID) (*ledger.Ledger, error) {
	var row Ledger
	if err := r.db.WithContext(ctx).First(&row, "store_id = ?", storeID).Error; err != nil {
		return nil, gormerr.Map(err, ledger.ErrLedgerNotFound)
	}
	return mapModelToDomain(&row), nil
}

// GetForUpdate implements repository.LedgerRepository. The row lock is
// released with the surrounding transaction.
func (r *ledgerRepository) GetForUpdate(ctx context.Context, storeID uuid.UUID) (*ledger.Ledger, error) {
	var row Ledger
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "store_id = ?", storeID).Error
	if err != nil {
		return nil, gormerr.Map(err, ledger.ErrLedgerNotFound)
	}
	return mapModelToDomain(&row), nil
}

// Upsert implements repository.LedgerRepository.
func (r *ledgerRepository) Upsert(ctx context.Context, l *ledger.Ledger) error {
	row := mapDomainToModel(l)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func mapModelToDomain(row *Ledger) *ledger.Ledger {
	currency := money.Code(row.Currency)
	return &ledger.Ledger{
		StoreID:                 row.StoreID,
		Currency:                currency,
		TotalRevenue:            money.Must(row.TotalRevenue, currency),
		TotalPlatformCommission: money.Must(row.TotalPlatformCommission, currency),
		TotalWithdrawn:          money.Must(row.TotalWithdrawn, currency),
		CommissionRate:          row.CommissionRate,
		AvailableBalance:        money.Must(row.AvailableBalance, currency),
		LastCalculatedAt:        row.LastCalculatedAt,
		CreatedAt:               row.CreatedAt,
		UpdatedAt:               row.UpdatedAt,
	}
}

func mapDomainToModel(l *ledger.Ledger) Ledger {
	return Ledger{
		StoreID:                 l.StoreID,
		Currency:                l.Currency.String(),
		TotalRevenue:            int64(l.TotalRevenue.Amount()),
		TotalPlatformCommission: int64(l.TotalPlatformCommission.Amount()),
		TotalWithdrawn:          int64(l.TotalWithdrawn.Amount()),
		CommissionRate:          l.CommissionRate,
		AvailableBalance:        int64(l.AvailableBalance.Amount()),
		LastCalculatedAt:        l.LastCalculatedAt,
		CreatedAt:               l.CreatedAt,
		UpdatedAt:               l.UpdatedAt,
	}
}
