package history

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/repository"
	"gorm.io/gorm"
)

type historyRepository struct {
	db *gorm.DB
}

// New creates a history repository using the provided *gorm.DB.
func New(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

// Append implements repository.HistoryRepository. The per-withdrawal
// sequence is assigned here; callers hold the request row lock, so two
// appends for the same withdrawal cannot race.
func (r *historyRepository) Append(ctx context.Context, e *withdrawal.StatusHistoryEntry) error {
	var last int
	err := r.db.WithContext(ctx).
		Model(&Entry{}).
		Where("withdrawal_id = ?", e.WithdrawalID).
		Select("COALESCE(MAX(sequence), 0)").
		Scan(&last).Error
	if err != nil {
		return err
	}
	e.Sequence = last + 1

	row := Entry{
		ID:           e.ID,
		WithdrawalID: e.WithdrawalID,
		Sequence:     e.Sequence,
		OldStatus:    e.OldStatus.String(),
		NewStatus:    e.NewStatus.String(),
		ChangedBy:    e.ChangedBy,
		Reason:       e.Reason,
		CreatedAt:    e.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// List implements repository.HistoryRepository, in transition order.
func (r *historyRepository) List(ctx context.Context, withdrawalID uuid.UUID) ([]withdrawal.StatusHistoryEntry, error) {
	var rows []Entry
	err := r.db.WithContext(ctx).
		Where("withdrawal_id = ?", withdrawalID).
		Order("sequence ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]withdrawal.StatusHistoryEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, withdrawal.StatusHistoryEntry{
			ID:           row.ID,
			WithdrawalID: row.WithdrawalID,
			Sequence:     row.Sequence,
			OldStatus:    withdrawal.Status(row.OldStatus),
			NewStatus:    withdrawal.Status(row.NewStatus),
			ChangedBy:    row.ChangedBy,
			Reason:       row.Reason,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}
