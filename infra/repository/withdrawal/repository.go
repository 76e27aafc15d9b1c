package withdrawal

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/infra/repository/gormerr"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type withdrawalRepository struct {
	db *gorm.DB
}

// New creates a withdrawal repository using the provided *gorm.DB.
func New(db *gorm.DB) repository.WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

// Create implements repository.WithdrawalRepository.
func (r *withdrawalRepository) Create(ctx context.Context, req *withdrawal.Request) error {
	row, err := mapDomainToModel(req)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

// Get implements repository.WithdrawalRepository.
func (r *withdrawalRepository) Get(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	var row Request
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, gormerr.Map(err, withdrawal.ErrRequestNotFound)
	}
	return mapModelToDomain(&row)
}

// GetForUpdate implements repository.WithdrawalRepository.
func (r *withdrawalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	var row Request
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, gormerr.Map(err, withdrawal.ErrRequestNotFound)
	}
	return mapModelToDomain(&row)
}

// Update implements repository.WithdrawalRepository.
func (r *withdrawalRepository) Update(ctx context.Context, req *withdrawal.Request) error {
	row, err := mapDomainToModel(req)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

// List implements repository.WithdrawalRepository. Results are newest
// first.
func (r *withdrawalRepository) List(ctx context.Context, storeID uuid.UUID, filter dto.WithdrawalFilter) ([]*withdrawal.Request, error) {
	q := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		q = q.Where("method = ?", filter.Method)
	}
	if filter.CreatedAfter != nil {
		q = q.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		q = q.Where("created_at <= ?", *filter.CreatedBefore)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []Request
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*withdrawal.Request, 0, len(rows))
	for i := range rows {
		req, err := mapModelToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

// SumCompleted implements repository.WithdrawalRepository.
func (r *withdrawalRepository) SumCompleted(ctx context.Context, storeID uuid.UUID) (money.Amount, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&Request{}).
		Where("store_id = ? AND status = ?", storeID, withdrawal.StatusCompleted.String()).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func mapDomainToModel(req *withdrawal.Request) (Request, error) {
	details, err := withdrawal.MarshalDetails(req.Details)
	if err != nil {
		return Request{}, err
	}
	return Request{
		ID:                   req.ID,
		StoreID:              req.StoreID,
		Amount:               req.Amount.Amount(),
		Currency:             req.Amount.Currency().String(),
		Method:               req.Method.String(),
		Details:              datatypes.JSON(details),
		Status:               req.Status.String(),
		Notes:                req.Notes,
		AdminNotes:           req.AdminNotes,
		TransactionReference: req.TransactionReference,
		ProofURL:             req.ProofURL,
		RequestedBy:          req.RequestedBy,
		ProcessedBy:          req.ProcessedBy,
		CreatedAt:            req.CreatedAt,
		UpdatedAt:            req.UpdatedAt,
		ProcessingAt:         req.ProcessingAt,
		CompletedAt:          req.CompletedAt,
		FailedAt:             req.FailedAt,
		CancelledAt:          req.CancelledAt,
	}, nil
}

func mapModelToDomain(row *Request) (*withdrawal.Request, error) {
	method := withdrawal.Method(row.Method)
	details, err := withdrawal.UnmarshalDetails(method, []byte(row.Details))
	if err != nil {
		return nil, err
	}
	status, err := withdrawal.ParseStatus(row.Status)
	if err != nil {
		return nil, err
	}
	return &withdrawal.Request{
		ID:                   row.ID,
		StoreID:              row.StoreID,
		Amount:               money.Must(row.Amount, money.Code(row.Currency)),
		Method:               method,
		Details:              details,
		Status:               status,
		Notes:                row.Notes,
		AdminNotes:           row.AdminNotes,
		TransactionReference: row.TransactionReference,
		ProofURL:             row.ProofURL,
		RequestedBy:          row.RequestedBy,
		ProcessedBy:          row.ProcessedBy,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
		ProcessingAt:         row.ProcessingAt,
		CompletedAt:          row.CompletedAt,
		FailedAt:             row.FailedAt,
		CancelledAt:          row.CancelledAt,
	}, nil
}
