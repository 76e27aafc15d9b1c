package destination

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/infra/repository/gormerr"
	"github.com/sellerhub/payouts/pkg/domain/destination"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type destinationRepository struct {
	db *gorm.DB
}

// New creates a destination repository using the provided *gorm.DB.
func New(db *gorm.DB) repository.DestinationRepository {
	return &destinationRepository{db: db}
}

// Upsert implements repository.DestinationRepository.
func (r *destinationRepository) Upsert(ctx context.Context, d *destination.Destination) error {
	row, err := mapDomainToModel(d)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

// Get implements repository.DestinationRepository. The store scoping is
// part of the lookup so one tenant cannot read another's destinations.
func (r *destinationRepository) Get(ctx context.Context, storeID, id uuid.UUID) (*destination.Destination, error) {
	var row Destination
	err := r.db.WithContext(ctx).
		First(&row, "id = ? AND store_id = ?", id, storeID).Error
	if err != nil {
		return nil, gormerr.Map(err, destination.ErrDestinationNotFound)
	}
	return mapModelToDomain(&row)
}

// List implements repository.DestinationRepository.
func (r *destinationRepository) List(ctx context.Context, storeID uuid.UUID) ([]*destination.Destination, error) {
	var rows []Destination
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*destination.Destination, 0, len(rows))
	for i := range rows {
		d, err := mapModelToDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ClearDefault implements repository.DestinationRepository.
func (r *destinationRepository) ClearDefault(ctx context.Context, storeID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Destination{}).
		Where("store_id = ?", storeID).
		Update("is_default", false).Error
}

// SetDefault implements repository.DestinationRepository.
func (r *destinationRepository) SetDefault(ctx context.Context, storeID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&Destination{}).
		Where("id = ? AND store_id = ?", id, storeID).
		Update("is_default", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return destination.ErrDestinationNotFound
	}
	return nil
}

func mapDomainToModel(d *destination.Destination) (Destination, error) {
	details, err := withdrawal.MarshalDetails(d.Details)
	if err != nil {
		return Destination{}, err
	}
	return Destination{
		ID:        d.ID,
		StoreID:   d.StoreID,
		Method:    d.Method.String(),
		Label:     d.Label,
		Details:   datatypes.JSON(details),
		IsDefault: d.IsDefault,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func mapModelToDomain(row *Destination) (*destination.Destination, error) {
	details, err := withdrawal.UnmarshalDetails(withdrawal.Method(row.Method), []byte(row.Details))
	if err != nil {
		return nil, err
	}
	return &destination.Destination{
		ID:        row.ID,
		StoreID:   row.StoreID,
		Method:    withdrawal.Method(row.Method),
		Label:     row.Label,
		Details:   details,
		IsDefault: row.IsDefault,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
