package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jetqor/backend/internal/domain/fulfillment"
	"github.com/jetqor/backend/internal/domain/shared"
	"github.com/jetqor/backend/internal/infrastructure/persistence/models"
)

// GormWarehouseRepository implements fulfillment.WarehouseRepository using GORM
type GormWarehouseRepository struct {
	db *gorm.DB
}

// NewGormWarehouseRepository creates a new GormWarehouseRepository
func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

// FindByID finds a warehouse by its ID
func (r *GormWarehouseRepository) FindByID(ctx context.Context, id int64) (*fulfillment.Warehouse, error) {
	var model models.WarehouseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCity returns all warehouses located in the given city
func (r *GormWarehouseRepository) FindByCity(ctx context.Context, city string) ([]fulfillment.Warehouse, error) {
	var rows []models.WarehouseModel
	if err := r.db.WithContext(ctx).
		Where("city = ?", city).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	warehouses := make([]fulfillment.Warehouse, 0, len(rows))
	for i := range rows {
		warehouses = append(warehouses, *rows[i].ToDomain())
	}
	return warehouses, nil
}

// Ensure GormWarehouseRepository implements WarehouseRepository
var _ fulfillment.WarehouseRepository = (*GormWarehouseRepository)(nil)
