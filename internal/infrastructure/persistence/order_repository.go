package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jetqor/backend/internal/domain/marketplace"
	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
	"github.com/jetqor/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements orders.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByCode finds an order by its remote code
func (r *GormOrderRepository) FindByCode(ctx context.Context, code string) (*orders.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks if an order with the given code is already stored
func (r *GormOrderRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// MaxID returns the highest assigned order id, 0 for an empty table
func (r *GormOrderRepository) MaxID(ctx context.Context) (int64, error) {
	var max int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

// Create stores a new order
func (r *GormOrderRepository) Create(ctx context.Context, order *orders.Order) error {
	model := models.OrderModelFromDomain(order)
	return r.db.WithContext(ctx).Create(model).Error
}

// UpdateStatus overwrites the status pair and bumps updated_at
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id int64, remote marketplace.RemoteStatus, lifecycle marketplace.LifecycleStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"remote_status":    string(remote),
			"lifecycle_status": string(lifecycle),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes an order together with its line items
func (r *GormOrderRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.OrderModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// DeleteWithoutWarehouse purges orders with no resolved pickup warehouse
func (r *GormOrderRepository) DeleteWithoutWarehouse(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("warehouse_id = 0").
		Delete(&models.OrderModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DeleteWithoutLineItems purges orders that never received line items
func (r *GormOrderRepository) DeleteWithoutLineItems(ctx context.Context) (int64, error) {
	subquery := r.db.Model(&models.LineItemModel{}).Distinct("order_id")
	result := r.db.WithContext(ctx).
		Where("id NOT IN (?)", subquery).
		Delete(&models.OrderModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// List returns a page of orders, newest first, with the total count
func (r *GormOrderRepository) List(ctx context.Context, page, pageSize int) ([]orders.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Order("remote_created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]orders.Order, 0, len(rows))
	for i := range rows {
		result = append(result, *rows[i].ToDomain())
	}
	return result, total, nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ orders.OrderRepository = (*GormOrderRepository)(nil)
