package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/infrastructure/persistence/models"
)

// GormLineItemRepository implements orders.LineItemRepository using GORM
type GormLineItemRepository struct {
	db *gorm.DB
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{db: db}
}

// Upsert creates or overwrites the (order, product) row with quantity
func (r *GormLineItemRepository) Upsert(ctx context.Context, orderID, productID int64, quantity int) error {
	now := time.Now()
	model := models.LineItemModel{
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(&model).Error
}

// CountByOrder returns how many line items an order has
func (r *GormLineItemRepository) CountByOrder(ctx context.Context, orderID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LineItemModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormLineItemRepository implements LineItemRepository
var _ orders.LineItemRepository = (*GormLineItemRepository)(nil)
