package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
	"github.com/jetqor/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements orders.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByArticle looks a product up by its normalized article code
func (r *GormProductRepository) FindByArticle(ctx context.Context, article string) (*orders.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(TRIM(article)) = ?", orders.NormalizeArticle(article)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName looks a product up by its exact offer name
func (r *GormProductRepository) FindByName(ctx context.Context, name string) (*orders.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormProductRepository implements ProductRepository
var _ orders.ProductRepository = (*GormProductRepository)(nil)
