package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
	"github.com/jetqor/backend/internal/infrastructure/persistence/models"
)

// GormMerchantRepository implements orders.MerchantRepository using GORM
type GormMerchantRepository struct {
	db *gorm.DB
}

// NewGormMerchantRepository creates a new GormMerchantRepository
func NewGormMerchantRepository(db *gorm.DB) *GormMerchantRepository {
	return &GormMerchantRepository{db: db}
}

// FindSyncable returns all merchants with a marketplace token that are not blocked
func (r *GormMerchantRepository) FindSyncable(ctx context.Context) ([]orders.Merchant, error) {
	var rows []models.MerchantModel
	if err := r.db.WithContext(ctx).
		Where("kaspi_token <> '' AND blocked = ?", false).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	merchants := make([]orders.Merchant, 0, len(rows))
	for i := range rows {
		merchants = append(merchants, *rows[i].ToDomain())
	}
	return merchants, nil
}

// FindByID finds a merchant by its ID
func (r *GormMerchantRepository) FindByID(ctx context.Context, id int64) (*orders.Merchant, error) {
	var model models.MerchantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByToken finds a merchant by its marketplace token
func (r *GormMerchantRepository) FindByToken(ctx context.Context, token string) (*orders.Merchant, error) {
	var model models.MerchantModel
	if err := r.db.WithContext(ctx).
		Where("kaspi_token = ?", token).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a merchant by its exact account name
func (r *GormMerchantRepository) FindByName(ctx context.Context, name string) (*orders.Merchant, error) {
	var model models.MerchantModel
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

// Ensure GormMerchantRepository implements MerchantRepository
var _ orders.MerchantRepository = (*GormMerchantRepository)(nil)
