package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/infrastructure/persistence/models"
)

// GormRestockRepository implements orders.RestockRepository using GORM
type GormRestockRepository struct {
	db *gorm.DB
}

// NewGormRestockRepository creates a new GormRestockRepository
func NewGormRestockRepository(db *gorm.DB) *GormRestockRepository {
	return &GormRestockRepository{db: db}
}

// Create appends a restock entry
func (r *GormRestockRepository) Create(ctx context.Context, entry *orders.RestockEntry) error {
	now := time.Now()
	model := models.RestockEntryModel{}
	model.FromDomain(entry)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
		model.UpdatedAt = now
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	return nil
}

// Ensure GormRestockRepository implements RestockRepository
var _ orders.RestockRepository = (*GormRestockRepository)(nil)
