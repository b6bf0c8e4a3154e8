package models

import (
	"time"

	"github.com/jetqor/backend/internal/domain/fulfillment"
	"github.com/jetqor/backend/internal/domain/orders"
)

// WarehouseModel is the persistence model for pickup warehouses.
type WarehouseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Address   string    `gorm:"type:varchar(500);not null"`
	City      string    `gorm:"type:varchar(100);not null;index:idx_warehouses_city"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse.
func (m *WarehouseModel) ToDomain() *fulfillment.Warehouse {
	return &fulfillment.Warehouse{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		City:      m.City,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MerchantModel is the persistence model for tenant accounts.
type MerchantModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Name       string    `gorm:"type:varchar(255);not null;index:idx_merchants_name"`
	Email      string    `gorm:"type:varchar(255)"`
	Phone      string    `gorm:"type:varchar(32)"`
	KaspiToken string    `gorm:"type:varchar(255);index:idx_merchants_kaspi_token"`
	Blocked    bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MerchantModel) TableName() string {
	return "merchants"
}

// ToDomain converts the persistence model to a domain Merchant.
func (m *MerchantModel) ToDomain() *orders.Merchant {
	return &orders.Merchant{
		ID:         m.ID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		KaspiToken: m.KaspiToken,
		Blocked:    m.Blocked,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
