package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jetqor/backend/internal/domain/marketplace"
	"github.com/jetqor/backend/internal/domain/orders"
)

// OrderModel is the persistence model for the Order domain entity.
// IDs are assigned by the reconciliation pass (max+1), not by the database.
type OrderModel struct {
	ID              int64           `gorm:"primaryKey;autoIncrement:false"`
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_code"`
	Source          string          `gorm:"type:varchar(20);not null;default:'kaspi'"`
	RemoteID        string          `gorm:"type:varchar(50);not null;index:idx_orders_remote_id"`
	MerchantID      int64           `gorm:"not null;index:idx_orders_merchant"`
	WarehouseID     int64           `gorm:"not null;default:0;index:idx_orders_warehouse"`
	RemoteStatus    string          `gorm:"type:varchar(40);not null"`
	LifecycleStatus string          `gorm:"type:varchar(20);not null;index:idx_orders_lifecycle"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	DeliveryCost    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Express         bool            `gorm:"not null;default:false"`
	CustomerName    string          `gorm:"type:varchar(255)"`
	CustomerPhone   string          `gorm:"type:varchar(32)"`
	RemoteCreatedAt time.Time       `gorm:"not null;index:idx_orders_remote_created"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *orders.Order {
	return &orders.Order{
		ID:              m.ID,
		Code:            m.Code,
		Source:          m.Source,
		RemoteID:        m.RemoteID,
		MerchantID:      m.MerchantID,
		WarehouseID:     m.WarehouseID,
		RemoteStatus:    marketplace.RemoteStatus(m.RemoteStatus),
		LifecycleStatus: marketplace.LifecycleStatus(m.LifecycleStatus),
		TotalPrice:      m.TotalPrice,
		DeliveryCost:    m.DeliveryCost,
		Express:         m.Express,
		CustomerName:    m.CustomerName,
		CustomerPhone:   m.CustomerPhone,
		RemoteCreatedAt: m.RemoteCreatedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *orders.Order) {
	m.ID = o.ID
	m.Code = o.Code
	m.Source = o.Source
	m.RemoteID = o.RemoteID
	m.MerchantID = o.MerchantID
	m.WarehouseID = o.WarehouseID
	m.RemoteStatus = string(o.RemoteStatus)
	m.LifecycleStatus = string(o.LifecycleStatus)
	m.TotalPrice = o.TotalPrice
	m.DeliveryCost = o.DeliveryCost
	m.Express = o.Express
	m.CustomerName = o.CustomerName
	m.CustomerPhone = o.CustomerPhone
	m.RemoteCreatedAt = o.RemoteCreatedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}

// OrderModelFromDomain creates a new persistence model from a domain Order.
func OrderModelFromDomain(o *orders.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// LineItemModel is the persistence model for order line items.
type LineItemModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	OrderID   int64     `gorm:"not null;uniqueIndex:idx_line_items_order_product,priority:1"`
	ProductID int64     `gorm:"not null;uniqueIndex:idx_line_items_order_product,priority:2"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *LineItemModel) ToDomain() *orders.LineItem {
	return &orders.LineItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductModel is the persistence model for catalog products.
type ProductModel struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	Name       string          `gorm:"type:varchar(255);not null;index:idx_products_name"`
	Article    string          `gorm:"type:varchar(100);not null;index:idx_products_article"`
	Price      decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	MerchantID int64           `gorm:"not null;index:idx_products_merchant"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *orders.Product {
	return &orders.Product{
		ID:         m.ID,
		Name:       m.Name,
		Article:    m.Article,
		Price:      m.Price,
		MerchantID: m.MerchantID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// RestockEntryModel is the persistence model for restock bookings.
type RestockEntryModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ProductID  int64     `gorm:"not null;index:idx_restock_product"`
	Quantity   int       `gorm:"not null"`
	CellID     int64     `gorm:"not null"`
	MerchantID int64     `gorm:"not null;index:idx_restock_merchant"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RestockEntryModel) TableName() string {
	return "restock_entries"
}

// ToDomain converts the persistence model to a domain RestockEntry.
func (m *RestockEntryModel) ToDomain() *orders.RestockEntry {
	return &orders.RestockEntry{
		ID:         m.ID,
		ProductID:  m.ProductID,
		Quantity:   m.Quantity,
		CellID:     m.CellID,
		MerchantID: m.MerchantID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain RestockEntry.
func (m *RestockEntryModel) FromDomain(e *orders.RestockEntry) {
	m.ID = e.ID
	m.ProductID = e.ProductID
	m.Quantity = e.Quantity
	m.CellID = e.CellID
	m.MerchantID = e.MerchantID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
