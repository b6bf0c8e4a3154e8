package fulfillment

import (
	"context"
	"time"
)

// Warehouse is a pickup point orders are fulfilled from. Address is free
// text as entered by operations staff; the resolver matches against it.
type Warehouse struct {
	ID        int64
	Name      string
	Address   string
	City      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WarehouseRepository reads the warehouse directory maintained elsewhere.
type WarehouseRepository interface {
	FindByID(ctx context.Context, id int64) (*Warehouse, error)

	// FindByCity returns all warehouses located in the given city.
	FindByCity(ctx context.Context, city string) ([]Warehouse, error)
}
