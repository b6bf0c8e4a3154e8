package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jetqor/backend/internal/domain/marketplace"
)

// Order is a marketplace order mirrored into the local store.
// Code is the dedup key: one local row per remote order code.
type Order struct {
	ID     int64
	Code   string
	Source string

	// RemoteID is the marketplace's identifier for entry and status calls.
	RemoteID string

	MerchantID int64

	// WarehouseID is 0 while the pickup address could not be resolved.
	WarehouseID int64

	RemoteStatus    marketplace.RemoteStatus
	LifecycleStatus marketplace.LifecycleStatus

	TotalPrice   decimal.Decimal
	DeliveryCost decimal.Decimal
	Express      bool

	// CustomerName is denormalized from the owning merchant account;
	// CustomerPhone comes from the buyer record when the remote includes one.
	CustomerName  string
	CustomerPhone string

	// RemoteCreatedAt is the creation timestamp reported by the marketplace.
	RemoteCreatedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SourceKaspi marks orders ingested from the Kaspi marketplace.
const SourceKaspi = "kaspi"

// HasWarehouse reports whether the pickup address was resolved.
func (o *Order) HasWarehouse() bool {
	return o.WarehouseID != 0
}

// ApplyStatus records a new remote status pair on the order.
func (o *Order) ApplyStatus(remote marketplace.RemoteStatus, lifecycle marketplace.LifecycleStatus) {
	o.RemoteStatus = remote
	o.LifecycleStatus = lifecycle
	o.UpdatedAt = time.Now()
}

// LineItem ties a product to an order with a quantity. There is at most one
// row per (order, product); re-syncing overwrites the quantity.
type LineItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
