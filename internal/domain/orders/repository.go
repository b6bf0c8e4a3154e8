package orders

import (
	"context"

	"github.com/jetqor/backend/internal/domain/marketplace"
)

// OrderRepository persists mirrored orders.
type OrderRepository interface {
	// FindByCode returns the order with the given remote code, or
	// shared.ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Order, error)

	// ExistsByCode reports whether an order with the code is already stored.
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// MaxID returns the highest assigned order id, 0 when the table is empty.
	// Safe for id assignment only while a run lease serializes passes.
	MaxID(ctx context.Context) (int64, error)

	Create(ctx context.Context, order *Order) error

	// UpdateStatus overwrites the status pair and bumps updated_at.
	UpdateStatus(ctx context.Context, id int64, remote marketplace.RemoteStatus, lifecycle marketplace.LifecycleStatus) error

	// Delete removes the order together with its line items.
	Delete(ctx context.Context, id int64) error

	// DeleteWithoutWarehouse purges orders whose pickup address was never
	// resolved. Returns the number of rows removed.
	DeleteWithoutWarehouse(ctx context.Context) (int64, error)

	// DeleteWithoutLineItems purges orders that never received line items.
	DeleteWithoutLineItems(ctx context.Context) (int64, error)

	// List returns a page of orders, newest first, with the total count.
	List(ctx context.Context, page, pageSize int) ([]Order, int64, error)
}

// LineItemRepository persists order line items.
type LineItemRepository interface {
	// Upsert creates or overwrites the (order, product) row with quantity.
	Upsert(ctx context.Context, orderID, productID int64, quantity int) error

	// CountByOrder returns how many line items an order has.
	CountByOrder(ctx context.Context, orderID int64) (int64, error)
}

// ProductRepository reads the catalog maintained elsewhere.
type ProductRepository interface {
	// FindByArticle looks a product up by its normalized article code.
	FindByArticle(ctx context.Context, article string) (*Product, error)

	// FindByName looks a product up by its exact offer name.
	FindByName(ctx context.Context, name string) (*Product, error)
}

// MerchantRepository reads tenant accounts.
type MerchantRepository interface {
	// FindSyncable returns all merchants that carry a marketplace token
	// and are not blocked.
	FindSyncable(ctx context.Context) ([]Merchant, error)

	FindByID(ctx context.Context, id int64) (*Merchant, error)
	FindByToken(ctx context.Context, token string) (*Merchant, error)
	FindByName(ctx context.Context, name string) (*Merchant, error)
}

// RestockRepository appends restock entries.
type RestockRepository interface {
	Create(ctx context.Context, entry *RestockEntry) error
}
