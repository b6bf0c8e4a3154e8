package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Client Errors
var (
	ErrUnavailable     = errors.New("marketplace: remote temporarily unavailable")
	ErrRequestFailed   = errors.New("marketplace: remote request failed")
	ErrInvalidResponse = errors.New("marketplace: invalid remote response")
	ErrRateLimited     = errors.New("marketplace: remote rate limited")
	ErrOrderNotFound   = errors.New("marketplace: remote order not found")
	ErrTokenMissing    = errors.New("marketplace: merchant token missing")
)

// OriginAddress is the free-text pickup address attached to a remote order.
// Any of the fields may be empty; street number and building frequently are.
type OriginAddress struct {
	City         string
	StreetName   string
	StreetNumber string
	Building     string
}

// Customer carries the buyer details included with a remote order.
type Customer struct {
	Name      string
	CellPhone string
}

// Order is a remote marketplace order as returned by the listing and
// single-order endpoints.
type Order struct {
	// RemoteID is the marketplace's own identifier, used for entry and
	// status-update calls.
	RemoteID string

	// Code is the human-facing order code and the dedup key.
	Code string

	// Status is the raw status token; map it with MapLifecycleStatus.
	Status string

	State        string
	CreatedAt    time.Time
	TotalPrice   decimal.Decimal
	DeliveryCost decimal.Decimal
	Express      bool

	// Waybill is empty until the marketplace has issued one.
	Waybill string

	// Origin is nil when the listing carried no pickup address.
	Origin *OriginAddress

	// Customer is nil when the buyer record was not included.
	Customer *Customer
}

// Entry is one line of a remote order.
type Entry struct {
	// OfferCode is the seller's article code; may be empty.
	OfferCode string
	OfferName string
	Quantity  int
}

// OrderQuery selects a page of the remote orders listing.
type OrderQuery struct {
	Start time.Time
	End   time.Time

	// Page is zero-based, matching the remote listing.
	Page     int
	PageSize int

	// State filters the listing (e.g. "ARCHIVE"); empty means no filter.
	State string

	// IncludeCustomer asks the remote to attach buyer records.
	IncludeCustomer bool
}

// OrderPage is one page of the remote orders listing.
type OrderPage struct {
	Orders  []Order
	HasMore bool
}

// Client is the outbound port to the marketplace API. Implementations are
// stateless with respect to tenants: the per-merchant token travels with
// every call.
type Client interface {
	// ListOrders returns one page of orders created inside the query window.
	ListOrders(ctx context.Context, token string, query OrderQuery) (*OrderPage, error)

	// OrderByCode fetches a single order by its human-facing code.
	// Returns ErrOrderNotFound when the remote knows no such order.
	OrderByCode(ctx context.Context, token, code string) (*Order, error)

	// Entries fetches the line items of an order by its remote identifier.
	Entries(ctx context.Context, token, remoteID string) ([]Entry, error)

	// RequestAssembly asks the marketplace to move the order into assembly,
	// which triggers waybill issuance on the remote side.
	RequestAssembly(ctx context.Context, token, remoteID string) error
}
