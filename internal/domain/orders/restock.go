package orders

import "time"

// RestockEntry records goods returning to stock after a cancelled or
// returned order. The table is append-only; a downstream acceptance flow
// consumes it.
type RestockEntry struct {
	ID         int64
	ProductID  int64
	Quantity   int
	CellID     int64
	MerchantID int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
