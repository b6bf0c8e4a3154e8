package orders

import "time"

// Merchant is a tenant selling through the marketplace. A merchant takes
// part in reconciliation only while it carries a marketplace token and is
// not blocked.
type Merchant struct {
	ID         int64
	Name       string
	Email      string
	Phone      string
	KaspiToken string
	Blocked    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CanSync reports whether this merchant should be polled.
func (m *Merchant) CanSync() bool {
	return m.KaspiToken != "" && !m.Blocked
}
