package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item ingested elsewhere; the reconciliation flow only
// reads it. Article is the marketplace offer code and the lookup key.
type Product struct {
	ID         int64
	Name       string
	Article    string
	Price      decimal.Decimal
	MerchantID int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NormalizeArticle folds an offer article code into its lookup form.
func NormalizeArticle(article string) string {
	return strings.ToLower(strings.TrimSpace(article))
}
