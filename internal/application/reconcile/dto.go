package reconcile

// MerchantSummary reports the outcome of one merchant's ingest.
type MerchantSummary struct {
	MerchantID   int64  `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`

	// Added counts orders newly mirrored during this pass.
	Added int `json:"added"`

	// Skipped counts orders already known, unroutable, or without line items.
	Skipped int `json:"skipped"`
}

// RunSummary reports the outcome of one full reconciliation pass.
type RunSummary struct {
	Merchants []MerchantSummary `json:"merchants"`

	// StatusUpdates counts orders whose lifecycle changed during reconciliation.
	StatusUpdates int `json:"status_updates"`

	// Restocked counts restock entries written for cancel-like transitions.
	Restocked int `json:"restocked"`

	// PurgedNoWarehouse and PurgedNoLineItems count orders removed by the
	// cleanup sweeps.
	PurgedNoWarehouse int64 `json:"purged_no_warehouse"`
	PurgedNoLineItems int64 `json:"purged_no_line_items"`
}

// WaybillResult is the outcome of a waybill lookup. A missing waybill is a
// descriptive outcome, not an error.
type WaybillResult struct {
	Waybill   string `json:"waybill,omitempty"`
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}
