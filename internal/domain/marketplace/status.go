package marketplace

import "strings"

// RemoteStatus is the raw order status vocabulary of the Kaspi marketplace.
type RemoteStatus string

const (
	RemoteStatusApprovedByBank     RemoteStatus = "APPROVED_BY_BANK"
	RemoteStatusAcceptedByMerchant RemoteStatus = "ACCEPTED_BY_MERCHANT"

	// RemoteStatusPickup is the self-pickup variant of an accepted order.
	RemoteStatusPickup RemoteStatus = "PICKUP"
	RemoteStatusCompleted          RemoteStatus = "COMPLETED"
	RemoteStatusCancelled          RemoteStatus = "CANCELLED"
	RemoteStatusCancelling         RemoteStatus = "CANCELLING"
	RemoteStatusReturnRequested    RemoteStatus = "KASPI_DELIVERY_RETURN_REQUESTED"
	RemoteStatusReturned           RemoteStatus = "RETURNED"

	// RemoteStatusUnknown is the bucket for tokens the marketplace added
	// after this vocabulary was written.
	RemoteStatusUnknown RemoteStatus = "UNKNOWN"
)

// LifecycleStatus is the internal order lifecycle vocabulary.
type LifecycleStatus string

const (
	LifecyclePackaging     LifecycleStatus = "packaging"
	LifecycleCompleted     LifecycleStatus = "completed"
	LifecycleCancelled     LifecycleStatus = "cancelled"
	LifecycleReturnRequest LifecycleStatus = "return_request"
	LifecycleReturned      LifecycleStatus = "returned"

	// LifecycleAssembly is the fallback bucket for remote statuses that
	// have no dedicated lifecycle value yet.
	LifecycleAssembly LifecycleStatus = "assembly"
)

// IsCancelLike reports whether the status means goods come back to stock.
func (s LifecycleStatus) IsCancelLike() bool {
	return s == LifecycleCancelled || s == LifecycleReturned
}

// IsTerminal reports whether the order can no longer change state.
func (s LifecycleStatus) IsTerminal() bool {
	return s == LifecycleCompleted || s == LifecycleCancelled || s == LifecycleReturned
}

// MapRemoteStatus normalizes a raw status token into the RemoteStatus
// vocabulary. It is total: unknown tokens yield RemoteStatusUnknown and
// known=false so callers can log the new token instead of failing the order.
func MapRemoteStatus(raw string) (RemoteStatus, bool) {
	switch RemoteStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case RemoteStatusApprovedByBank:
		return RemoteStatusApprovedByBank, true
	case RemoteStatusAcceptedByMerchant:
		return RemoteStatusAcceptedByMerchant, true
	case RemoteStatusPickup:
		return RemoteStatusPickup, true
	case RemoteStatusCompleted:
		return RemoteStatusCompleted, true
	case RemoteStatusCancelled:
		return RemoteStatusCancelled, true
	case RemoteStatusCancelling:
		return RemoteStatusCancelling, true
	case RemoteStatusReturnRequested:
		return RemoteStatusReturnRequested, true
	case RemoteStatusReturned:
		return RemoteStatusReturned, true
	default:
		return RemoteStatusUnknown, false
	}
}

// MapLifecycleStatus maps a raw status token to the internal lifecycle.
// Same totality contract as MapRemoteStatus: unknown tokens land in the
// assembly bucket with known=false.
func MapLifecycleStatus(raw string) (LifecycleStatus, bool) {
	remote, known := MapRemoteStatus(raw)
	if !known {
		return LifecycleAssembly, false
	}
	switch remote {
	case RemoteStatusApprovedByBank, RemoteStatusAcceptedByMerchant, RemoteStatusPickup:
		return LifecyclePackaging, true
	case RemoteStatusCompleted:
		return LifecycleCompleted, true
	case RemoteStatusCancelled, RemoteStatusCancelling:
		return LifecycleCancelled, true
	case RemoteStatusReturnRequested:
		return LifecycleReturnRequest, true
	case RemoteStatusReturned:
		return LifecycleReturned, true
	default:
		return LifecycleAssembly, false
	}
}
