package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/domain/marketplace"
	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
)

// waybillPendingMessage is returned while the marketplace has not issued a
// waybill yet.
const waybillPendingMessage = "waybill is not ready yet, retry later"

// WaybillResolver fetches the delivery waybill for a mirrored order. The
// marketplace issues a waybill only once the order enters assembly, so a
// missing waybill triggers exactly one assembly request and one refetch.
type WaybillResolver struct {
	client    marketplace.Client
	orders    orders.OrderRepository
	merchants orders.MerchantRepository
	logger    *zap.Logger
}

// NewWaybillResolver creates a new waybill resolver
func NewWaybillResolver(
	client marketplace.Client,
	orderRepo orders.OrderRepository,
	merchantRepo orders.MerchantRepository,
	logger *zap.Logger,
) *WaybillResolver {
	return &WaybillResolver{
		client:    client,
		orders:    orderRepo,
		merchants: merchantRepo,
		logger:    logger,
	}
}

// Resolve returns the waybill for the order with the given code. A waybill
// the marketplace has not issued yet is a descriptive result, not an error;
// errors are reserved for unknown orders and transport failures.
func (r *WaybillResolver) Resolve(ctx context.Context, code string) (*WaybillResult, error) {
	local, err := r.orders.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	merchant, err := r.merchantFor(ctx, local)
	if err != nil {
		return nil, err
	}

	remote, err := r.client.OrderByCode(ctx, merchant.KaspiToken, code)
	if err != nil {
		return nil, err
	}
	if remote.Waybill != "" {
		return &WaybillResult{Waybill: remote.Waybill, Available: true}, nil
	}

	// One assembly request, one refetch. Repeated assembly requests for an
	// order already past assembly are rejected by the remote.
	if err := r.client.RequestAssembly(ctx, merchant.KaspiToken, remote.RemoteID); err != nil {
		r.logger.Warn("Assembly request rejected",
			zap.String("code", code),
			zap.Error(err),
		)
		return &WaybillResult{Available: false, Message: waybillPendingMessage}, nil
	}

	remote, err = r.client.OrderByCode(ctx, merchant.KaspiToken, code)
	if err != nil {
		return nil, err
	}
	if remote.Waybill != "" {
		return &WaybillResult{Waybill: remote.Waybill, Available: true}, nil
	}
	return &WaybillResult{Available: false, Message: waybillPendingMessage}, nil
}

// merchantFor resolves the merchant owning the order. Orders mirrored before
// merchant ids were persisted fall back to customer-name correlation.
func (r *WaybillResolver) merchantFor(ctx context.Context, order *orders.Order) (*orders.Merchant, error) {
	if order.MerchantID != 0 {
		merchant, err := r.merchants.FindByID(ctx, order.MerchantID)
		if err == nil {
			return merchant, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	merchant, err := r.merchants.FindByName(ctx, order.CustomerName)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("no merchant owns order %s: %w", order.Code, shared.ErrNotFound)
		}
		return nil, err
	}
	return merchant, nil
}
