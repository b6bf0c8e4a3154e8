package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/domain/fulfillment"
	"github.com/jetqor/backend/internal/domain/marketplace"
	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
)

// remoteStateArchive is the listing state that covers both open and
// finished orders on the marketplace side.
const remoteStateArchive = "ARCHIVE"

// Config tunes the reconciliation pass.
type Config struct {
	// Location is the tenant timezone the ingest window is computed in.
	Location *time.Location

	// PageSize is the remote listing page size.
	PageSize int

	// IngestLookbackHours is the trailing ingest window.
	IngestLookbackHours int

	// ReconcileLookbackDays are the re-check windows for status drift.
	ReconcileLookbackDays []int

	// RestockCellID is the storage cell restocked goods are booked into.
	RestockCellID int64

	// LeaseTTL bounds how long a manual ingest may hold the run lease.
	LeaseTTL time.Duration
}

func (c Config) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.UTC
}

// Service mirrors marketplace orders into the local store and keeps their
// statuses converged.
type Service struct {
	client    marketplace.Client
	orders    orders.OrderRepository
	lineItems orders.LineItemRepository
	products  orders.ProductRepository
	merchants orders.MerchantRepository
	restocks  orders.RestockRepository
	resolver  *fulfillment.Resolver
	lease     shared.RunLease
	config    Config
	logger    *zap.Logger
}

// NewService creates a new reconciliation service
func NewService(
	client marketplace.Client,
	orderRepo orders.OrderRepository,
	lineItemRepo orders.LineItemRepository,
	productRepo orders.ProductRepository,
	merchantRepo orders.MerchantRepository,
	restockRepo orders.RestockRepository,
	resolver *fulfillment.Resolver,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.IngestLookbackHours <= 0 {
		config.IngestLookbackHours = 24
	}
	if len(config.ReconcileLookbackDays) == 0 {
		config.ReconcileLookbackDays = []int{3, 7, 14}
	}
	if config.LeaseTTL <= 0 {
		config.LeaseTTL = 10 * time.Minute
	}
	return &Service{
		client:    client,
		orders:    orderRepo,
		lineItems: lineItemRepo,
		products:  productRepo,
		merchants: merchantRepo,
		restocks:  restockRepo,
		resolver:  resolver,
		config:    config,
		logger:    logger,
	}
}

// RunOnce executes one full reconciliation pass: purge unroutable leftovers,
// converge statuses over the look-back windows, ingest fresh orders per
// merchant, then sweep orders that never became complete. A merchant's
// failure never aborts the pass.
func (s *Service) RunOnce(ctx context.Context) error {
	summary := RunSummary{}

	if purged, err := s.orders.DeleteWithoutWarehouse(ctx); err != nil {
		s.logger.Error("Pre-pass warehouse sweep failed", zap.Error(err))
	} else {
		summary.PurgedNoWarehouse += purged
	}

	merchants, err := s.merchants.FindSyncable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load syncable merchants: %w", err)
	}

	for i := range merchants {
		merchant := &merchants[i]

		updates, restocked, err := s.reconcileMerchant(ctx, merchant)
		if err != nil {
			s.logger.Error("Status reconciliation failed for merchant",
				zap.Int64("merchant_id", merchant.ID),
				zap.String("merchant", merchant.Name),
				zap.Error(err),
			)
		}
		summary.StatusUpdates += updates
		summary.Restocked += restocked

		merchantSummary, err := s.SyncMerchant(ctx, merchant)
		if err != nil {
			s.logger.Error("Ingest failed for merchant",
				zap.Int64("merchant_id", merchant.ID),
				zap.String("merchant", merchant.Name),
				zap.Error(err),
			)
			continue
		}
		summary.Merchants = append(summary.Merchants, *merchantSummary)
	}

	if purged, err := s.orders.DeleteWithoutWarehouse(ctx); err != nil {
		s.logger.Error("Warehouse cleanup sweep failed", zap.Error(err))
	} else {
		summary.PurgedNoWarehouse += purged
	}
	if purged, err := s.orders.DeleteWithoutLineItems(ctx); err != nil {
		s.logger.Error("Line-item cleanup sweep failed", zap.Error(err))
	} else {
		summary.PurgedNoLineItems += purged
	}

	s.logger.Info("Reconciliation pass summary",
		zap.Int("merchants", len(summary.Merchants)),
		zap.Int("status_updates", summary.StatusUpdates),
		zap.Int("restocked", summary.Restocked),
		zap.Int64("purged_no_warehouse", summary.PurgedNoWarehouse),
		zap.Int64("purged_no_line_items", summary.PurgedNoLineItems),
	)
	return nil
}

// SetRunLease installs the lease that serializes ingests across the
// background loop and manual sync requests.
func (s *Service) SetRunLease(lease shared.RunLease) {
	s.lease = lease
}

// SyncMerchantByToken runs a single-merchant ingest for the merchant owning
// the token. Used by the manual sync endpoint. Order ids are assigned from
// the current maximum, so the ingest takes the run lease and refuses to
// overlap a running pass.
func (s *Service) SyncMerchantByToken(ctx context.Context, token string) (*MerchantSummary, error) {
	merchant, err := s.merchants.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !merchant.CanSync() {
		return nil, shared.ErrMerchantBlocked
	}

	if s.lease != nil {
		acquired, err := s.lease.TryAcquire(ctx, s.config.LeaseTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire run lease: %w", err)
		}
		if !acquired {
			return nil, shared.ErrSyncInProgress
		}
		defer func() {
			if err := s.lease.Release(ctx); err != nil {
				s.logger.Error("Failed to release run lease", zap.Error(err))
			}
		}()
	}

	return s.SyncMerchant(ctx, merchant)
}

// SyncMerchant ingests the merchant's orders from the trailing window.
// Orders already known by code, orders whose pickup address cannot be
// routed, and orders that end up with zero line items are skipped.
func (s *Service) SyncMerchant(ctx context.Context, merchant *orders.Merchant) (*MerchantSummary, error) {
	summary := &MerchantSummary{MerchantID: merchant.ID, MerchantName: merchant.Name}

	now := time.Now().In(s.config.location())
	query := marketplace.OrderQuery{
		Start:           now.Add(-time.Duration(s.config.IngestLookbackHours) * time.Hour),
		End:             now,
		PageSize:        s.config.PageSize,
		State:           remoteStateArchive,
		IncludeCustomer: true,
	}

	nextID, err := s.orders.MaxID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read max order id: %w", err)
	}

	for page := 0; ; page++ {
		query.Page = page
		remotePage, err := s.client.ListOrders(ctx, merchant.KaspiToken, query)
		if err != nil {
			return nil, fmt.Errorf("failed to list remote orders: %w", err)
		}

		for i := range remotePage.Orders {
			remote := &remotePage.Orders[i]

			added, err := s.ingestOrder(ctx, merchant, remote, &nextID)
			if err != nil {
				s.logger.Error("Failed to ingest order",
					zap.String("code", remote.Code),
					zap.Int64("merchant_id", merchant.ID),
					zap.Error(err),
				)
				summary.Skipped++
				continue
			}
			if added {
				summary.Added++
			} else {
				summary.Skipped++
			}
		}

		if !remotePage.HasMore {
			break
		}
	}

	s.logger.Info("Merchant ingest finished",
		zap.Int64("merchant_id", merchant.ID),
		zap.String("merchant", merchant.Name),
		zap.Int("added", summary.Added),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

// ingestOrder mirrors one remote order. Returns true when a new local order
// with line items was created.
func (s *Service) ingestOrder(ctx context.Context, merchant *orders.Merchant, remote *marketplace.Order, nextID *int64) (bool, error) {
	exists, err := s.orders.ExistsByCode(ctx, remote.Code)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	warehouseID, routed, err := s.resolver.Resolve(ctx, remote.Origin)
	if err != nil {
		return false, err
	}
	if !routed {
		return false, nil
	}

	remoteStatus, known := marketplace.MapRemoteStatus(remote.Status)
	lifecycle, _ := marketplace.MapLifecycleStatus(remote.Status)
	if !known {
		s.logger.Warn("Unknown remote order status",
			zap.String("code", remote.Code),
			zap.String("status", remote.Status),
		)
	}

	*nextID++
	order := &orders.Order{
		ID:              *nextID,
		Code:            remote.Code,
		Source:          orders.SourceKaspi,
		RemoteID:        remote.RemoteID,
		MerchantID:      merchant.ID,
		WarehouseID:     warehouseID,
		RemoteStatus:    remoteStatus,
		LifecycleStatus: lifecycle,
		TotalPrice:      remote.TotalPrice,
		DeliveryCost:    remote.DeliveryCost,
		Express:         remote.Express,
		CustomerName:    merchant.Name,
		RemoteCreatedAt: remote.CreatedAt,
	}
	if remote.Customer != nil {
		order.CustomerPhone = remote.Customer.CellPhone
	}

	if err := s.orders.Create(ctx, order); err != nil {
		*nextID--
		return false, err
	}

	itemCount, err := s.syncLineItems(ctx, merchant.KaspiToken, order)
	if err != nil {
		return false, err
	}
	if itemCount == 0 {
		// No resolvable line items means nothing to fulfill locally.
		if err := s.orders.Delete(ctx, order.ID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// syncLineItems pulls the remote entries and upserts one line item per
// resolvable product. Returns how many line items the order has afterwards.
func (s *Service) syncLineItems(ctx context.Context, token string, order *orders.Order) (int, error) {
	entries, err := s.client.Entries(ctx, token, order.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch order entries: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.OfferCode == "" {
			s.logger.Warn("Order entry without offer code",
				zap.String("code", order.Code),
				zap.String("offer_name", entry.OfferName),
			)
			continue
		}

		product, err := s.products.FindByArticle(ctx, orders.NormalizeArticle(entry.OfferCode))
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("Order entry article unknown in catalog",
					zap.String("code", order.Code),
					zap.String("article", entry.OfferCode),
				)
				continue
			}
			return count, err
		}

		if err := s.lineItems.Upsert(ctx, order.ID, product.ID, entry.Quantity); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// reconcileMerchant re-checks the merchant's remote orders over the
// look-back windows and converges local statuses. Cancel-like transitions
// restock before the status is overwritten; once the stored lifecycle is
// terminal a restock never re-fires.
func (s *Service) reconcileMerchant(ctx context.Context, merchant *orders.Merchant) (updates, restocked int, err error) {
	now := time.Now().In(s.config.location())

	for _, days := range s.config.ReconcileLookbackDays {
		query := marketplace.OrderQuery{
			Start:    now.AddDate(0, 0, -days),
			End:      now,
			PageSize: s.config.PageSize,
			State:    remoteStateArchive,
		}

		for page := 0; ; page++ {
			query.Page = page
			remotePage, err := s.client.ListOrders(ctx, merchant.KaspiToken, query)
			if err != nil {
				return updates, restocked, fmt.Errorf("failed to list remote orders: %w", err)
			}

			for i := range remotePage.Orders {
				remote := &remotePage.Orders[i]

				changed, entriesRestocked, err := s.reconcileOrder(ctx, merchant, remote)
				if err != nil {
					s.logger.Error("Failed to reconcile order status",
						zap.String("code", remote.Code),
						zap.Error(err),
					)
					continue
				}
				if changed {
					updates++
				}
				restocked += entriesRestocked
			}

			if !remotePage.HasMore {
				break
			}
		}
	}
	return updates, restocked, nil
}

// reconcileOrder converges one locally known order with its remote status.
func (s *Service) reconcileOrder(ctx context.Context, merchant *orders.Merchant, remote *marketplace.Order) (bool, int, error) {
	local, err := s.orders.FindByCode(ctx, remote.Code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, 0, nil
		}
		return false, 0, err
	}

	remoteStatus, known := marketplace.MapRemoteStatus(remote.Status)
	lifecycle, _ := marketplace.MapLifecycleStatus(remote.Status)
	if !known {
		s.logger.Warn("Unknown remote order status",
			zap.String("code", remote.Code),
			zap.String("status", remote.Status),
		)
	}
	if lifecycle == local.LifecycleStatus {
		return false, 0, nil
	}

	restocked := 0
	if lifecycle.IsCancelLike() && !local.LifecycleStatus.IsTerminal() {
		restocked, err = s.restockOrder(ctx, merchant, local)
		if err != nil {
			return false, 0, err
		}
	}

	if err := s.orders.UpdateStatus(ctx, local.ID, remoteStatus, lifecycle); err != nil {
		return false, restocked, err
	}

	s.logger.Info("Order status converged",
		zap.String("code", local.Code),
		zap.String("from", string(local.LifecycleStatus)),
		zap.String("to", string(lifecycle)),
	)
	return true, restocked, nil
}

// restockOrder books the order's goods back into the configured storage
// cell. Products are correlated by exact offer name; entries that do not
// resolve are logged and skipped.
func (s *Service) restockOrder(ctx context.Context, merchant *orders.Merchant, order *orders.Order) (int, error) {
	entries, err := s.client.Entries(ctx, merchant.KaspiToken, order.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch entries for restock: %w", err)
	}

	restocked := 0
	for _, entry := range entries {
		product, err := s.products.FindByName(ctx, entry.OfferName)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("Restock entry product unknown by name",
					zap.String("code", order.Code),
					zap.String("offer_name", entry.OfferName),
				)
				continue
			}
			return restocked, err
		}

		restock := &orders.RestockEntry{
			ProductID:  product.ID,
			Quantity:   entry.Quantity,
			CellID:     s.config.RestockCellID,
			MerchantID: merchant.ID,
		}
		if err := s.restocks.Create(ctx, restock); err != nil {
			return restocked, err
		}
		restocked++
	}

	s.logger.Info("Order restocked",
		zap.String("code", order.Code),
		zap.Int("entries", restocked),
	)
	return restocked, nil
}
