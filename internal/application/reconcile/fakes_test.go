package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jetqor/backend/internal/domain/fulfillment"
	"github.com/jetqor/backend/internal/domain/marketplace"
	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
)

// fakeClient is an in-memory marketplace with per-token listings.
type fakeClient struct {
	mu sync.Mutex

	ordersByToken   map[string][]marketplace.Order
	entriesByRemote map[string][]marketplace.Entry
	listErrByToken  map[string]error

	// waybillByRemote overrides the waybill attribute on fetched orders;
	// assembleGrant installs a waybill once assembly is requested.
	waybillByRemote map[string]string
	assembleGrant   map[string]string
	assembleErr     error

	assembleCalls []string
	fetchesByCode map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		ordersByToken:   make(map[string][]marketplace.Order),
		entriesByRemote: make(map[string][]marketplace.Entry),
		listErrByToken:  make(map[string]error),
		waybillByRemote: make(map[string]string),
		assembleGrant:   make(map[string]string),
		fetchesByCode:   make(map[string]int),
	}
}

func (c *fakeClient) ListOrders(_ context.Context, token string, query marketplace.OrderQuery) (*marketplace.OrderPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.listErrByToken[token]; err != nil {
		return nil, err
	}

	all := c.ordersByToken[token]
	start := query.Page * query.PageSize
	if start >= len(all) {
		return &marketplace.OrderPage{}, nil
	}
	end := start + query.PageSize
	if end > len(all) {
		end = len(all)
	}
	page := make([]marketplace.Order, end-start)
	copy(page, all[start:end])
	return &marketplace.OrderPage{
		Orders:  page,
		HasMore: len(page) == query.PageSize && end < len(all),
	}, nil
}

func (c *fakeClient) OrderByCode(_ context.Context, token, code string) (*marketplace.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchesByCode[code]++
	for _, order := range c.ordersByToken[token] {
		if order.Code == code {
			found := order
			if wb, ok := c.waybillByRemote[found.RemoteID]; ok {
				found.Waybill = wb
			}
			return &found, nil
		}
	}
	return nil, marketplace.ErrOrderNotFound
}

func (c *fakeClient) Entries(_ context.Context, _ string, remoteID string) ([]marketplace.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entriesByRemote[remoteID], nil
}

func (c *fakeClient) RequestAssembly(_ context.Context, _ string, remoteID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.assembleCalls = append(c.assembleCalls, remoteID)
	if c.assembleErr != nil {
		return c.assembleErr
	}
	if wb, ok := c.assembleGrant[remoteID]; ok {
		c.waybillByRemote[remoteID] = wb
	}
	return nil
}

var _ marketplace.Client = (*fakeClient)(nil)

// fakeOrderRepo stores orders keyed by code.
type fakeOrderRepo struct {
	byCode  map[string]*orders.Order
	deleted []int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byCode: make(map[string]*orders.Order)}
}

func (r *fakeOrderRepo) FindByCode(_ context.Context, code string) (*orders.Order, error) {
	order, ok := r.byCode[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (r *fakeOrderRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	_, ok := r.byCode[code]
	return ok, nil
}

func (r *fakeOrderRepo) MaxID(context.Context) (int64, error) {
	var max int64
	for _, order := range r.byCode {
		if order.ID > max {
			max = order.ID
		}
	}
	return max, nil
}

func (r *fakeOrderRepo) Create(_ context.Context, order *orders.Order) error {
	if _, ok := r.byCode[order.Code]; ok {
		return shared.ErrAlreadyExists
	}
	copied := *order
	r.byCode[order.Code] = &copied
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, remote marketplace.RemoteStatus, lifecycle marketplace.LifecycleStatus) error {
	for _, order := range r.byCode {
		if order.ID == id {
			order.RemoteStatus = remote
			order.LifecycleStatus = lifecycle
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *fakeOrderRepo) Delete(_ context.Context, id int64) error {
	for code, order := range r.byCode {
		if order.ID == id {
			delete(r.byCode, code)
			r.deleted = append(r.deleted, id)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (r *fakeOrderRepo) DeleteWithoutWarehouse(context.Context) (int64, error) {
	var purged int64
	for code, order := range r.byCode {
		if order.WarehouseID == 0 {
			delete(r.byCode, code)
			purged++
		}
	}
	return purged, nil
}

func (r *fakeOrderRepo) DeleteWithoutLineItems(context.Context) (int64, error) {
	return 0, nil
}

func (r *fakeOrderRepo) List(_ context.Context, page, pageSize int) ([]orders.Order, int64, error) {
	all := make([]orders.Order, 0, len(r.byCode))
	for _, order := range r.byCode {
		all = append(all, *order)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].RemoteCreatedAt.After(all[j].RemoteCreatedAt)
	})
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ orders.OrderRepository = (*fakeOrderRepo)(nil)

// fakeLineItemRepo stores quantities keyed by (order, product).
type fakeLineItemRepo struct {
	quantities map[[2]int64]int
}

func newFakeLineItemRepo() *fakeLineItemRepo {
	return &fakeLineItemRepo{quantities: make(map[[2]int64]int)}
}

func (r *fakeLineItemRepo) Upsert(_ context.Context, orderID, productID int64, quantity int) error {
	r.quantities[[2]int64{orderID, productID}] = quantity
	return nil
}

func (r *fakeLineItemRepo) CountByOrder(_ context.Context, orderID int64) (int64, error) {
	var count int64
	for key := range r.quantities {
		if key[0] == orderID {
			count++
		}
	}
	return count, nil
}

var _ orders.LineItemRepository = (*fakeLineItemRepo)(nil)

// fakeProductRepo indexes products by normalized article and by exact name.
type fakeProductRepo struct {
	byArticle map[string]*orders.Product
	byName    map[string]*orders.Product
}

func newFakeProductRepo(products ...orders.Product) *fakeProductRepo {
	repo := &fakeProductRepo{
		byArticle: make(map[string]*orders.Product),
		byName:    make(map[string]*orders.Product),
	}
	for i := range products {
		product := products[i]
		repo.byArticle[orders.NormalizeArticle(product.Article)] = &product
		repo.byName[product.Name] = &product
	}
	return repo
}

func (r *fakeProductRepo) FindByArticle(_ context.Context, article string) (*orders.Product, error) {
	product, ok := r.byArticle[article]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return product, nil
}

func (r *fakeProductRepo) FindByName(_ context.Context, name string) (*orders.Product, error) {
	product, ok := r.byName[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return product, nil
}

var _ orders.ProductRepository = (*fakeProductRepo)(nil)

// fakeMerchantRepo holds a static merchant list.
type fakeMerchantRepo struct {
	merchants []orders.Merchant
}

func (r *fakeMerchantRepo) FindSyncable(context.Context) ([]orders.Merchant, error) {
	syncable := make([]orders.Merchant, 0, len(r.merchants))
	for _, m := range r.merchants {
		if m.CanSync() {
			syncable = append(syncable, m)
		}
	}
	return syncable, nil
}

func (r *fakeMerchantRepo) FindByID(_ context.Context, id int64) (*orders.Merchant, error) {
	for i := range r.merchants {
		if r.merchants[i].ID == id {
			return &r.merchants[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMerchantRepo) FindByToken(_ context.Context, token string) (*orders.Merchant, error) {
	for i := range r.merchants {
		if r.merchants[i].KaspiToken == token {
			return &r.merchants[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMerchantRepo) FindByName(_ context.Context, name string) (*orders.Merchant, error) {
	for i := range r.merchants {
		if r.merchants[i].Name == name {
			return &r.merchants[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

var _ orders.MerchantRepository = (*fakeMerchantRepo)(nil)

// fakeRestockRepo appends entries.
type fakeRestockRepo struct {
	entries []orders.RestockEntry
}

func (r *fakeRestockRepo) Create(_ context.Context, entry *orders.RestockEntry) error {
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, *entry)
	return nil
}

var _ orders.RestockRepository = (*fakeRestockRepo)(nil)

// fakeRunLease is a single-process lease with call counters.
type fakeRunLease struct {
	held     bool
	acquires int
	releases int
}

func (l *fakeRunLease) TryAcquire(_ context.Context, _ time.Duration) (bool, error) {
	l.acquires++
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeRunLease) Release(context.Context) error {
	l.releases++
	l.held = false
	return nil
}

var _ shared.RunLease = (*fakeRunLease)(nil)

// stubWarehouses backs the resolver with a fixed directory.
type stubWarehouses struct {
	byCity map[string][]fulfillment.Warehouse
}

func (s *stubWarehouses) FindByID(_ context.Context, id int64) (*fulfillment.Warehouse, error) {
	for _, list := range s.byCity {
		for i := range list {
			if list[i].ID == id {
				return &list[i], nil
			}
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubWarehouses) FindByCity(_ context.Context, city string) ([]fulfillment.Warehouse, error) {
	return s.byCity[city], nil
}

var _ fulfillment.WarehouseRepository = (*stubWarehouses)(nil)
