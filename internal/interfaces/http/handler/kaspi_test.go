package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/application/reconcile"
	"github.com/jetqor/backend/internal/domain/fulfillment"
	"github.com/jetqor/backend/internal/domain/marketplace"
	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/domain/shared"
)

type stubMarket struct {
	waybill string
}

func (s *stubMarket) ListOrders(context.Context, string, marketplace.OrderQuery) (*marketplace.OrderPage, error) {
	return &marketplace.OrderPage{}, nil
}

func (s *stubMarket) OrderByCode(_ context.Context, _ string, code string) (*marketplace.Order, error) {
	return &marketplace.Order{RemoteID: "r-1", Code: code, Waybill: s.waybill}, nil
}

func (s *stubMarket) Entries(context.Context, string, string) ([]marketplace.Entry, error) {
	return nil, nil
}

func (s *stubMarket) RequestAssembly(context.Context, string, string) error {
	return nil
}

type stubOrders struct {
	list []orders.Order
}

func (s *stubOrders) FindByCode(_ context.Context, code string) (*orders.Order, error) {
	for i := range s.list {
		if s.list[i].Code == code {
			return &s.list[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubOrders) ExistsByCode(context.Context, string) (bool, error)  { return false, nil }
func (s *stubOrders) MaxID(context.Context) (int64, error)                { return 0, nil }
func (s *stubOrders) Create(context.Context, *orders.Order) error         { return nil }
func (s *stubOrders) Delete(context.Context, int64) error                 { return nil }
func (s *stubOrders) DeleteWithoutWarehouse(context.Context) (int64, error) { return 0, nil }
func (s *stubOrders) DeleteWithoutLineItems(context.Context) (int64, error) { return 0, nil }

func (s *stubOrders) UpdateStatus(context.Context, int64, marketplace.RemoteStatus, marketplace.LifecycleStatus) error {
	return nil
}

func (s *stubOrders) List(_ context.Context, page, pageSize int) ([]orders.Order, int64, error) {
	start := (page - 1) * pageSize
	if start >= len(s.list) {
		return nil, int64(len(s.list)), nil
	}
	end := start + pageSize
	if end > len(s.list) {
		end = len(s.list)
	}
	return s.list[start:end], int64(len(s.list)), nil
}

type stubLineItems struct{}

func (stubLineItems) Upsert(context.Context, int64, int64, int) error      { return nil }
func (stubLineItems) CountByOrder(context.Context, int64) (int64, error)   { return 0, nil }

type stubProducts struct{}

func (stubProducts) FindByArticle(context.Context, string) (*orders.Product, error) {
	return nil, shared.ErrNotFound
}

func (stubProducts) FindByName(context.Context, string) (*orders.Product, error) {
	return nil, shared.ErrNotFound
}

type stubMerchants struct {
	merchants []orders.Merchant
}

func (s *stubMerchants) FindSyncable(context.Context) ([]orders.Merchant, error) {
	return s.merchants, nil
}

func (s *stubMerchants) FindByID(_ context.Context, id int64) (*orders.Merchant, error) {
	for i := range s.merchants {
		if s.merchants[i].ID == id {
			return &s.merchants[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubMerchants) FindByToken(_ context.Context, token string) (*orders.Merchant, error) {
	for i := range s.merchants {
		if s.merchants[i].KaspiToken == token {
			return &s.merchants[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubMerchants) FindByName(_ context.Context, name string) (*orders.Merchant, error) {
	for i := range s.merchants {
		if s.merchants[i].Name == name {
			return &s.merchants[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

type stubRestocks struct{}

func (stubRestocks) Create(context.Context, *orders.RestockEntry) error { return nil }

type stubWarehouseDir struct{}

func (stubWarehouseDir) FindByID(context.Context, int64) (*fulfillment.Warehouse, error) {
	return nil, shared.ErrNotFound
}

func (stubWarehouseDir) FindByCity(context.Context, string) ([]fulfillment.Warehouse, error) {
	return nil, nil
}

type stubLease struct {
	held bool
}

func (s *stubLease) TryAcquire(context.Context, time.Duration) (bool, error) {
	if s.held {
		return false, nil
	}
	s.held = true
	return true, nil
}

func (s *stubLease) Release(context.Context) error {
	s.held = false
	return nil
}

func newTestRouter(t *testing.T, market marketplace.Client, orderRepo orders.OrderRepository, merchants orders.MerchantRepository) *gin.Engine {
	engine, _ := newTestRouterWithService(t, market, orderRepo, merchants)
	return engine
}

func newTestRouterWithService(t *testing.T, market marketplace.Client, orderRepo orders.OrderRepository, merchants orders.MerchantRepository) (*gin.Engine, *reconcile.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := fulfillment.NewResolver(fulfillment.ResolverConfig{}, stubWarehouseDir{}, zap.NewNop())
	service := reconcile.NewService(
		market, orderRepo, stubLineItems{}, stubProducts{}, merchants, stubRestocks{},
		resolver, reconcile.Config{}, zap.NewNop(),
	)
	waybills := reconcile.NewWaybillResolver(market, orderRepo, merchants, zap.NewNop())
	handler := NewKaspiHandler(service, waybills, orderRepo, zap.NewNop())

	engine := gin.New()
	api := engine.Group("/api/v1")
	handler.RegisterRoutes(api)
	return engine, service
}

func perform(engine *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestKaspiHandlerSync(t *testing.T) {
	merchants := &stubMerchants{merchants: []orders.Merchant{
		{ID: 3, Name: "TOO Jetqor", KaspiToken: "tok-1"},
	}}

	t.Run("rejects a request without a token", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, &stubOrders{}, merchants)

		rec := perform(engine, http.MethodPost, "/api/v1/kaspi/sync", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, false, resp["success"])
	})

	t.Run("maps an unknown token to 404", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, &stubOrders{}, merchants)

		rec := perform(engine, http.MethodPost, "/api/v1/kaspi/sync", `{"token":"nope"}`, nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("runs the ingest for a token in the header", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, &stubOrders{}, merchants)

		rec := perform(engine, http.MethodPost, "/api/v1/kaspi/sync", "", map[string]string{
			"X-Auth-Token": "tok-1",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				MerchantID int64 `json:"merchant_id"`
				Added      int   `json:"added"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(3), resp.Data.MerchantID)
	})

	t.Run("answers 409 while a reconciliation pass is running", func(t *testing.T) {
		engine, service := newTestRouterWithService(t, &stubMarket{}, &stubOrders{}, merchants)
		service.SetRunLease(&stubLease{held: true})

		rec := perform(engine, http.MethodPost, "/api/v1/kaspi/sync", `{"token":"tok-1"}`, nil)

		assert.Equal(t, http.StatusConflict, rec.Code)
		var resp struct {
			Success bool `json:"success"`
			Error   struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "ERR_CONFLICT", resp.Error.Code)
	})

	t.Run("releases the lease after a manual ingest", func(t *testing.T) {
		engine, service := newTestRouterWithService(t, &stubMarket{}, &stubOrders{}, merchants)
		lease := &stubLease{}
		service.SetRunLease(lease)

		rec := perform(engine, http.MethodPost, "/api/v1/kaspi/sync", `{"token":"tok-1"}`, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, lease.held)
	})

	t.Run("rejects a blocked merchant", func(t *testing.T) {
		blocked := &stubMerchants{merchants: []orders.Merchant{
			{ID: 9, Name: "Blocked", KaspiToken: "tok-b", Blocked: true},
		}}
		engine := newTestRouter(t, &stubMarket{}, &stubOrders{}, blocked)

		rec := perform(engine, http.MethodPost, "/api/v1/kaspi/sync", `{"token":"tok-b"}`, nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestKaspiHandlerWaybill(t *testing.T) {
	merchants := &stubMerchants{merchants: []orders.Merchant{
		{ID: 3, Name: "TOO Jetqor", KaspiToken: "tok-1"},
	}}
	orderRepo := &stubOrders{list: []orders.Order{
		{ID: 1, Code: "409911234", RemoteID: "r-1", MerchantID: 3},
	}}

	t.Run("returns an issued waybill", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{waybill: "https://kaspi.kz/wb/1"}, orderRepo, merchants)

		rec := perform(engine, http.MethodGet, "/api/v1/kaspi/orders/409911234/waybill", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data struct {
				Waybill   string `json:"waybill"`
				Available bool   `json:"available"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Available)
		assert.Equal(t, "https://kaspi.kz/wb/1", resp.Data.Waybill)
	})

	t.Run("describes a pending waybill without failing", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, orderRepo, merchants)

		rec := perform(engine, http.MethodGet, "/api/v1/kaspi/orders/409911234/waybill", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data struct {
				Available bool   `json:"available"`
				Message   string `json:"message"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Available)
		assert.NotEmpty(t, resp.Data.Message)
	})

	t.Run("unknown order code yields 404", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, &stubOrders{}, merchants)

		rec := perform(engine, http.MethodGet, "/api/v1/kaspi/orders/nope/waybill", "", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestKaspiHandlerListOrders(t *testing.T) {
	merchants := &stubMerchants{}
	now := time.Now()
	orderRepo := &stubOrders{list: []orders.Order{
		{ID: 2, Code: "409911235", RemoteCreatedAt: now},
		{ID: 1, Code: "409911234", RemoteCreatedAt: now.Add(-time.Hour)},
	}}

	t.Run("returns a page with meta", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, orderRepo, merchants)

		rec := perform(engine, http.MethodGet, "/api/v1/kaspi/orders?page=1&page_size=1", "", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []OrderResponse `json:"data"`
			Meta struct {
				Total      int64 `json:"total"`
				TotalPages int   `json:"total_pages"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "409911235", resp.Data[0].Code)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)
	})

	t.Run("rejects an oversized page size", func(t *testing.T) {
		engine := newTestRouter(t, &stubMarket{}, orderRepo, merchants)

		rec := perform(engine, http.MethodGet, "/api/v1/kaspi/orders?page_size=1000", "", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
