package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jetqor/backend/internal/application/reconcile"
	"github.com/jetqor/backend/internal/domain/orders"
	"github.com/jetqor/backend/internal/interfaces/http/dto"
)

// KaspiHandler exposes the marketplace reconciliation operations
type KaspiHandler struct {
	BaseHandler
	service  *reconcile.Service
	waybills *reconcile.WaybillResolver
	orders   orders.OrderRepository
	logger   *zap.Logger
}

// NewKaspiHandler creates a new KaspiHandler
func NewKaspiHandler(
	service *reconcile.Service,
	waybills *reconcile.WaybillResolver,
	orderRepo orders.OrderRepository,
	logger *zap.Logger,
) *KaspiHandler {
	return &KaspiHandler{
		service:  service,
		waybills: waybills,
		orders:   orderRepo,
		logger:   logger,
	}
}

// RegisterRoutes registers the kaspi routes
func (h *KaspiHandler) RegisterRoutes(rg *gin.RouterGroup) {
	kaspi := rg.Group("/kaspi")
	{
		kaspi.POST("/sync", h.Sync)
		kaspi.GET("/orders", h.ListOrders)
		kaspi.GET("/orders/:code/waybill", h.Waybill)
	}
}

// SyncRequest carries the merchant token for a manual ingest
type SyncRequest struct {
	Token string `json:"token"`
}

// OrderResponse is the wire shape of a mirrored order
type OrderResponse struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	Source          string          `json:"source"`
	MerchantID      int64           `json:"merchant_id"`
	WarehouseID     int64           `json:"warehouse_id"`
	RemoteStatus    string          `json:"remote_status"`
	LifecycleStatus string          `json:"lifecycle_status"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	DeliveryCost    decimal.Decimal `json:"delivery_cost"`
	Express         bool            `json:"express"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	RemoteCreatedAt time.Time       `json:"remote_created_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toOrderResponse(order *orders.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID,
		Code:            order.Code,
		Source:          order.Source,
		MerchantID:      order.MerchantID,
		WarehouseID:     order.WarehouseID,
		RemoteStatus:    string(order.RemoteStatus),
		LifecycleStatus: string(order.LifecycleStatus),
		TotalPrice:      order.TotalPrice,
		DeliveryCost:    order.DeliveryCost,
		Express:         order.Express,
		CustomerName:    order.CustomerName,
		CustomerPhone:   order.CustomerPhone,
		RemoteCreatedAt: order.RemoteCreatedAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// Sync runs a single-merchant ingest for the token in the body or the
// X-Auth-Token header
// @Router /kaspi/sync [post]
func (h *KaspiHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, "Invalid request body")
		return
	}
	token := req.Token
	if token == "" {
		token = c.GetHeader("X-Auth-Token")
	}
	if token == "" {
		h.Unauthorized(c, "Merchant token is required")
		return
	}

	summary, err := h.service.SyncMerchantByToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("Manual sync failed", zap.Error(err))
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Waybill returns the delivery waybill for a mirrored order
// @Router /kaspi/orders/{code}/waybill [get]
func (h *KaspiHandler) Waybill(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Order code is required")
		return
	}

	result, err := h.waybills.Resolve(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListOrders returns a page of mirrored orders, newest first
// @Router /kaspi/orders [get]
func (h *KaspiHandler) ListOrders(c *gin.Context) {
	list := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, "Invalid pagination parameters")
		return
	}
	if list.Page <= 0 {
		list.Page = 1
	}
	if list.PageSize <= 0 {
		list.PageSize = 20
	}

	page, total, err := h.orders.List(c.Request.Context(), list.Page, list.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OrderResponse, 0, len(page))
	for i := range page {
		responses = append(responses, toOrderResponse(&page[i]))
	}
	h.SuccessWithMeta(c, responses, total, list.Page, list.PageSize)
}
