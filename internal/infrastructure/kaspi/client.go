package kaspi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jetqor/backend/internal/domain/marketplace"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	contentTypeJSONAPI = "application/vnd.api+json"

	authTokenHeader = "X-Auth-Token"

	// assembleStatus is the one outbound transition this client performs;
	// the remote issues a waybill once the order enters assembly.
	assembleStatus = "ASSEMBLE"
)

// Config holds the marketplace API settings
type Config struct {
	BaseURL        string
	TimeoutSeconds int
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("kaspi: base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("kaspi: invalid base URL: %w", err)
	}
	return nil
}

// Client implements marketplace.Client against the Kaspi shop API
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new Kaspi API client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}, nil
}

// ListOrders returns one page of orders created inside the query window
func (c *Client) ListOrders(ctx context.Context, token string, query marketplace.OrderQuery) (*marketplace.OrderPage, error) {
	if token == "" {
		return nil, marketplace.ErrTokenMissing
	}

	params := url.Values{}
	params.Set("page[number]", strconv.Itoa(query.Page))
	params.Set("page[size]", strconv.Itoa(query.PageSize))
	params.Set("filter[orders][creationDate][$ge]", strconv.FormatInt(query.Start.UnixMilli(), 10))
	params.Set("filter[orders][creationDate][$le]", strconv.FormatInt(query.End.UnixMilli(), 10))
	if query.State != "" {
		params.Set("filter[orders][state]", query.State)
	}
	if query.IncludeCustomer {
		params.Set("include[orders]", "user")
	}

	body, err := c.get(ctx, token, "/orders", params)
	if err != nil {
		return nil, err
	}

	var doc ordersDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	included := indexIncluded(doc.Included)
	page := &marketplace.OrderPage{
		Orders:  make([]marketplace.Order, 0, len(doc.Data)),
		HasMore: query.PageSize > 0 && len(doc.Data) == query.PageSize,
	}
	for i := range doc.Data {
		page.Orders = append(page.Orders, orderFromResource(&doc.Data[i], included))
	}
	return page, nil
}

// OrderByCode fetches a single order by its human-facing code
func (c *Client) OrderByCode(ctx context.Context, token, code string) (*marketplace.Order, error) {
	if token == "" {
		return nil, marketplace.ErrTokenMissing
	}

	params := url.Values{}
	params.Set("filter[orders][code]", code)

	body, err := c.get(ctx, token, "/orders", params)
	if err != nil {
		return nil, err
	}

	var doc orderDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}
	if len(doc.Data) == 0 {
		return nil, marketplace.ErrOrderNotFound
	}

	order := orderFromResource(&doc.Data[0], indexIncluded(doc.Included))
	return &order, nil
}

// Entries fetches the line items of an order by its remote identifier
func (c *Client) Entries(ctx context.Context, token, remoteID string) ([]marketplace.Entry, error) {
	if token == "" {
		return nil, marketplace.ErrTokenMissing
	}

	body, err := c.get(ctx, token, "/orders/"+url.PathEscape(remoteID)+"/entries", nil)
	if err != nil {
		return nil, err
	}

	var doc entriesDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	entries := make([]marketplace.Entry, 0, len(doc.Data))
	for _, res := range doc.Data {
		entry := marketplace.Entry{Quantity: res.Attributes.Quantity}
		if res.Attributes.Offer != nil {
			entry.OfferCode = res.Attributes.Offer.Code
			entry.OfferName = res.Attributes.Offer.Name
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RequestAssembly asks the marketplace to move the order into assembly
func (c *Client) RequestAssembly(ctx context.Context, token, remoteID string) error {
	if token == "" {
		return marketplace.ErrTokenMissing
	}

	payload := statusUpdateRequest{
		Data: statusUpdateData{
			Type: "orders",
			ID:   remoteID,
			Attributes: statusUpdateAttributes{
				Status:        assembleStatus,
				NumberOfSpace: "1",
			},
		},
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("kaspi: failed to marshal status update: %w", err)
	}

	respBody, err := c.do(ctx, token, http.MethodPost, "/orders", nil, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}

	var doc statusDocument
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return fmt.Errorf("%w: status update not acknowledged", marketplace.ErrInvalidResponse)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

func (c *Client) get(ctx context.Context, token, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, token, http.MethodGet, path, params, nil)
}

// do performs an HTTP request against the marketplace API
func (c *Client) do(ctx context.Context, token, method, path string, params url.Values, body io.Reader) ([]byte, error) {
	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("kaspi: failed to create request: %w", err)
	}

	req.Header.Set(authTokenHeader, token)
	req.Header.Set("Accept", contentTypeJSONAPI)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSONAPI)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", marketplace.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("kaspi: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", marketplace.ErrRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

func indexIncluded(included []includedResource) map[string]*includedResource {
	index := make(map[string]*includedResource, len(included))
	for i := range included {
		index[included[i].ID] = &included[i]
	}
	return index
}

// orderFromResource converts a JSON:API order resource to the domain shape
func orderFromResource(res *orderResource, included map[string]*includedResource) marketplace.Order {
	attrs := res.Attributes
	order := marketplace.Order{
		RemoteID:     res.ID,
		Code:         attrs.Code,
		Status:       attrs.Status,
		State:        attrs.State,
		TotalPrice:   decimal.NewFromFloat(attrs.TotalPrice),
		DeliveryCost: decimal.NewFromFloat(attrs.DeliveryCost),
		Express:      attrs.Express,
	}

	if attrs.CreationDate > 0 {
		order.CreatedAt = time.UnixMilli(attrs.CreationDate)
	}
	if attrs.KaspiDelivery != nil {
		order.Waybill = attrs.KaspiDelivery.Waybill
	}
	if attrs.OriginAddress != nil {
		origin := &marketplace.OriginAddress{}
		if attrs.OriginAddress.City != nil {
			origin.City = attrs.OriginAddress.City.Name
		}
		if attrs.OriginAddress.Address != nil {
			origin.StreetName = attrs.OriginAddress.Address.StreetName
			origin.StreetNumber = attrs.OriginAddress.Address.StreetNumber
			origin.Building = attrs.OriginAddress.Address.Building
		}
		order.Origin = origin
	}

	if res.Relationships != nil && res.Relationships.User.Data != nil {
		if buyer, ok := included[res.Relationships.User.Data.ID]; ok {
			name := strings.TrimSpace(buyer.Attributes.FirstName + " " + buyer.Attributes.LastName)
			order.Customer = &marketplace.Customer{
				Name:      name,
				CellPhone: buyer.Attributes.CellPhone,
			}
		}
	}

	return order
}

// Ensure Client implements the marketplace port
var _ marketplace.Client = (*Client)(nil)
