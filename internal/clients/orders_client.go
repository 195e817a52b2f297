package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

// HeaderRequestID carries a per-request id to the orders service.
const HeaderRequestID = middleware.HeaderRequestID

const maxErrorBody = 1 << 20

// OrdersClient is every call the console makes against the orders service.
// Each call issues exactly one request and never retries.
type OrdersClient interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	UpdateOrder(ctx context.Context, id int64, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	SearchOrders(ctx context.Context, query string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.Order, error)
	ListOrderItems(ctx context.Context, id int64) ([]models.LineItem, error)

	CreateLegacyOrder(ctx context.Context, req *models.LegacyOrderRequest) (*models.LegacyOrder, error)
	UpdateLegacyOrder(ctx context.Context, id int64, req *models.LegacyOrderRequest) (*models.LegacyOrder, error)
	GetLegacyOrder(ctx context.Context, id int64) (*models.LegacyOrder, error)
	SearchLegacyOrders(ctx context.Context, query string) ([]models.LegacyOrder, error)
}

// Ensure HTTPOrdersClient implements OrdersClient
var _ OrdersClient = (*HTTPOrdersClient)(nil)

// HTTPOrdersClient implements OrdersClient over the orders REST API.
type HTTPOrdersClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
	logger     *slog.Logger
}

// NewHTTPOrdersClient creates a new HTTP-based orders client.
func NewHTTPOrdersClient(cfg config.ServiceConfig, metrics *Metrics, logger *slog.Logger) *HTTPOrdersClient {
	return &HTTPOrdersClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// CreateOrder handles POST /orders.
func (c *HTTPOrdersClient) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	c.logger.Debug("Creating order",
		"customer_id", req.CustomerID,
		"item_count", len(req.Items),
	)

	var order models.Order
	if err := c.do(ctx, "CreateOrder", http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}

	c.logger.Info("Order created", "order_id", order.ID, "status", order.Status)
	return &order, nil
}

// UpdateOrder handles PUT /orders/{id}.
func (c *HTTPOrdersClient) UpdateOrder(ctx context.Context, id int64, req *models.CreateOrderRequest) (*models.Order, error) {
	c.logger.Debug("Updating order", "order_id", id, "item_count", len(req.Items))

	var order models.Order
	if err := c.do(ctx, "UpdateOrder", http.MethodPut, orderPath(id), req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder handles GET /orders/{id}. A 404 unwraps to errors.ErrNotFound.
func (c *HTTPOrdersClient) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	c.logger.Debug("Fetching order", "order_id", id)

	var order models.Order
	if err := c.do(ctx, "GetOrder", http.MethodGet, orderPath(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder handles DELETE /orders/{id}; the usual success is 204.
func (c *HTTPOrdersClient) DeleteOrder(ctx context.Context, id int64) error {
	c.logger.Debug("Deleting order", "order_id", id)

	if err := c.do(ctx, "DeleteOrder", http.MethodDelete, orderPath(id), nil, nil); err != nil {
		return err
	}

	c.logger.Info("Order deleted", "order_id", id)
	return nil
}

// SearchOrders handles GET /orders?{query}.
func (c *HTTPOrdersClient) SearchOrders(ctx context.Context, query string) ([]models.Order, error) {
	c.logger.Debug("Searching orders", "query", query)

	var orders []models.Order
	if err := c.do(ctx, "SearchOrders", http.MethodGet, searchPath(query), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus handles PUT /orders/{id}/status.
func (c *HTTPOrdersClient) UpdateOrderStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.Order, error) {
	c.logger.Debug("Updating order status", "order_id", id, "status", req.Status)

	var order models.Order
	if err := c.do(ctx, "UpdateOrderStatus", http.MethodPut, orderPath(id)+"/status", req, &order); err != nil {
		return nil, err
	}

	c.logger.Info("Order status updated", "order_id", id, "status", order.Status)
	return &order, nil
}

// ListOrderItems handles GET /orders/{id}/items.
func (c *HTTPOrdersClient) ListOrderItems(ctx context.Context, id int64) ([]models.LineItem, error) {
	var items []models.LineItem
	if err := c.do(ctx, "ListOrderItems", http.MethodGet, orderPath(id)+"/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CreateLegacyOrder handles POST /orders with the flat schema.
func (c *HTTPOrdersClient) CreateLegacyOrder(ctx context.Context, req *models.LegacyOrderRequest) (*models.LegacyOrder, error) {
	var order models.LegacyOrder
	if err := c.do(ctx, "CreateLegacyOrder", http.MethodPost, "/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateLegacyOrder handles PUT /orders/{id} with the flat schema.
func (c *HTTPOrdersClient) UpdateLegacyOrder(ctx context.Context, id int64, req *models.LegacyOrderRequest) (*models.LegacyOrder, error) {
	var order models.LegacyOrder
	if err := c.do(ctx, "UpdateLegacyOrder", http.MethodPut, orderPath(id), req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetLegacyOrder handles GET /orders/{id} with the flat schema.
func (c *HTTPOrdersClient) GetLegacyOrder(ctx context.Context, id int64) (*models.LegacyOrder, error) {
	var order models.LegacyOrder
	if err := c.do(ctx, "GetLegacyOrder", http.MethodGet, orderPath(id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SearchLegacyOrders handles GET /orders?{query} with the flat schema.
func (c *HTTPOrdersClient) SearchLegacyOrders(ctx context.Context, query string) ([]models.LegacyOrder, error) {
	var orders []models.LegacyOrder
	if err := c.do(ctx, "SearchLegacyOrders", http.MethodGet, searchPath(query), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// do sends one request and decodes a 2xx body into out. out may be nil when no
// body is expected.
func (c *HTTPOrdersClient) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	c.setHeaders(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observe(op, 0, time.Since(start))
		c.logger.Error("Orders request failed",
			"op", op,
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return &errors.TransportError{
			Op:      op,
			Method:  method,
			Path:    path,
			Message: errors.GenericServerMessage,
			Err:     err,
		}
	}
	defer resp.Body.Close()
	c.metrics.observe(op, resp.StatusCode, time.Since(start))
	recordStatus(ctx, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := transportError(op, method, path, resp)
		c.logger.Warn("Orders request returned error",
			"op", op,
			"status_code", resp.StatusCode,
			"message", terr.Message,
		)
		return terr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.TransportError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errors.GenericServerMessage,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

// setHeaders forwards the console request's id, minting one for calls made
// outside a request.
func (c *HTTPOrdersClient) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	requestID := middleware.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, requestID)
}

// transportError reads the server's message field when the body has one.
func transportError(op, method, path string, resp *http.Response) *errors.TransportError {
	terr := &errors.TransportError{
		Op:         op,
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode,
		Message:    errors.GenericServerMessage,
	}
	if resp.StatusCode == http.StatusNotFound {
		terr.Err = errors.ErrNotFound
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return terr
	}

	var body models.ErrorBody
	if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Message) != "" {
		terr.Message = body.Message
	}
	return terr
}

type statusKey struct{}

// WithStatus returns a context that makes the next call made with it store the
// HTTP status code of the response in *code.
func WithStatus(ctx context.Context, code *int) context.Context {
	return context.WithValue(ctx, statusKey{}, code)
}

func recordStatus(ctx context.Context, code int) {
	if p, ok := ctx.Value(statusKey{}).(*int); ok && p != nil {
		*p = code
	}
}

func orderPath(id int64) string {
	return fmt.Sprintf("/orders/%d", id)
}

func searchPath(query string) string {
	if query == "" {
		return "/orders"
	}
	return "/orders?" + query
}
