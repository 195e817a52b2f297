package clients

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

// Ensure MockOrdersClient implements OrdersClient
var _ OrdersClient = (*MockOrdersClient)(nil)

// MockOrdersClient is an in-memory orders backend. It serves tests and the
// demo backend mode.
type MockOrdersClient struct {
	mu       sync.Mutex
	orders   map[int64]*models.Order
	items    map[int64][]models.LineItem
	legacy   map[int64]*models.LegacyOrder
	nextID   int64
	nextItem int64
	calls    []string
}

// NewMockOrdersClient creates an empty mock orders client.
func NewMockOrdersClient() *MockOrdersClient {
	return &MockOrdersClient{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]models.LineItem),
		legacy: make(map[int64]*models.LegacyOrder),
		nextID: 1,
	}
}

// AddOrder stores an order and its items as-is. Items with no id get one.
func (m *MockOrdersClient) AddOrder(order models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID >= m.nextID {
		m.nextID = order.ID + 1
	}
	m.storeLocked(&order, order.Items)
}

// AddLegacyOrder stores a flat-schema order.
func (m *MockOrdersClient) AddLegacyOrder(order models.LegacyOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID >= m.nextID {
		m.nextID = order.ID + 1
	}
	m.legacy[order.ID] = &order
}

// Calls returns the operations issued so far, in order.
func (m *MockOrdersClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockOrdersClient) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "CreateOrder")

	order := &models.Order{
		ID:              m.nextID,
		CustomerID:      req.CustomerID,
		CreatedAt:       req.CreatedAt,
		ShippingAddress: req.ShippingAddress,
		Status:          req.Status,
	}
	m.nextID++
	m.storeLocked(order, req.Items)
	recordStatus(ctx, 201)
	return copyOrder(order), nil
}

func (m *MockOrdersClient) UpdateOrder(ctx context.Context, id int64, req *models.CreateOrderRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "UpdateOrder")

	order, ok := m.orders[id]
	if !ok {
		return nil, notFound("UpdateOrder", "PUT", id)
	}
	order.ShippingAddress = req.ShippingAddress
	order.Status = req.Status
	m.storeLocked(order, req.Items)
	return copyOrder(order), nil
}

func (m *MockOrdersClient) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "GetOrder")

	order, ok := m.orders[id]
	if !ok {
		return nil, notFound("GetOrder", "GET", id)
	}
	return copyOrder(order), nil
}

func (m *MockOrdersClient) DeleteOrder(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "DeleteOrder")

	_, isOrder := m.orders[id]
	_, isLegacy := m.legacy[id]
	if !isOrder && !isLegacy {
		return notFound("DeleteOrder", "DELETE", id)
	}
	delete(m.orders, id)
	delete(m.items, id)
	delete(m.legacy, id)
	return nil
}

func (m *MockOrdersClient) SearchOrders(ctx context.Context, query string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "SearchOrders")

	values, _ := url.ParseQuery(query)
	status := values.Get("status_name")
	customer := values.Get("customer_id")

	out := make([]models.Order, 0, len(m.orders))
	for _, id := range sortedKeys(m.orders) {
		order := m.orders[id]
		if status != "" && !strings.EqualFold(string(order.Status), status) {
			continue
		}
		if customer != "" && strconv.FormatInt(order.CustomerID, 10) != customer {
			continue
		}
		out = append(out, *copyOrder(order))
	}
	return out, nil
}

func (m *MockOrdersClient) UpdateOrderStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "UpdateOrderStatus")

	order, ok := m.orders[id]
	if !ok {
		return nil, notFound("UpdateOrderStatus", "PUT", id)
	}
	order.Status = req.Status
	return copyOrder(order), nil
}

func (m *MockOrdersClient) ListOrderItems(ctx context.Context, id int64) ([]models.LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "ListOrderItems")

	if _, ok := m.orders[id]; !ok {
		return nil, notFound("ListOrderItems", "GET", id)
	}
	return append([]models.LineItem(nil), m.items[id]...), nil
}

func (m *MockOrdersClient) CreateLegacyOrder(ctx context.Context, req *models.LegacyOrderRequest) (*models.LegacyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "CreateLegacyOrder")

	order := legacyFromRequest(m.nextID, req)
	m.nextID++
	m.legacy[order.ID] = order
	recordStatus(ctx, 201)
	copied := *order
	return &copied, nil
}

func (m *MockOrdersClient) UpdateLegacyOrder(ctx context.Context, id int64, req *models.LegacyOrderRequest) (*models.LegacyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "UpdateLegacyOrder")

	if _, ok := m.legacy[id]; !ok {
		return nil, notFound("UpdateLegacyOrder", "PUT", id)
	}
	order := legacyFromRequest(id, req)
	m.legacy[id] = order
	copied := *order
	return &copied, nil
}

func (m *MockOrdersClient) GetLegacyOrder(ctx context.Context, id int64) (*models.LegacyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "GetLegacyOrder")

	order, ok := m.legacy[id]
	if !ok {
		return nil, notFound("GetLegacyOrder", "GET", id)
	}
	copied := *order
	return &copied, nil
}

func (m *MockOrdersClient) SearchLegacyOrders(ctx context.Context, query string) ([]models.LegacyOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "SearchLegacyOrders")

	values, _ := url.ParseQuery(query)
	name := values.Get("name")
	category := values.Get("category")
	available := values.Get("available") == "true"

	out := make([]models.LegacyOrder, 0, len(m.legacy))
	for _, id := range sortedKeys(m.legacy) {
		order := m.legacy[id]
		if name != "" && order.Name != name {
			continue
		}
		if category != "" && order.Category != category {
			continue
		}
		if available && !order.Available {
			continue
		}
		out = append(out, *order)
	}
	return out, nil
}

// storeLocked assigns item ids and links items to the order. m.mu must be held.
func (m *MockOrdersClient) storeLocked(order *models.Order, items []models.LineItem) {
	stored := make([]models.LineItem, len(items))
	for i, item := range items {
		if item.ID == 0 {
			m.nextItem++
			item.ID = m.nextItem
		} else if item.ID > m.nextItem {
			m.nextItem = item.ID
		}
		item.OrderID = order.ID
		stored[i] = item
	}
	order.Items = stored
	m.orders[order.ID] = order
	m.items[order.ID] = stored
}

func legacyFromRequest(id int64, req *models.LegacyOrderRequest) *models.LegacyOrder {
	return &models.LegacyOrder{
		ID:        id,
		Name:      req.Name,
		Category:  req.Category,
		Available: req.Available,
		Gender:    req.Gender,
		Birthday:  req.Birthday,
	}
}

func copyOrder(order *models.Order) *models.Order {
	copied := *order
	copied.Items = append([]models.LineItem(nil), order.Items...)
	return &copied
}

func notFound(op, method string, id int64) error {
	return &errors.TransportError{
		Op:         op,
		Method:     method,
		Path:       orderPath(id),
		StatusCode: 404,
		Message:    "order not found",
		Err:        errors.ErrNotFound,
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
