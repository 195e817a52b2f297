package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CreatedAtLayout is the created_at format the orders service parses.
const CreatedAtLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
)

// OrderStatuses lists the statuses an operator can apply.
var OrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusProcessing,
	OrderStatusCompleted,
}

// ParseOrderStatus matches s case-insensitively against the known statuses.
func ParseOrderStatus(s string) (OrderStatus, error) {
	normalized := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, status := range OrderStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// Order is the line-item based order returned by the orders service.
// Items are usually empty on list responses and are fetched per order.
type Order struct {
	ID              int64       `json:"id"`
	CustomerID      int64       `json:"customer_id"`
	CreatedAt       string      `json:"created_at"`
	ShippingAddress string      `json:"shipping_address"`
	Status          OrderStatus `json:"status"`
	Items           []LineItem  `json:"items,omitempty"`
}

// LineItem is a single product line inside an order.
type LineItem struct {
	ID                 int64           `json:"id,omitempty"`
	OrderID            int64           `json:"order_id"`
	ProductID          int64           `json:"product_id"`
	Quantity           int             `json:"quantity"`
	Price              decimal.Decimal `json:"price"`
	ProductDescription string          `json:"product_description"`
}

// MarshalJSON writes price as a JSON number, which is what the orders service
// reads.
func (i LineItem) MarshalJSON() ([]byte, error) {
	type lineItem LineItem
	return json.Marshal(struct {
		lineItem
		Price json.RawMessage `json:"price"`
	}{
		lineItem: lineItem(i),
		Price:    json.RawMessage(i.Price.String()),
	})
}

// LegacyOrder is the flat order schema used by the original search form.
// It is a separate representation and is never merged into Order.
type LegacyOrder struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Available bool   `json:"available"`
	Gender    string `json:"gender"`
	Birthday  string `json:"birthday"`
}

// CreateOrderRequest is the body of POST /orders for line-item orders.
type CreateOrderRequest struct {
	Items           []LineItem  `json:"items"`
	CustomerID      int64       `json:"customer_id"`
	ShippingAddress string      `json:"shipping_address"`
	CreatedAt       string      `json:"created_at"`
	Status          OrderStatus `json:"status"`
}

// LegacyOrderRequest is the body of POST /orders and PUT /orders/{id} for the
// legacy form.
type LegacyOrderRequest struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Available bool   `json:"available"`
	Gender    string `json:"gender"`
	Birthday  string `json:"birthday"`
}

// UpdateStatusRequest is the body of PUT /orders/{id}/status.
type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// ErrorBody is the failure payload of the orders service.
type ErrorBody struct {
	Message string `json:"message"`
}

// ItemIDs returns the line item ids in order.
func (o *Order) ItemIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ID)
	}
	return ids
}
