// Package view projects orders, line items and table snapshots into the values
// the console templates render. It does no I/O.
package view

import (
	"strconv"
	"strings"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/reconciler"
)

// Placeholders for the item ids column.
const (
	ItemsPendingText = "…"
	ItemsFailedText  = "error"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// OrderRow is one row of the order table. Columns: id, customer id, created
// at, shipping address, status, item ids.
type OrderRow struct {
	ID              int64
	CustomerID      int64
	CreatedAt       string
	ShippingAddress string
	Status          string
	ItemIDs         string
	State           string
}

// TableView is the order table plus enough state for the page to keep polling.
type TableView struct {
	Generation uint64
	Query      string
	Rows       []OrderRow
	Pending    int
}

// Table projects a snapshot into a TableView.
func Table(snap reconciler.Snapshot) TableView {
	rows := make([]OrderRow, len(snap.Rows))
	for i, row := range snap.Rows {
		rows[i] = OrderRow{
			ID:              row.Order.ID,
			CustomerID:      row.Order.CustomerID,
			CreatedAt:       row.Order.CreatedAt,
			ShippingAddress: row.Order.ShippingAddress,
			Status:          string(row.Order.Status),
			ItemIDs:         itemsColumn(row),
			State:           row.State.String(),
		}
	}
	return TableView{
		Generation: snap.Generation,
		Query:      snap.Query,
		Rows:       rows,
		Pending:    snap.Pending(),
	}
}

func itemsColumn(row reconciler.Row) string {
	switch row.State {
	case reconciler.ItemsPending:
		return ItemsPendingText
	case reconciler.ItemsFailed:
		return ItemsFailedText
	}
	return JoinIDs(row.ItemIDs)
}

// JoinIDs renders ids as "1, 2, 3".
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// OrderRows projects orders the server returned in full, such as the result
// of a create or a status update, into settled rows.
func OrderRows(orders ...models.Order) []OrderRow {
	rows := make([]OrderRow, len(orders))
	for i, o := range orders {
		rows[i] = OrderRow{
			ID:              o.ID,
			CustomerID:      o.CustomerID,
			CreatedAt:       o.CreatedAt,
			ShippingAddress: o.ShippingAddress,
			Status:          string(o.Status),
			ItemIDs:         JoinIDs(o.ItemIDs()),
			State:           reconciler.ItemsSettled.String(),
		}
	}
	return rows
}

// LegacyRow is one row of the legacy search results.
type LegacyRow struct {
	ID        int64
	Name      string
	Category  string
	Available bool
	Gender    string
	Birthday  string
}

func LegacyRows(orders []models.LegacyOrder) []LegacyRow {
	rows := make([]LegacyRow, len(orders))
	for i, o := range orders {
		rows[i] = LegacyRow(o)
	}
	return rows
}

// ItemRow is one row of the items table of a single order.
type ItemRow struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Quantity    int
	Price       string
	Description string
}

func ItemRows(items []models.LineItem) []ItemRow {
	rows := make([]ItemRow, len(items))
	for i, item := range items {
		rows[i] = ItemRow{
			ID:          item.ID,
			OrderID:     item.OrderID,
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			Price:       item.Price.StringFixed(2),
			Description: item.ProductDescription,
		}
	}
	return rows
}

// CatalogRow is one product of the deduplicated catalog.
type CatalogRow struct {
	ProductID   int64
	Description string
	Price       string
	FirstOrder  int64
}

func CatalogRows(items []models.LineItem) []CatalogRow {
	rows := make([]CatalogRow, len(items))
	for i, item := range items {
		rows[i] = CatalogRow{
			ProductID:   item.ProductID,
			Description: item.ProductDescription,
			Price:       item.Price.StringFixed(2),
			FirstOrder:  item.OrderID,
		}
	}
	return rows
}

// ItemsPage is the items table of one order.
type ItemsPage struct {
	OrderID int64
	Rows    []ItemRow
	Flash   *Flash
}

// CatalogPage is the deduplicated product catalog.
type CatalogPage struct {
	Query string
	Rows  []CatalogRow
	Flash *Flash
}
