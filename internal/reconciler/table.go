// Package reconciler keeps the console's order table consistent while the
// per-order items fetches complete in any order.
//
// Every refresh starts a new generation. Rows drawn for a generation carry a
// RowBinding, and a fan-out result is applied only while its binding's
// generation is still the current one. Late results from superseded refreshes
// are dropped.
package reconciler

import (
	"sync"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

// ItemState tracks the items fetch of one row.
type ItemState int

const (
	ItemsPending ItemState = iota
	ItemsSettled
	ItemsFailed
)

func (s ItemState) String() string {
	switch s {
	case ItemsPending:
		return "pending"
	case ItemsSettled:
		return "settled"
	case ItemsFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RowBinding ties a fan-out fetch to the row it was issued for.
type RowBinding struct {
	Generation uint64
	Index      int
	OrderID    int64
}

// Row is one drawn order plus the state of its items fetch.
type Row struct {
	Binding RowBinding
	Order   models.Order
	State   ItemState
	ItemIDs []int64
	Err     string
}

// Snapshot is a copy of the table at one instant.
type Snapshot struct {
	Generation uint64
	Query      string
	Rows       []Row
}

// Pending returns how many rows still wait for their items.
func (s Snapshot) Pending() int {
	n := 0
	for _, row := range s.Rows {
		if row.State == ItemsPending {
			n++
		}
	}
	return n
}

// Table is the shared table state. All methods are safe for concurrent use.
type Table struct {
	mu         sync.Mutex
	generation uint64
	query      string
	rows       []Row
}

// NewTable creates an empty table at generation 0.
func NewTable() *Table {
	return &Table{}
}

// Begin starts a refresh, clears the rows and returns its generation. Every
// binding issued before this call is stale from now on.
func (t *Table) Begin(query string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.query = query
	t.rows = nil
	return t.generation
}

// Generation returns the current generation.
func (t *Table) Generation() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.generation
}

// Load replaces all rows with one row per order and returns their bindings.
// It returns false and leaves the table alone when gen has been superseded.
func (t *Table) Load(gen uint64, orders []models.Order) ([]RowBinding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return nil, false
	}

	t.rows = make([]Row, len(orders))
	bindings := make([]RowBinding, len(orders))
	for i, order := range orders {
		b := RowBinding{Generation: gen, Index: i, OrderID: order.ID}
		order.Items = nil
		t.rows[i] = Row{Binding: b, Order: order, State: ItemsPending}
		bindings[i] = b
	}
	return bindings, true
}

// Patch stores the items of the bound row. It reports whether the result was
// applied; stale or duplicate results are ignored.
func (t *Table) Patch(b RowBinding, items []models.LineItem) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.rowLocked(b)
	if row == nil {
		return false
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	row.ItemIDs = ids
	row.Order.Items = append([]models.LineItem(nil), items...)
	row.State = ItemsSettled
	return true
}

// Fail marks the bound row's items fetch as failed, with the same staleness
// rules as Patch.
func (t *Table) Fail(b RowBinding, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := t.rowLocked(b)
	if row == nil {
		return false
	}
	row.State = ItemsFailed
	if err != nil {
		row.Err = err.Error()
	}
	return true
}

// rowLocked returns the pending row b points at, or nil when b is stale.
func (t *Table) rowLocked(b RowBinding) *Row {
	if b.Generation != t.generation {
		return nil
	}
	if b.Index < 0 || b.Index >= len(t.rows) {
		return nil
	}
	row := &t.rows[b.Index]
	if row.Binding != b || row.State != ItemsPending {
		return nil
	}
	return row
}

// Snapshot returns a deep copy of the table.
func (t *Table) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		row.ItemIDs = append([]int64(nil), row.ItemIDs...)
		row.Order.Items = append([]models.LineItem(nil), row.Order.Items...)
		rows[i] = row
	}
	return Snapshot{Generation: t.generation, Query: t.query, Rows: rows}
}
