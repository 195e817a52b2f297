package reconciler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
)

// Reconciler refreshes the order table and merges the items fan-out into it.
type Reconciler struct {
	client        clients.OrdersClient
	table         *Table
	fanoutTimeout time.Duration
	fanoutLimit   int
	metrics       *Metrics
	logger        *slog.Logger

	inflight sync.WaitGroup
}

// New creates a Reconciler over a fresh table.
func New(client clients.OrdersClient, cfg config.ReconcilerConfig, metrics *Metrics, logger *slog.Logger) *Reconciler {
	limit := cfg.FanoutLimit
	if limit <= 0 {
		limit = 1
	}
	return &Reconciler{
		client:        client,
		table:         NewTable(),
		fanoutTimeout: cfg.FanoutTimeout,
		fanoutLimit:   limit,
		metrics:       metrics,
		logger:        logger,
	}
}

// Table returns the table the reconciler writes to.
func (r *Reconciler) Table() *Table {
	return r.table
}

// Refresh lists orders for query, draws them and starts one items fetch per
// row. It returns as soon as the rows are drawn; items arrive in the table as
// their fetches complete.
//
// A primary failure clears the table. A primary response that arrives after a
// newer refresh began is dropped.
func (r *Reconciler) Refresh(ctx context.Context, query string) (Snapshot, error) {
	gen := r.table.Begin(query)
	r.metrics.setGeneration(gen)

	orders, err := r.client.SearchOrders(ctx, query)
	if err != nil {
		r.table.Load(gen, nil)
		r.logger.Warn("Order table refresh failed",
			"generation", gen,
			"query", query,
			"error", err.Error(),
		)
		return r.table.Snapshot(), err
	}

	bindings, ok := r.table.Load(gen, orders)
	if !ok {
		r.logger.Debug("Discarding superseded order list", "generation", gen)
		return r.table.Snapshot(), nil
	}

	r.logger.Debug("Order table drawn",
		"generation", gen,
		"rows", len(bindings),
	)

	// Fan-outs outlive the request that started them.
	fanoutCtx := context.WithoutCancel(ctx)
	for _, b := range bindings {
		r.inflight.Add(1)
		go r.fetchItems(fanoutCtx, b)
	}

	return r.table.Snapshot(), nil
}

// Wait blocks until every fan-out started so far has finished.
func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

func (r *Reconciler) fetchItems(ctx context.Context, b RowBinding) {
	defer r.inflight.Done()

	if r.fanoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.fanoutTimeout)
		defer cancel()
	}

	items, err := r.client.ListOrderItems(ctx, b.OrderID)

	var applied bool
	if err != nil {
		applied = r.table.Fail(b, err)
	} else {
		applied = r.table.Patch(b, items)
	}

	switch {
	case !applied:
		r.metrics.result(OutcomeStale)
		r.logger.Debug("Discarding stale items result",
			"generation", b.Generation,
			"order_id", b.OrderID,
		)
	case err != nil:
		r.metrics.result(OutcomeFailed)
		r.logger.Warn("Items fetch failed",
			"generation", b.Generation,
			"order_id", b.OrderID,
			"error", err.Error(),
		)
	default:
		r.metrics.result(OutcomeApplied)
	}
}
