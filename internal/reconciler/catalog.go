package reconciler

import (
	"context"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

// denseProductIDs bounds the ids tracked in the bitset; others go to a map.
const denseProductIDs = 1 << 20

// Catalog lists the orders matching query, fetches the items of each one and
// returns every product once, in the order it is first seen.
//
// Unlike Refresh, Catalog waits for all of its fetches and fails as a whole
// when any of them fails.
func (r *Reconciler) Catalog(ctx context.Context, query string) ([]models.LineItem, error) {
	orders, err := r.client.SearchOrders(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([][]models.LineItem, len(orders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanoutLimit)
	for i, order := range orders {
		id := order.ID
		g.Go(func() error {
			items, err := r.client.ListOrderItems(gctx, id)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Warn("Catalog fetch failed", "query", query, "error", err.Error())
		return nil, err
	}

	var all []models.LineItem
	for _, items := range results {
		all = append(all, items...)
	}
	catalog := Dedup(all)

	r.logger.Debug("Catalog built",
		"orders", len(orders),
		"items", len(all),
		"products", len(catalog),
	)
	return catalog, nil
}

// Dedup keeps the first item seen for each product id.
func Dedup(items []models.LineItem) []models.LineItem {
	var (
		dense  bitset.BitSet
		sparse map[int64]struct{}
		out    = make([]models.LineItem, 0, len(items))
	)

	for _, item := range items {
		id := item.ProductID
		if id >= 0 && id < denseProductIDs {
			if dense.Test(uint(id)) {
				continue
			}
			dense.Set(uint(id))
		} else {
			if sparse == nil {
				sparse = make(map[int64]struct{})
			}
			if _, seen := sparse[id]; seen {
				continue
			}
			sparse[id] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
