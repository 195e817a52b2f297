package reconciler

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

type itemsReply struct {
	items []models.LineItem
	err   error
}

type itemsCall struct {
	orderID int64
	reply   chan itemsReply
}

// gatedClient answers SearchOrders from a fixed map and holds every
// ListOrderItems call until the test replies to it.
type gatedClient struct {
	clients.OrdersClient

	mu     sync.Mutex
	lists  map[string][]models.Order
	listFn func(query string) ([]models.Order, error)
	calls  chan itemsCall
}

func newGatedClient(lists map[string][]models.Order) *gatedClient {
	return &gatedClient{lists: lists, calls: make(chan itemsCall, 64)}
}

func (g *gatedClient) SearchOrders(ctx context.Context, query string) ([]models.Order, error) {
	g.mu.Lock()
	fn := g.listFn
	g.mu.Unlock()
	if fn != nil {
		return fn(query)
	}
	return g.lists[query], nil
}

func (g *gatedClient) ListOrderItems(ctx context.Context, id int64) ([]models.LineItem, error) {
	call := itemsCall{orderID: id, reply: make(chan itemsReply, 1)}
	g.calls <- call
	select {
	case r := <-call.reply:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// collect waits for n items calls and indexes them by order id.
func (g *gatedClient) collect(t *testing.T, n int) map[int64]itemsCall {
	t.Helper()
	out := make(map[int64]itemsCall, n)
	for i := 0; i < n; i++ {
		select {
		case c := <-g.calls:
			out[c.orderID] = c
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for items call %d of %d", i+1, n)
		}
	}
	return out
}

func items(orderID int64, ids ...int64) []models.LineItem {
	out := make([]models.LineItem, len(ids))
	for i, id := range ids {
		out[i] = models.LineItem{ID: id, OrderID: orderID, ProductID: id * 10, Quantity: 1}
	}
	return out
}

func orders(ids ...int64) []models.Order {
	out := make([]models.Order, len(ids))
	for i, id := range ids {
		out[i] = models.Order{ID: id, CustomerID: 7, Status: models.OrderStatusCreated}
	}
	return out
}

func newTestReconciler(client clients.OrdersClient) (*Reconciler, *Metrics) {
	metrics := NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.ReconcilerConfig{FanoutTimeout: 10 * time.Second, FanoutLimit: 2}
	return New(client, cfg, metrics, logger), metrics
}

func TestRefresh_DrawsRowsBeforeItems(t *testing.T) {
	client := newGatedClient(map[string][]models.Order{"": orders(1, 2, 3)})
	r, _ := newTestReconciler(client)

	snap, err := r.Refresh(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, snap.Rows, 3)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, 3, snap.Pending())
	for i, row := range snap.Rows {
		assert.Equal(t, RowBinding{Generation: 1, Index: i, OrderID: int64(i + 1)}, row.Binding)
		assert.Equal(t, ItemsPending, row.State)
	}

	for _, c := range client.collect(t, 3) {
		c.reply <- itemsReply{}
	}
	r.Wait()
}

func TestRefresh_OutOfOrderCompletion(t *testing.T) {
	client := newGatedClient(map[string][]models.Order{"": orders(1, 2, 3)})
	r, metrics := newTestReconciler(client)

	_, err := r.Refresh(context.Background(), "")
	require.NoError(t, err)
	calls := client.collect(t, 3)

	// Last issued resolves first.
	calls[3].reply <- itemsReply{items: items(3, 31, 32)}
	calls[1].reply <- itemsReply{items: items(1, 11)}
	calls[2].reply <- itemsReply{items: items(2, 21, 22, 23)}
	r.Wait()

	snap := r.Table().Snapshot()
	assert.Equal(t, 0, snap.Pending())
	assert.Equal(t, []int64{11}, snap.Rows[0].ItemIDs)
	assert.Equal(t, []int64{21, 22, 23}, snap.Rows[1].ItemIDs)
	assert.Equal(t, []int64{31, 32}, snap.Rows[2].ItemIDs)
	for _, row := range snap.Rows {
		for _, item := range row.Order.Items {
			assert.Equal(t, row.Order.ID, item.OrderID)
		}
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.results.WithLabelValues(OutcomeApplied)))
}

func TestRefresh_StaleResultsDiscarded(t *testing.T) {
	// Same order ids in both generations so only the generation tells them apart.
	client := newGatedClient(map[string][]models.Order{
		"status_name=CREATED":    orders(1, 2),
		"status_name=PROCESSING": orders(1, 2),
	})
	r, metrics := newTestReconciler(client)
	ctx := context.Background()

	_, err := r.Refresh(ctx, "status_name=CREATED")
	require.NoError(t, err)
	old := client.collect(t, 2)

	snap, err := r.Refresh(ctx, "status_name=PROCESSING")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Generation)
	current := client.collect(t, 2)

	// Generation 2 settles row 0, leaves row 1 pending, then generation 1 lands.
	current[1].reply <- itemsReply{items: items(1, 200)}
	old[1].reply <- itemsReply{items: items(1, 100)}
	old[2].reply <- itemsReply{err: stderrors.New("boom")}

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.results.WithLabelValues(OutcomeStale)) == 2 &&
			testutil.ToFloat64(metrics.results.WithLabelValues(OutcomeApplied)) == 1
	}, 5*time.Second, 10*time.Millisecond)

	snap = r.Table().Snapshot()
	assert.Equal(t, "status_name=PROCESSING", snap.Query)
	assert.Equal(t, []int64{200}, snap.Rows[0].ItemIDs)
	assert.Equal(t, ItemsPending, snap.Rows[1].State)
	assert.Empty(t, snap.Rows[1].ItemIDs)
	assert.Empty(t, snap.Rows[1].Err)

	current[2].reply <- itemsReply{items: items(2, 201)}
	r.Wait()

	snap = r.Table().Snapshot()
	assert.Equal(t, []int64{201}, snap.Rows[1].ItemIDs)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.results.WithLabelValues(OutcomeApplied)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.generation))
}

func TestRefresh_ItemsFailureMarksRow(t *testing.T) {
	client := newGatedClient(map[string][]models.Order{"": orders(4, 5)})
	r, metrics := newTestReconciler(client)

	_, err := r.Refresh(context.Background(), "")
	require.NoError(t, err)
	calls := client.collect(t, 2)
	calls[4].reply <- itemsReply{err: stderrors.New("server error")}
	calls[5].reply <- itemsReply{items: items(5, 51)}
	r.Wait()

	snap := r.Table().Snapshot()
	assert.Equal(t, ItemsFailed, snap.Rows[0].State)
	assert.Equal(t, "server error", snap.Rows[0].Err)
	assert.Equal(t, ItemsSettled, snap.Rows[1].State)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues(OutcomeFailed)))
}

func TestRefresh_PrimaryFailureClearsTable(t *testing.T) {
	client := newGatedClient(map[string][]models.Order{"": orders(1)})
	r, _ := newTestReconciler(client)

	_, err := r.Refresh(context.Background(), "")
	require.NoError(t, err)
	client.collect(t, 1)[1].reply <- itemsReply{}
	r.Wait()

	client.mu.Lock()
	client.listFn = func(string) ([]models.Order, error) { return nil, stderrors.New("down") }
	client.mu.Unlock()

	snap, err := r.Refresh(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, snap.Rows)
	assert.Equal(t, uint64(2), snap.Generation)
}

func TestRefresh_SupersededPrimaryDropped(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	client := newGatedClient(nil)
	client.listFn = func(query string) ([]models.Order, error) {
		if query == "slow" {
			close(entered)
			<-release
			return orders(1, 2, 3), nil
		}
		return orders(9), nil
	}
	r, _ := newTestReconciler(client)

	done := make(chan Snapshot)
	go func() {
		snap, _ := r.Refresh(context.Background(), "slow")
		done <- snap
	}()
	<-entered

	_, err := r.Refresh(context.Background(), "fast")
	require.NoError(t, err)
	close(release)
	<-done

	client.collect(t, 1)[9].reply <- itemsReply{items: items(9, 90)}
	r.Wait()

	snap := r.Table().Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, int64(9), snap.Rows[0].Order.ID)
	assert.Equal(t, []int64{90}, snap.Rows[0].ItemIDs)
}

func TestTable_BindingChecks(t *testing.T) {
	table := NewTable()
	gen := table.Begin("")
	bindings, ok := table.Load(gen, orders(1, 2))
	require.True(t, ok)

	assert.False(t, table.Patch(RowBinding{Generation: gen, Index: 0, OrderID: 2}, nil), "wrong order id")
	assert.False(t, table.Patch(RowBinding{Generation: gen, Index: 5, OrderID: 1}, nil), "index out of range")
	assert.False(t, table.Patch(RowBinding{Generation: gen + 1, Index: 0, OrderID: 1}, nil), "future generation")

	assert.True(t, table.Patch(bindings[0], items(1, 7)))
	assert.False(t, table.Patch(bindings[0], items(1, 8)), "already settled")

	next := table.Begin("")
	_, ok = table.Load(gen, orders(3))
	assert.False(t, ok, "superseded load")
	assert.False(t, table.Fail(bindings[1], nil))

	_, ok = table.Load(next, nil)
	assert.True(t, ok)
	assert.Empty(t, table.Snapshot().Rows)
}

func TestTable_SnapshotIsCopy(t *testing.T) {
	table := NewTable()
	gen := table.Begin("")
	bindings, _ := table.Load(gen, orders(1))
	table.Patch(bindings[0], items(1, 5))

	snap := table.Snapshot()
	snap.Rows[0].ItemIDs[0] = 99
	assert.Equal(t, []int64{5}, table.Snapshot().Rows[0].ItemIDs)
}

func TestTable_BeginClearsRows(t *testing.T) {
	table := NewTable()
	gen := table.Begin("status_name=CREATED")
	_, ok := table.Load(gen, orders(1, 2))
	require.True(t, ok)

	next := table.Begin("status_name=COMPLETED")

	snap := table.Snapshot()
	assert.Equal(t, next, snap.Generation)
	assert.Equal(t, "status_name=COMPLETED", snap.Query)
	assert.Empty(t, snap.Rows)
	assert.Zero(t, snap.Pending())
}

func TestMetrics_GenerationOnlyMovesForward(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.setGeneration(2)
	metrics.setGeneration(1)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.generation))

	metrics.setGeneration(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.generation))
}
