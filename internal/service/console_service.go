package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/events"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/form"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/reconciler"
)

// ConsoleService runs operator actions: it validates form input, issues the
// request and publishes an action event on success.
type ConsoleService struct {
	client     clients.OrdersClient
	serializer *form.Serializer
	reconciler *reconciler.Reconciler
	publisher  events.Publisher
	logger     *slog.Logger
}

// NewConsoleService creates a new console service.
func NewConsoleService(
	client clients.OrdersClient,
	serializer *form.Serializer,
	rec *reconciler.Reconciler,
	publisher events.Publisher,
	logger *slog.Logger,
) *ConsoleService {
	return &ConsoleService{
		client:     client,
		serializer: serializer,
		reconciler: rec,
		publisher:  publisher,
		logger:     logger,
	}
}

// CreateLegacy creates an order from the flat form.
func (s *ConsoleService) CreateLegacy(ctx context.Context, f form.LegacyForm) (*models.LegacyOrder, int, error) {
	var code int
	order, err := s.client.CreateLegacyOrder(clients.WithStatus(ctx, &code), form.LegacyRequest(f))
	if err != nil {
		return nil, code, err
	}

	s.publish(ctx, events.EventTypeOrderCreated, order.ID, order)
	return order, code, nil
}

// UpdateLegacy replaces the order named by the form's id.
func (s *ConsoleService) UpdateLegacy(ctx context.Context, f form.LegacyForm) (*models.LegacyOrder, error) {
	id, err := form.ParseOrderID(f.ID)
	if err != nil {
		return nil, err
	}

	order, err := s.client.UpdateLegacyOrder(ctx, id, form.LegacyRequest(f))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTypeOrderUpdated, order.ID, order)
	return order, nil
}

// RetrieveLegacy fetches one order by the raw id input.
func (s *ConsoleService) RetrieveLegacy(ctx context.Context, rawID string) (*models.LegacyOrder, error) {
	id, err := form.ParseOrderID(rawID)
	if err != nil {
		return nil, err
	}
	return s.client.GetLegacyOrder(ctx, id)
}

// DeleteOrder deletes by the raw id input. An empty id never reaches the server.
func (s *ConsoleService) DeleteOrder(ctx context.Context, rawID string) (int64, error) {
	id, err := form.ParseOrderID(rawID)
	if err != nil {
		return 0, err
	}

	if err := s.client.DeleteOrder(ctx, id); err != nil {
		return 0, err
	}

	s.publish(ctx, events.EventTypeOrderDeleted, id, nil)
	return id, nil
}

// SearchLegacy runs the flat-form search.
func (s *ConsoleService) SearchLegacy(ctx context.Context, f form.Filter) ([]models.LegacyOrder, error) {
	return s.client.SearchLegacyOrders(ctx, form.LegacyQuery(f))
}

// SaveOrder creates an order from the items form, or replaces order rawID's
// items when rawID is set. It returns the HTTP status the server answered with.
func (s *ConsoleService) SaveOrder(ctx context.Context, rawID string, f form.ItemsForm) (*models.Order, int, error) {
	var (
		id  int64
		err error
	)
	update := strings.TrimSpace(rawID) != ""
	if update {
		if id, err = form.ParseOrderID(rawID); err != nil {
			return nil, 0, err
		}
	}

	req, err := s.serializer.CreateRequest(f)
	if err != nil {
		return nil, 0, err
	}

	var code int
	statusCtx := clients.WithStatus(ctx, &code)

	var order *models.Order
	if update {
		order, err = s.client.UpdateOrder(statusCtx, id, req)
	} else {
		order, err = s.client.CreateOrder(statusCtx, req)
	}
	if err != nil {
		return nil, code, err
	}

	eventType := events.EventTypeOrderCreated
	if update {
		eventType = events.EventTypeOrderUpdated
	}
	s.publish(ctx, eventType, order.ID, order)

	s.logger.Info("Order saved",
		"order_id", order.ID,
		"item_count", len(req.Items),
		"status_code", code,
	)
	return order, code, nil
}

// UpdateStatus applies the status form.
func (s *ConsoleService) UpdateStatus(ctx context.Context, f form.StatusForm) (*models.Order, error) {
	id, req, err := form.StatusRequest(f)
	if err != nil {
		return nil, err
	}

	order, err := s.client.UpdateOrderStatus(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTypeOrderStatusChanged, order.ID, req)
	return order, nil
}

// RefreshTable redraws the order table for the status and customer filters.
func (s *ConsoleService) RefreshTable(ctx context.Context, f form.Filter) (reconciler.Snapshot, error) {
	return s.reconciler.Refresh(ctx, form.OrdersQuery(f))
}

// Table returns the current order table.
func (s *ConsoleService) Table() reconciler.Snapshot {
	return s.reconciler.Table().Snapshot()
}

// OrderItems lists the items of one order.
func (s *ConsoleService) OrderItems(ctx context.Context, rawID string) (int64, []models.LineItem, error) {
	id, err := form.ParseOrderID(rawID)
	if err != nil {
		return 0, nil, err
	}
	items, err := s.client.ListOrderItems(ctx, id)
	return id, items, err
}

// Catalog builds the deduplicated product catalog of the filtered orders.
func (s *ConsoleService) Catalog(ctx context.Context, f form.Filter) ([]models.LineItem, error) {
	return s.reconciler.Catalog(ctx, form.OrdersQuery(f))
}

// publish logs but does not fail the action when the event cannot be sent.
func (s *ConsoleService) publish(ctx context.Context, eventType events.EventType, orderID int64, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, orderID, payload); err != nil {
		s.logger.Error("Failed to publish action event",
			"event_type", eventType,
			"order_id", orderID,
			"error", err.Error(),
		)
	}
}
