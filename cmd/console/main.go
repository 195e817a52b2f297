package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/clients"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/events"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/form"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/reconciler"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/server"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/service"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	price, err := cfg.Items.PlaceholderPrice()
	if err != nil {
		logger.Error("Invalid item placeholder", "error", err.Error())
		os.Exit(1)
	}

	client := newOrdersClient(cfg, logger)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Features.EnableActionEvents {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	}
	defer publisher.Close()

	serializer := form.NewSerializer(form.Options{
		Items: form.ItemDefaults{
			OrderID:     cfg.Items.OrderID,
			Price:       price,
			Description: cfg.Items.Description,
		},
		MaxCustomerID: cfg.Items.MaxCustomerID,
	})

	rec := reconciler.New(client, cfg.Reconciler, reconciler.NewMetrics(prometheus.DefaultRegisterer), logger)
	console := service.NewConsoleService(client, serializer, rec, publisher, logger)

	h := handlers.NewHandlers(console, ui.DefaultModals(), cfg, logger)
	srv := server.New(h, cfg, prometheus.DefaultGatherer, logger)

	go func() {
		logger.Info("Server starting",
			"port", cfg.Server.Port,
			"backend", cfg.Backend,
			"orders_service_url", cfg.OrdersService.BaseURL,
			"enable_action_events", cfg.Features.EnableActionEvents,
		)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err.Error())
	}

	// Let in-flight items fetches land before exiting.
	rec.Wait()

	logger.Info("Server exited")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})).
		With("service", "orders-console")
}

func newOrdersClient(cfg *config.Config, logger *slog.Logger) clients.OrdersClient {
	if cfg.Backend == config.BackendDemo {
		logger.Warn("Using in-memory demo backend")
		return demoBackend()
	}
	return clients.NewHTTPOrdersClient(cfg.OrdersService, clients.NewMetrics(prometheus.DefaultRegisterer), logger)
}

// demoBackend seeds an in-memory backend so the console can be tried without
// the orders service.
func demoBackend() *clients.MockOrdersClient {
	m := clients.NewMockOrdersClient()
	m.AddOrder(models.Order{
		ID:              1,
		CustomerID:      17,
		CreatedAt:       "Fri, 14 Jun 2024 14:30:05 GMT",
		ShippingAddress: "221B Baker St",
		Status:          models.OrderStatusCreated,
		Items: []models.LineItem{
			{ProductID: 1, Quantity: 3, ProductDescription: "Glucose"},
			{ProductID: 2, Quantity: 4, ProductDescription: "Glucose"},
		},
	})
	m.AddOrder(models.Order{
		ID:              2,
		CustomerID:      23,
		CreatedAt:       "Sat, 15 Jun 2024 09:12:44 GMT",
		ShippingAddress: "742 Evergreen Terrace",
		Status:          models.OrderStatusProcessing,
		Items: []models.LineItem{
			{ProductID: 2, Quantity: 1, ProductDescription: "Glucose"},
		},
	})
	m.AddLegacyOrder(models.LegacyOrder{ID: 3, Name: "fido", Category: "dog", Available: true, Gender: "m", Birthday: "2020-01-02"})
	return m
}
