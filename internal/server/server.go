package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/middleware"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/view"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	handlers *handlers.Handlers
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	http     *http.Server
}

// New builds the console server. gatherer backs /metrics when metrics are
// enabled.
func New(h *handlers.Handlers, cfg *config.Config, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	router.SetHTMLTemplate(view.Templates())

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		gatherer: gatherer,
		logger:   logger,
	}

	s.setupRoutes()

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)
	s.router.GET("/ready", s.handlers.Ready)
	s.router.GET("/live", s.handlers.Live)

	if s.config.Features.EnableMetrics && s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	s.router.GET("/", s.handlers.Index)

	console := s.router.Group("/console")
	{
		legacy := console.Group("/legacy")
		legacy.POST("/create", s.handlers.CreateLegacy)
		legacy.POST("/update", s.handlers.UpdateLegacy)
		legacy.POST("/retrieve", s.handlers.RetrieveLegacy)
		legacy.POST("/delete", s.handlers.DeleteLegacy)
		legacy.POST("/search", s.handlers.SearchLegacy)
		legacy.POST("/clear", s.handlers.ClearLegacy)

		console.POST("/orders", s.handlers.SaveOrder)
		console.POST("/orders/status", s.handlers.UpdateStatus)
		console.GET("/orders", s.handlers.RefreshOrders)
		console.GET("/orders/:id/items", s.handlers.OrderItems)
		console.GET("/table", s.handlers.Table)
		console.GET("/catalog", s.handlers.Catalog)

		console.POST("/modals/:name/open", s.handlers.OpenModal)
		console.POST("/modals/:name/close", s.handlers.CloseModal)
	}
}

// Handler returns the router wrapped in CORS and access logging.
func (s *Server) Handler() http.Handler {
	withCORS := cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID},
		MaxAge:         300,
	})(s.router)

	return middleware.Logger(s.logger)(withCORS)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
