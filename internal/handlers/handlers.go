package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/service"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/ui"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/view"
)

// Handlers holds all HTTP handlers for the orders console.
type Handlers struct {
	console *service.ConsoleService
	modals  *ui.Modals
	config  *config.Config
	logger  *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	console *service.ConsoleService,
	modals *ui.Modals,
	cfg *config.Config,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		console: console,
		modals:  modals,
		config:  cfg,
		logger:  logger,
	}
}

// Index handles GET /
func (h *Handlers) Index(c *gin.Context) {
	h.render(c, http.StatusOK, view.NewPage())
}

// render fills the shared parts of the page and writes it.
func (h *Handlers) render(c *gin.Context, code int, page view.Page) {
	page.Table = view.Table(h.console.Table())
	page.Modals = h.modals.Views()
	c.HTML(code, view.PageTemplate, page)
}

// handleError shows err as the page flash. Validation failures never reached
// the orders service.
func (h *Handlers) handleError(c *gin.Context, page view.Page, err error) {
	code := statusFor(err)

	h.logger.Warn("Console action failed",
		"path", c.Request.URL.Path,
		"status", code,
		"error", err.Error(),
	)

	page.Flash = view.Failure(errors.UserMessage(err))
	h.render(c, code, page)
}

// bindForm decodes the posted form into obj.
func bindForm(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBind(obj); err != nil {
		return errors.NewValidationError("form", errors.ErrMalformed, err.Error())
	}
	return nil
}

// bindQuery decodes the query string into obj.
func bindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return errors.NewValidationError("query", errors.ErrMalformed, err.Error())
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
