package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/form"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/ui"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/view"
)

// SaveOrder handles POST /console/orders
func (h *Handlers) SaveOrder(c *gin.Context) {
	var in form.ItemsForm
	bindErr := bindForm(c, &in)
	rawID := c.PostForm(form.FieldOrderID)

	page := view.NewPage()
	page.Items = view.ItemsFormView{
		OrderID:         rawID,
		ItemIDs:         in.ItemIDs,
		ItemQuantities:  in.ItemQuantities,
		ShippingAddress: in.ShippingAddress,
	}
	if bindErr != nil {
		h.handleError(c, page, bindErr)
		return
	}

	order, code, err := h.console.SaveOrder(c.Request.Context(), rawID, in)
	if err != nil {
		h.handleError(c, page, err)
		return
	}

	_ = h.modals.Close(ui.ModalCreateOrder)
	page.Items = view.ItemsFormView{}
	page.Created = view.OrderRows(*order)
	page.Flash = view.Success(fmt.Sprintf("Order %d saved (%d %s)", order.ID, code, http.StatusText(code)))
	h.render(c, http.StatusOK, page)
}

// UpdateStatus handles POST /console/orders/status
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var in form.StatusForm
	bindErr := bindForm(c, &in)

	page := view.NewPage()
	page.Status = view.StatusFormView{OrderID: in.OrderID, Status: in.Status}
	if bindErr != nil {
		h.handleError(c, page, bindErr)
		return
	}

	order, err := h.console.UpdateStatus(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, page, err)
		return
	}

	_ = h.modals.Close(ui.ModalUpdateStatus)
	page.Status = view.StatusFormView{}
	page.Created = view.OrderRows(*order)
	page.Flash = view.Success(fmt.Sprintf("Order %d is now %s", order.ID, order.Status))
	h.render(c, http.StatusOK, page)
}

// RefreshOrders handles GET /console/orders. Rows are drawn at once; their
// item ids arrive through GET /console/table.
func (h *Handlers) RefreshOrders(c *gin.Context) {
	page := view.NewPage()

	var filter form.Filter
	if err := bindQuery(c, &filter); err != nil {
		h.handleError(c, page, err)
		return
	}

	if _, err := h.console.RefreshTable(c.Request.Context(), filter); err != nil {
		h.handleError(c, page, err)
		return
	}
	h.render(c, http.StatusOK, page)
}

// Table handles GET /console/table
func (h *Handlers) Table(c *gin.Context) {
	c.HTML(http.StatusOK, view.TableTemplate, view.Table(h.console.Table()))
}

// OrderItems handles GET /console/orders/:id/items
func (h *Handlers) OrderItems(c *gin.Context) {
	id, items, err := h.console.OrderItems(c.Request.Context(), c.Param("id"))
	page := view.ItemsPage{OrderID: id, Rows: view.ItemRows(items)}
	if err != nil {
		h.logger.Warn("Items lookup failed", "order_id", c.Param("id"), "error", err.Error())
		page.Flash = view.Failure(errors.UserMessage(err))
		c.HTML(statusFor(err), view.ItemsTemplate, page)
		return
	}
	c.HTML(http.StatusOK, view.ItemsTemplate, page)
}

// Catalog handles GET /console/catalog
func (h *Handlers) Catalog(c *gin.Context) {
	var filter form.Filter
	err := bindQuery(c, &filter)

	page := view.CatalogPage{Query: form.OrdersQuery(filter)}
	var items []models.LineItem
	if err == nil {
		items, err = h.console.Catalog(c.Request.Context(), filter)
	}
	if err != nil {
		h.logger.Warn("Catalog failed", "query", page.Query, "error", err.Error())
		page.Flash = view.Failure(errors.UserMessage(err))
		c.HTML(statusFor(err), view.CatalogTemplate, page)
		return
	}

	page.Rows = view.CatalogRows(items)
	c.HTML(http.StatusOK, view.CatalogTemplate, page)
}
