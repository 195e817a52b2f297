package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/form"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/view"
)

// Flash messages of the legacy form.
const (
	flashSuccess = "Success"
	flashDeleted = "order has been Deleted!"
)

// bindLegacy reads the flat form and returns it with a page echoing it. When
// the form cannot be read the error page is written and ok is false.
func (h *Handlers) bindLegacy(c *gin.Context) (in form.LegacyForm, page view.Page, ok bool) {
	err := bindForm(c, &in)

	page = view.NewPage()
	page.Form = view.FormView{
		ID:        in.ID,
		Name:      in.Name,
		Category:  in.Category,
		Available: in.Available == "true",
		Gender:    in.Gender,
		Birthday:  in.Birthday,
	}
	if err != nil {
		h.handleError(c, page, err)
		return in, page, false
	}
	return in, page, true
}

// CreateLegacy handles POST /console/legacy/create
func (h *Handlers) CreateLegacy(c *gin.Context) {
	in, page, ok := h.bindLegacy(c)
	if !ok {
		return
	}

	order, _, err := h.console.CreateLegacy(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, page, err)
		return
	}

	page.Form = view.FormFromLegacy(order)
	page.Flash = view.Success(flashSuccess)
	h.render(c, http.StatusOK, page)
}

// UpdateLegacy handles POST /console/legacy/update
func (h *Handlers) UpdateLegacy(c *gin.Context) {
	in, page, ok := h.bindLegacy(c)
	if !ok {
		return
	}

	order, err := h.console.UpdateLegacy(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, page, err)
		return
	}

	page.Form = view.FormFromLegacy(order)
	page.Flash = view.Success(flashSuccess)
	h.render(c, http.StatusOK, page)
}

// RetrieveLegacy handles POST /console/legacy/retrieve
func (h *Handlers) RetrieveLegacy(c *gin.Context) {
	in, page, ok := h.bindLegacy(c)
	if !ok {
		return
	}

	order, err := h.console.RetrieveLegacy(c.Request.Context(), in.ID)
	if err != nil {
		if errors.IsNotFound(err) {
			page.Form = view.EmptyForm()
		}
		h.handleError(c, page, err)
		return
	}

	page.Form = view.FormFromLegacy(order)
	page.Flash = view.Success(flashSuccess)
	h.render(c, http.StatusOK, page)
}

// DeleteLegacy handles POST /console/legacy/delete
func (h *Handlers) DeleteLegacy(c *gin.Context) {
	in, page, ok := h.bindLegacy(c)
	if !ok {
		return
	}

	if _, err := h.console.DeleteOrder(c.Request.Context(), in.ID); err != nil {
		h.handleError(c, page, err)
		return
	}

	page.Form = view.EmptyForm()
	page.Flash = view.Success(flashDeleted)
	h.render(c, http.StatusOK, page)
}

// SearchLegacy handles POST /console/legacy/search. The first result is
// copied into the form.
func (h *Handlers) SearchLegacy(c *gin.Context) {
	in, page, ok := h.bindLegacy(c)
	if !ok {
		return
	}

	filter := form.Filter{
		Name:      in.Name,
		Category:  in.Category,
		Available: in.Available == "true",
	}
	orders, err := h.console.SearchLegacy(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, page, err)
		return
	}

	page.Legacy = view.LegacyRows(orders)
	if len(orders) > 0 {
		page.Form = view.FormFromLegacy(&orders[0])
	}
	page.Flash = view.Success(flashSuccess)
	h.render(c, http.StatusOK, page)
}

// ClearLegacy handles POST /console/legacy/clear
func (h *Handlers) ClearLegacy(c *gin.Context) {
	h.render(c, http.StatusOK, view.NewPage())
}
