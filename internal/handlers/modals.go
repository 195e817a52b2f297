package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/view"
)

// OpenModal handles POST /console/modals/:name/open
func (h *Handlers) OpenModal(c *gin.Context) {
	h.toggleModal(c, h.modals.Open)
}

// CloseModal handles POST /console/modals/:name/close
func (h *Handlers) CloseModal(c *gin.Context) {
	h.toggleModal(c, h.modals.Close)
}

func (h *Handlers) toggleModal(c *gin.Context, apply func(name string) error) {
	if err := apply(c.Param("name")); err != nil {
		page := view.NewPage()
		page.Flash = view.Failure(err.Error())
		h.render(c, http.StatusNotFound, page)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}
