package view

import (
	"strconv"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

// FormView holds the legacy form fields as the page shows them.
type FormView struct {
	ID        string
	Name      string
	Category  string
	Available bool
	Gender    string
	Birthday  string
}

// EmptyForm is the cleared legacy form.
func EmptyForm() FormView {
	return FormView{}
}

// FormFromLegacy fills the legacy form from a server response.
func FormFromLegacy(o *models.LegacyOrder) FormView {
	if o == nil {
		return EmptyForm()
	}
	return FormView{
		ID:        strconv.FormatInt(o.ID, 10),
		Name:      o.Name,
		Category:  o.Category,
		Available: o.Available,
		Gender:    o.Gender,
		Birthday:  o.Birthday,
	}
}

// ItemsFormView echoes the item creation form.
type ItemsFormView struct {
	OrderID         string
	ItemIDs         string
	ItemQuantities  string
	ShippingAddress string
}

// StatusFormView echoes the status update form.
type StatusFormView struct {
	OrderID string
	Status  string
}

// Flash is the one-line result of the last action.
type Flash struct {
	Kind    string
	Message string
}

func Success(message string) *Flash {
	return &Flash{Kind: FlashSuccess, Message: message}
}

func Failure(message string) *Flash {
	return &Flash{Kind: FlashError, Message: message}
}

// ModalView is the state of one modal dialog.
type ModalView struct {
	Name  string
	Title string
	Open  bool
}

// Page is everything the console page renders.
type Page struct {
	Form     FormView
	Items    ItemsFormView
	Status   StatusFormView
	Statuses []string
	Table    TableView
	Legacy   []LegacyRow
	Created  []OrderRow
	Modals   map[string]ModalView
	Flash    *Flash
}

// NewPage returns a page with empty forms and the known statuses.
func NewPage() Page {
	statuses := make([]string, len(models.OrderStatuses))
	for i, s := range models.OrderStatuses {
		statuses[i] = string(s)
	}
	return Page{
		Form:     EmptyForm(),
		Statuses: statuses,
		Modals:   map[string]ModalView{},
	}
}
