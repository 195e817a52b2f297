// Package form turns raw console form input into request payloads and query
// strings for the orders service.
package form

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/errors"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/models"
)

// Field names as they appear on the console forms.
const (
	FieldOrderID         = "order_id"
	FieldItemIDs         = "item_ids"
	FieldItemQuantities  = "item_quantities"
	FieldShippingAddress = "shipping_address"
	FieldStatus          = "status"
)

// ItemDefaults fills the line item fields the creation form does not ask for.
type ItemDefaults struct {
	OrderID     int64
	Price       decimal.Decimal
	Description string
}

// DefaultItemDefaults returns the placeholders the console has always sent.
func DefaultItemDefaults() ItemDefaults {
	return ItemDefaults{
		OrderID:     0,
		Price:       decimal.RequireFromString("23.4"),
		Description: "Glucose",
	}
}

// Options configures a Serializer.
type Options struct {
	Items         ItemDefaults
	MaxCustomerID int64
	// Now and CustomerID are injectable for tests.
	Now        func() time.Time
	CustomerID func(max int64) int64
}

// Serializer builds request payloads from form input.
type Serializer struct {
	items         ItemDefaults
	maxCustomerID int64
	now           func() time.Time
	customerID    func(max int64) int64
}

// NewSerializer creates a serializer, filling unset options with defaults.
func NewSerializer(opts Options) *Serializer {
	s := &Serializer{
		items:         opts.Items,
		maxCustomerID: opts.MaxCustomerID,
		now:           opts.Now,
		customerID:    opts.CustomerID,
	}
	if s.maxCustomerID <= 0 {
		s.maxCustomerID = 10000
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.customerID == nil {
		s.customerID = func(max int64) int64 { return rand.Int64N(max + 1) }
	}
	return s
}

// ItemsForm is the raw input of the order creation modal.
type ItemsForm struct {
	ItemIDs         string `form:"item_ids"`
	ItemQuantities  string `form:"item_quantities"`
	ShippingAddress string `form:"shipping_address"`
}

// CreateRequest validates the form and builds a fully populated creation
// payload. Nothing is returned on failure, so nothing can be sent.
func (s *Serializer) CreateRequest(f ItemsForm) (*models.CreateOrderRequest, error) {
	if strings.TrimSpace(f.ItemIDs) == "" {
		return nil, errors.NewValidationError(FieldItemIDs, errors.ErrRequired, "item ids are required")
	}
	if strings.TrimSpace(f.ItemQuantities) == "" {
		return nil, errors.NewValidationError(FieldItemQuantities, errors.ErrRequired, "item quantities are required")
	}
	address := strings.TrimSpace(f.ShippingAddress)
	if address == "" {
		return nil, errors.NewValidationError(FieldShippingAddress, errors.ErrRequired, "shipping address is required")
	}

	ids, err := ParseIntList(FieldItemIDs, f.ItemIDs)
	if err != nil {
		return nil, err
	}
	quantities, err := ParseIntList(FieldItemQuantities, f.ItemQuantities)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(quantities) {
		return nil, errors.NewValidationError(FieldItemQuantities, errors.ErrLengthMismatch,
			fmt.Sprintf("number of item ids (%d) and quantities (%d) must match", len(ids), len(quantities)))
	}

	items := make([]models.LineItem, len(ids))
	for i := range ids {
		if quantities[i] < 1 {
			return nil, errors.NewValidationError(FieldItemQuantities, errors.ErrOutOfRange,
				fmt.Sprintf("quantity %d must be at least 1", quantities[i]))
		}
		items[i] = models.LineItem{
			ProductID:          ids[i],
			OrderID:            s.items.OrderID,
			Quantity:           int(quantities[i]),
			Price:              s.items.Price,
			ProductDescription: s.items.Description,
		}
	}

	return &models.CreateOrderRequest{
		Items:           items,
		CustomerID:      s.customerID(s.maxCustomerID),
		ShippingAddress: address,
		CreatedAt:       s.now().UTC().Format(models.CreatedAtLayout),
		Status:          models.OrderStatusCreated,
	}, nil
}

// ParseIntList splits raw on commas, strips all whitespace from each token and
// parses it as a base-10 integer.
func ParseIntList(field, raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.NewValidationError(field, errors.ErrRequired, "at least one value is required")
	}

	tokens := strings.Split(raw, ",")
	values := make([]int64, 0, len(tokens))
	for _, token := range tokens {
		cleaned := stripSpace(token)
		v, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return nil, errors.NewValidationError(field, errors.ErrNotInteger,
				fmt.Sprintf("%q is not an integer", strings.TrimSpace(token)))
		}
		values = append(values, v)
	}
	return values, nil
}

// ParseOrderID parses a required order id field.
func ParseOrderID(raw string) (int64, error) {
	cleaned := stripSpace(raw)
	if cleaned == "" {
		return 0, errors.NewValidationError(FieldOrderID, errors.ErrRequired, "order id is required")
	}
	id, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError(FieldOrderID, errors.ErrNotInteger,
			fmt.Sprintf("%q is not an integer", cleaned))
	}
	return id, nil
}

// LegacyForm is the raw input of the flat order form.
type LegacyForm struct {
	ID        string `form:"id"`
	Name      string `form:"name"`
	Category  string `form:"category"`
	Available string `form:"available"`
	Gender    string `form:"gender"`
	Birthday  string `form:"birthday"`
}

// LegacyRequest builds the flat order payload. Available is true only for the
// literal "true".
func LegacyRequest(f LegacyForm) *models.LegacyOrderRequest {
	return &models.LegacyOrderRequest{
		Name:      f.Name,
		Category:  f.Category,
		Available: f.Available == "true",
		Gender:    f.Gender,
		Birthday:  f.Birthday,
	}
}

// StatusForm is the raw input of the status update modal.
type StatusForm struct {
	OrderID string `form:"order_id"`
	Status  string `form:"status"`
}

// StatusRequest validates the form and returns the target id and body.
func StatusRequest(f StatusForm) (int64, *models.UpdateStatusRequest, error) {
	id, err := ParseOrderID(f.OrderID)
	if err != nil {
		return 0, nil, err
	}
	if strings.TrimSpace(f.Status) == "" {
		return 0, nil, errors.NewValidationError(FieldStatus, errors.ErrRequired, "status is required")
	}
	status, err := models.ParseOrderStatus(f.Status)
	if err != nil {
		return 0, nil, errors.NewValidationError(FieldStatus, errors.ErrInvalidStatus, err.Error())
	}
	return id, &models.UpdateStatusRequest{Status: status}, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
