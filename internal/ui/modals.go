// Package ui holds the console's modal dialog controllers. Each modal has one
// controller, and a single Modals registry owns all of them.
package ui

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/view"
)

// Modal names.
const (
	ModalCreateOrder  = "create-order"
	ModalUpdateStatus = "update-status"
)

var (
	ErrDuplicateModal = errors.New("modal already registered")
	ErrUnknownModal   = errors.New("unknown modal")
)

// ModalController opens and closes one modal.
type ModalController struct {
	name  string
	title string

	mu   sync.Mutex
	open bool
}

func NewModalController(name, title string) *ModalController {
	return &ModalController{name: name, title: title}
}

func (c *ModalController) Name() string { return c.name }

func (c *ModalController) Open() {
	c.mu.Lock()
	c.open = true
	c.mu.Unlock()
}

func (c *ModalController) Close() {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
}

func (c *ModalController) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Modals owns every modal controller of the console.
type Modals struct {
	mu          sync.RWMutex
	controllers map[string]*ModalController
}

func NewModals() *Modals {
	return &Modals{controllers: make(map[string]*ModalController)}
}

// DefaultModals registers the console's modals.
func DefaultModals() *Modals {
	m := NewModals()
	// Names are distinct constants; Register cannot fail here.
	_ = m.Register(NewModalController(ModalCreateOrder, "New order"))
	_ = m.Register(NewModalController(ModalUpdateStatus, "Change order status"))
	return m
}

// Register adds c. A second controller under the same name is rejected.
func (m *Modals) Register(c *ModalController) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.controllers[c.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModal, c.Name())
	}
	m.controllers[c.Name()] = c
	return nil
}

func (m *Modals) Get(name string) (*ModalController, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModal, name)
	}
	return c, nil
}

func (m *Modals) Open(name string) error {
	c, err := m.Get(name)
	if err != nil {
		return err
	}
	c.Open()
	return nil
}

func (m *Modals) Close(name string) error {
	c, err := m.Get(name)
	if err != nil {
		return err
	}
	c.Close()
	return nil
}

// Views returns the state of every modal keyed by name.
func (m *Modals) Views() map[string]view.ModalView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]view.ModalView, len(m.controllers))
	for name, c := range m.controllers {
		out[name] = view.ModalView{Name: name, Title: c.title, Open: c.IsOpen()}
	}
	return out
}
