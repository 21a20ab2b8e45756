// Package menu is the storefront catalog.
package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Menu errors.
var (
	// ErrNotFound is returned when a requested menu item does not exist.
	ErrNotFound = errors.New("menu item not found")
	// ErrUnavailable is returned when an item is on the menu but cannot be
	// ordered right now.
	ErrUnavailable = errors.New("menu item unavailable")
)

// Item is a dish or drink offered on the menu. Price is in major currency
// units (naira).
type Item struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Image       string
	Popular     bool
	Available   bool
	Halal       bool
}

// Filter narrows a menu listing. Zero value lists everything.
type Filter struct {
	Category      string
	PopularOnly   bool
	AvailableOnly bool
}

// Repository defines read operations for the menu catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Item, error)
	GetByID(ctx context.Context, id string) (*Item, error)
}

// Catalog answers menu queries.
type Catalog struct {
	items Repository
}

// NewCatalog creates a Catalog over the given repository.
func NewCatalog(items Repository) *Catalog {
	return &Catalog{items: items}
}

// List returns every item matching the filter.
func (c *Catalog) List(ctx context.Context, f Filter) ([]Item, error) {
	return c.items.List(ctx, f)
}

// ByCategory returns the items in one category.
func (c *Catalog) ByCategory(ctx context.Context, category string) ([]Item, error) {
	return c.items.List(ctx, Filter{Category: category})
}

// Available returns the items that can be ordered.
func (c *Catalog) Available(ctx context.Context) ([]Item, error) {
	return c.items.List(ctx, Filter{AvailableOnly: true})
}

// Popular returns the items flagged as popular.
func (c *Catalog) Popular(ctx context.Context) ([]Item, error) {
	return c.items.List(ctx, Filter{PopularOnly: true})
}

// Get returns a single item.
func (c *Catalog) Get(ctx context.Context, id string) (*Item, error) {
	return c.items.GetByID(ctx, id)
}

// Orderable returns the item if it exists and is available.
func (c *Catalog) Orderable(ctx context.Context, id string) (*Item, error) {
	it, err := c.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !it.Available {
		return nil, ErrUnavailable
	}
	return it, nil
}
