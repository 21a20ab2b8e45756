package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
)

const (
	menuColumns = `id, name, description, price, category, image, popular, available, halal`

	listMenuSQL = `SELECT ` + menuColumns + ` FROM menu_items
		WHERE ($1 = '' OR category = $1)
		  AND (NOT $2 OR popular)
		  AND (NOT $3 OR available)
		ORDER BY sort_order, id`

	getMenuItemSQL = `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	upsertMenuItemSQL = `INSERT INTO menu_items (` + menuColumns + `, sort_order)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, description = EXCLUDED.description, price = EXCLUDED.price,
		category = EXCLUDED.category, image = EXCLUDED.image, popular = EXCLUDED.popular,
		available = EXCLUDED.available, halal = EXCLUDED.halal, sort_order = EXCLUDED.sort_order`
)

var _ menu.Repository = (*MenuRepository)(nil)

// MenuRepository implements menu.Repository backed by PostgreSQL.
type MenuRepository struct {
	pool *pgxpool.Pool
}

// NewMenuRepository returns a MenuRepository that uses the given pool.
func NewMenuRepository(pool *pgxpool.Pool) *MenuRepository {
	return &MenuRepository{pool: pool}
}

// List returns menu items matching the filter in menu order.
func (r *MenuRepository) List(ctx context.Context, f menu.Filter) ([]menu.Item, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL, f.Category, f.PopularOnly, f.AvailableOnly)
	if err != nil {
		return nil, errors.Wrap(err, "list menu")
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetByID returns a single menu item.
func (r *MenuRepository) GetByID(ctx context.Context, id string) (*menu.Item, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get menu item %q", id)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, menu.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get menu item %q", id)
	}
	return &it, nil
}

// Upsert inserts or replaces items, keeping their slice order as menu order.
func (r *MenuRepository) Upsert(ctx context.Context, items []menu.Item) error {
	batch := &pgx.Batch{}
	for i, it := range items {
		batch.Queue(upsertMenuItemSQL,
			it.ID, it.Name, it.Description, it.Price, it.Category, it.Image,
			it.Popular, it.Available, it.Halal, i,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "upsert menu items")
	}
	return nil
}

func scanMenuItem(row pgx.CollectableRow) (menu.Item, error) {
	var it menu.Item
	err := row.Scan(
		&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.Image,
		&it.Popular, &it.Available, &it.Halal,
	)
	return it, err
}
