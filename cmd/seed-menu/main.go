// Command seed-menu loads the menu and an ops API key into the database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/masterpiece-shawarma/storefront/db"
	"github.com/masterpiece-shawarma/storefront/internal/domain/auth"
	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
	"github.com/masterpiece-shawarma/storefront/internal/repository"
)

type menuItemJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Popular     bool            `json:"popular"`
	Available   bool            `json:"available"`
	Halal       bool            `json:"halal"`
}

func main() {
	var (
		databaseURL  string
		menuFile     string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "path to a menu JSON file (default: embedded menu)")
	flag.StringVar(&apiKey, "api-key", "", "ops API key to seed (or MP_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or MP_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("MP_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("MP_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile, apiKey, pepper string) error {
	items, err := loadMenu(menuFile)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting menu", slog.Int("count", len(items)))

	if err := repository.NewMenuRepository(pool).Upsert(ctx, items); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if apiKey == "" {
		slog.Info("no API key given, skipping")
		return nil
	}
	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

// loadMenu reads the menu from path, or the embedded default when path is
// empty.
func loadMenu(path string) ([]menu.Item, error) {
	data := db.MenuSeed
	if path != "" {
		slog.Info("reading menu file", slog.String("path", path))

		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read menu file")
		}
		data = b
	}

	var raw []menuItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "parse menu JSON")
	}

	items := make([]menu.Item, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if r.ID == "" || r.Name == "" {
			return nil, errors.Errorf("menu item %q: id and name are required", r.ID)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, errors.Errorf("menu item %q listed twice", r.ID)
		}
		if !r.Price.IsPositive() {
			return nil, errors.Errorf("menu item %q: price must be positive", r.ID)
		}
		seen[r.ID] = struct{}{}
		items = append(items, menu.Item{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Price:       r.Price,
			Category:    r.Category,
			Image:       r.Image,
			Popular:     r.Popular,
			Available:   r.Available,
			Halal:       r.Halal,
		})
	}
	return items, nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding kitchen API key")

	if err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      "kitchen",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Kitchen dashboard",
		Scopes:  []string{auth.ScopeOrdersRead, auth.ScopeOrdersWrite},
	}); err != nil {
		return errors.Wrap(err, "upsert kitchen API key")
	}

	slog.Info("upserted API key", slog.String("id", "kitchen"))

	return nil
}
