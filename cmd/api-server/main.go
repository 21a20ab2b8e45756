// Command api-server runs the storefront HTTP API.
package main

import (
	"context"
	_ "time/tzdata" // store time zone without relying on the host database

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	appkg "github.com/masterpiece-shawarma/storefront/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := appkg.LoadConfig()
		if err != nil {
			return err
		}
		return appkg.Run(ctx, lg, m, cfg)
	})
}
