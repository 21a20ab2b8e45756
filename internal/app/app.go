package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/masterpiece-shawarma/storefront/internal/domain/auth"
	"github.com/masterpiece-shawarma/storefront/internal/domain/cart"
	"github.com/masterpiece-shawarma/storefront/internal/domain/checkout"
	"github.com/masterpiece-shawarma/storefront/internal/domain/menu"
	"github.com/masterpiece-shawarma/storefront/internal/domain/order"
	"github.com/masterpiece-shawarma/storefront/internal/domain/payment"
	"github.com/masterpiece-shawarma/storefront/internal/domain/promo"
	"github.com/masterpiece-shawarma/storefront/internal/handler"
	"github.com/masterpiece-shawarma/storefront/internal/paystack"
	"github.com/masterpiece-shawarma/storefront/internal/repository"
	"github.com/masterpiece-shawarma/storefront/pkg/health"
	"github.com/masterpiece-shawarma/storefront/pkg/httpmiddleware"
	"github.com/masterpiece-shawarma/storefront/pkg/idempotency"
)

const serviceName = "storefront-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	loc, err := time.LoadLocation(cfg.Store.TimeZone)
	if err != nil {
		return errors.Wrapf(err, "load time zone %q", cfg.Store.TimeZone)
	}
	fee, err := decimal.NewFromString(cfg.Store.DeliveryFee)
	if err != nil {
		return errors.Wrapf(err, "parse delivery fee %q", cfg.Store.DeliveryFee)
	}

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.Readiness(health.Check{
		Name:    "postgres",
		Timeout: 5 * time.Second,
		Func:    health.PingCheck(pool),
	})
	healthSvc.Liveness(health.Check{
		Name:    "goroutines",
		Timeout: time.Second,
		Func:    health.GoroutineCountCheck(10000),
	})

	claims, closeClaims := newClaimer(lg, cfg.Redis, healthSvc)
	defer closeClaims()

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	orderRepo := repository.NewOrderRepository(pool)
	menuRepo := repository.NewMenuRepository(pool)
	apikeyRepo := repository.NewAPIKeyRepository(pool)

	carts := cart.NewStore(promo.MustEngine(promo.DefaultCodes), fee, cfg.Cart.TTL)
	carts.StartSweeper(ctx, cfg.Cart.SweepInterval)

	orders := order.NewService(orderRepo, order.NewNumberGenerator(cfg.Store.OrderNumberPrefix), loc)
	catalog := menu.NewCatalog(menuRepo)

	gateway := payment.NewGateway(payment.GatewayConfig{
		PublicKey:       cfg.Paystack.PublicKey,
		Currency:        cfg.Paystack.Currency,
		Channels:        cfg.Paystack.Channels,
		ReferencePrefix: cfg.Store.ReferencePrefix,
	})

	// A nil provider turns every verification into SERVICE_ERROR.
	var provider payment.Provider
	if cfg.Paystack.SecretKey != "" {
		provider = paystack.NewClient(paystack.Config{
			BaseURL:   cfg.Paystack.BaseURL,
			SecretKey: cfg.Paystack.SecretKey,
			Timeout:   cfg.Paystack.Timeout,
		})
	} else {
		lg.Warn("Paystack secret key not set, card payments cannot be verified")
	}
	verifier, err := payment.NewVerifier(provider, orderRepo,
		m.MeterProvider().Meter(serviceName),
		m.TracerProvider().Tracer(serviceName),
	)
	if err != nil {
		return errors.Wrap(err, "create verifier")
	}

	checkoutSvc := checkout.NewService(carts, orders, gateway, verifier, claims, checkout.Config{
		DeliveryAreas: cfg.Store.DeliveryAreas,
		AttemptTTL:    time.Hour,
	})

	h := handler.NewHandler(
		catalog,
		carts,
		checkoutSvc,
		verifier,
		orders,
		auth.NewAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper)),
	)
	api := h.Router(handler.Options{
		PaymentLimit: httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.PaymentMax,
			Window: cfg.RateLimit.PaymentWindow,
		}),
		Middlewares: []httpmiddleware.Middleware{
			httpmiddleware.LogRequests(),
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Verification may wait up to the Paystack timeout.
		WriteTimeout:   cfg.Paystack.Timeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				Origins:     cfg.CORS.Origins,
				Expose:      []string{httpmiddleware.RequestIDHeader, "Retry-After"},
				Credentials: cfg.CORS.AllowCredentials,
				MaxAge:      86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument(serviceName, m.TracerProvider(), m.MeterProvider()),
		),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newClaimer picks the payment claim store. With Redis configured claims
// are shared across replicas and Redis joins the readiness checks.
func newClaimer(lg *zap.Logger, cfg RedisConfig, h *health.Health) (idempotency.Claimer, func()) {
	if cfg.Addr == "" {
		lg.Warn("Redis not configured, payment claims are local to this instance")
		return idempotency.NewMemoryStore(cfg.ClaimTTL), func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	h.Readiness(health.Check{
		Name:    "redis",
		Timeout: 2 * time.Second,
		Func: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	})
	return idempotency.NewRedisStore(rdb, "payment", cfg.ClaimTTL), func() {
		if err := rdb.Close(); err != nil {
			lg.Warn("Close redis", zap.Error(err))
		}
	}
}
