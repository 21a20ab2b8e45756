package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (MP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (MP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for ops API key hashing" flag:"api-key-pepper"`
	Production   bool   `default:"false" usage:"Fail at startup when payment keys are missing"`
	Paystack     PaystackConfig
	Store        StoreConfig
	Cart         CartConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PaystackConfig holds the payment provider credentials. The public key is
// handed to the widget; the secret key never leaves the server.
type PaystackConfig struct {
	PublicKey string        `usage:"Paystack public key (pk_...)" flag:"public-key"`
	SecretKey string        `usage:"Paystack secret key (sk_...)" flag:"secret-key"`
	BaseURL   string        `default:"https://api.paystack.co" usage:"Paystack API base URL"`
	Currency  string        `default:"NGN" usage:"Charge currency"`
	Channels  []string      `default:"card,bank,ussd,qr,mobile_money,bank_transfer" usage:"Widget payment channels"`
	Timeout   time.Duration `default:"10s" usage:"Verification request timeout, capped at 10s"`
}

// StoreConfig describes the restaurant itself.
type StoreConfig struct {
	DeliveryFee       string   `default:"500" usage:"Flat delivery fee in naira" flag:"delivery-fee"`
	TimeZone          string   `default:"Africa/Lagos" usage:"Store time zone for daily reports"`
	DeliveryAreas     []string `usage:"Areas the kitchen delivers to"`
	ReferencePrefix   string   `default:"MP" usage:"Payment reference prefix"`
	OrderNumberPrefix string   `default:"MP" usage:"Order number prefix"`
}

// CartConfig controls session cart expiry.
type CartConfig struct {
	TTL           time.Duration `default:"24h" usage:"Idle cart lifetime"`
	SweepInterval time.Duration `default:"10m" usage:"How often idle carts are dropped"`
}

// RedisConfig enables the shared payment claim store. Without an address
// claims are kept in process memory.
type RedisConfig struct {
	Addr     string        `usage:"Redis address (host:port)"`
	Password string        `usage:"Redis password"`
	DB       int           `default:"0" usage:"Redis database"`
	ClaimTTL time.Duration `default:"24h" usage:"How long a payment reference stays claimed"`
}

// RateLimitConfig controls the per-client rate limits.
type RateLimitConfig struct {
	Max           int           `default:"100" usage:"Max requests per window"`
	Window        time.Duration `default:"1m"  usage:"Rate limit window duration"`
	PaymentMax    int           `default:"10" usage:"Max payment requests per window"`
	PaymentWindow time.Duration `default:"1m" usage:"Payment rate limit window"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files and flags, then validates it.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MP",
		Files:     []string{"config.yaml", "/etc/masterpiece/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set MP_DATABASE_URL or DATABASE_URL")
	}
	if c.Production {
		if c.Paystack.PublicKey == "" {
			return errors.New("production: MP_PAYSTACK_PUBLIC_KEY is required")
		}
		if c.Paystack.SecretKey == "" {
			return errors.New("production: MP_PAYSTACK_SECRET_KEY is required")
		}
		if c.APIKeyPepper == "" {
			return errors.New("production: MP_API_KEY_PEPPER is required")
		}
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT onto the MP_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
