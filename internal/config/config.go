package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/andreasstove999/ecommerce-system/cart-state-go/internal/storage"
)

const EnvPrefix = "CARTSTATE_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout      time.Duration `koanf:"read_timeout"`
		WriteTimeout     time.Duration `koanf:"write_timeout"`
		ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
		RequestTimeout   time.Duration `koanf:"request_timeout"`
		CORSAllowOrigins []string      `koanf:"cors_allow_origins"`
	} `koanf:"http"`

	Cart struct {
		Namespace          string `koanf:"namespace"`
		StateVersion       string `koanf:"state_version"`
		AllowEmptyCheckout bool   `koanf:"allow_empty_checkout"`
	} `koanf:"cart"`

	Session struct {
		CookieName   string        `koanf:"cookie_name"`
		CookieMaxAge time.Duration `koanf:"cookie_max_age"`
		CookieSecure bool          `koanf:"cookie_secure"`
		MaxActive    int           `koanf:"max_active"`
	} `koanf:"session"`

	Storage storage.Options `koanf:"storage"`

	Rabbit struct {
		URL        string `koanf:"url"`
		Exchange   string `koanf:"exchange"`
		RoutingKey string `koanf:"routing_key"`
	} `koanf:"rabbitmq"`
}

func Defaults() Config {
	var c Config
	c.App.Name = "cart-state"
	c.App.HTTPAddr = ":8081"
	c.App.LogLevel = "info"

	c.HTTP.ReadTimeout = 5 * time.Second
	c.HTTP.WriteTimeout = 10 * time.Second
	c.HTTP.ShutdownTimeout = 10 * time.Second
	c.HTTP.RequestTimeout = 3 * time.Second
	c.HTTP.CORSAllowOrigins = []string{"*"}

	c.Cart.Namespace = "@coffee-delivery"
	c.Cart.StateVersion = "1.0.0"
	c.Cart.AllowEmptyCheckout = true

	c.Session.CookieName = "cart_session"
	c.Session.CookieMaxAge = 30 * 24 * time.Hour
	c.Session.MaxActive = 1024

	c.Storage.Driver = storage.DriverSQLite
	c.Storage.SQLitePath = "./data/cart-state.db"
	c.Storage.RunMigrations = true
	c.Storage.RedisAddr = "localhost:6379"

	c.Rabbit.Exchange = "ecommerce.events"
	c.Rabbit.RoutingKey = "cart.checkedout.v1"
	return c
}

// Load layers configuration: defaults, then .env, then the optional YAML
// file at path, then CARTSTATE_ environment variables (nested with __),
// e.g. CARTSTATE_STORAGE__DRIVER=postgres. List values are comma separated.
func Load(path string) (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"http.cors_allow_origins": true,
}

func envValue(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
	if !listKeys[key] {
		return key, value
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

func (c Config) Validate() error {
	var errs []error
	if c.App.HTTPAddr == "" {
		errs = append(errs, errors.New("app.http_addr required"))
	}
	if c.Cart.Namespace == "" || c.Cart.StateVersion == "" {
		errs = append(errs, errors.New("cart.namespace and cart.state_version required"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name required"))
	}
	if c.Session.MaxActive <= 0 {
		errs = append(errs, errors.New("session.max_active must be positive"))
	}
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverRedis:
	case storage.DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path required"))
		}
	case storage.DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: %w: %q", storage.ErrUnknownDriver, c.Storage.Driver))
	}
	return errors.Join(errs...)
}
