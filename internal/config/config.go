package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the insights service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Reporting     ReportingConfig     `mapstructure:"reporting"`
	Shopify       ShopifyConfig       `mapstructure:"shopify"`
	Insights      InsightsConfig      `mapstructure:"insights"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Bootstrap     BootstrapConfig     `mapstructure:"bootstrap"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	ReadTimeout           time.Duration `mapstructure:"read_timeout"`
	WriteTimeout          time.Duration `mapstructure:"write_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	RunMigrations   bool          `mapstructure:"run_migrations"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type ReportingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// ShopifyConfig carries the app credentials for the storefront OAuth flow
// and live ingestion. All optional: demo tenants work without them.
type ShopifyConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	APISecret   string        `mapstructure:"api_secret"`
	Scopes      []string      `mapstructure:"scopes"`
	RedirectURL string        `mapstructure:"redirect_url"`
	APIVersion  string        `mapstructure:"api_version"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	StateTTL    time.Duration `mapstructure:"state_ttl"`
}

// Enabled reports whether live OAuth/ingestion is configured.
func (s ShopifyConfig) Enabled() bool {
	return s.APIKey != "" && s.APISecret != ""
}

type InsightsConfig struct {
	CacheEnabled bool          `mapstructure:"cache_enabled"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// BootstrapConfig lists demo tenants ensured at startup so the dashboard
// has data to point at before any store is connected.
type BootstrapConfig struct {
	Tenants []BootstrapTenant `mapstructure:"tenants"`
}

type BootstrapTenant struct {
	Name   string `mapstructure:"name"`
	APIKey string `mapstructure:"api_key"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("INSIGHTS_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("insights")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set.
func (c *Config) Validate() error {
	var missing []string

	if c.Database.URL == "" {
		missing = append(missing, "INSIGHTS_DATABASE_URL")
	}
	if c.Redis.URL == "" {
		missing = append(missing, "INSIGHTS_REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Database.MaxConns < 0 {
		return fmt.Errorf("database.max_conns must be >= 0")
	}
	if c.Redis.PoolSize < 0 {
		return fmt.Errorf("redis.pool_size must be >= 0")
	}

	reportingTZ := strings.TrimSpace(c.Reporting.Timezone)
	if reportingTZ == "" {
		reportingTZ = "UTC"
	}
	if _, err := time.LoadLocation(reportingTZ); err != nil {
		return fmt.Errorf("invalid reporting.timezone: %w", err)
	}
	c.Reporting.Timezone = reportingTZ

	if c.Shopify.Enabled() {
		if c.Shopify.RedirectURL == "" {
			return fmt.Errorf("shopify.redirect_url must be provided when shopify credentials are set")
		}
		if _, err := url.Parse(c.Shopify.RedirectURL); err != nil {
			return fmt.Errorf("invalid shopify.redirect_url: %w", err)
		}
	}
	if c.Shopify.HTTPTimeout <= 0 {
		c.Shopify.HTTPTimeout = 15 * time.Second
	}
	if c.Shopify.StateTTL <= 0 {
		c.Shopify.StateTTL = 10 * time.Minute
	}
	if len(c.Shopify.Scopes) == 0 {
		c.Shopify.Scopes = []string{"read_customers", "read_products", "read_orders", "read_checkouts"}
	}

	if c.Insights.CacheTTL <= 0 {
		c.Insights.CacheTTL = 5 * time.Minute
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "info":
		c.Logging.Level = "info"
	case "debug", "warn", "error":
		c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error")
	}

	for i, tenant := range c.Bootstrap.Tenants {
		if strings.TrimSpace(tenant.Name) == "" {
			return fmt.Errorf("bootstrap.tenants[%d].name must be provided", i)
		}
		if strings.TrimSpace(tenant.APIKey) == "" {
			return fmt.Errorf("bootstrap.tenants[%d].api_key must be provided", i)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 5)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	v.SetDefault("database.run_migrations", true)
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_idle_time", "10m")
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("reporting.timezone", "UTC")

	v.SetDefault("shopify.api_version", "2024-01")
	v.SetDefault("shopify.http_timeout", "15s")
	v.SetDefault("shopify.state_ttl", "10m")

	v.SetDefault("insights.cache_enabled", true)
	v.SetDefault("insights.cache_ttl", "5m")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")

	v.SetDefault("logging.level", "info")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
