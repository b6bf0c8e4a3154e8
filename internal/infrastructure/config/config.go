package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Kaspi     KaspiConfig
	Sync      SyncConfig
	Warehouse WarehouseConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// KaspiConfig holds marketplace API settings
type KaspiConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// SyncConfig holds reconciliation settings
type SyncConfig struct {
	Enabled  bool
	Interval time.Duration

	// Timezone anchors the ingest window; order timestamps from the
	// marketplace are local to it.
	Timezone string

	PageSize int

	// IngestLookbackHours is the trailing window for new-order ingest.
	IngestLookbackHours int

	// ReconcileLookbackDays are the windows re-checked for status drift.
	ReconcileLookbackDays []int

	// RestockCellID is the storage cell returned goods are booked into.
	RestockCellID int64

	LeaseTTL time.Duration
}

// WarehouseOverrideRule pins an address token set to a warehouse id.
type WarehouseOverrideRule struct {
	Tokens      []string `mapstructure:"tokens"`
	WarehouseID int64    `mapstructure:"warehouse_id"`
}

// WarehouseConfig holds address resolution settings
type WarehouseConfig struct {
	MinScore  int
	StopWords []string
	Overrides []WarehouseOverrideRule
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with JETQOR_ prefix (e.g., JETQOR_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("JETQOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		Kaspi: KaspiConfig{
			BaseURL:        v.GetString("kaspi.base_url"),
			TimeoutSeconds: v.GetInt("kaspi.timeout_seconds"),
		},
		Sync: SyncConfig{
			Enabled:               v.GetBool("sync.enabled"),
			Interval:              v.GetDuration("sync.interval"),
			Timezone:              v.GetString("sync.timezone"),
			PageSize:              v.GetInt("sync.page_size"),
			IngestLookbackHours:   v.GetInt("sync.ingest_lookback_hours"),
			ReconcileLookbackDays: v.GetIntSlice("sync.reconcile_lookback_days"),
			RestockCellID:         v.GetInt64("sync.restock_cell_id"),
			LeaseTTL:              v.GetDuration("sync.lease_ttl"),
		},
		Warehouse: WarehouseConfig{
			MinScore:  v.GetInt("warehouse.min_score"),
			StopWords: v.GetStringSlice("warehouse.stop_words"),
		},
	}

	// Override rules are structured tables; viper's flat getters cannot
	// read them
	if err := v.UnmarshalKey("warehouse.overrides", &cfg.Warehouse.Overrides); err != nil {
		return nil, fmt.Errorf("error parsing warehouse overrides: %w", err)
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "jetqor-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "jetqor"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Kaspi.BaseURL == "" {
		cfg.Kaspi.BaseURL = "https://kaspi.kz/shop/api/v2"
	}
	if cfg.Kaspi.TimeoutSeconds == 0 {
		cfg.Kaspi.TimeoutSeconds = 30
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.Timezone == "" {
		cfg.Sync.Timezone = "Asia/Almaty"
	}
	if cfg.Sync.PageSize == 0 {
		cfg.Sync.PageSize = 100
	}
	if cfg.Sync.IngestLookbackHours == 0 {
		cfg.Sync.IngestLookbackHours = 24
	}
	if len(cfg.Sync.ReconcileLookbackDays) == 0 {
		cfg.Sync.ReconcileLookbackDays = []int{3, 7, 14}
	}
	if cfg.Sync.RestockCellID == 0 {
		cfg.Sync.RestockCellID = 37
	}
	if cfg.Sync.LeaseTTL == 0 {
		cfg.Sync.LeaseTTL = 10 * time.Minute
	}
	if cfg.Warehouse.MinScore == 0 {
		cfg.Warehouse.MinScore = 80
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.PageSize < 1 || c.Sync.PageSize > 100 {
		return fmt.Errorf("sync.page_size must be between 1 and 100, got %d", c.Sync.PageSize)
	}
	for _, days := range c.Sync.ReconcileLookbackDays {
		if days <= 0 {
			return fmt.Errorf("sync.reconcile_lookback_days entries must be positive, got %d", days)
		}
	}
	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("sync.timezone is not a valid IANA zone: %w", err)
	}
	for i, rule := range c.Warehouse.Overrides {
		if len(rule.Tokens) == 0 {
			return fmt.Errorf("warehouse.overrides[%d] has no tokens", i)
		}
		if rule.WarehouseID <= 0 {
			return fmt.Errorf("warehouse.overrides[%d] has no warehouse_id", i)
		}
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Location resolves the configured sync timezone. Validation already
// guaranteed the zone parses.
func (s *SyncConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
