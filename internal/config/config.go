package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

const (
	DriverSnowflake = "snowflake"
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
)

type ServerConfig struct {
	Port string `toml:"port" validate:"required,numeric"`
	Mode string `toml:"mode" validate:"oneof=debug release test"`
}

type WarehouseConfig struct {
	Driver       string `toml:"driver" validate:"oneof=snowflake postgres sqlite"`
	DSN          string `toml:"dsn"`
	Account      string `toml:"account" validate:"required_without=DSN"`
	User         string `toml:"user" validate:"required_without=DSN"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	Schema       string `toml:"schema"`
	Warehouse    string `toml:"warehouse"`
	Role         string `toml:"role"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
}

type TemplatesConfig struct {
	// Dir overrides the built-in report templates. Empty means built-in.
	Dir string `toml:"dir"`
}

type FlowConfig struct {
	Preserve string `toml:"preserve" validate:"omitempty,oneof=before after"`
}

type DashboardConfig struct {
	Concurrency int `toml:"concurrency" validate:"gte=1,lte=32"`
}

type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Warehouse WarehouseConfig `toml:"warehouse"`
	Templates TemplatesConfig `toml:"templates"`
	Flow      FlowConfig      `toml:"flow"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Log       LogConfig       `toml:"log"`
}

func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080", Mode: "release"},
		Warehouse: WarehouseConfig{Driver: DriverSnowflake, MaxOpenConns: 4},
		Flow:      FlowConfig{Preserve: "before"},
		Dashboard: DashboardConfig{Concurrency: 4},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a TOML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() {
	override := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	override("PORT", &c.Server.Port)
	override("GIN_MODE", &c.Server.Mode)
	override("WAREHOUSE_DRIVER", &c.Warehouse.Driver)
	override("WAREHOUSE_DSN", &c.Warehouse.DSN)
	override("SNOWFLAKE_ACCOUNT", &c.Warehouse.Account)
	override("SNOWFLAKE_USER", &c.Warehouse.User)
	override("SNOWFLAKE_PASSWORD", &c.Warehouse.Password)
	override("SNOWFLAKE_DATABASE", &c.Warehouse.Database)
	override("SNOWFLAKE_SCHEMA", &c.Warehouse.Schema)
	override("SNOWFLAKE_WAREHOUSE", &c.Warehouse.Warehouse)
	override("SNOWFLAKE_ROLE", &c.Warehouse.Role)
	override("TEMPLATES_DIR", &c.Templates.Dir)
	override("FLOW_PRESERVE", &c.Flow.Preserve)
	override("LOG_LEVEL", &c.Log.Level)
	override("LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv("DASHBOARD_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Dashboard.Concurrency = n
		}
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
