// Package config loads run configuration: defaults, then an optional YAML file,
// then .env and environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for a run
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Tables     TablesConfig     `yaml:"tables"`
	Forecast   ForecastConfig   `yaml:"forecast"`
	Production ProductionConfig `yaml:"production"`
	Logging    LoggingConfig    `yaml:"logging"`
	ERP        ERPConfig        `yaml:"erp"`
}

// StoreConfig selects the table store backend
type StoreConfig struct {
	Backend         string `yaml:"backend" validate:"required,oneof=csv xlsx sqlite sheets"`
	Path            string `yaml:"path"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// TablesConfig names the tables read and written. An empty WIP name means no
// work-in-progress source; an empty Shortage name disables the shortage table.
// Receipt is written only by the ERP receipt sync.
type TablesConfig struct {
	Inventory  string `yaml:"inventory" validate:"required"`
	WIP        string `yaml:"wip"`
	BOM        string `yaml:"bom" validate:"required"`
	Production string `yaml:"production" validate:"required"`
	Assembly   string `yaml:"assembly" validate:"required"`
	Index      string `yaml:"index" validate:"required"`
	Detail     string `yaml:"detail" validate:"required"`
	Shortage   string `yaml:"shortage"`
	Receipt    string `yaml:"receipt"`
}

// ForecastConfig holds the projection run parameters
type ForecastConfig struct {
	HorizonDays        int    `yaml:"horizon_days" validate:"gt=0"`
	LeadTimeDays       int    `yaml:"lead_time_days" validate:"gte=0"`
	InclusionPolicy    string `yaml:"inclusion_policy"`
	TrailingWindowDays int    `yaml:"trailing_window_days" validate:"gte=0"`
}

// ProductionConfig holds the production-plan preparation parameters
type ProductionConfig struct {
	DefaultCompletionDays int     `yaml:"default_completion_days" validate:"gte=0"`
	DoughPerBatchGrams    float64 `yaml:"dough_per_batch_grams" validate:"gt=0"`
	YieldRate             float64 `yaml:"yield_rate" validate:"gt=0,lte=1"`
}

// LoggingConfig controls the run logger
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// ERPConfig holds the ERP connection and the queries run against it.
// Each query must return the column aliases documented on the erp package.
type ERPConfig struct {
	Driver  string     `yaml:"driver" validate:"omitempty,oneof=sqlserver pgx mysql"`
	DSN     string     `yaml:"dsn"`
	Queries ERPQueries `yaml:"queries"`
}

// ERPQueries are the SQL statements for each ERP extract
type ERPQueries struct {
	Inventory string `yaml:"inventory"`
	WIP       string `yaml:"wip"`
	ItemInfo  string `yaml:"item_info"`
	Receipt   string `yaml:"receipt"`
}

// Default returns the built-in configuration. Table names match the shared workbook.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "csv",
			Path:    "data",
		},
		Tables: TablesConfig{
			Inventory:  "庫存狀態",
			WIP:        "在製品庫存",
			BOM:        "BOM",
			Production: "生產排程",
			Assembly:   "組裝計劃",
			Index:      "Index",
			Detail:     "庫存預估明細",
			Shortage:   "負庫存警示",
			Receipt:    "完工入庫",
		},
		Forecast: ForecastConfig{
			HorizonDays:        14,
			LeadTimeDays:       5,
			InclusionPolicy:    "auto",
			TrailingWindowDays: 3,
		},
		Production: ProductionConfig{
			DefaultCompletionDays: 2,
			DoughPerBatchGrams:    160000,
			YieldRate:             0.95,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Store.Backend, "FORECAST_STORE_BACKEND")
	setString(&c.Store.Path, "FORECAST_STORE_PATH")
	setString(&c.Store.SpreadsheetID, "FORECAST_SPREADSHEET_ID")
	setString(&c.Store.CredentialsFile, "FORECAST_CREDENTIALS_FILE")
	setString(&c.Forecast.InclusionPolicy, "FORECAST_INCLUSION_POLICY")
	setString(&c.Logging.Level, "FORECAST_LOG_LEVEL")
	setString(&c.ERP.Driver, "ERP_DRIVER")
	setString(&c.ERP.DSN, "ERP_DSN")

	if err := setInt(&c.Forecast.HorizonDays, "FORECAST_HORIZON_DAYS"); err != nil {
		return err
	}
	return setInt(&c.Forecast.LeadTimeDays, "FORECAST_LEAD_TIME_DAYS")
}

func setString(dst *string, key string) {
	if value, exists := os.LookupEnv(key); exists {
		*dst = strings.TrimSpace(value)
	}
}

func setInt(dst *int, key string) error {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalidConfig, key, value)
	}
	*dst = n
	return nil
}

// Validate checks field constraints and the cross-field rules between them
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			fields := make([]string, 0, len(validationErrors))
			for _, ve := range validationErrors {
				fields = append(fields, fmt.Sprintf("%s (%s)", ve.Namespace(), ve.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Store.Backend {
	case "csv", "xlsx", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the %s backend", ErrInvalidConfig, c.Store.Backend)
		}
	case "sheets":
		if c.Store.SpreadsheetID == "" {
			return fmt.Errorf("%w: store.spreadsheet_id is required for the sheets backend", ErrInvalidConfig)
		}
	}

	if c.ERP.Driver != "" && c.ERP.DSN == "" {
		return fmt.Errorf("%w: erp.dsn is required when erp.driver is set", ErrInvalidConfig)
	}

	_, err := c.Policy()
	return err
}

// HasWIPSource reports whether a work-in-progress table is merged into opening inventory
func (c *Config) HasWIPSource() bool {
	return c.Tables.WIP != ""
}

// Policy resolves the inclusion policy and rejects combinations that would count a
// batch twice (trailing window plus WIP) or not at all (exclude-today without WIP)
func (c *Config) Policy() (entities.InclusionPolicy, error) {
	policy, err := entities.ParseInclusionPolicy(c.Forecast.InclusionPolicy)
	if err != nil {
		return entities.AutoPolicy, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch {
	case policy == entities.TrailingWindow && c.HasWIPSource():
		return entities.AutoPolicy, fmt.Errorf("%w: trailing-window policy double counts batches already in the WIP table %q", ErrInvalidConfig, c.Tables.WIP)
	case policy == entities.ExcludeToday && !c.HasWIPSource():
		return entities.AutoPolicy, fmt.Errorf("%w: exclude-today policy requires a WIP table", ErrInvalidConfig)
	}
	return policy.Resolve(c.HasWIPSource()), nil
}
