package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the sentiments tool. A loaded
// Config is treated as immutable and handed by value to each component.
type Config struct {
	Storage Storage `yaml:"storage"`
	Ingest  Ingest  `yaml:"ingest"`
	Logging Logging `yaml:"logging"`
}

// Storage holds the location of the output store.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path" validate:"required"`
}

// Ingest controls how the raw price and message files are parsed.
type Ingest struct {
	DateFormat       string            `yaml:"date_format" validate:"required"`
	AltDateFormat    string            `yaml:"alt_date_format" validate:"required"`
	PriceDelimiter   string            `yaml:"price_delimiter" validate:"len=1"`
	MessageDelimiter string            `yaml:"message_delimiter" validate:"len=1"`
	MessageExt       string            `yaml:"message_ext" validate:"required,startswith=."`
	BackupSuffix     string            `yaml:"backup_suffix" validate:"required"`
	ThousandsSep     string            `yaml:"thousands_sep" validate:"len=1,excludesall=.-"`
	HeaderFixes      map[string]string `yaml:"header_fixes"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	File   string `yaml:"file"`
}

// ErrInvalid is returned when a configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in configuration used when no file is present.
func Default() Config {
	return Config{
		Storage: Storage{
			SQLitePath: "data/out/data.db",
		},
		Ingest: Ingest{
			DateFormat:       "2006-01-02",
			AltDateFormat:    "20060102",
			PriceDelimiter:   "|",
			MessageDelimiter: ",",
			MessageExt:       ".csv",
			BackupSuffix:     ".bak",
			ThousandsSep:     ",",
			HeaderFixes:      map[string]string{"daet": "date"},
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, applies environment variable overrides, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default (with environment
// overrides) when the file does not exist.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	cfg = Default()
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints declared in the struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}
