package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" validate:"gt=0"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" validate:"min=1"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// ProcessingConfig contains report generation configuration shared by
// the HTTP handlers and the CLI.
type ProcessingConfig struct {
	// MaxUploadBytes caps the size of a single uploaded source file.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`

	// WarningLimit caps per-row problem enumerations embedded in a
	// single error or warning message.
	WarningLimit int `yaml:"warning_limit" envconfig:"WARNING_LIMIT" validate:"gt=0"`

	// ArchivePrefix is prepended to every generated archive name.
	ArchivePrefix string `yaml:"archive_prefix" envconfig:"ARCHIVE_PREFIX"`

	// BankAccounts is the allow list of account numbers kept when
	// filtering bank statement extracts.
	BankAccounts []string `yaml:"bank_accounts" envconfig:"BANK_ACCOUNTS" validate:"min=1,dive,numeric"`

	Aging AgingConfig `yaml:"aging" envconfig:"AGING"`
}

// AgingConfig tunes the aging report pipeline.
type AgingConfig struct {
	// ExclusionPhrases drop a row when its description contains any of
	// them as a substring.
	ExclusionPhrases []string `yaml:"exclusion_phrases" envconfig:"EXCLUSION_PHRASES"`

	// TotalsMarkers drop a row when its description equals one of them
	// exactly. Source extracts append summary rows labelled this way.
	TotalsMarkers []string `yaml:"totals_markers" envconfig:"TOTALS_MARKERS"`

	// Families describes extra workbook sheets, each collecting the
	// rows whose sub division name belongs to the listed set. YAML
	// only; there is no sane env encoding for nested lists.
	Families []FamilySheet `yaml:"families" ignored:"true" validate:"dive"`
}

// FamilySheet names one family sheet and the sub division names that
// belong on it.
type FamilySheet struct {
	Name         string   `yaml:"name" validate:"required"`
	SubDivisions []string `yaml:"sub_divisions" validate:"min=1"`
}

var validate = validator.New()

// Load loads configuration from defaults, an optional YAML file and
// PYGRAYS_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("PYGRAYS", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg.
// Only the keys present in the file are touched.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize coerces logging fields the rest of the system depends on.
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	// Structured handlers only understand these two formats.
	if c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}

	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Output:      "stdout",
			Development: false,
		},
		Processing: ProcessingConfig{
			MaxUploadBytes: 64 << 20, // 64MB per uploaded file
			WarningLimit:   10,
			ArchivePrefix:  "[pygrays]",
			BankAccounts: []string{
				"032075843041",
				"030162001011700001",
				"034003431178",
				"034008460699",
				"032075842049",
				"034702307846",
				"032075840422",
				"036011606934",
			},
			Aging: AgingConfig{
				ExclusionPhrases: []string{"DO NOT USE"},
				TotalsMarkers:    []string{"Total", "Grand Total"},
			},
		},
	}
}
