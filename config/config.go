package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Config holds runtime settings for the CLI and the HTTP server.
//
// Precedence, lowest first: defaults, YAML file, .env, SPENDSHARK_* environment.
type Config struct {
	Addr             string   `yaml:"addr" validate:"required"`
	Seed             uint64   `yaml:"seed"` // 0 = time-seeded
	InvoiceCount     int      `yaml:"invoice_count" validate:"gte=1,lte=100000"`
	TypingDelayMinMs int      `yaml:"typing_delay_min_ms" validate:"gte=0"`
	TypingDelayMaxMs int      `yaml:"typing_delay_max_ms" validate:"gtefield=TypingDelayMinMs"`
	LogLevel         string   `yaml:"log_level" validate:"oneof=debug info warn error"`
	CORSOrigins      []string `yaml:"cors_origins" validate:"dive,required"`
	PlatformCost     string   `yaml:"platform_cost" validate:"required,numeric"`
	TopN             int      `yaml:"top_n" validate:"gte=1,lte=50"`
}

// Default returns the stock dashboard settings.
func Default() Config {
	return Config{
		Addr:             ":8080",
		InvoiceCount:     200,
		TypingDelayMinMs: 800,
		TypingDelayMaxMs: 1800,
		LogLevel:         "info",
		CORSOrigins:      []string{"*"},
		PlatformCost:     "250000",
		TopN:             5,
	}
}

// TypingDelayMin is the lower bound of the simulated assistant latency.
func (c Config) TypingDelayMin() time.Duration {
	return time.Duration(c.TypingDelayMinMs) * time.Millisecond
}

// TypingDelayMax is the upper bound of the simulated assistant latency.
func (c Config) TypingDelayMax() time.Duration {
	return time.Duration(c.TypingDelayMaxMs) * time.Millisecond
}

// PlatformCostDecimal parses PlatformCost. Validation guarantees it is numeric.
func (c Config) PlatformCostDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.PlatformCost)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Load builds a Config from an optional YAML file, .env and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	return validate
}

// Validate checks cfg against its struct tags.
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ProcessValidationErrors flattens validator errors into field → failed tag.
func ProcessValidationErrors(err error) map[string]string {
	errorResponse := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errorResponse
	}

	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv("ADDR"); ok {
		cfg.Addr = v
	}
	if v, ok := lookupEnv("SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SPENDSHARK_SEED: %w", err)
		}
		cfg.Seed = n
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"INVOICE_COUNT", &cfg.InvoiceCount},
		{"TYPING_DELAY_MIN_MS", &cfg.TypingDelayMinMs},
		{"TYPING_DELAY_MAX_MS", &cfg.TypingDelayMaxMs},
		{"TOP_N", &cfg.TopN},
	}
	for _, e := range ints {
		v, ok := lookupEnv(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPENDSHARK_%s: %w", e.key, err)
		}
		*e.dst = n
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookupEnv("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = nil
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, part)
			}
		}
	}
	if v, ok := lookupEnv("PLATFORM_COST"); ok {
		cfg.PlatformCost = v
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv("SPENDSHARK_" + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
