// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aristath/riskalloc/internal/modules/optimization"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel  string
	LogPretty bool
	Port      int
	DevMode   bool
	Optimizer OptimizerConfig
}

// OptimizerConfig holds the defaults every optimizer run starts from
type OptimizerConfig struct {
	Epsilon         float64
	DecimalPlaces   int
	Sensitivity     string // duration or flat
	SecondaryPolicy string // skip or strict
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", true),
		Port:      getEnvAsInt("PORT", 8001),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		Optimizer: OptimizerConfig{
			Epsilon:         getEnvAsFloat("OPTIMIZER_EPSILON", optimization.DefaultEpsilon),
			DecimalPlaces:   getEnvAsInt("OPTIMIZER_DECIMAL_PLACES", optimization.DefaultDecimalPlaces),
			Sensitivity:     getEnv("OPTIMIZER_SENSITIVITY", string(optimization.SensitivityDuration)),
			SecondaryPolicy: getEnv("OPTIMIZER_SECONDARY_POLICY", string(optimization.SecondarySkip)),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every value is in range
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	if err := c.OptimizerOptions().Validate(); err != nil {
		return fmt.Errorf("invalid optimizer configuration: %w", err)
	}
	return nil
}

// OptimizerOptions converts the optimizer section to optimization.Options
func (c *Config) OptimizerOptions() optimization.Options {
	return optimization.Options{
		Epsilon:         c.Optimizer.Epsilon,
		DecimalPlaces:   int32(c.Optimizer.DecimalPlaces),
		Sensitivity:     optimization.SensitivityModel(c.Optimizer.Sensitivity),
		SecondaryPolicy: optimization.SecondaryPolicy(c.Optimizer.SecondaryPolicy),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
