package config

import (
	"testing"

	"github.com/aristath/riskalloc/internal/modules/optimization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"LOG_LEVEL", "LOG_PRETTY", "PORT", "DEV_MODE",
		"OPTIMIZER_EPSILON", "OPTIMIZER_DECIMAL_PLACES", "OPTIMIZER_SENSITIVITY", "OPTIMIZER_SECONDARY_POLICY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, optimization.DefaultOptions(), cfg.OptimizerOptions())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "false")
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("OPTIMIZER_EPSILON", "1e-8")
	t.Setenv("OPTIMIZER_DECIMAL_PLACES", "0")
	t.Setenv("OPTIMIZER_SENSITIVITY", "flat")
	t.Setenv("OPTIMIZER_SECONDARY_POLICY", "strict")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)

	opts := cfg.OptimizerOptions()
	assert.Equal(t, 1e-8, opts.Epsilon)
	assert.Equal(t, int32(0), opts.DecimalPlaces)
	assert.Equal(t, optimization.SensitivityFlat, opts.Sensitivity)
	assert.Equal(t, optimization.SecondaryStrict, opts.SecondaryPolicy)
}

func TestLoad_UnparsableValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "eighty")
	t.Setenv("OPTIMIZER_EPSILON", "tiny")
	t.Setenv("OPTIMIZER_DECIMAL_PLACES", "")
	t.Setenv("OPTIMIZER_SENSITIVITY", "")
	t.Setenv("OPTIMIZER_SECONDARY_POLICY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, optimization.DefaultEpsilon, cfg.Optimizer.Epsilon)
}

func TestLoad_RejectsInvalidOptimizerSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"sensitivity", "OPTIMIZER_SENSITIVITY", "convexity"},
		{"policy", "OPTIMIZER_SECONDARY_POLICY", "ignore"},
		{"decimal places", "OPTIMIZER_DECIMAL_PLACES", "12"},
		{"epsilon", "OPTIMIZER_EPSILON", "2"},
		{"port", "PORT", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
