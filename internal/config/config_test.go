package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	//** Arrange
	t.Chdir(t.TempDir())

	//** Act
	cfg, err := Load()

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "probabilistic_alg", cfg.Solver.DefaultAlgorithm)
	assert.Equal(t, int64(0), cfg.Solver.RandomSeed)
	assert.True(t, cfg.Parser.RequireTeacher)
	assert.Equal(t, uint64(23), cfg.Parser.MaxSlot)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	//** Arrange
	t.Chdir(t.TempDir())
	t.Setenv("ENV", EnvProduction)
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_ALGORITHM", "rating_function_alg")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("REQUIRE_TEACHER", "false")
	t.Setenv("MAX_SLOT", "47")
	t.Setenv("METRICS_ENABLED", "false")

	//** Act
	cfg, err := Load()

	//** Assert
	require.NoError(t, err)
	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "rating_function_alg", cfg.Solver.DefaultAlgorithm)
	assert.Equal(t, int64(42), cfg.Solver.RandomSeed)
	assert.False(t, cfg.Parser.RequireTeacher)
	assert.Equal(t, uint64(47), cfg.Parser.MaxSlot)
	assert.False(t, cfg.Metrics.Enabled)
}
