package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Run("all variables", func(t *testing.T) {
		t.Setenv("CAPCODE_ALPHABET", "control")
		t.Setenv("CAPCODE_NORMALIZE", "nfd")
		t.Setenv("CAPCODE_JOBS", "6")
		t.Setenv("CAPCODE_LOG_LEVEL", "warn")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "control", cfg.Alphabet)
		assert.Equal(t, "nfd", cfg.Normalize)
		assert.Equal(t, 6, cfg.Jobs)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("invalid jobs ignored", func(t *testing.T) {
		t.Setenv("CAPCODE_JOBS", "many")

		cfg := &Config{Jobs: 2}
		cfg.applyEnvOverrides()

		assert.Equal(t, 2, cfg.Jobs)
	})

	t.Run("empty values ignored", func(t *testing.T) {
		t.Setenv("CAPCODE_ALPHABET", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "letters", cfg.Alphabet)
	})

	t.Run("applied without a config file", func(t *testing.T) {
		t.Setenv("CAPCODE_ALPHABET", "ctrl")

		cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
		require.NoError(t, err)

		assert.Equal(t, "ctrl", cfg.Alphabet)
	})
}
