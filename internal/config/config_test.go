package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonotes/backend/internal/config"
)

func TestLoadDefaultConfig(t *testing.T) {
	clearEnvVars()

	cfg := config.Load()

	assert.Equal(t, ":5001", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Server.MinTextLength)
	assert.Equal(t, 50000, cfg.Server.MaxTextLength)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "english", cfg.Analysis.Language)
	assert.Equal(t, 3, cfg.Analysis.SummarySentences)
	assert.Equal(t, 5, cfg.Analysis.TopicCount)
	assert.Equal(t, 100, cfg.Analysis.MaxFeatures)
	assert.InDelta(t, 0.8, cfg.Analysis.MaxDocFreq, 1e-9)
	assert.Equal(t, 1, cfg.Analysis.MinDocFreq)
	assert.Equal(t, int64(42), cfg.Analysis.FactorizationSeed)
	assert.Equal(t, 100, cfg.Analysis.FactorizationIters)
	assert.InDelta(t, 0.4, cfg.Analysis.TermSmoothing, 1e-9)

	assert.False(t, cfg.Fetcher.Enabled)
	assert.True(t, cfg.Fetcher.EnableRobotsCheck)
	assert.Equal(t, 1*time.Second, cfg.Fetcher.MinHostDelay)
	assert.Equal(t, 5, cfg.Fetcher.MaxRedirects)
	assert.Equal(t, 1024, cfg.Fetcher.MaxTrackedHosts)
	assert.False(t, cfg.Fetcher.AllowPrivateHosts)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfigFromEnv(t *testing.T) {
	envVars := map[string]string{
		"SERVER_ADDR":                ":9000",
		"CORS_ALLOWED_ORIGINS":       "http://localhost:3000, https://notes.example.com",
		"TEXT_MIN_LENGTH":            "10",
		"ANALYSIS_SUMMARY_SENTENCES": "4",
		"ANALYSIS_TOPIC_COUNT":       "7",
		"ANALYSIS_MAX_DOC_FREQ":      "0.95",
		"ANALYSIS_NMF_SEED":          "7",
		"FETCHER_ENABLED":            "true",
		"FETCHER_MAX_REDIRECTS":      "2",
		"FETCHER_MIN_HOST_DELAY":     "250ms",
		"LOG_LEVEL":                  "debug",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg := config.Load()

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "https://notes.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Server.MinTextLength)
	assert.Equal(t, 4, cfg.Analysis.SummarySentences)
	assert.Equal(t, 7, cfg.Analysis.TopicCount)
	assert.InDelta(t, 0.95, cfg.Analysis.MaxDocFreq, 1e-9)
	assert.Equal(t, int64(7), cfg.Analysis.FactorizationSeed)
	assert.True(t, cfg.Fetcher.Enabled)
	assert.Equal(t, 2, cfg.Fetcher.MaxRedirects)
	assert.Equal(t, 250*time.Millisecond, cfg.Fetcher.MinHostDelay)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestGetIntEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		envValue     string
		defaultValue int
		expected     int
	}{
		{"Valid int", "TEST_INT", "42", 10, 42},
		{"Invalid int", "TEST_INT_INVALID", "not_a_number", 10, 10},
		{"Negative int", "TEST_INT_NEG", "-5", 10, -5},
		{"Zero", "TEST_INT_ZERO", "0", 10, 0},
		{"Non-existing env var", "NON_EXISTENT", "", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv(tt.key)
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}

			assert.Equal(t, tt.expected, config.GetIntEnv(tt.key, tt.defaultValue))
		})
	}
}

func TestGetFloatEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue float64
		expected     float64
	}{
		{"Valid float", "0.25", 0.8, 0.25},
		{"Scientific", "1e-3", 0.8, 0.001},
		{"Invalid float", "abc", 0.8, 0.8},
		{"Unset", "", 0.8, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("TEST_FLOAT")
			if tt.envValue != "" {
				t.Setenv("TEST_FLOAT", tt.envValue)
			}

			assert.InDelta(t, tt.expected, config.GetFloatEnv("TEST_FLOAT", tt.defaultValue), 1e-12)
		})
	}
}

func TestGetBoolEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		expected     bool
	}{
		{"True string", "true", false, true},
		{"False string", "false", true, false},
		{"1 (true)", "1", false, true},
		{"Invalid bool", "invalid", true, true},
		{"Unset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("TEST_BOOL")
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}

			assert.Equal(t, tt.expected, config.GetBoolEnv("TEST_BOOL", tt.defaultValue))
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue time.Duration
		expected     time.Duration
	}{
		{"Seconds", "5s", time.Second, 5 * time.Second},
		{"Combined", "1h30m", time.Second, 90 * time.Minute},
		{"Invalid duration", "invalid", 5 * time.Second, 5 * time.Second},
		{"Unset", "", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("TEST_DURATION")
			if tt.envValue != "" {
				t.Setenv("TEST_DURATION", tt.envValue)
			}

			assert.Equal(t, tt.expected, config.GetDurationEnv("TEST_DURATION", tt.defaultValue))
		})
	}
}

func TestGetStringSliceEnv(t *testing.T) {
	t.Setenv("TEST_SLICE", " a, ,b ,c")
	assert.Equal(t, []string{"a", "b", "c"}, config.GetStringSliceEnv("TEST_SLICE", nil))

	t.Setenv("TEST_SLICE", " , ")
	assert.Equal(t, []string{"x"}, config.GetStringSliceEnv("TEST_SLICE", []string{"x"}))
}

func TestLoadDotEnv(t *testing.T) {
	os.Unsetenv("ANALYSIS_TOPIC_COUNT")
	t.Cleanup(func() { os.Unsetenv("ANALYSIS_TOPIC_COUNT") })

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANALYSIS_TOPIC_COUNT=9\n"), 0o644))

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, 9, config.Load().Analysis.TopicCount)
}

func TestLoadDotEnvMissingFiles(t *testing.T) {
	assert.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func clearEnvVars() {
	for _, key := range []string{
		"SERVER_ADDR", "CORS_ALLOWED_ORIGINS", "TEXT_MIN_LENGTH", "TEXT_MAX_LENGTH",
		"ANALYSIS_LANGUAGE", "ANALYSIS_SUMMARY_SENTENCES", "ANALYSIS_TOPIC_COUNT",
		"ANALYSIS_MAX_FEATURES", "ANALYSIS_MAX_DOC_FREQ", "ANALYSIS_MIN_DOC_FREQ",
		"ANALYSIS_NMF_SEED", "ANALYSIS_NMF_MAX_ITER", "ANALYSIS_TERM_SMOOTHING",
		"FETCHER_ENABLED", "FETCHER_ENABLE_ROBOTS_CHECK", "FETCHER_MIN_HOST_DELAY",
		"FETCHER_MAX_REDIRECTS", "FETCHER_MAX_TRACKED_HOSTS", "FETCHER_ALLOW_PRIVATE_HOSTS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		os.Unsetenv(key)
	}
}
