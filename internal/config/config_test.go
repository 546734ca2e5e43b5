package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, DefaultBackendURL, cfg.BackendURL)
	assert.Equal(t, 12*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 1, cfg.BackendRetries)
	assert.Equal(t, "books", cfg.ESIndex)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://localhost:5000/api/")
	t.Setenv("BACKEND_RETRIES", "3")
	t.Setenv("BACKEND_TIMEOUT", "2s")
	t.Setenv("KAFKA_BROKERS", "kafka:9092, ,kafka2:9092")
	t.Setenv("DEV_FALLBACK", "true")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api", cfg.BackendURL)
	assert.Equal(t, 3, cfg.BackendRetries)
	assert.Equal(t, 2*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.DevFallback)
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "relative backend", cfg: Config{BackendURL: "/api", BackendTimeout: time.Second}},
		{name: "negative retries", cfg: Config{BackendURL: "http://x/api", BackendRetries: -1, BackendTimeout: time.Second}},
		{name: "zero timeout", cfg: Config{BackendURL: "http://x/api"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := tc.cfg
			require.Error(t, cfg.Validate())
		})
	}
}
