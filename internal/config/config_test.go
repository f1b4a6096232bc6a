package config

import (
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when nothing is set", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", "")
		t.Setenv("JWT_ACCESS_TTL", "")
		t.Setenv("NOTIFIER_WORKERS", "")

		cfg := Load()
		assert.Equal(t, ":8081", cfg.HTTPAddr)
		assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
		assert.Equal(t, 4, cfg.NotifierWorkers)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("HTTP_ADDR", ":9000")
		t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
		t.Setenv("JWT_REFRESH_TTL", "48h")
		t.Setenv("NOTIFIER_WORKERS", "12")

		cfg := Load()
		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, 48*time.Hour, cfg.JWTRefreshTTL)
		assert.Equal(t, 12, cfg.NotifierWorkers)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		t.Setenv("JWT_ACCESS_TTL", "soon")
		t.Setenv("NOTIFIER_WORKERS", "-3")

		cfg := Load()
		assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
		assert.Equal(t, 4, cfg.NotifierWorkers)
	})
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Config{StoreTimezone: "Nowhere/Special"}.Location())
	assert.Equal(t, "UTC", Config{StoreTimezone: "UTC"}.Location().String())
}
