package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONGroupedSections(t *testing.T) {
	raw := []byte(`{
		"app": {
			"AppPort": "9000",
			"JWTSecret": "s3cret",
			"EnableAdminKey": true,
			"AdminKey": "letmein",
			"UploadsDirectory": "/data/uploads",
			"RateLimitPerMinute": 30,
			"AllowedOrigins": ["https://example.com"]
		},
		"database": {"DBHost": "db.internal", "DBName": "forum"},
		"redis": {"RedisHost": "cache.internal", "RedisPort": 6380},
		"log": {"Level": "debug", "Path": "logs/app.log", "MaxSizeMB": 50}
	}`)

	var cfg AppConfig
	require.NoError(t, parseJSON(raw, &cfg))

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.True(t, cfg.EnableAdminKey)
	assert.Equal(t, "letmein", cfg.AdminKey)
	assert.Equal(t, "/data/uploads", cfg.UploadsDirectory)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "forum", cfg.DBName)
	assert.Equal(t, "cache.internal", cfg.RedisHost)
	assert.Equal(t, 6380, cfg.RedisPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50, cfg.LogMaxSizeMB)
}

func TestParseJSONFlatFallback(t *testing.T) {
	raw := []byte(`{"AppPort": "7000", "JWTSecret": "flat", "DatabaseURI": "user:pw@tcp(h:3306)/db"}`)

	var cfg AppConfig
	require.NoError(t, parseJSON(raw, &cfg))
	assert.Equal(t, "7000", cfg.AppPort)
	assert.Equal(t, "flat", cfg.JWTSecret)
	assert.Equal(t, "user:pw@tcp(h:3306)/db", cfg.DatabaseURI)
}

func TestApplyDefaults(t *testing.T) {
	var cfg AppConfig
	applyDefaults(&cfg)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "uploads", cfg.UploadsDirectory)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 6379, cfg.RedisPort)
	// No default secret: it must come from config or environment.
	assert.Empty(t, cfg.JWTSecret)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
	assert.Empty(t, splitAndTrim(""))
}
