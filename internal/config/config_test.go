package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultValues(t *testing.T) {
	for _, k := range []string{
		"HTTP_ADDR", "DB_ENABLED", "DB_HOST", "DB_PORT", "DB_NAME", "REDIS_ADDR",
		"STORAGE_BUCKET", "STORAGE_TIMEOUT_SECONDS", "IMPORT_LOCK_TTL_SECONDS", "MQTT_ENABLED", "LOG_LEVEL",
		"DB_MIGRATE", "IMPORT_STALE_AFTER_SECONDS",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "copro", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "imports", cfg.Storage.Bucket)
	assert.Equal(t, 30*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Import.LockTTL)
	assert.Equal(t, 30*time.Minute, cfg.Import.StaleAfter)
	assert.True(t, cfg.DBMigrate)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STORAGE_BUCKET", "edd")
	t.Setenv("STORAGE_TIMEOUT_SECONDS", "5")
	t.Setenv("JOB_CACHE_TTL_SECONDS", "60")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_TOPIC", "t/jobs")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "edd", cfg.Storage.Bucket)
	assert.Equal(t, 5*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, time.Minute, cfg.Import.JobCacheTTL)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "t/jobs", cfg.MQTT.Topic)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "abc")
	t.Setenv("IMPORT_LOCK_TTL_SECONDS", "-1")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 600*time.Second, cfg.Import.LockTTL)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.DSN())
}
