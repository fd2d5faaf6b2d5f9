package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config edd-import 服务配置（全部来自环境变量）
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	DBMigrate bool
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       struct {
		Level  string
		Format string
	}
	Storage StorageConfig
	Import  ImportConfig
	MQTT    MQTTConfig
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// DSN returns the lib/pq connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// StorageConfig Supabase storage（源文件所在的 bucket）
type StorageConfig struct {
	URL        string
	ServiceKey string
	Bucket     string
	Timeout    time.Duration
}

type ImportConfig struct {
	LockTTL     time.Duration // per-property import lock
	JobCacheTTL time.Duration // finished job snapshots
	StaleAfter  time.Duration // running jobs older than this are failed on the next run
}

// MQTTConfig MQTT 配置（导入完成通知，默认禁用）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// DB unavailable at startup → memory repositories
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.DBMigrate = getEnv("DB_MIGRATE", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "copro")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Storage.URL = getEnv("STORAGE_URL", "http://localhost:54321")
	cfg.Storage.ServiceKey = getEnv("STORAGE_SERVICE_KEY", "")
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", "imports")
	cfg.Storage.Timeout = seconds(getEnv("STORAGE_TIMEOUT_SECONDS", "30"), 30)

	cfg.Import.LockTTL = seconds(getEnv("IMPORT_LOCK_TTL_SECONDS", "600"), 600)
	cfg.Import.JobCacheTTL = seconds(getEnv("JOB_CACHE_TTL_SECONDS", "86400"), 86400)
	cfg.Import.StaleAfter = seconds(getEnv("IMPORT_STALE_AFTER_SECONDS", "1800"), 1800)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "edd-import")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "copro/edd-import/jobs")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func seconds(s string, def int) time.Duration {
	n := parseInt(s, def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}
