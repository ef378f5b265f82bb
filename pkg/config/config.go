package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BaseURL   string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Mail     MailConfig
	Staged   StagedConfig
	Snapshot SnapshotConfig
	Dispatch DispatchConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MailConfig holds notification addressing settings. EditorAddress is the
// standing oversight cc applied to every outbound notification.
type MailConfig struct {
	SenderAddress string
	EditorAddress string
	CacheTTL      time.Duration
}

// StagedConfig controls cleanup of abandoned staged reports.
type StagedConfig struct {
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

// SnapshotConfig governs the periodic errata corpus export written for the
// static site.
type SnapshotConfig struct {
	Enabled         bool
	StorageDir      string
	Interval        time.Duration
	Retention       time.Duration
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

// DispatchConfig tunes the outbound mail worker queue.
type DispatchConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = v.GetString("BASE_URL")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mail = MailConfig{
		SenderAddress: v.GetString("MAIL_SENDER_ADDRESS"),
		EditorAddress: v.GetString("MAIL_EDITOR_ADDRESS"),
		CacheTTL:      parseDuration(v.GetString("ERRATA_JSON_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Staged = StagedConfig{
		CleanupInterval: parseDuration(v.GetString("STAGED_CLEANUP_INTERVAL"), 24*time.Hour),
		MaxAge:          parseDuration(v.GetString("STAGED_MAX_AGE"), 7*24*time.Hour),
	}

	cfg.Snapshot = SnapshotConfig{
		Enabled:         v.GetBool("ENABLE_SNAPSHOT"),
		StorageDir:      v.GetString("SNAPSHOT_STORAGE_DIR"),
		Interval:        parseDuration(v.GetString("SNAPSHOT_INTERVAL"), time.Hour),
		Retention:       parseDuration(v.GetString("SNAPSHOT_RETENTION"), 30*24*time.Hour),
		SignedURLSecret: v.GetString("SNAPSHOT_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("SNAPSHOT_SIGNED_URL_TTL"), 24*time.Hour),
	}

	cfg.Dispatch = DispatchConfig{
		Workers:    v.GetInt("DISPATCH_WORKERS"),
		MaxRetries: v.GetInt("DISPATCH_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("DISPATCH_RETRY_DELAY"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("BASE_URL", "https://errata.rfc-editor.org")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "errata")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("MAIL_SENDER_ADDRESS", "rfc-editor@rfc-editor.org")
	v.SetDefault("MAIL_EDITOR_ADDRESS", "rfc-editor@rfc-editor.org")
	v.SetDefault("ERRATA_JSON_CACHE_TTL", "10m")

	v.SetDefault("STAGED_CLEANUP_INTERVAL", "24h")
	v.SetDefault("STAGED_MAX_AGE", "168h")

	v.SetDefault("ENABLE_SNAPSHOT", false)
	v.SetDefault("SNAPSHOT_STORAGE_DIR", "./snapshots")
	v.SetDefault("SNAPSHOT_INTERVAL", "1h")
	v.SetDefault("SNAPSHOT_SIGNED_URL_SECRET", "dev_snapshot_secret")
	v.SetDefault("SNAPSHOT_SIGNED_URL_TTL", "24h")

	v.SetDefault("DISPATCH_WORKERS", 1)
	v.SetDefault("DISPATCH_MAX_RETRIES", 3)
	v.SetDefault("DISPATCH_RETRY_DELAY", "30s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
