package config

import (
	"errors"
	"io/fs"
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

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Registration RegistrationConfig
	Storage      StorageConfig
	Cache        CacheConfig
	Audit        AuditConfig
	Bootstrap    BootstrapConfig
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
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RegistrationConfig seeds registration settings until an admin overrides them.
type RegistrationConfig struct {
	DefaultMaxUnits       int
	DefaultActiveSemester string
	DefaultDeadline       string
	Levels                []string
	DraftTTL              time.Duration
}

// StorageConfig locates uploaded and generated files.
type StorageConfig struct {
	UploadsDir        string
	SignaturesDir     string
	ExportsDir        string
	DownloadSecret    string
	DownloadTTL       time.Duration
	MaxUploadBytes    int64
	AllowedImageMIMEs []string
}

// CacheConfig governs Redis-backed caching of catalog, settings and dashboards.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// AuditConfig tunes the asynchronous audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
	Retries    int
}

// BootstrapConfig guards the first-admin endpoint.
type BootstrapConfig struct {
	AdminKey string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUnits := v.GetInt("DEFAULT_MAX_UNITS")
	if maxUnits <= 0 {
		maxUnits = 24
	}
	cfg.Registration = RegistrationConfig{
		DefaultMaxUnits:       maxUnits,
		DefaultActiveSemester: v.GetString("DEFAULT_ACTIVE_SEMESTER"),
		DefaultDeadline:       v.GetString("DEFAULT_REGISTRATION_DEADLINE"),
		Levels:                splitAndTrim(v.GetString("LEVELS")),
		DraftTTL:              parseDuration(v.GetString("DRAFT_TTL"), 72*time.Hour),
	}

	maxUpload := v.GetInt64("MAX_UPLOAD_SIZE")
	if maxUpload <= 0 {
		maxUpload = 16 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		UploadsDir:        v.GetString("UPLOADS_DIR"),
		SignaturesDir:     v.GetString("SIGNATURES_DIR"),
		ExportsDir:        v.GetString("EXPORTS_DIR"),
		DownloadSecret:    v.GetString("DOWNLOAD_URL_SECRET"),
		DownloadTTL:       parseDuration(v.GetString("DOWNLOAD_URL_TTL"), 30*time.Minute),
		MaxUploadBytes:    maxUpload,
		AllowedImageMIMEs: splitAndTrim(v.GetString("ALLOWED_IMAGE_MIME_TYPES")),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
		Retries:    v.GetInt("AUDIT_RETRIES"),
	}

	cfg.Bootstrap = BootstrapConfig{AdminKey: v.GetString("ADMIN_BOOTSTRAP_KEY")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_registration")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "course-registration-api")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DEFAULT_MAX_UNITS", 24)
	v.SetDefault("DEFAULT_ACTIVE_SEMESTER", "first")
	v.SetDefault("DEFAULT_REGISTRATION_DEADLINE", "2025-12-31")
	v.SetDefault("LEVELS", "100,200,300,400,500")
	v.SetDefault("DRAFT_TTL", "72h")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("SIGNATURES_DIR", "./signatures")
	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("DOWNLOAD_URL_SECRET", "dev_download_secret")
	v.SetDefault("DOWNLOAD_URL_TTL", "30m")
	v.SetDefault("MAX_UPLOAD_SIZE", 16*1024*1024)
	v.SetDefault("ALLOWED_IMAGE_MIME_TYPES", "image/png,image/jpeg,image/gif,image/webp")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_BUFFER_SIZE", 64)
	v.SetDefault("AUDIT_RETRIES", 3)

	v.SetDefault("ADMIN_BOOTSTRAP_KEY", "")
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
