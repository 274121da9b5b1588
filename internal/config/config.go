package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port         string `validate:"required,numeric"`
	Host         string
	Environment  string `validate:"oneof=development test production"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IsProduction reports whether cookies must be Secure and debug output off.
func (s ServerConfig) IsProduction() bool { return s.Environment == "production" }

type StorageConfig struct {
	Backend         string `validate:"oneof=memory file mongo minio"`
	DocumentsDir    string `validate:"required_if=Backend file"`
	CollisionPolicy string `validate:"oneof=reject overwrite"`
	LockBackend     string `validate:"oneof=local redis"`
	LockTTL         time.Duration
}

type MongoDBConfig struct {
	URI               string
	Database          string
	Collection        string
	RevokedCollection string
	UsersCollection   string
	Timeout           time.Duration
	ConnectAttempts   int `validate:"min=1"`
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool { return r.Host != "" }

// Addr returns host:port.
func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

type AuthConfig struct {
	Secret       string `validate:"required,min=16"`
	Username     string `validate:"required"`
	Password     string
	PasswordHash string
	Source       string `validate:"oneof=env mongo"`
	SessionTTL   time.Duration
	Revocations  string `validate:"oneof=memory redis mongo"`
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64 `validate:"gt=0"`
	Burst         int     `validate:"min=1"`
	WindowSeconds int     `validate:"min=1"`
}

type LogConfig struct {
	Level      string
	Format     string `validate:"oneof=text json"`
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "3000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT_SECONDS", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT_SECONDS", 30)
	v.SetDefault("STORAGE_BACKEND", "file")
	v.SetDefault("DOCUMENTS_DIR", "documents")
	v.SetDefault("COLLISION_POLICY", "reject")
	v.SetDefault("LOCK_BACKEND", "local")
	v.SetDefault("LOCK_TTL_SECONDS", 30)
	v.SetDefault("MONGODB_DATABASE", "htmlhost")
	v.SetDefault("MONGODB_COLLECTION", "documents")
	v.SetDefault("MONGODB_REVOKED_COLLECTION", "revoked_sessions")
	v.SetDefault("MONGODB_USERS_COLLECTION", "users")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("MONGODB_CONNECT_ATTEMPTS", 5)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("MINIO_BUCKET", "documents")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("AUTH_USERNAME", "admin")
	v.SetDefault("AUTH_PASSWORD", "admin")
	v.SetDefault("AUTH_SOURCE", "env")
	v.SetDefault("AUTH_REVOCATIONS", "memory")
	v.SetDefault("SESSION_TTL_HOURS", 24*7)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_MAX_SIZE_MB", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  strings.ToLower(v.GetString("SERVER_ENVIRONMENT")),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT_SECONDS")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT_SECONDS")) * time.Second,
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(v.GetString("STORAGE_BACKEND")),
			DocumentsDir:    v.GetString("DOCUMENTS_DIR"),
			CollisionPolicy: strings.ToLower(v.GetString("COLLISION_POLICY")),
			LockBackend:     strings.ToLower(v.GetString("LOCK_BACKEND")),
			LockTTL:         time.Duration(v.GetInt("LOCK_TTL_SECONDS")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:               v.GetString("MONGODB_URI"),
			Database:          v.GetString("MONGODB_DATABASE"),
			Collection:        v.GetString("MONGODB_COLLECTION"),
			RevokedCollection: v.GetString("MONGODB_REVOKED_COLLECTION"),
			UsersCollection:   v.GetString("MONGODB_USERS_COLLECTION"),
			Timeout:           time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			ConnectAttempts:   v.GetInt("MONGODB_CONNECT_ATTEMPTS"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			Prefix:    v.GetString("MINIO_PREFIX"),
		},
		Auth: AuthConfig{
			Secret:       v.GetString("AUTH_SECRET"),
			Username:     v.GetString("AUTH_USERNAME"),
			Password:     v.GetString("AUTH_PASSWORD"),
			PasswordHash: v.GetString("AUTH_PASSWORD_HASH"),
			Source:       strings.ToLower(v.GetString("AUTH_SOURCE")),
			SessionTTL:   time.Duration(v.GetInt("SESSION_TTL_HOURS")) * time.Hour,
			Revocations:  strings.ToLower(v.GetString("AUTH_REVOCATIONS")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     strings.ToLower(v.GetString("LOG_FORMAT")),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
