package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Suggest  SuggestConfig  `mapstructure:"suggest"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Scan     ScanConfig     `mapstructure:"scan"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port int `mapstructure:"port"`
	// InternalSecret 保护仅供 Worker 访问的内部打印接口。
	InternalSecret string `mapstructure:"internal_secret"`
	// MaxCardsPerUser 限制单个用户可保存的名片数量。
	MaxCardsPerUser int `mapstructure:"max_cards_per_user"`
	// LoginRateLimitPerHour 限制同一 IP+用户名 每小时的登录尝试次数。
	LoginRateLimitPerHour int `mapstructure:"login_rate_limit_per_hour"`
	// LoginLockThreshold 连续失败达到该次数后临时锁定账号。
	LoginLockThreshold  int    `mapstructure:"login_lock_threshold"`
	LoginLockMinutes    int    `mapstructure:"login_lock_minutes"`
	CookieDomain        string `mapstructure:"cookie_domain"`
	WsAllowedOrigins    string `mapstructure:"ws_allowed_origins"`
}

// DatabaseConfig contains connection options for PostgreSQL.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
}

// AuthConfig 指定 RSA 密钥文件路径，密钥由部署环境挂载。
type AuthConfig struct {
	PrivateKeyPath string `mapstructure:"private_key_path"`
	PublicKeyPath  string `mapstructure:"public_key_path"`
}

// SuggestConfig contains settings for the AI content generation backend.
type SuggestConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// WorkerConfig 包含导出 Worker 的设置。
type WorkerConfig struct {
	// APIBaseURL 是 Worker 回访后端内部接口的地址。
	APIBaseURL string `mapstructure:"api_base_url"`
	// ChromiumPath 留空时由 go-rod 自行下载浏览器。
	ChromiumPath string `mapstructure:"chromium_path"`
	Concurrency  int    `mapstructure:"concurrency"`
}

// ScanConfig contains settings for the upload virus scanner.
type ScanConfig struct {
	ClamdAddress string `mapstructure:"clamd_address"`
	// Enabled 为 false 时跳过扫描，仅用于本地开发。
	Enabled bool `mapstructure:"enabled"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// Addr returns the host:port pair for a Redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AllowedOriginList 按逗号切分 WebSocket 白名单，空串返回 nil。
func (a APIConfig) AllowedOriginList() []string {
	if strings.TrimSpace(a.WsAllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(a.WsAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// LoginLockTTL 返回锁定时长。
func (a APIConfig) LoginLockTTL() time.Duration {
	return time.Duration(a.LoginLockMinutes) * time.Minute
}

// Load reads configuration solely from environment variables (with optional defaults).
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.max_cards_per_user", 10)
	v.SetDefault("api.login_rate_limit_per_hour", 20)
	v.SetDefault("api.login_lock_threshold", 5)
	v.SetDefault("api.login_lock_minutes", 15)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "bizcard")
	v.SetDefault("database.user", "bizcard")
	v.SetDefault("database.password", "bizcard")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "cards")
	v.SetDefault("auth.private_key_path", "keys/jwt_rsa")
	v.SetDefault("auth.public_key_path", "keys/jwt_rsa.pub")
	v.SetDefault("suggest.model", "gemini-2.5-flash")
	v.SetDefault("worker.api_base_url", "http://localhost:8080")
	v.SetDefault("worker.concurrency", 5)
	v.SetDefault("scan.clamd_address", "tcp://localhost:3310")
	v.SetDefault("scan.enabled", false)
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                "API_PORT",
		"api.internal_secret":     "INTERNAL_API_SECRET",
		"api.max_cards_per_user":  "MAX_CARDS_PER_USER",
		"api.login_rate_limit_per_hour": "LOGIN_RATE_LIMIT_PER_HOUR",
		"api.login_lock_threshold": "LOGIN_LOCK_THRESHOLD",
		"api.login_lock_minutes":  "LOGIN_LOCK_MINUTES",
		"api.cookie_domain":       "COOKIE_DOMAIN",
		"api.ws_allowed_origins":  "WS_ALLOWED_ORIGINS",
		"database.host":           "DATABASE_HOST",
		"database.port":           "DATABASE_PORT",
		"database.name":           "POSTGRES_DB",
		"database.user":           "POSTGRES_USER",
		"database.password":       "POSTGRES_PASSWORD",
		"database.sslmode":        "DATABASE_SSLMODE",
		"redis.host":              "REDIS_HOST",
		"redis.port":              "REDIS_PORT",
		"minio.endpoint":          "MINIO_ENDPOINT",
		"minio.access_key_id":     "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key": "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":           "MINIO_USE_SSL",
		"minio.bucket":            "MINIO_BUCKET",
		"auth.private_key_path":   "JWT_PRIVATE_KEY_PATH",
		"auth.public_key_path":    "JWT_PUBLIC_KEY_PATH",
		"suggest.api_key":         "GEMINI_API_KEY",
		"suggest.model":           "GEMINI_MODEL",
		"suggest.base_url":        "GEMINI_BASE_URL",
		"worker.api_base_url":     "INTERNAL_API_BASE_URL",
		"worker.chromium_path":    "CHROMIUM_PATH",
		"worker.concurrency":      "WORKER_CONCURRENCY",
		"scan.clamd_address":      "CLAMD_ADDRESS",
		"scan.enabled":            "CLAMD_ENABLED",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.API.MaxCardsPerUser <= 0 {
		return errors.New("max cards per user must be positive")
	}
	if cfg.API.LoginRateLimitPerHour <= 0 {
		return errors.New("login rate limit must be positive")
	}
	if cfg.API.LoginLockThreshold <= 0 || cfg.API.LoginLockMinutes <= 0 {
		return errors.New("login lock settings must be positive")
	}
	if cfg.Database.Host == "" {
		return errors.New("database host is required")
	}
	if cfg.Database.Port <= 0 {
		return errors.New("database port must be positive")
	}
	if cfg.Database.Name == "" {
		return errors.New("database name is required")
	}
	if cfg.Database.User == "" {
		return errors.New("database user is required")
	}
	if cfg.Database.Password == "" {
		return errors.New("database password is required")
	}
	if cfg.Database.SSLMode == "" {
		return errors.New("database sslmode is required")
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.AccessKeyID == "" {
		return errors.New("minio access key id is required")
	}
	if cfg.MinIO.SecretAccessKey == "" {
		return errors.New("minio secret access key is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.Auth.PrivateKeyPath == "" {
		return errors.New("auth private key path is required")
	}
	if cfg.Auth.PublicKeyPath == "" {
		return errors.New("auth public key path is required")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}
