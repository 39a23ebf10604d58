package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 快照刷新策略
const (
	// RefreshGeneration 丢弃比当前已发布快照更旧的刷新结果
	RefreshGeneration = "generation"
	// RefreshLastCompleted 最后完成的刷新总是生效
	RefreshLastCompleted = "last-completed"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string
	Port        string

	// 数据库配置
	DatabaseDriver string // postgres | pgx | sqlite
	PostgresDSN    string
	SQLitePath     string
	SupabaseURL    string
	SupabaseKey    string

	// JWT配置（令牌由托管后端签发，这里只校验）
	JWTSecret string

	// 快照配置
	RefreshPolicy   string
	RefreshTimeout  time.Duration
	RefreshInterval time.Duration // 后台轮询间隔；0 表示只在启动和写入后刷新

	// 错误上报
	RollbarToken string

	// 对象存储（Supabase Storage 的 S3 兼容接口）
	StorageBucket        string
	StorageRegion        string
	StorageEndpoint      string
	StorageAccessKey     string
	StorageSecretKey     string
	StoragePathStyle     bool
	StoragePublicBaseURL string

	// CORS配置
	AllowedOrigins []string

	// 调试配置
	Debug bool
}

// LoadConfig 加载配置（支持本地和Vercel环境）
func LoadConfig() *Config {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	// 按环境加载 .env 文件；已存在的环境变量优先
	envFile := ".env.local"
	if env == "production" {
		envFile = ".env.production"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Printf("⚠️  Failed to load %s: %v\n", envFile, err)
		}
	}

	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("environment", "development")
	v.SetDefault("port", "3000")
	v.SetDefault("database_driver", "")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_service_key", "")
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("refresh_policy", RefreshGeneration)
	v.SetDefault("refresh_timeout", 30*time.Second)
	v.SetDefault("refresh_interval", 5*time.Minute)
	v.SetDefault("rollbar_token", "")
	v.SetDefault("storage_bucket", "")
	v.SetDefault("storage_region", "us-east-1")
	v.SetDefault("storage_endpoint", "")
	v.SetDefault("storage_access_key", "")
	v.SetDefault("storage_secret_key", "")
	v.SetDefault("storage_path_style", true)
	v.SetDefault("storage_public_base_url", "")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("debug", false)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) *Config {
	// Trim whitespace to avoid trailing spaces/newlines from env sources
	str := func(key string) string { return strings.TrimSpace(v.GetString(key)) }

	config := &Config{
		Environment:          str("environment"),
		Port:                 str("port"),
		DatabaseDriver:       strings.ToLower(str("database_driver")),
		PostgresDSN:          str("postgres_dsn"),
		SQLitePath:           str("sqlite_path"),
		SupabaseURL:          str("supabase_url"),
		SupabaseKey:          str("supabase_service_key"),
		JWTSecret:            str("jwt_secret"),
		RefreshPolicy:        strings.ToLower(str("refresh_policy")),
		RefreshTimeout:       v.GetDuration("refresh_timeout"),
		RefreshInterval:      v.GetDuration("refresh_interval"),
		RollbarToken:         str("rollbar_token"),
		StorageBucket:        str("storage_bucket"),
		StorageRegion:        str("storage_region"),
		StorageEndpoint:      str("storage_endpoint"),
		StorageAccessKey:     str("storage_access_key"),
		StorageSecretKey:     str("storage_secret_key"),
		StoragePathStyle:     v.GetBool("storage_path_style"),
		StoragePublicBaseURL: str("storage_public_base_url"),
		Debug:                v.GetBool("debug"),
	}

	// CORS配置
	allowedOrigins := str("allowed_origins")
	if allowedOrigins == "*" || allowedOrigins == "" {
		config.AllowedOrigins = []string{"*"}
	} else {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, origin)
			}
		}
	}

	// 生产环境关闭调试
	if config.Environment == "production" {
		config.Debug = false
	}

	return config
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
// On serverless (Vercel), it initializes once per cold start and
// reuses it across warm invocations, avoiding per-request parsing.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
	})
	return cachedConfig
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		fmt.Println("⚠️  Using default JWT secret (not recommended for production)")
	}

	switch c.DatabaseDriver {
	case "", "postgres", "pgx", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (expected postgres, pgx or sqlite)", c.DatabaseDriver)
	}

	// 验证数据库配置
	hasSupabase := c.SupabaseURL != "" && c.SupabaseKey != ""
	switch {
	case c.DatabaseDriver == "sqlite":
		if c.IsProduction() {
			return fmt.Errorf("sqlite is a development backend; configure POSTGRES_DSN or SUPABASE_URL+SUPABASE_SERVICE_KEY")
		}
	case c.PostgresDSN != "", hasSupabase, c.SQLitePath != "":
	default:
		return fmt.Errorf("incomplete database configuration: set POSTGRES_DSN, SUPABASE_URL+SUPABASE_SERVICE_KEY or SQLITE_PATH")
	}

	if c.RefreshPolicy != RefreshGeneration && c.RefreshPolicy != RefreshLastCompleted {
		return fmt.Errorf("unsupported REFRESH_POLICY %q (expected %s or %s)", c.RefreshPolicy, RefreshGeneration, RefreshLastCompleted)
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("REFRESH_TIMEOUT must be positive")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL must not be negative")
	}

	if c.StorageBucket != "" && c.StoragePublicBaseURL == "" && c.StorageEndpoint == "" {
		return fmt.Errorf("STORAGE_PUBLIC_BASE_URL or STORAGE_ENDPOINT is required when STORAGE_BUCKET is set")
	}

	return nil
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
