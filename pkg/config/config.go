package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string
	Port        string

	// 数据库配置
	UseLocalDB   bool
	LocalDataDir string
	PostgresDSN  string

	// JWT配置
	JWTSecret string

	// 邀请有效期
	InvitationTTL time.Duration

	// CORS配置
	AllowedOrigins []string

	// 调试配置
	Debug bool
}

// envFiles 各环境对应的 .env 文件，未列出的环境使用 .env.local
var envFiles = map[string]string{
	"production": ".env.production",
	"test":       ".env.test",
}

// LoadConfig 加载配置
func LoadConfig() *Config {
	env := getEnvWithDefault("ENVIRONMENT", "development")
	file, ok := envFiles[env]
	if !ok {
		file = ".env.local"
	}
	loadEnvFile(file)

	c := &Config{
		Environment:    getEnvWithDefault("ENVIRONMENT", "development"),
		Port:           getEnvWithDefault("PORT", "3000"),
		UseLocalDB:     getEnvBool("USE_LOCAL_DB", true),
		LocalDataDir:   getEnvWithDefault("LOCAL_DATA_DIR", "./data"),
		PostgresDSN:    strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		JWTSecret:      getEnvWithDefault("JWT_SECRET", defaultJWTSecret),
		InvitationTTL:  time.Duration(getEnvInt("INVITATION_TTL_HOURS", 14*24)) * time.Hour,
		AllowedOrigins: parseOrigins(getEnvWithDefault("ALLOWED_ORIGINS", "*")),
		Debug:          getEnvBool("DEBUG", false),
	}

	if c.IsProduction() {
		// 配置了 Postgres 就不再用本地文件库
		if c.PostgresDSN != "" {
			c.UseLocalDB = false
		} else {
			fmt.Println("⚠️  WARNING: production is running on the local file store, set POSTGRES_DSN")
		}
		c.Debug = false
	}
	return c
}

// parseOrigins splits a comma separated origin list; "*" stays a single wildcard
func parseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
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
		if c.IsDevelopment() {
			fmt.Println("⚠️  Using default JWT secret (not recommended for production)")
		}
	}

	if !c.UseLocalDB && c.PostgresDSN == "" {
		return fmt.Errorf("database configuration incomplete: set POSTGRES_DSN or USE_LOCAL_DB=true")
	}
	if c.InvitationTTL <= 0 {
		return fmt.Errorf("INVITATION_TTL_HOURS must be positive")
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

// getEnvWithDefault 获取环境变量，如果不存在则使用默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔类型的环境变量
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// loadEnvFile 加载 .env 文件；已存在的环境变量不会被覆盖
func loadEnvFile(filename string) {
	if _, err := os.Stat(filename); err != nil {
		return // 文件不存在，静默返回
	}
	if err := godotenv.Load(filename); err != nil {
		fmt.Printf("⚠️  Failed to load %s: %v\n", filename, err)
	}
}
