package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const defaultAppSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env       string `envconfig:"APP_ENV" default:"development"`
	AppSecret string `envconfig:"APP_SECRET" default:"your-secret-key-change-in-production"`
	Port      string `envconfig:"PORT" default:"5005"`

	// DatabaseURL 为空且未配置 DB_HOST 时，仓库以降级模式运行：读返回空，写报错
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBHost      string `envconfig:"DB_HOST"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBName      string `envconfig:"DB_NAME" default:"iptvhub"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	// OwnerOpenID 与外部身份一致的用户自动成为管理员
	OwnerOpenID         string        `envconfig:"OWNER_OPEN_ID"`
	IdentityTokenSecret string        `envconfig:"IDENTITY_TOKEN_SECRET"`
	JWTExpiryHours      int           `envconfig:"JWT_EXPIRY_HOURS" default:"72"`
	JWTExpiry           time.Duration `ignored:"true"`

	// 上游 IPTV 服务，凭据只在流代理内部使用
	UpstreamHost     string        `envconfig:"UPSTREAM_HOST"`
	UpstreamUsername string        `envconfig:"UPSTREAM_USERNAME"`
	UpstreamPassword string        `envconfig:"UPSTREAM_PASSWORD"`
	UpstreamTimeout  time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"15s"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	RateLimitRPS   float64       `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"40"`

	// HistoryRetentionDays 观看历史保留天数，0 表示永久保留
	HistoryRetentionDays int `envconfig:"HISTORY_RETENTION_DAYS" default:"180"`
}

// Load 加载配置
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("读取环境变量失败: %w", err)
	}

	if cfg.DatabaseURL == "" && cfg.DBHost != "" {
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	}
	cfg.JWTExpiry = time.Duration(cfg.JWTExpiryHours) * time.Hour

	return &cfg, nil
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HistoryRetention 观看历史保留时长
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

// UsesDefaultSecret 生产环境必须替换默认密钥
func (c *Config) UsesDefaultSecret() bool {
	return c.AppSecret == defaultAppSecret
}
