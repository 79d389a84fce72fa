package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env         string   `env:"APP_ENV" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"5000"`
	AppSecret   string   `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`
	TokenTTLSec int      `env:"TOKEN_EXPIRES_IN" envDefault:"86400"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,https://www.alldrama.net"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	MaxUpload int64  `env:"MAX_UPLOAD_BYTES" envDefault:"2147483648"`

	DB      DBConfig
	Storage StorageConfig
	Login   LoginConfig
}

// DBConfig 数据库配置
type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"alldrama"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// StorageConfig 对象存储配置
type StorageConfig struct {
	Region          string        `env:"AWS_REGION" envDefault:"ap-southeast-1"`
	AccessKeyID     string        `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY"`
	Bucket          string        `env:"AWS_S3_BUCKET"`
	Endpoint        string        `env:"AWS_S3_ENDPOINT"`
	CDNDomain       string        `env:"AWS_CLOUDFRONT_DOMAIN"`
	PresignTTL      time.Duration `env:"S3_PRESIGN_TTL" envDefault:"1h"`
	MaxAttempts     int           `env:"S3_MAX_ATTEMPTS" envDefault:"3"`
	BaseTimeout     time.Duration `env:"UPLOAD_BASE_TIMEOUT" envDefault:"30s"`
	MinThroughput   int64         `env:"UPLOAD_MIN_THROUGHPUT" envDefault:"524288"` // bytes/s
}

// LoginConfig 登录限流配置
type LoginConfig struct {
	MaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	Window      time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"15m"`
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.IsProduction() && cfg.AppSecret == defaultSecret {
		fmt.Println("[WARNING] production is running with the default JWT_SECRET, set it now.")
	}

	return cfg, nil
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// TokenTTL token 有效期
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSec) * time.Second
}

// DSN 构造 postgres 连接串
func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}
