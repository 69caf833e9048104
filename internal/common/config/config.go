// Package config 提供应用配置管理功能
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig *Config
	once         sync.Once
)

// Config 应用配置结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Crypto       CryptoConfig       `mapstructure:"crypto"`
	SMS          SMSConfig          `mapstructure:"sms"`
	WhatsApp     WhatsAppConfig     `mapstructure:"whatsapp"`
	Notification NotificationConfig `mapstructure:"notification"`
	OSS          OSSConfig          `mapstructure:"oss"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Cron         CronConfig         `mapstructure:"cron"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Business     BusinessConfig     `mapstructure:"business"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Name            string `mapstructure:"name"`
	Mode            string `mapstructure:"mode"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Name            string `mapstructure:"name"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogMode         bool   `mapstructure:"log_mode"`
	SlowThreshold   int    `mapstructure:"slow_threshold"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.Timezone,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Addr 返回 Redis 地址
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	AccessTokenExpire  int    `mapstructure:"access_token_expire"`
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire"`
	Issuer             string `mapstructure:"issuer"`
}

// AccessTokenDuration 返回访问令牌有效期
func (j *JWTConfig) AccessTokenDuration() time.Duration {
	return time.Duration(j.AccessTokenExpire) * time.Hour
}

// RefreshTokenDuration 返回刷新令牌有效期
func (j *JWTConfig) RefreshTokenDuration() time.Duration {
	return time.Duration(j.RefreshTokenExpire) * time.Hour
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	AESKey     string `mapstructure:"aes_key"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

// SMSConfig 短信配置
type SMSConfig struct {
	Provider           string `mapstructure:"provider"`
	AccessKeyID        string `mapstructure:"access_key_id"`
	AccessKeySecret    string `mapstructure:"access_key_secret"`
	SignName           string `mapstructure:"sign_name"`
	ReminderTemplateID string `mapstructure:"reminder_template_id"`
}

// WhatsAppConfig WhatsApp 消息网关配置
type WhatsAppConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	APIToken     string `mapstructure:"api_token"`
	TemplateName string `mapstructure:"template_name"`
	CountryCode  string `mapstructure:"country_code"`
	Timeout      int    `mapstructure:"timeout"`
}

// NotificationConfig 通知渠道配置
type NotificationConfig struct {
	// Channel 取值 log / sms / whatsapp
	Channel string `mapstructure:"channel"`
}

// OSSConfig 对象存储配置
type OSSConfig struct {
	Provider        string `mapstructure:"provider"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	Bucket          string `mapstructure:"bucket"`
	CustomDomain    string `mapstructure:"custom_domain"`
	UploadDir       string `mapstructure:"upload_dir"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Caller     bool   `mapstructure:"caller"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	LoginPerMinute    int  `mapstructure:"login_per_minute"`
	BookingsPerHour   int  `mapstructure:"bookings_per_hour"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// CronConfig 定时任务 HTTP 入口配置
type CronConfig struct {
	AuthEnabled bool   `mapstructure:"auth_enabled"`
	Secret      string `mapstructure:"secret"`
}

// SchedulerConfig 进程内调度配置，仅用于开发环境
type SchedulerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Interval 单位分钟
	Interval int `mapstructure:"interval"`
}

// PaymentConfig 收款配置
type PaymentConfig struct {
	UPIVPA    string `mapstructure:"upi_vpa"`
	PayeeName string `mapstructure:"payee_name"`
	Currency  string `mapstructure:"currency"`
}

// AdminConfig 初始管理员配置
type AdminConfig struct {
	BootstrapName     string `mapstructure:"bootstrap_name"`
	BootstrapEmail    string `mapstructure:"bootstrap_email"`
	BootstrapPassword string `mapstructure:"bootstrap_password"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	// PropertyTTL 单位秒
	PropertyTTL int `mapstructure:"property_ttl"`
}

// PropertyTTLDuration 返回公开房源缓存有效期
func (c *CacheConfig) PropertyTTLDuration() time.Duration {
	return time.Duration(c.PropertyTTL) * time.Second
}

// BusinessConfig 业务配置
type BusinessConfig struct {
	Tenant  TenantConfig  `mapstructure:"tenant"`
	Billing BillingConfig `mapstructure:"billing"`
}

// TenantConfig 租客配置
type TenantConfig struct {
	NoticePeriodDays int `mapstructure:"notice_period_days"`
}

// BillingConfig 账单配置
type BillingConfig struct {
	DueDays      int `mapstructure:"due_days"`
	ReminderDays int `mapstructure:"reminder_days"`
}

// defaultJWTSecret 仅用于本地开发，发布模式下禁止使用
const defaultJWTSecret = "your-super-secret-key-change-in-production"

// Load 加载配置文件并校验，只在首次调用时读取
// configPath 为空时依次查找 ./configs/config.yaml 与 ./config.yaml，均不存在则只用默认值与环境变量
func Load(configPath string) (*Config, error) {
	var err error
	once.Do(func() {
		var cfg *Config
		if cfg, err = load(newViper(configPath)); err == nil {
			globalConfig = cfg
		}
	})
	return globalConfig, err
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 环境变量覆盖，例如 DATABASE_HOST 对应 database.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验互相依赖的配置项
func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not supported", c.Database.Driver))
	}
	if len(c.JWT.Secret) < 16 {
		problems = append(problems, "jwt.secret must be at least 16 characters")
	}
	if c.IsRelease() && c.JWT.Secret == defaultJWTSecret {
		problems = append(problems, "jwt.secret must be changed in release mode")
	}
	if c.Cron.AuthEnabled && c.Cron.Secret == "" {
		problems = append(problems, "cron.secret is required when cron.auth_enabled is true")
	}
	if n := len(c.Crypto.AESKey); n != 0 && n != 16 && n != 24 && n != 32 {
		problems = append(problems, "crypto.aes_key must be 16, 24 or 32 bytes")
	}
	switch c.Notification.Channel {
	case "", "log", "sms":
	case "whatsapp":
		if c.WhatsApp.BaseURL == "" {
			problems = append(problems, "whatsapp.base_url is required for the whatsapp channel")
		}
	default:
		problems = append(problems, fmt.Sprintf("notification.channel %q is not supported", c.Notification.Channel))
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		problems = append(problems, "scheduler.interval must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Get 获取全局配置，未加载时返回默认值
func Get() *Config {
	if globalConfig == nil {
		globalConfig = Default()
	}
	return globalConfig
}

// Default 返回只包含默认值的配置
func Default() *Config {
	cfg := &Config{}
	v := viper.New()
	setDefaults(v)
	_ = v.Unmarshal(cfg)
	return cfg
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.name", "pg-manager-backend")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 10)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "pg_manager")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_mode", true)
	v.SetDefault("database.slow_threshold", 200)
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("redis.dial_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	// JWT defaults
	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.access_token_expire", 24)
	v.SetDefault("jwt.refresh_token_expire", 720)
	v.SetDefault("jwt.issuer", "pg-manager")

	// Crypto defaults
	v.SetDefault("crypto.bcrypt_cost", 10)

	// SMS defaults
	v.SetDefault("sms.provider", "mock")

	// WhatsApp defaults
	v.SetDefault("whatsapp.base_url", "")
	v.SetDefault("whatsapp.template_name", "rent_reminder")
	v.SetDefault("whatsapp.country_code", "91")
	v.SetDefault("whatsapp.timeout", 10)

	// Notification defaults
	v.SetDefault("notification.channel", "log")

	// OSS defaults
	v.SetDefault("oss.provider", "mock")
	v.SetDefault("oss.upload_dir", "uploads")

	// Logger defaults
	v.SetDefault("logger.level", "debug")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "./logs/app.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.caller", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "pg-manager-backend")
	v.SetDefault("tracing.sample_rate", 1.0)

	// Rate limit defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_minute", 600)
	v.SetDefault("ratelimit.login_per_minute", 10)
	v.SetDefault("ratelimit.bookings_per_hour", 5)

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 86400)

	// Cron defaults
	v.SetDefault("cron.auth_enabled", false)
	v.SetDefault("cron.secret", "")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", 60)

	// Payment defaults
	v.SetDefault("payment.currency", "INR")
	v.SetDefault("payment.payee_name", "PG Manager")

	// Admin defaults
	v.SetDefault("admin.bootstrap_name", "Administrator")

	// Cache defaults
	v.SetDefault("cache.property_ttl", 300)

	// Business defaults
	v.SetDefault("business.tenant.notice_period_days", 30)
	v.SetDefault("business.billing.due_days", 5)
	v.SetDefault("business.billing.reminder_days", 3)
}

// IsDebug 是否为调试模式
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

// IsRelease 是否为发布模式
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release" || c.Server.Mode == "production"
}
