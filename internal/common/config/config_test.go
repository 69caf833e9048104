// Package config 配置管理单元测试
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== Load 测试 ====================

func TestLoad_WithConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.yaml")

	configContent := `
server:
  name: "test-server"
  port: 9000
business:
  billing:
    due_days: 7
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// sync.Once 保证只加载一次，这里是包内第一次调用
	assert.Equal(t, "test-server", cfg.Server.Name)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Business.Billing.DueDays)
	// 未配置的项取默认值
	assert.Equal(t, 3, cfg.Business.Billing.ReminderDays)
	assert.Equal(t, "postgres", cfg.Database.Driver)

	assert.Same(t, cfg, Get())
}

// ==================== Default 测试 ====================

func TestDefault_Values(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "pg-manager-backend", cfg.Server.Name)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.NotEmpty(t, cfg.JWT.Secret)
	assert.Equal(t, 24, cfg.JWT.AccessTokenExpire)
}

func TestDefault_Business(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30, cfg.Business.Tenant.NoticePeriodDays)
	assert.Equal(t, 5, cfg.Business.Billing.DueDays)
	assert.Equal(t, 3, cfg.Business.Billing.ReminderDays)
}

func TestDefault_JobsAndNotification(t *testing.T) {
	cfg := Default()

	t.Run("cron鉴权默认关闭", func(t *testing.T) {
		assert.False(t, cfg.Cron.AuthEnabled)
		assert.Empty(t, cfg.Cron.Secret)
	})

	t.Run("进程内调度默认关闭", func(t *testing.T) {
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 60, cfg.Scheduler.Interval)
	})

	t.Run("通知渠道默认为日志", func(t *testing.T) {
		assert.Equal(t, "log", cfg.Notification.Channel)
		assert.Equal(t, "mock", cfg.SMS.Provider)
		assert.Equal(t, "91", cfg.WhatsApp.CountryCode)
	})

	t.Run("收款默认币种", func(t *testing.T) {
		assert.Equal(t, "INR", cfg.Payment.Currency)
	})
}

func TestDefault_Middleware(t *testing.T) {
	cfg := Default()

	assert.Contains(t, cfg.CORS.AllowedOrigins, "*")
	assert.Contains(t, cfg.CORS.AllowedHeaders, "Authorization")
	assert.False(t, cfg.CORS.AllowCredentials)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.LoginPerMinute)
	assert.Equal(t, 5, cfg.RateLimit.BookingsPerHour)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.False(t, cfg.Tracing.Enabled)
}

// ==================== DatabaseConfig 测试 ====================

func TestDatabaseConfig_DSN(t *testing.T) {
	config := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5433,
		User:     "admin",
		Password: "p@ssw0rd",
		Name:     "pg_manager",
		SSLMode:  "require",
		Timezone: "UTC",
	}
	want := "host=db.example.com port=5433 user=admin password=p@ssw0rd dbname=pg_manager sslmode=require TimeZone=UTC"
	assert.Equal(t, want, config.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	config := RedisConfig{Host: "redis.example.com", Port: 6380}
	assert.Equal(t, "redis.example.com:6380", config.Addr())
}

// ==================== Duration 测试 ====================

func TestDurations(t *testing.T) {
	jwtCfg := JWTConfig{AccessTokenExpire: 24, RefreshTokenExpire: 720}
	assert.Equal(t, 24*time.Hour, jwtCfg.AccessTokenDuration())
	assert.Equal(t, 720*time.Hour, jwtCfg.RefreshTokenDuration())

	cacheCfg := CacheConfig{PropertyTTL: 300}
	assert.Equal(t, 5*time.Minute, cacheCfg.PropertyTTLDuration())
}

func TestConfig_Mode(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		wantDebug   bool
		wantRelease bool
	}{
		{"Debug mode", "debug", true, false},
		{"Release mode", "release", false, true},
		{"Production mode", "production", false, true},
		{"Empty mode", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{Server: ServerConfig{Mode: tt.mode}}
			assert.Equal(t, tt.wantDebug, config.IsDebug())
			assert.Equal(t, tt.wantRelease, config.IsRelease())
		})
	}
}

// ==================== Validate 测试 ====================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"short jwt secret", func(c *Config) { c.JWT.Secret = "short" }, "at least 16"},
		{"default secret in release", func(c *Config) { c.Server.Mode = "release" }, "changed in release mode"},
		{"cron auth without secret", func(c *Config) { c.Cron.AuthEnabled = true }, "cron.secret"},
		{"bad aes key", func(c *Config) { c.Crypto.AESKey = "12345" }, "crypto.aes_key"},
		{"unknown channel", func(c *Config) { c.Notification.Channel = "email" }, "notification.channel"},
		{"whatsapp without base url", func(c *Config) { c.Notification.Channel = "whatsapp" }, "whatsapp.base_url"},
		{"scheduler without interval", func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Interval = 0
		}, "scheduler.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("cron:\n  auth_enabled: true\n"), 0644))

	_, err := load(newViper(configPath))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron.secret")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("NOTIFICATION_CHANNEL", "whatsapp")
	t.Setenv("WHATSAPP_BASE_URL", "https://live-server.example.com")

	cfg, err := load(newViper(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	assert.Nil(t, cfg)

	cfg, err = load(newViper(""))
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "whatsapp", cfg.Notification.Channel)
}
