// Package logger 提供基于 zap 的全局结构化日志
package logger

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dumeirei/pg-manager-backend/internal/common/config"
)

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// Init 按配置初始化全局日志器
// Output 为 stdout 时只写控制台，file 时只写文件，both 时同时写入
func Init(cfg *config.LoggerConfig) error {
	core := zapcore.NewCore(newEncoder(cfg.Format), newWriteSyncer(cfg), getLogLevel(cfg.Level))

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	SetLogger(zap.New(core, opts...))
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00"),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encCfg)
}

func newWriteSyncer(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	toStdout := cfg.Output == "" || cfg.Output == "stdout" || cfg.Output == "both"
	toFile := cfg.FilePath != "" && (cfg.Output == "file" || cfg.Output == "both")

	var syncers []zapcore.WriteSyncer
	if toStdout {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	if toFile {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}))
	}
	if len(syncers) == 0 {
		syncers = append(syncers, zapcore.AddSync(os.Stdout))
	}
	return zapcore.NewMultiWriteSyncer(syncers...)
}

func getLogLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil || level == "" {
		return zapcore.InfoLevel
	}
	return l
}

// SetLogger 替换全局日志器，测试中可注入 observer
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// GetLogger 获取全局日志器，未初始化时返回空日志器
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Sync 刷新缓冲
func Sync() error {
	return GetLogger().Sync()
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info 信息日志
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error 错误日志
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// With 返回带有固定字段的日志器
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// ==================== 字段 ====================

// RequestID 请求ID
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// UserID 用户ID
func UserID(id int64) zap.Field { return zap.Int64("user_id", id) }

// TenantID 租客ID
func TenantID(id int64) zap.Field { return zap.Int64("tenant_id", id) }

// BedID 床位ID
func BedID(id int64) zap.Field { return zap.Int64("bed_id", id) }

// BillID 账单ID
func BillID(id int64) zap.Field { return zap.Int64("bill_id", id) }

// BillNo 账单号
func BillNo(no string) zap.Field { return zap.String("bill_no", no) }

// Job 定时任务名
func Job(name string) zap.Field { return zap.String("job", name) }

// Latency 耗时
func Latency(d time.Duration) zap.Field { return zap.Duration("latency", d) }
