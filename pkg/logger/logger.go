// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Level 日志级别
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // json/console
	Output     string `yaml:"output" json:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var output io.Writer
		switch cfg.Output {
		case "stderr":
			output = os.Stderr
		case "file":
			if cfg.FilePath != "" {
				f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
				if err == nil {
					output = f
				} else {
					output = os.Stdout
				}
			} else {
				output = os.Stdout
			}
		default:
			output = os.Stdout
		}

		if cfg.Format == "console" {
			output = zerolog.ConsoleWriter{
				Out:        output,
				TimeFormat: cfg.TimeFormat,
			}
		}

		logger = zerolog.New(output).With().Timestamp().Logger()
	})
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	if logger.GetLevel() == zerolog.Disabled {
		Init(DefaultConfig())
	}
	return &logger
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	planIDKey
)

// WithRequestID 将请求ID写入上下文
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithPlanID 将计划ID写入上下文
func WithPlanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, planIDKey, id)
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()

	// 添加请求ID
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		l = l.With().Str("request_id", reqID).Logger()
	}

	// 添加计划ID
	if planID, ok := ctx.Value(planIDKey).(string); ok {
		l = l.With().Str("plan_id", planID).Logger()
	}

	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// WithError 添加错误信息
func WithError(err error) *zerolog.Event {
	return Get().Error().Err(err)
}

// SwapLogger 换班引擎专用日志器
type SwapLogger struct {
	base *zerolog.Logger
}

// NewSwapLogger 创建换班引擎日志器
func NewSwapLogger() *SwapLogger {
	l := Get().With().Str("component", "swap").Logger()
	return &SwapLogger{base: &l}
}

// NewSwapLoggerWith 基于给定日志器创建换班引擎日志器
func NewSwapLoggerWith(base zerolog.Logger) *SwapLogger {
	l := base.With().Str("component", "swap").Logger()
	return &SwapLogger{base: &l}
}

// StartOperation 记录换班操作开始
func (l *SwapLogger) StartOperation(mode, employee1 string, week1 int, employee2 string, redistribute bool) {
	l.base.Info().
		Str("mode", mode).
		Str("employee1", employee1).
		Int("week1", week1).
		Str("employee2", employee2).
		Bool("redistribute", redistribute).
		Msg("开始执行换班")
}

// CycleMoved 记录晚班周期转移
func (l *SwapLogger) CycleMoved(from, to string, week, days, cancelled int) {
	l.base.Debug().
		Str("from", from).
		Str("to", to).
		Int("week", week).
		Int("days", days).
		Int("cancelled_home_office", cancelled).
		Msg("晚班周期已转移")
}

// Redistributed 记录居家办公补偿结果
func (l *SwapLogger) Redistributed(employeeID string, quota, undistributed int) {
	event := l.base.Info()
	if undistributed > 0 {
		event = l.base.Warn()
	}
	event.
		Str("employee_id", employeeID).
		Int("quota", quota).
		Int("undistributed", undistributed).
		Msg("居家办公补偿完成")
}

// InvariantViolation 记录不变量违反
func (l *SwapLogger) InvariantViolation(rule, details string) {
	l.base.Warn().
		Str("rule", rule).
		Str("details", details).
		Msg("计划不变量违反")
}

// OperationComplete 记录换班完成
func (l *SwapLogger) OperationComplete(mode string, duration time.Duration, first, second int) {
	l.base.Info().
		Str("mode", mode).
		Dur("duration", duration).
		Int("result_employee1", first).
		Int("result_employee2", second).
		Msg("换班执行完成")
}
