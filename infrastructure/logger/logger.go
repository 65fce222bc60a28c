package logger

import (
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tradesim/order"
)

// Logger 封装zap日志器，提供结构化日志功能
type Logger struct {
	*zap.Logger
	config Config
}

// Config 日志配置
type Config struct {
	Level      string   `yaml:"level"`       // debug, info, warn, error
	Outputs    []string `yaml:"outputs"`     // stdout, file
	OutputFile string   `yaml:"output_file"` // 日志文件路径
	ErrorFile  string   `yaml:"error_file"`  // 错误日志单独文件
	Format     string   `yaml:"format"`      // json 或 console
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Outputs: []string{"stdout"},
		Format:  "json",
	}
}

// New 创建新的Logger实例
func New(cfg Config) (*Logger, error) {
	// 解析日志级别
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}

	// 配置编码器
	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	// 构建核心
	cores := []zapcore.Core{}

	// 标准输出
	if contains(cfg.Outputs, "stdout") {
		var encoder zapcore.Encoder
		if cfg.Format == "console" {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		}
		cores = append(cores, zapcore.NewCore(
			encoder,
			zapcore.AddSync(os.Stdout),
			level,
		))
	}

	// 文件输出
	if contains(cfg.Outputs, "file") && cfg.OutputFile != "" {
		fileWriter, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file failed: %w", err)
		}

		encoder := zapcore.NewJSONEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(
			encoder,
			zapcore.AddSync(fileWriter),
			level,
		))
	}

	// 错误日志单独文件
	if cfg.ErrorFile != "" {
		errorWriter, err := os.OpenFile(cfg.ErrorFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open error log file failed: %w", err)
		}

		encoder := zapcore.NewJSONEncoder(encoderConfig)
		cores = append(cores, zapcore.NewCore(
			encoder,
			zapcore.AddSync(errorWriter),
			zapcore.ErrorLevel, // 只记录error及以上级别
		))
	}

	core := zapcore.NewTee(cores...)
	zapLogger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{
		Logger: zapLogger,
		config: cfg,
	}, nil
}

// WithFields 添加字段返回新的logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for _, k := range sortedKeys(fields) {
		zapFields = append(zapFields, zap.Any(k, fields[k]))
	}
	return &Logger{
		Logger: l.Logger.With(zapFields...),
		config: l.config,
	}
}

// Nop 返回丢弃所有输出的日志器，未注入日志器的组件使用它。
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), config: DefaultConfig()}
}

// NewWithCore 以给定 core 构造日志器，测试中配合 observer 使用。
func NewWithCore(core zapcore.Core) *Logger {
	return &Logger{Logger: zap.New(core), config: DefaultConfig()}
}

// LogFill 记录一笔成交
func (l *Logger) LogFill(runID string, f order.Fill) {
	l.Debug("fill",
		zap.String("run_id", runID),
		zap.String("order_id", f.OrderID),
		zap.String("symbol", f.Symbol),
		zap.String("side", string(f.Side)),
		zap.Int64("qty", f.Quantity),
		zap.Float64("price", f.Price),
		zap.Float64("commission", f.Commission),
		zap.Float64("stamp_duty", f.StampDuty),
		zap.String("date", f.Date.Format(time.DateOnly)),
	)
}

// LogRejection 记录拒单，拒单不是错误，回测继续
func (l *Logger) LogRejection(runID string, r *order.Rejection) {
	l.Info("order_rejected",
		zap.String("run_id", runID),
		zap.String("order_id", r.OrderID),
		zap.String("symbol", r.Symbol),
		zap.String("side", string(r.Side)),
		zap.Int64("qty", r.Quantity),
		zap.String("reason", string(r.Reason)),
		zap.String("detail", r.Detail),
		zap.String("date", r.Date.Format(time.DateOnly)),
	)
}

// LogSkip 记录数据缺失导致的跳过
func (l *Logger) LogSkip(runID, symbol string, date time.Time, reason string) {
	l.Warn("data_skip",
		zap.String("run_id", runID),
		zap.String("symbol", symbol),
		zap.String("date", date.Format(time.DateOnly)),
		zap.String("reason", reason),
	)
}

// LogRun 记录一次运行的开始或结束
func (l *Logger) LogRun(event, runID string, fields map[string]interface{}) {
	zapFields := make([]zap.Field, 0, len(fields)+2)
	zapFields = append(zapFields, zap.String("event", event), zap.String("run_id", runID))
	for _, k := range sortedKeys(fields) {
		zapFields = append(zapFields, zap.Any(k, fields[k]))
	}
	l.Info("run_event", zapFields...)
}

// LogError 记录错误并附带上下文
func (l *Logger) LogError(err error, context map[string]interface{}) {
	zapFields := make([]zap.Field, 0, len(context)+1)
	zapFields = append(zapFields, zap.Error(err))
	for _, k := range sortedKeys(context) {
		zapFields = append(zapFields, zap.Any(k, context[k]))
	}
	l.Error("error_event", zapFields...)
}

// Close 关闭日志器
func (l *Logger) Close() error {
	return l.Sync()
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
