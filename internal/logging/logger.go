// Package logging builds the zap logger shared by every casetasker component.
// Console output tags levels the way the legal-ops team reads them in the
// terminal ([INFO], [WARN], [ERRO]); components log through named category
// children that can be switched off individually from the config file.
package logging

import (
	"fmt"
	"strings"

	"casetasker/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config, run summary
	CategoryStore     Category = "store"     // Record source queries and updates
	CategoryLookup    Category = "lookup"    // Office-assignment workbook
	CategoryBrowser   Category = "browser"   // UI driver lifecycle
	CategorySession   Category = "session"   // Login and re-authentication
	CategoryProcessor Category = "processor" // Per-record task creation
	CategoryWorkflow  Category = "workflow"  // Run orchestration
)

var levelTags = map[zapcore.Level]string{
	zapcore.DebugLevel:  "[DEBG]",
	zapcore.InfoLevel:   "[INFO]",
	zapcore.WarnLevel:   "[WARN]",
	zapcore.ErrorLevel:  "[ERRO]",
	zapcore.DPanicLevel: "[ERRO]",
	zapcore.PanicLevel:  "[ERRO]",
	zapcore.FatalLevel:  "[ERRO]",
}

// TagLevelEncoder renders levels as bracketed four-letter tags.
func TagLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	tag, ok := levelTags[l]
	if !ok {
		tag = "[" + strings.ToUpper(l.String()) + "]"
	}
	enc.AppendString(tag)
}

// ParseLevel maps a config level name to a zap level, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds the root logger. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zc.DisableStacktrace = true
	zc.Sampling = nil
	zc.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	if cfg.Format != "json" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = TagLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		zc.EncoderConfig.CallerKey = zapcore.OmitKey
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.With(zap.String("app", "casetasker")), nil
}

// Filter decides per category whether a named child logger is live.
type Filter struct {
	root *zap.Logger
	cfg  config.LoggingConfig
}

// NewFilter wraps root with the category toggles of cfg.
func NewFilter(root *zap.Logger, cfg config.LoggingConfig) *Filter {
	return &Filter{root: root, cfg: cfg}
}

// Get returns the named logger for category. A switched-off category still
// logs at error level and above.
func (f *Filter) Get(category Category) *zap.Logger {
	if f == nil || f.root == nil {
		return zap.NewNop()
	}
	if !f.cfg.IsCategoryEnabled(string(category)) {
		return f.root.Named(string(category)).WithOptions(zap.IncreaseLevel(zapcore.ErrorLevel))
	}
	return f.root.Named(string(category))
}

// For is shorthand for a named child when no filter is configured.
func For(root *zap.Logger, category Category) *zap.Logger {
	if root == nil {
		return zap.NewNop()
	}
	return root.Named(string(category))
}
