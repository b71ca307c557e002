package logging

import (
	"bytes"
	"strings"
	"testing"

	"casetasker/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTagLevelEncoder(t *testing.T) {
	var buf bytes.Buffer
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeLevel = TagLevelEncoder
	encCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(&buf), zapcore.DebugLevel)
	logger := zap.New(core)

	logger.Error("falha ao criar tarefa", zap.String("id", "42"))
	logger.Info("tarefa criada")
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, "[ERRO]\tfalha ao criar tarefa") {
		t.Errorf("expected [ERRO] tag, got %q", out)
	}
	if !strings.Contains(out, "[INFO]\ttarefa criada") {
		t.Errorf("expected [INFO] tag, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_BuildsConsoleAndJSON(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := New(config.LoggingConfig{Level: "warn", Format: format}, false)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("%s: info should be disabled at warn level", format)
		}
	}

	logger, err := New(config.LoggingConfig{Level: "error"}, true)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose should force debug level")
	}
}

func TestFilter_Get(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	root := zap.New(core)

	f := NewFilter(root, config.LoggingConfig{Categories: map[string]bool{"browser": false}})
	f.Get(CategoryBrowser).Info("hidden")
	f.Get(CategoryBrowser).Warn("hidden")
	f.Get(CategorySession).Info("visible")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "session" {
		t.Errorf("expected logger name session, got %q", entries[0].LoggerName)
	}

	f.Get(CategoryBrowser).Error("navigation failed")
	errs := logs.FilterMessage("navigation failed").All()
	if len(errs) != 1 {
		t.Fatalf("disabled category dropped an error entry")
	}
	if errs[0].LoggerName != "browser" {
		t.Errorf("expected logger name browser, got %q", errs[0].LoggerName)
	}

	var nilFilter *Filter
	nilFilter.Get(CategoryStore).Info("no panic")
}
