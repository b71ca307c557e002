package browser

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
	"go.uber.org/zap"
)

// EnsureInstalled returns a usable Chrome binary, downloading Chromium into
// rod's cache when none is installed.
func EnsureInstalled(logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path, found := launcher.LookPath(); found {
		logger.Info("browser already installed", zap.String("path", path))
		return path, nil
	}

	logger.Info("installing browser")
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("install browser: %w", err)
	}
	logger.Info("browser installed", zap.String("path", path))
	return path, nil
}
