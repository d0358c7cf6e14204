package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/sidepost/pkg/config"
	"github.com/getmockd/sidepost/pkg/logging"
)

// loadConfig loads the configuration named by --config, the discovered
// file, or the defaults, then lets adjust override fields before the
// result is validated again.
func loadConfig(path string, adjust func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if adjust == nil {
		return cfg, nil
	}
	adjust(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger. With logFile set, records are
// written to both stderr and the file.
func newLogger(cfg *config.Config, stderr io.Writer, logFile string) (*slog.Logger, func() error, error) {
	lc := cfg.Log.Logging()
	lc.Output = stderr
	if logFile == "" {
		return logging.New(lc), func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	fc := lc
	fc.Output = f
	fc.Format = logging.FormatJSON
	return slog.New(logging.Tee(logging.NewHandler(lc), logging.NewHandler(fc))), f.Close, nil
}
