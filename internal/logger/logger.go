package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the process-wide slog handler. Level names are
// case-insensitive; an unknown name falls back to info so a typo in the
// config never silences the daemon. NO_COLOR disables ANSI output.
func Setup(level string) {
	lvl := ParseLevel(level)
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		AddSource:  lvl == slog.LevelDebug,
		NoColor:    os.Getenv("NO_COLOR") != "",
	})))
}

// ParseLevel maps a config-file level name to its slog level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
