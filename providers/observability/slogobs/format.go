package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace is one step below slog.LevelDebug and is used for very chatty
// output such as provider request previews.
const LevelTrace = slog.LevelDebug - 4

// Format represents the output format for logs.
type Format string

const (
	// FormatText is the logfmt-style slog.TextHandler output (default).
	// Example: time=2025-11-03T10:40:35Z level=INFO msg=Message key=value
	FormatText Format = "text"

	// FormatJSON is standard JSON format (for production/log aggregation).
	// Example: {"time":"2025-11-03T10:40:35Z","level":"INFO","msg":"Message","key":"value"}
	FormatJSON Format = "json"
)

// ParseFormat parses a format string and returns the corresponding Format.
// If the format is invalid, it returns FormatText (default).
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// GetFormatFromEnv retrieves the log format from environment variables.
// It checks RADAR_LOG_FORMAT first, then falls back to LOG_FORMAT.
func GetFormatFromEnv() Format {
	if format := os.Getenv("RADAR_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return FormatText
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield
// slog.LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "trace":
		return LevelTrace
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

// GetLogLevelFromEnv retrieves the log level from RADAR_LOG_LEVEL, falling
// back to LOG_LEVEL, defaulting to INFO.
func GetLogLevelFromEnv() slog.Level {
	if level := os.Getenv("RADAR_LOG_LEVEL"); level != "" {
		return ParseLevel(level)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return ParseLevel(level)
	}
	return slog.LevelInfo
}

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}
