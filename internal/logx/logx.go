package logx

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wakatime/internal/paths"
)

// New creates a logger that writes to a timestamped file inside the agent's
// logs directory. Debug enables debug-level output; otherwise the threshold is
// info. The returned closer should be closed when logging is no longer needed.
func New(p paths.AgentPaths, debug bool) (zerolog.Logger, io.Closer, error) {
	if err := p.EnsureLogs(); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(p.LogsDir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	return NewWriter(file, debug), file, nil
}

// NewWriter builds a logger over an arbitrary writer.
func NewWriter(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", "wakatime").Logger()
}

// Console builds a human-readable logger on w, used when the log file cannot
// be opened.
func Console(w io.Writer, debug bool) zerolog.Logger {
	return NewWriter(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}, debug)
}

// ParseLevel applies a textual level override ("debug", "warn", ...) to l.
// Unknown or empty values leave the logger unchanged.
func ParseLevel(l zerolog.Logger, raw string) zerolog.Logger {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return l
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return l
	}
	return l.Level(level)
}
