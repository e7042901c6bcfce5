// Package logging provides structured logging for the simulator. It wraps
// log/slog with a JSON handler, an environment controlled level and
// per-component child loggers.
package logging

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// LevelEnv names the environment variable that selects the log level.
const LevelEnv = "FLATLANDS_LOG_LEVEL"

// Logger wraps slog.Logger with simulator specific helpers.
type Logger struct {
	*slog.Logger
	root *slog.Logger // same attributes minus the component
}

// NewLogger creates a JSON logger on stdout tagged with component.
// The level is read from FLATLANDS_LOG_LEVEL (DEBUG, INFO, WARN, ERROR) and
// defaults to INFO.
func NewLogger(component string) *Logger {
	return NewLoggerTo(os.Stdout, component)
}

// NewLoggerTo is NewLogger writing to w.
func NewLoggerTo(w io.Writer, component string) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       levelFromEnv(),
		ReplaceAttr: sanitizeAttributes,
	})
	root := slog.New(handler)
	l := &Logger{Logger: root, root: root}
	if component != "" {
		l = l.Component(component)
	}
	return l
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	l := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1,
	}))
	return &Logger{Logger: l, root: l}
}

// Component returns a child logger with the component attribute replaced.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.root.With("component", name), root: l.root}
}

// WithEpisode returns a child logger that tags every record with an episode
// ID. An empty id generates a new one.
func (l *Logger) WithEpisode(id string) *Logger {
	if id == "" {
		id = GenerateEpisodeID()
	}
	return &Logger{
		Logger: l.Logger.With("episode_id", id),
		root:   l.root.With("episode_id", id),
	}
}

// Failure logs err at error level with msg.
func (l *Logger) Failure(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.Logger.Error(msg, args...)
}

// GenerateEpisodeID creates a random episode identifier.
func GenerateEpisodeID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func levelFromEnv() slog.Level {
	switch strings.ToUpper(os.Getenv(LevelEnv)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// sanitizeAttributes replaces non-finite floats, which the JSON handler
// cannot encode, with their string form.
func sanitizeAttributes(groups []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindFloat64 {
		return a
	}
	f := a.Value.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return slog.String(a.Key, fmt.Sprint(f))
	}
	return a
}

// WrapError wraps err with a formatted context message.
func WrapError(err error, context string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		context = fmt.Sprintf(context, args...)
	}
	return fmt.Errorf("%s: %w", context, err)
}
