package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once

	// level is shared by every handler created through Init.
	level = new(slog.LevelVar)
)

// Init initializes the global logger with timestamp precision to milliseconds.
// Output goes to stderr so command output on stdout stays machine readable.
func Init() {
	once.Do(func() {
		handler := NewHandler(os.Stderr)
		defaultLogger = slog.New(handler)
		slog.SetDefault(defaultLogger)
	})
}

// SetLevel sets the minimum level written by handlers created with NewHandler.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug", "dbg":
		return slog.LevelDebug, nil
	case "", "info", "inf":
		return slog.LevelInfo, nil
	case "warn", "warning", "wrn":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Handler is a custom slog handler with precise timestamps.
type Handler struct {
	out   io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr // attrs are prepended to every record
	group string      // group prefixes attribute keys
}

// NewHandler creates a new handler writing to the given writer.
func NewHandler(out io.Writer) *Handler {
	return &Handler{out: out, mu: &sync.Mutex{}}
}

// Enabled reports whether the level passes the shared threshold.
func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= level.Level()
}

// Handle formats and writes a log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	// Format: 2024-01-15 14:30:45.123 [INF] message key=value
	ts := r.Time.Format("2006-01-02 15:04:05.000")
	lvl := levelString(r.Level)

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", ts, lvl, r.Message)

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})

	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := io.WriteString(h.out, b.String())

	return err
}

// WithAttrs returns a new handler carrying the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		prefixed[i] = a
	}

	return &Handler{
		out:   h.out,
		mu:    h.mu,
		attrs: append(append([]slog.Attr{}, h.attrs...), prefixed...),
		group: h.group,
	}
}

// WithGroup returns a new handler that prefixes keys with the group name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	group := name
	if h.group != "" {
		group = h.group + "." + name
	}

	return &Handler{out: h.out, mu: h.mu, attrs: h.attrs, group: group}
}

// writeAttr appends a single key=value pair.
func writeAttr(b *strings.Builder, group string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if group != "" {
		key = group + "." + key
	}

	fmt.Fprintf(b, " %s=%v", key, a.Value)
}

// levelString returns a short string for the log level.
func levelString(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "DBG"
	case slog.LevelInfo:
		return "INF"
	case slog.LevelWarn:
		return "WRN"
	case slog.LevelError:
		return "ERR"
	default:
		return "???"
	}
}

// Info logs at INFO level.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs at ERROR level.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Timed returns elapsed time since start for logging duration.
func Timed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
