package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the minimum severity a record needs to be written.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

var slogLevels = [...]slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

func (l Level) slogLevel() slog.Level {
	if l < LevelDebug || l > LevelError {
		return slog.LevelInfo
	}
	return slogLevels[l]
}

// parseLevel maps a case-insensitive level name to its Level. Unknown
// names return ok=false.
func parseLevel(name string) (Level, bool) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	}
	return 0, false
}

// Config holds logger configuration.
type Config struct {
	Level  string // one of DEBUG, INFO, WARN, ERROR
	Format string // "text" or "json"
	Output string // stdout, stderr, or a file path
}

// The package keeps a single process-wide logger. Level and format live
// in atomics so the leveled entry points can bail out without locking;
// the mutex guards the writer and the handler swap in reconfigure.
var (
	minLevel  atomic.Int32
	outFormat atomic.Value

	mu       sync.RWMutex
	out      io.Writer = os.Stdout
	colorize bool      = true
	base     *slog.Logger
)

func init() {
	minLevel.Store(int32(LevelInfo))
	outFormat.Store("text")
	if f, ok := out.(*os.File); ok {
		colorize = isTerminal(f.Fd())
	}
	reconfigure()
}

// reconfigure swaps in a handler matching the current level, format and
// writer. Callers must not hold mu.
func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	lv := new(slog.LevelVar)
	lv.Set(Level(minLevel.Load()).slogLevel())
	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	if f, _ := outFormat.Load().(string); f == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = NewColorTextHandler(out, opts, colorize)
	}
	base = slog.New(h)
}

// Init applies cfg to the process logger. Output may name a file, which
// is opened for append; color is only kept when writing to a terminal.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, color, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		mu.Lock()
		out = w
		colorize = color
		mu.Unlock()
	}
	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}
	// Rebuild once more in case only the writer changed.
	reconfigure()
	return nil
}

// openOutput resolves an output name to a writer. The boolean reports
// whether ANSI color makes sense for it.
func openOutput(name string) (io.Writer, bool, error) {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr.Fd()), nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file %q: %w", name, err)
	}
	return f, false, nil
}

// InitWithWriter points the logger at w, mainly so tests can capture
// output without touching process stdio.
func InitWithWriter(w io.Writer, level, format string, enableColor bool) {
	if lv, ok := parseLevel(level); ok {
		minLevel.Store(int32(lv))
	}
	if f := strings.ToLower(format); f == "text" || f == "json" {
		outFormat.Store(f)
	}
	mu.Lock()
	out = w
	colorize = enableColor
	mu.Unlock()
	reconfigure()
}

// SetLevel changes the minimum level at runtime. Unknown names are
// ignored.
func SetLevel(name string) {
	lv, ok := parseLevel(name)
	if !ok {
		return
	}
	minLevel.Store(int32(lv))
	reconfigure()
}

// SetFormat switches between "text" and "json" output. Anything else is
// ignored.
func SetFormat(format string) {
	switch f := strings.ToLower(format); f {
	case "text", "json":
		outFormat.Store(f)
		reconfigure()
	}
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func enabled(l Level) bool {
	return l >= Level(minLevel.Load())
}

// ============================================================================
// Leveled API
// ============================================================================

// Debug logs at debug level. Args are slog key/value pairs, typically
// built with the helpers in fields.go.
func Debug(msg string, args ...any) {
	if !enabled(LevelDebug) {
		return
	}
	current().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	if !enabled(LevelInfo) {
		return
	}
	current().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	if !enabled(LevelWarn) {
		return
	}
	current().Warn(msg, args...)
}

// Error logs at error level. Errors are never filtered.
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// ============================================================================
// Context-aware API
// ============================================================================

// DebugCtx logs at debug level with the LogContext fields carried by ctx
// prepended to args.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	if !enabled(LevelDebug) {
		return
	}
	current().Debug(msg, contextFields(ctx, args)...)
}

// InfoCtx logs at info level with context fields.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	if !enabled(LevelInfo) {
		return
	}
	current().Info(msg, contextFields(ctx, args)...)
}

// WarnCtx logs at warn level with context fields.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	if !enabled(LevelWarn) {
		return
	}
	current().Warn(msg, contextFields(ctx, args)...)
}

// ErrorCtx logs at error level with context fields.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	current().Error(msg, contextFields(ctx, args)...)
}

// contextFields prepends the LogContext fields from ctx so they come
// before the call-site args in the record.
func contextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := make([]any, 0, 16+len(args))
	if lc.TraceID != "" {
		fields = append(fields, KeyTraceID, lc.TraceID)
	}
	if lc.SpanID != "" {
		fields = append(fields, KeySpanID, lc.SpanID)
	}
	if lc.Event != "" {
		fields = append(fields, KeyEvent, lc.Event)
	}
	if lc.SessionID != "" {
		fields = append(fields, KeySessionID, lc.SessionID)
	}
	if lc.RoomID != 0 {
		fields = append(fields, KeyRoomID, lc.RoomID)
	}
	if lc.UserID != 0 {
		fields = append(fields, KeyUserID, lc.UserID)
	}
	if lc.Username != "" {
		fields = append(fields, KeyUsername, lc.Username)
	}
	if lc.ClientIP != "" {
		fields = append(fields, KeyClientIP, lc.ClientIP)
	}
	return append(fields, args...)
}

// With returns a slog.Logger carrying pre-bound attributes.
func With(args ...any) *slog.Logger {
	return current().With(args...)
}

// Duration returns milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return time.Since(start).Seconds() * 1000
}
