// Package dlog is this node's structured logger: a thin wrapper around
// log/slog that adds the teacher's terminal rendering (color on a TTY,
// plain text otherwise) and a stack trace attached to Crit-level records,
// grounded on go-ethereum's log package (the same mattn/go-colorable,
// mattn/go-isatty, go-stack/stack trio the teacher's go.mod carries).
package dlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level mirrors go-ethereum's six-level scheme, narrower than slog's
// open-ended integer levels.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCrit
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	// slog has no Trace/Crit; project them onto the nearest level one
	// step below Debug/above Error, matching the gap go-ethereum's own
	// levels leave relative to slog's four.
	switch l {
	case LevelTrace:
		return slog.LevelDebug - 4
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCrit:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}

// Logger is a component-scoped logger; New attaches a "component" attr
// that every record carries, matching the teacher's practice of a logger
// per subsystem (blockchain, miner, txpool, provider).
type Logger struct {
	inner *slog.Logger
}

var root = New(os.Stderr, LevelInfo)

// SetRoot replaces the process-wide default logger (used once at startup
// to apply CLI-configured verbosity/format).
func SetRoot(l *Logger) { root = l }

// Root returns the process-wide default logger.
func Root() *Logger { return root }

// New returns a Logger writing level-and-above records to w, using a
// colorized terminal handler when w is a TTY and a plain one otherwise.
func New(w io.Writer, minLevel Level) *Logger {
	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		handler = &terminalHandler{w: colorable.NewColorable(f), minLevel: minLevel, useColor: true}
	} else {
		handler = &terminalHandler{w: w, minLevel: minLevel, useColor: false}
	}
	return &Logger{inner: slog.New(handler)}
}

// With returns a Logger that prepends args to every subsequent record,
// e.g. Root().With("component", "miner").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{inner: l.inner.With(args...)}
}

func (l *Logger) log(ctx context.Context, level Level, msg string, args []any) {
	l.inner.Log(ctx, level.slogLevel(), msg, args...)
}

func (l *Logger) Trace(msg string, args ...any) { l.log(context.Background(), LevelTrace, msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(context.Background(), LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(context.Background(), LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), LevelError, msg, args) }

// Crit logs at the highest severity, attaching the caller's stack trace
// as the "stack" attribute (go-ethereum reserves this for conditions an
// operator must act on, e.g. a corrupted trie).
func (l *Logger) Crit(msg string, args ...any) {
	trace := stack.Trace().TrimRuntime()
	args = append(append([]any{}, args...), "stack", trace.String())
	l.log(context.Background(), LevelCrit, msg, args)
}

// terminalHandler renders records the way go-ethereum's console logger
// does: "LVL[timestamp] message key=value ...", colorized by level when
// writing to a real terminal.
type terminalHandler struct {
	w        io.Writer
	minLevel Level
	useColor bool
	attrs    []slog.Attr
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel.slogLevel()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	level := levelFromSlog(r.Level)
	var b strings.Builder
	if h.useColor {
		fmt.Fprintf(&b, "\x1b[%dm%-5s\x1b[0m", colorForLevel(level), level.String())
	} else {
		fmt.Fprintf(&b, "%-5s", level.String())
	}
	fmt.Fprintf(&b, "[%s] %s", r.Time.Format(time.RFC3339), r.Message)

	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value.Any())
		return true
	})
	b.WriteByte('\n')
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &terminalHandler{w: h.w, minLevel: h.minLevel, useColor: h.useColor, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler { return h }

func levelFromSlog(l slog.Level) Level {
	switch {
	case l <= slog.LevelDebug-4:
		return LevelTrace
	case l <= slog.LevelDebug:
		return LevelDebug
	case l <= slog.LevelInfo:
		return LevelInfo
	case l <= slog.LevelWarn:
		return LevelWarn
	case l <= slog.LevelError:
		return LevelError
	default:
		return LevelCrit
	}
}

func colorForLevel(l Level) int {
	switch l {
	case LevelTrace, LevelDebug:
		return 90 // bright black
	case LevelInfo:
		return 32 // green
	case LevelWarn:
		return 33 // yellow
	case LevelError:
		return 31 // red
	case LevelCrit:
		return 35 // magenta
	default:
		return 0
	}
}
