// Package tuilog writes the program's log to a file, since the terminal
// belongs to the UI while it runs.
package tuilog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger is a leveled key/value logger. The zero value discards everything.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
	c   io.Closer
	min Level
	now func() time.Time
}

// Log is the process-wide logger.
var Log = &Logger{min: LevelInfo}

// Init points Log at path, appending. An empty path disables logging.
func Init(path string, min Level) error {
	if path == "" {
		Log.setOutput(nil, nil, min)
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	Log.setOutput(f, f, min)
	Log.Info("logger initialized", "path", path, "level", min)
	return nil
}

// New returns a logger writing to w. Used by tests.
func New(w io.Writer, min Level) *Logger {
	return &Logger{out: w, min: min}
}

func (l *Logger) setOutput(w io.Writer, c io.Closer, min Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c != nil {
		l.c.Close()
	}
	l.out, l.c, l.min = w, c, min
}

// Close closes the log file, if one is open.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.c == nil {
		return nil
	}
	err := l.c.Close()
	l.out, l.c = nil, nil
	return err
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out != nil && level >= l.min
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(min Level) {
	l.mu.Lock()
	l.min = min
	l.mu.Unlock()
}

func (l *Logger) log(level Level, msg string, keyvals ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out == nil || level < l.min {
		return
	}

	now := time.Now
	if l.now != nil {
		now = l.now
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", now().Format("15:04:05.000"), level, msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	if len(keyvals)%2 == 1 {
		fmt.Fprintf(&b, " %v=?", keyvals[len(keyvals)-1])
	}
	b.WriteByte('\n')
	io.WriteString(l.out, b.String())
	if f, ok := l.out.(*os.File); ok {
		f.Sync()
	}
}

func (l *Logger) Debug(msg string, keyvals ...any) { l.log(LevelDebug, msg, keyvals...) }
func (l *Logger) Info(msg string, keyvals ...any)  { l.log(LevelInfo, msg, keyvals...) }
func (l *Logger) Warn(msg string, keyvals ...any)  { l.log(LevelWarn, msg, keyvals...) }
func (l *Logger) Error(msg string, keyvals ...any) { l.log(LevelError, msg, keyvals...) }

// Timed logs the start and duration of an operation at debug level:
//
//	defer tuilog.Log.Timed("fetch personas")()
func (l *Logger) Timed(operation string) func() {
	if !l.Enabled(LevelDebug) {
		return func() {}
	}
	start := time.Now()
	l.Debug(operation, "status", "started")
	return func() {
		l.Debug(operation, "status", "completed", "duration", time.Since(start))
	}
}
