// Package logging provides the leveled console logger used throughout
// cbzscan, with an optional JSON log file backed by zap.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/cbzscan/internal/config"
	"github.com/backmassage/cbzscan/internal/term"
)

const progressWidth = 80

// Logger writes leveled, optionally colored lines to the console and, when
// a log file is configured, mirrors every line as a JSON record.
// It is safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	tty    bool

	file *os.File
	sink *zap.Logger

	progress bool // an inline progress line is currently on screen
}

// NewLogger configures terminal colors from cfg and opens cfg.LogFile in
// append mode when set. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)
	l := &Logger{
		out:    os.Stdout,
		errOut: os.Stderr,
		tty:    term.IsTerminal(os.Stdout),
	}

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		l.sink = newFileSink(f)
	}
	return l, nil
}

// newFileSink builds a JSON-lines zap logger writing to w.
func newFileSink(w io.Writer) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}

// Close flushes and closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	_ = l.sink.Sync()
	err := l.file.Close()
	l.file, l.sink = nil, nil
	return err
}

// Record writes a structured entry to the log file only; the console never
// sees it. Without a log file it does nothing.
func (l *Logger) Record(level string, msg string, fields ...zap.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(level, msg, fields...)
}

func (l *Logger) line(level, color, text string) {
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clearProgressLocked()
	out := l.out
	if level == "ERROR" {
		out = l.errOut
	}
	if color != "" {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+term.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, ts+" ["+level+"] "+text+"\n")
	}
	l.record(level, text)
}

// record mirrors a line into the JSON sink. Caller holds l.mu.
func (l *Logger) record(level, text string, fields ...zap.Field) {
	if l.sink == nil {
		return
	}
	switch level {
	case "ERROR":
		l.sink.Error(text, fields...)
	case "WARN":
		l.sink.Warn(text, fields...)
	case "DEBUG":
		l.sink.Debug(text, fields...)
	case "SUCCESS":
		l.sink.Info(text, append(fields, zap.Bool("success", true))...)
	default:
		l.sink.Info(text, fields...)
	}
}

// Progress redraws the inline \r status line on a TTY. It is a no-op when
// stdout is not a terminal; the next regular log line erases it.
func (l *Logger) Progress(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.tty {
		return
	}
	if len(text) < progressWidth {
		text += strings.Repeat(" ", progressWidth-len(text))
	}
	_, _ = io.WriteString(l.out, "\r"+text)
	l.progress = true
}

// ClearProgress erases the inline progress line, if any.
func (l *Logger) ClearProgress() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clearProgressLocked()
}

func (l *Logger) clearProgressLocked() {
	if !l.progress {
		return
	}
	_, _ = io.WriteString(l.out, "\r"+strings.Repeat(" ", progressWidth)+"\r")
	l.progress = false
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("INFO", term.Blue, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.line("SUCCESS", term.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("WARN", term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red) to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("ERROR", term.Red, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.line("DEBUG", term.Cyan, fmt.Sprintf(format, args...))
}
