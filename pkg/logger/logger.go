// Package logger provides the application's leveled logger.
//
// Args after the message are printed one per line; an error or a
// map[string]interface{} is attached to the Rollbar item as-is, and a
// models.User identifies the person the item belongs to.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the leveled logger used across the service
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// ConsoleLogger prints emoji-prefixed lines to a writer
type ConsoleLogger struct {
	std   *log.Logger
	debug bool
}

var _ Logger = (*ConsoleLogger)(nil)

// NewConsoleLogger writes to w; debug lines are dropped unless debug is set
func NewConsoleLogger(w io.Writer, debug bool) *ConsoleLogger {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleLogger{std: log.New(w, "", 0), debug: debug}
}

func (l *ConsoleLogger) print(prefix, msg string, args []interface{}) {
	l.std.Println(prefix + " " + msg)
	for _, arg := range args {
		l.std.Printf("   %+v\n", arg)
	}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print("🔍", msg, args)
	}
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) { l.print("✅", msg, args) }

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) { l.print("⚠️ ", msg, args) }

func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.print("❌", msg, args) }

// Nop discards everything
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}

var (
	defaultLogger Logger = NewConsoleLogger(os.Stdout, false)
	defaultMu     sync.RWMutex
)

// Default returns the process-wide logger
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(l Logger) {
	if l == nil {
		l = Nop{}
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Errorf is a shorthand used where a formatted message is all there is
func Errorf(format string, args ...interface{}) {
	Default().Error(fmt.Sprintf(format, args...))
}
