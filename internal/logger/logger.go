package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// LogLevel represents the severity of a log message.
// A logger set to INFO shows INFO, WARN, ERROR and SUCCESS but not DEBUG or TRACE.
type LogLevel int

const (
	TRACE   LogLevel = iota // every probe sent
	DEBUG                   // rule decisions
	INFO                    // scan progress
	WARN                    // per-target failures
	ERROR                   // failures that stop a component
	SUCCESS                 // findings
)

var levelNames = map[string]LogLevel{
	"trace":   TRACE,
	"debug":   DEBUG,
	"info":    INFO,
	"warn":    WARN,
	"warning": WARN,
	"error":   ERROR,
}

// ParseLevel maps a config string to a LogLevel. An empty string is INFO.
func ParseLevel(s string) (LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return INFO, nil
	}
	level, ok := levelNames[s]
	if !ok {
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Logger holds one stdlib logger per level and serialises writes.
type Logger struct {
	infoLogger    *log.Logger
	warnLogger    *log.Logger
	errorLogger   *log.Logger
	debugLogger   *log.Logger
	traceLogger   *log.Logger
	successLogger *log.Logger
	mu            sync.Mutex
	minLevel      LogLevel
}

// NewLogger creates a Logger writing to stdout, with WARN and ERROR on stderr.
func NewLogger(minLevel LogLevel) *Logger {
	return New(minLevel, os.Stdout, os.Stderr)
}

// New creates a Logger with explicit writers. errOut receives WARN and ERROR.
func New(minLevel LogLevel, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime
	return &Logger{
		infoLogger:    log.New(out, color.BlueString("[INFO] "), flags),
		warnLogger:    log.New(errOut, color.YellowString("[WARN] "), flags),
		errorLogger:   log.New(errOut, color.RedString("[ERROR] "), flags),
		debugLogger:   log.New(out, color.CyanString("[DEBUG] "), flags),
		traceLogger:   log.New(out, color.HiBlackString("[TRACE] "), flags),
		successLogger: log.New(out, color.GreenString("[SUCCESS] "), flags),
		minLevel:      minLevel,
	}
}

// Discard returns a Logger that drops everything. Handy in tests.
func Discard() *Logger {
	return New(SUCCESS+1, io.Discard, io.Discard)
}

func (l *Logger) log(level LogLevel, logger *log.Logger, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level >= l.minLevel {
		logger.Printf(format, v...)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.log(INFO, l.infoLogger, format, v...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(WARN, l.warnLogger, format, v...)
}

// Error logs an error message.
func (l *Logger) Error(format string, v ...interface{}) {
	l.log(ERROR, l.errorLogger, format, v...)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(DEBUG, l.debugLogger, format, v...)
}

// Trace logs a trace message.
func (l *Logger) Trace(format string, v ...interface{}) {
	l.log(TRACE, l.traceLogger, format, v...)
}

// Success logs a finding.
func (l *Logger) Success(format string, v ...interface{}) {
	l.log(SUCCESS, l.successLogger, format, v...)
}

// SetMinLevel sets the minimum logging level.
func (l *Logger) SetMinLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// MinLevel returns the current minimum logging level.
func (l *Logger) MinLevel() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.minLevel
}
