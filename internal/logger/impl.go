package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/go-utils/helpers"
	goulog "github.com/julianstephens/go-utils/logger"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// DefaultMaxAgeDays is how long rotated log files are kept.
const DefaultMaxAgeDays = 28

// ConsoleLogger writes one line per entry. Errors go to err, everything else to out.
// Report output is written to stdout by the CLI, so NewConsoleLogger sends all
// diagnostics to stderr.
type ConsoleLogger struct {
	minLevel Level
	out      io.Writer
	err      io.Writer
}

// NewConsoleLogger creates a logger writing to stderr at the given level.
// An unparseable level falls back to info.
func NewConsoleLogger(level string) Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = LevelInfo
	}
	return NewWriterLogger(lvl, os.Stderr, os.Stderr)
}

// NewWriterLogger creates a console-style logger over arbitrary writers.
func NewWriterLogger(level Level, out, errOut io.Writer) Logger {
	return &ConsoleLogger{
		minLevel: level,
		out:      out,
		err:      errOut,
	}
}

func (cl *ConsoleLogger) Debug(msg string, fields ...any) {
	if cl.minLevel <= LevelDebug {
		cl.log(LevelDebug, msg, fields...)
	}
}

func (cl *ConsoleLogger) Info(msg string, fields ...any) {
	if cl.minLevel <= LevelInfo {
		cl.log(LevelInfo, msg, fields...)
	}
}

func (cl *ConsoleLogger) Warn(msg string, fields ...any) {
	if cl.minLevel <= LevelWarn {
		cl.log(LevelWarn, msg, fields...)
	}
}

func (cl *ConsoleLogger) Error(msg string, err error, fields ...any) {
	allFields := append([]any{"error", err}, fields...)
	cl.log(LevelError, msg, allFields...)
}

func (cl *ConsoleLogger) log(level Level, msg string, fields ...any) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(time.Now().Format(timestampFormat))
	b.WriteString("] ")
	b.WriteString(strings.ToUpper(level.String()))
	b.WriteString(": ")
	b.WriteString(msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	b.WriteString("\n")

	w := cl.out
	if level == LevelError {
		w = cl.err
	}
	_, _ = io.WriteString(w, b.String())
}

// FileLogger writes JSON entries to a rotating file through go-utils/logger.
type FileLogger struct {
	underlying *goulog.Logger
	minLevel   Level
	filePath   string
}

// FileConfig configures NewFileLogger.
type FileConfig struct {
	Dir        string // created if missing
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int // 0 means DefaultMaxAgeDays
	Level      Level
}

// NewFileLogger creates a rotating file logger. Rotated files are compressed.
func NewFileLogger(cfg FileConfig) (Logger, error) {
	if err := helpers.Ensure(cfg.Dir, true); err != nil {
		return nil, wrapLoggerErr("create file logger", ErrLogCreate, err, cfg.Dir)
	}

	logPath := filepath.Join(cfg.Dir, cfg.FileName)
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = DefaultMaxAgeDays
	}
	underlying := goulog.New()
	if err := underlying.SetFileOutputWithConfig(goulog.FileRotationConfig{
		Filename:   logPath,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	}); err != nil {
		return nil, wrapLoggerErr("create file logger", ErrLogCreate, err, logPath)
	}

	return &FileLogger{
		underlying: underlying,
		minLevel:   cfg.Level,
		filePath:   logPath,
	}, nil
}

// Path returns the active log file.
func (fl *FileLogger) Path() string { return fl.filePath }

func (fl *FileLogger) Debug(msg string, fields ...any) {
	if fl.minLevel > LevelDebug {
		return
	}
	if len(fields) == 0 {
		fl.underlying.Debug(msg)
		return
	}
	fl.underlying.WithFields(fieldsToMap(fields)).Debug(msg)
}

func (fl *FileLogger) Info(msg string, fields ...any) {
	if fl.minLevel > LevelInfo {
		return
	}
	if len(fields) == 0 {
		fl.underlying.Info(msg)
		return
	}
	fl.underlying.WithFields(fieldsToMap(fields)).Info(msg)
}

func (fl *FileLogger) Warn(msg string, fields ...any) {
	if fl.minLevel > LevelWarn {
		return
	}
	if len(fields) == 0 {
		fl.underlying.Warn(msg)
		return
	}
	fl.underlying.WithFields(fieldsToMap(fields)).Warn(msg)
}

func (fl *FileLogger) Error(msg string, err error, fields ...any) {
	allFields := append([]any{"error", errString(err)}, fields...)
	fl.underlying.WithFields(fieldsToMap(allFields)).Error(msg)
}

// Close is a no-op; go-utils/logger does not expose its file handle.
func (fl *FileLogger) Close() error {
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func fieldsToMap(fields []any) map[string]any {
	result := make(map[string]any, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		result[fmt.Sprint(fields[i])] = fields[i+1]
	}
	return result
}

// MultiLogger fans every call out to each wrapped logger.
type MultiLogger struct {
	loggers []Logger
}

func NewMultiLogger(loggers ...Logger) Logger {
	return &MultiLogger{
		loggers: loggers,
	}
}

func (ml *MultiLogger) Debug(msg string, fields ...any) {
	for _, lg := range ml.loggers {
		lg.Debug(msg, fields...)
	}
}

func (ml *MultiLogger) Info(msg string, fields ...any) {
	for _, lg := range ml.loggers {
		lg.Info(msg, fields...)
	}
}

func (ml *MultiLogger) Warn(msg string, fields ...any) {
	for _, lg := range ml.loggers {
		lg.Warn(msg, fields...)
	}
}

func (ml *MultiLogger) Error(msg string, err error, fields ...any) {
	for _, lg := range ml.loggers {
		lg.Error(msg, err, fields...)
	}
}

// Close closes every Closeable logger and reports the last failure.
func (ml *MultiLogger) Close() error {
	var lastErr error
	for _, lg := range ml.loggers {
		if c, ok := lg.(Closeable); ok {
			if err := c.Close(); err != nil {
				lastErr = err
			}
		}
	}
	if lastErr == nil {
		return nil
	}
	return wrapLoggerErr("close multi logger", ErrLogClose, lastErr, "")
}
