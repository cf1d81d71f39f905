package logger

// Logger is the logging surface shared by every kvinspect package.
// Fields are passed as alternating key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)

	// Error always logs, regardless of the configured level.
	Error(msg string, err error, fields ...any)
}

// Closeable is implemented by loggers holding resources that must be released.
type Closeable interface {
	Close() error
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}

func (NoOpLogger) Info(string, ...any) {}

func (NoOpLogger) Warn(string, ...any) {}

func (NoOpLogger) Error(string, error, ...any) {}

var _ Logger = NoOpLogger{}

// OrNop returns lg, or a NoOpLogger when lg is nil.
func OrNop(lg Logger) Logger {
	if lg == nil {
		return NoOpLogger{}
	}
	return lg
}

// With returns a logger that prepends fields to every call.
func With(lg Logger, fields ...any) Logger {
	if len(fields) == 0 {
		return OrNop(lg)
	}
	return &fieldLogger{next: OrNop(lg), fields: fields}
}

type fieldLogger struct {
	next   Logger
	fields []any
}

func (fl *fieldLogger) merge(fields []any) []any {
	all := make([]any, 0, len(fl.fields)+len(fields))
	all = append(all, fl.fields...)
	return append(all, fields...)
}

func (fl *fieldLogger) Debug(msg string, fields ...any) {
	fl.next.Debug(msg, fl.merge(fields)...)
}

func (fl *fieldLogger) Info(msg string, fields ...any) {
	fl.next.Info(msg, fl.merge(fields)...)
}

func (fl *fieldLogger) Warn(msg string, fields ...any) {
	fl.next.Warn(msg, fl.merge(fields)...)
}

func (fl *fieldLogger) Error(msg string, err error, fields ...any) {
	fl.next.Error(msg, err, fl.merge(fields)...)
}

func (fl *fieldLogger) Close() error {
	if c, ok := fl.next.(Closeable); ok {
		return c.Close()
	}
	return nil
}
