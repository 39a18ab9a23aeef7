package log

// MultiLogger fans each event out to several loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that forwards to all the given loggers.
// Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	filtered := make([]Logger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			filtered = append(filtered, l)
		}
	}
	return &MultiLogger{loggers: filtered}
}

// Log forwards the event to every logger in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
