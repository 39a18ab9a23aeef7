package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends CBOR-encoded events to a file. The conventional
// extension is .glog. Safe for concurrent use.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
	enc  *cbor.Encoder
}

// NewFileLogger creates a FileLogger appending to the given path.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileLogger{file: f, enc: cbor.NewEncoder(f)}, nil
}

// Log appends the event to the file. Encoding errors are dropped; protocol
// logging must never take down the node.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_ = l.enc.Encode(event)
}

// Close flushes and closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadEventFile decodes every event from a .glog file. Intended for test
// and analysis tooling, not for the hot path.
func ReadEventFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	var events []Event
	dec := cbor.NewDecoder(f)
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			break
		}
		events = append(events, ev)
	}
	return events, nil
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
