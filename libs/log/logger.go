package log

import (
	"fmt"
	"io"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// LogFormatPlain defines a logging format used for human-readable text-based
	// logging that is not structured. Typically, this format is used for development
	// and testing purposes.
	LogFormatPlain string = "plain"

	// LogFormatText defines a logging format used for human-readable text-based
	// logging that is not structured. Typically, this format is used for development
	// and testing purposes.
	LogFormatText string = "text"

	// LogFormatJSON defines a logging format for structured JSON-based logging
	// that is typically used in production environments, which can be sent to
	// logging facilities that support complex log parsing and querying.
	LogFormatJSON string = "json"

	// Supported loging levels
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Logger defines a generic logging interface compatible with the logger the
// host chain expects from its applications.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	With(keyvals ...interface{}) Logger
}

// Hexadecimal is intended to convert a []byte
// type to a value that is hexadecimal (uppercase).
type Hexadecimal struct {
	b []byte
}

// NewHexadecimal wraps b for lazy hex rendering in log fields.
func NewHexadecimal(b []byte) Hexadecimal {
	return Hexadecimal{b: b}
}

// String fulfills the Stringer interface within the
// fmt package.
func (s Hexadecimal) String() string {
	return fmt.Sprintf("%X", s.b)
}

// NewSyncWriter returns a new writer that is safe for concurrent use by
// multiple goroutines. Writes to the returned writer are passed on to w. If
// another write is already in progress, the calling goroutine blocks until
// the writer is available.
func NewSyncWriter(w io.Writer) io.Writer {
	return kitlog.NewSyncWriter(w)
}
