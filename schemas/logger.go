// Package schemas defines the core types shared across the gateway: logging,
// error taxonomy, credentials, and the per-action/per-section configuration
// structs that the signer, throttler, cache, and gateway packages operate on.
package schemas

// LogLevel represents the severity level of a log message.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Logger defines the interface for logging operations used throughout the
// gateway. The throttler, cache, RedisStore, and gateway take a Logger at
// construction rather than importing a logging library directly; the
// signer and MemoryStore take none.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string)

	// Info logs an info-level message.
	Info(msg string)

	// Warn logs a warning-level message.
	Warn(msg string)

	// Error logs an error-level message.
	Error(err error)

	// Fatal logs a fatal-level message. Implementations may terminate the
	// process after logging.
	Fatal(msg string, err error)
}
