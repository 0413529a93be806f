package schemas

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLogger implements Logger with stdout/stderr zerolog writers.
// Components constructed with a nil Logger do not fall back to it; they
// skip logging.
type DefaultLogger struct {
	stdoutLogger zerolog.Logger
	stderrLogger zerolog.Logger
}

// LoggerOutputType selects the on-disk shape of log lines.
type LoggerOutputType string

const (
	LoggerOutputTypeJSON   LoggerOutputType = "json"
	LoggerOutputTypePretty LoggerOutputType = "pretty"
)

func toZerologLevel(l LogLevel) zerolog.Level {
	switch l {
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewDefaultLogger creates a DefaultLogger at the given level, writing JSON
// lines to stdout/stderr.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	zerolog.SetGlobalLevel(toZerologLevel(level))
	zerolog.DisableSampling(true)
	zerolog.TimeFieldFormat = time.RFC3339
	return &DefaultLogger{
		stdoutLogger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
		stderrLogger: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// WithComponent returns a logger that tags every line with a component name
// (e.g. "throttler", "signer", "gateway"), used by callers that want their
// log lines attributable without threading a string through every call.
func (l *DefaultLogger) WithComponent(component string) *DefaultLogger {
	return &DefaultLogger{
		stdoutLogger: l.stdoutLogger.With().Str("component", component).Logger(),
		stderrLogger: l.stderrLogger.With().Str("component", component).Logger(),
	}
}

func (l *DefaultLogger) Debug(msg string) { l.stdoutLogger.Debug().Msg(msg) }
func (l *DefaultLogger) Info(msg string)  { l.stdoutLogger.Info().Msg(msg) }
func (l *DefaultLogger) Warn(msg string)  { l.stdoutLogger.Warn().Msg(msg) }

func (l *DefaultLogger) Error(err error) {
	if err == nil {
		l.stderrLogger.Error().Msg("nil error")
		return
	}
	l.stderrLogger.Error().Msg(err.Error())
}

func (l *DefaultLogger) Fatal(msg string, err error) {
	if err == nil {
		l.stderrLogger.Fatal().Err(errors.New("nil error")).Msg(msg)
		return
	}
	l.stderrLogger.Fatal().Err(err).Msg(msg)
}

// SetLevel adjusts the global zerolog level.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

// SetOutputType switches between JSON and human-readable console output.
func (l *DefaultLogger) SetOutputType(outputType LoggerOutputType) {
	switch outputType {
	case LoggerOutputTypePretty:
		l.stdoutLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
		l.stderrLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	case LoggerOutputTypeJSON:
		l.stdoutLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		l.stderrLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		l.stderrLogger.Warn().Str("outputType", string(outputType)).Msg("unknown logger output type; defaulting to JSON")
		l.stdoutLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
