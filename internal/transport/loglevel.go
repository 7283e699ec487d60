package transport

import "github.com/pion/logging"

// LogLevel mirrors spec.md §6's set_dtls_logging_level enum.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	_ // reserved: the spec's enum skips a value between Error and Info
	LogLevelInfo
	LogLevelVerbose
)

func (l LogLevel) pionLevel() logging.LogLevel {
	switch l {
	case LogLevelNone:
		return logging.LogLevelDisabled
	case LogLevelError:
		return logging.LogLevelError
	case LogLevelInfo:
		return logging.LogLevelInfo
	case LogLevelVerbose:
		return logging.LogLevelTrace
	default:
		return logging.LogLevelDisabled
	}
}

// newLoggerFactory adapts a single LogLevel threshold into the
// pion/logging.LoggerFactory the DTLS engine expects, exactly the
// role conn.go's own `log logging.LeveledLogger` field plays.
func newLoggerFactory(level LogLevel) logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = level.pionLevel()
	return f
}
