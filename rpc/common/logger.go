package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/rs/zerolog"
)

// LoggerNames are the named loggers of dTodo, see logger.GetLogger in each package.
var LoggerNames = []string{"registry", "worker", "store", "rpc", "transport/rpc", "client"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// zeroLogger implements the ILogger interface on top of zerolog
type zeroLogger struct {
	mu    sync.RWMutex
	level logger.LogLevel
	zl    zerolog.Logger
}

func (l *zeroLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *zeroLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

func (l *zeroLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.zl.Debug().Msgf(format, args...)
	}
}

func (l *zeroLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.zl.Info().Msgf(format, args...)
	}
}

func (l *zeroLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.zl.Warn().Msgf(format, args...)
	}
}

func (l *zeroLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.zl.Error().Msgf(format, args...)
	}
}

func (l *zeroLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.zl.Error().Msg(msg)
	panic(msg)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// NewLoggerFactory returns a logger.Factory writing human readable lines to w.
func NewLoggerFactory(w io.Writer) logger.Factory {
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return func(pkgName string) logger.ILogger {
		return &zeroLogger{
			level: logger.INFO,
			zl:    zerolog.New(console).With().Timestamp().Str("pkg", pkgName).Logger(),
		}
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q. must be one of debug, info, warn, error", level)
	}
}

// SetLogLevel applies level to all dTodo loggers. It can be called at any time.
func SetLogLevel(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

var initLoggers sync.Once

// InitLoggers installs the zerolog backed logger factory (once per process) and
// applies the configured level.
func InitLoggers(config ServerConfig) error {
	initLoggers.Do(func() {
		logger.SetLoggerFactory(NewLoggerFactory(os.Stdout))
	})
	return SetLogLevel(config.LogLevel)
}
