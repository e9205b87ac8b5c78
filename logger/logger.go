package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger carrying component fields
type Logger struct {
	zl zerolog.Logger
}

var (
	mu       sync.RWMutex
	root     *Logger
	initOnce sync.Once
)

// Init sets up the process logger from LOG_LEVEL and WEIBO_ENVIRONMENT.
// Production runs emit JSON lines on stderr, everything else goes
// through a console writer.
func Init() {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if os.Getenv("WEIBO_ENVIRONMENT") == "production" {
		out = os.Stderr
	}
	InitWithWriter(out)
}

// InitWithWriter replaces the process logger with one writing to w
func InitWithWriter(w io.Writer) {
	level := getLogLevel()
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	l := &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
	mu.Lock()
	root = l
	mu.Unlock()

	l.Debug().Str("level", level.String()).Msg("Logger initialized")
}

// Get returns the process logger, initialising it on first use
func Get() *Logger {
	mu.RLock()
	l := root
	mu.RUnlock()
	if l != nil {
		return l
	}
	initOnce.Do(Init)
	mu.RLock()
	defer mu.RUnlock()
	return root
}

func getLogLevel() zerolog.Level {
	name := os.Getenv("LOG_LEVEL")
	if name == "" {
		if os.Getenv("WEIBO_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// With returns a child logger carrying the given key/value pairs
func (l *Logger) With(kv ...string) *Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = ctx.Str(kv[i], kv[i+1])
	}
	return &Logger{zl: ctx.Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// Info logs a formatted message on the process logger
func Info(format string, v ...any) {
	Get().Info().Msgf(format, v...)
}

// Warn logs a formatted warning on the process logger
func Warn(format string, v ...any) {
	Get().Warn().Msgf(format, v...)
}

// LogError logs err under component with a formatted message
func LogError(component string, err error, format string, v ...any) {
	Get().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

func component(name string, kv ...string) *Logger {
	return Get().With(append([]string{"component", name}, kv...)...)
}

// ForKeyword scopes worker output to one search keyword
func ForKeyword(keyword string) *Logger { return component("worker", "keyword", keyword) }

func ForWorker() *Logger  { return component("worker") }
func ForFetcher() *Logger { return component("fetcher") }
func ForCache() *Logger   { return component("cache") }

// ForSink scopes output to the named result sink
func ForSink(name string) *Logger { return component("sink", "sink", name) }
