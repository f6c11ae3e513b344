package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	fileOnce sync.Once
	fileSink *fileLogger
)

// fileLogger appends formatted lines to attune-debug.log under the user home.
type fileLogger struct {
	mu        sync.Mutex
	out       *log.Logger
	file      *os.File
	level     Level
	component string
}

func sharedFileSink() *fileLogger {
	fileOnce.Do(func() {
		fileSink = &fileLogger{level: LevelDebug}
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		path := filepath.Join(home, "attune-debug.log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return
		}
		fileSink.file = f
		fileSink.out = log.New(f, "", 0)
	})
	return fileSink
}

// NewComponentLogger returns a file-backed logger scoped to a component.
// If the log file cannot be opened the logger silently discards output.
func NewComponentLogger(component string) Logger {
	base := sharedFileSink()
	return &fileLogger{
		out:       base.out,
		file:      base.file,
		level:     base.level,
		component: component,
	}
}

// SetGlobalLevel adjusts the minimum level for all component loggers created
// after (and sharing the sink with) this call.
func SetGlobalLevel(level Level) {
	sink := sharedFileSink()
	sink.mu.Lock()
	sink.level = level
	sink.mu.Unlock()
}

func (l *fileLogger) log(level Level, format string, args ...any) {
	if l.out == nil || level < l.level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	if ok {
		file = filepath.Base(file)
	} else {
		file = "???"
		line = 0
	}

	component := l.component
	if component == "" {
		component = "ATTUNE"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Printf("%s [%s] [%s] %s:%d - %s",
		time.Now().Format("2006-01-02 15:04:05"),
		level, component, file, line,
		fmt.Sprintf(format, args...))
}

func (l *fileLogger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *fileLogger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *fileLogger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *fileLogger) Error(format string, args ...any) { l.log(LevelError, format, args...) }
