package log

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tevino/abool"
)

// concept
/*
- Logging function:
  - check if level is active
  - before Start(): write warnings and up straight to stderr, drop the rest
  - send data to backend via big buffered channel
- Backend:
  - wait until there are logs to write
  - collapse identical consecutive lines
  - write to the configured file (stderr by default, stdout stays free for data)
- Channel overbuffering protection:
  - if buffer is full, trigger write
*/

// Severity describes a log level.
type Severity uint32

func (s Severity) toSLogLevel() slog.Level {
	switch s {
	case TraceLevel, DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarningLevel:
		return slog.LevelWarn
	case ErrorLevel, CriticalLevel:
		return slog.LevelError
	}
	// Failed to convert, return default log level
	return slog.LevelWarn
}

// Message describes a log level message and is implemented
// by logLine.
type Message interface {
	Text() string
	Severity() Severity
	Time() time.Time
	File() string
	LineNumber() int
}

type logLine struct {
	msg       string
	level     Severity
	timestamp time.Time
	file      string
	line      int
}

func (ll *logLine) Text() string {
	return ll.msg
}

func (ll *logLine) Severity() Severity {
	return ll.level
}

func (ll *logLine) Time() time.Time {
	return ll.timestamp
}

func (ll *logLine) File() string {
	return ll.file
}

func (ll *logLine) LineNumber() int {
	return ll.line
}

func (ll *logLine) Equal(ol *logLine) bool {
	return ll.msg == ol.msg &&
		ll.file == ol.file &&
		ll.line == ol.line &&
		ll.level == ol.level
}

// Log Levels.
const (
	TraceLevel    Severity = 1
	DebugLevel    Severity = 2
	InfoLevel     Severity = 3
	WarningLevel  Severity = 4
	ErrorLevel    Severity = 5
	CriticalLevel Severity = 6
)

var (
	logBuffer             chan *logLine
	forceEmptyingOfBuffer = make(chan struct{})

	logLevel atomic.Uint32

	logsWaiting     = make(chan struct{}, 1)
	logsWaitingFlag = abool.NewBool(false)

	shutdownFlag      = abool.NewBool(false)
	shutdownSignal    = make(chan struct{})
	shutdownWaitGroup sync.WaitGroup

	initializing = abool.NewBool(false)
	started      = abool.NewBool(false)
)

func init() {
	logLevel.Store(uint32(InfoLevel))
}

// GetLogLevel returns the current log level.
func GetLogLevel() Severity {
	return Severity(logLevel.Load())
}

// SetLogLevel sets a new log level.
func SetLogLevel(level Severity) {
	logLevel.Store(uint32(level))

	if started.IsSet() {
		setupSLog(level)
	}
}

// Name returns the name of the log level.
func (s Severity) Name() string {
	switch s {
	case TraceLevel:
		return "trace"
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarningLevel:
		return "warning"
	case ErrorLevel:
		return "error"
	case CriticalLevel:
		return "critical"
	default:
		return "none"
	}
}

// ParseLevel returns the level severity of a log level name.
func ParseLevel(level string) Severity {
	switch strings.ToLower(level) {
	case "trace":
		return TraceLevel
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warning", "warn":
		return WarningLevel
	case "error":
		return ErrorLevel
	case "critical":
		return CriticalLevel
	}
	return 0
}

// Start starts the logging system and writes to out, or stderr if out is
// nil. Must be called in order to see logs below warning level.
func Start(level string, out *os.File) error {
	if !initializing.SetToIf(false, true) {
		return nil
	}

	// Parse log level argument.
	initialLogLevel := InfoLevel
	if level != "" {
		initialLogLevel = ParseLevel(level)
		if initialLogLevel == 0 {
			fmt.Fprintf(os.Stderr, "log warning: invalid log level %q, falling back to level info\n", level)
			initialLogLevel = InfoLevel
		}
	}

	// Setup writer.
	if out == nil {
		out = os.Stderr
	}
	GlobalWriter = NewWriter(out)

	// Init logging systems.
	logBuffer = make(chan *logLine, 1024)
	started.Set()
	SetLogLevel(initialLogLevel)

	startWriter()
	return nil
}

// Shutdown writes remaining log lines and then stops the log system.
func Shutdown() {
	if !started.IsSet() {
		return
	}
	if shutdownFlag.SetToIf(false, true) {
		close(shutdownSignal)
	}
	shutdownWaitGroup.Wait()
}
