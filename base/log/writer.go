package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// GlobalWriter is the global log writer.
var GlobalWriter *LogWriter

// LogWriter writes formatted log lines and slog records to a file.
type LogWriter struct {
	writeLock  sync.Mutex
	file       *os.File
	isTerminal bool
}

// NewWriter creates a new log writer that writes to file. Colors are used
// when file is a terminal.
func NewWriter(file *os.File) *LogWriter {
	fd := file.Fd()
	return &LogWriter{
		file:       file,
		isTerminal: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// Write writes the buffer to the writer.
func (l *LogWriter) Write(buf []byte) (int, error) {
	if l == nil {
		return 0, fmt.Errorf("log writer not initialized")
	}
	l.writeLock.Lock()
	defer l.writeLock.Unlock()

	return l.file.Write(buf)
}

// WriteMessage writes the message to the writer.
func (l *LogWriter) WriteMessage(msg Message, duplicates uint64) {
	if l == nil {
		return
	}
	line, ok := msg.(*logLine)
	if !ok {
		return
	}
	l.writeLock.Lock()
	defer l.writeLock.Unlock()

	fmt.Fprintln(l.file, formatLine(line, duplicates, l.isTerminal))
}

// IsTerminal returns true if the writer writes to a terminal.
func (l *LogWriter) IsTerminal() bool {
	return l != nil && l.isTerminal
}
