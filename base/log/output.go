package log

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"
)

func startWriter() {
	shutdownWaitGroup.Add(1)
	go writerManager()
}

func writerManager() {
	defer shutdownWaitGroup.Done()

	for {
		err := writer()
		if err != nil {
			Errorf("log: writer failed: %s", err)
		} else {
			return
		}
	}
}

// defer should be able to edit the err. So naked return is required.
// nolint:golint,nakedret
func writer() (err error) {
	defer func() {
		// recover from panic
		panicVal := recover()
		if panicVal != nil {
			err = fmt.Errorf("%s", panicVal)

			// write stack to stderr
			fmt.Fprintf(
				os.Stderr,
				`===== Error Report =====
Message: %s
StackTrace:

%s
===== End of Report =====
`,
				err,
				string(debug.Stack()),
			)
		}
	}()

	var currentLine *logLine
	var duplicates uint64

	for {
		// reset
		currentLine = nil
		duplicates = 0

		// wait until logs need to be processed
		select {
		case <-logsWaiting: // normal process
			logsWaitingFlag.UnSet()
		case <-forceEmptyingOfBuffer: // log buffer is full!
		case <-shutdownSignal: // shutting down
			finalizeWriting()
			return
		}

		// write all the logs!
	writeLoop:
		for {
			select {
			case nextLine := <-logBuffer:
				if currentLine == nil {
					currentLine = nextLine
					continue writeLoop
				}

				// collapse equal lines into a counter
				if nextLine.Equal(currentLine) {
					duplicates++
					continue writeLoop
				}

				GlobalWriter.WriteMessage(currentLine, duplicates)
				duplicates = 0
				currentLine = nextLine
			default:
				break writeLoop
			}
		}

		// write final line
		if currentLine != nil {
			GlobalWriter.WriteMessage(currentLine, duplicates)
		}

		// back down a little
		select {
		case <-time.After(10 * time.Millisecond):
		case <-shutdownSignal:
			finalizeWriting()
			return
		}
	}
}

func finalizeWriting() {
	for {
		select {
		case line := <-logBuffer:
			GlobalWriter.WriteMessage(line, 0)
		default:
			return
		}
	}
}
