package log

import (
	"log/slog"

	"github.com/lmittmann/tint"
)

// setupSLog routes the default slog logger, used by the worker manager, to
// the global writer.
func setupSLog(level Severity) {
	handlerLogLevel := level.toSLogLevel()

	logHandler := tint.NewHandler(GlobalWriter, &tint.Options{
		AddSource:  true,
		Level:      handlerLogLevel,
		TimeFormat: timeFormat,
		NoColor:    !GlobalWriter.IsTerminal(),
	})

	// Set as default logger.
	slog.SetDefault(slog.New(logHandler))
	// Set actual log level.
	slog.SetLogLoggerLevel(handlerLogLevel)
}
