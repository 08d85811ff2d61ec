package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the process-wide zerolog logger.
//   - level: trace, debug, info, warn, error, fatal, panic (unknown values fall back to info)
//   - format: "pretty" for console output, anything else writes JSON lines
//
// Every line carries the application name so mail workers and the API can
// share one log stream.
func Setup(level, format, app string) zerolog.Logger {
	return New(os.Stdout, level, format, app)
}

// New is Setup with an explicit destination.
func New(out io.Writer, level, format, app string) zerolog.Logger {
	writer := out
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Str("app", app).
		Caller().
		Logger()
}
