package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the console logger the command-line driver shares with the
// examples. Output goes to stderr so emitted artifacts can stream to
// stdout; verbose lowers the level to debug, which carries the library's
// V(1) detail.
func New(verbose bool) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &logger
}
