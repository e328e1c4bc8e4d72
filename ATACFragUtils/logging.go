package atacfragutils

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var logger *zerolog.Logger

func init() {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger = &l
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

/*InitLogger configure the global logger.
human selects the console writer; it is also selected when stderr is a terminal */
func InitLogger(debug, human bool) {
	level := zerolog.InfoLevel

	if debug {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stderr

	if human || isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		output = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(output).With().Timestamp().Logger()
	logger = &l
}

/*L return the base logger */
func L() *zerolog.Logger {
	return logger
}

/*WithPhase return a logger tagged with the processing phase */
func WithPhase(phase string) zerolog.Logger {
	return logger.With().Str("phase", phase).Logger()
}

/*SetLogger override the global logger (tests) */
func SetLogger(l zerolog.Logger) {
	logger = &l
}

/*RowLogger return a sampled logger for per line diagnostics: the first burst
messages of every period go through, the rest are dropped */
func RowLogger(base zerolog.Logger, burst uint32) zerolog.Logger {
	return base.Sample(&zerolog.BurstSampler{Burst: burst, Period: time.Second})
}
