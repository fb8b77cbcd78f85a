package logger

import (
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger and tags it with the service name
func Init(serviceName, level string, pretty bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	base := zlog.Logger
	if pretty {
		base = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	zlog.Logger = base.With().Str("service", serviceName).Logger()
	zerolog.DefaultContextLogger = &zlog.Logger
}
