package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger routes the global logger either to a rotated JSON file or to a
// console writer on stderr. The dashboard owns stdout in both cases.
func InitLogger(debug bool, logFile string) {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if logFile != "" {
		if level > zerolog.InfoLevel {
			level = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = zerolog.New(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			LocalTime:  true,
		}).With().Timestamp().Logger()
		return
	}
	zerolog.SetGlobalLevel(level)
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.DateTime,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
