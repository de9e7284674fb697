package core

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// LogLevelFromEnv maps the value of DEBUG_THERMAL to a zerolog level.
// "off" or "0" disables logging, "full" enables debug output, anything else means info.
func LogLevelFromEnv(value string) zerolog.Level {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "off", "0":
		return zerolog.Disabled
	case "full":
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// init initializes the logging configuration for the application based on the DEBUG_THERMAL environment variable.
func init() {
	zerolog.SetGlobalLevel(LogLevelFromEnv(os.Getenv("DEBUG_THERMAL")))
}
