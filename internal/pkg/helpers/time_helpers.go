package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a duration string, returns default duration on error.
// Negative values also fall back to the default.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		// global logger: callers may run before the configured logger exists
		log.Warn().Err(err).Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Failed to parse duration string, using default")
		return defaultDuration
	}
	if duration < 0 {
		log.Warn().Str("durationStr", durationStr).Dur("defaultDuration", defaultDuration).Msg("Negative duration, using default")
		return defaultDuration
	}
	return duration
}
