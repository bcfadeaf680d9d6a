// Logging

package nano

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("NANO_LOG_DEBUG") == "YES" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// LogInfo logs an informational line.
func LogInfo(msg string) {
	log.Info().Msg(msg)
}

// LogWarning logs a recoverable problem; the caller drops the offending
// message and continues.
func LogWarning(msg string) {
	log.Warn().Msg(msg)
}

// LogError logs err with its wrapped stack, if any.
func LogError(err error) {
	log.Error().Err(err).Msg("error")
}

// LogDebug logs a line only visible with NANO_LOG_DEBUG=YES.
func LogDebug(msg string) {
	log.Debug().Msg(msg)
}

// LogChannel logs a line tagged with a channel id and class.
func LogChannel(channelID uint16, class ChannelClass, msg string) {
	log.Debug().Uint16("channel_id", channelID).Str("class", string(class)).Msg(msg)
}

// LogChannelWarning is the warning-level counterpart of LogChannel, used
// when dispatch receives a streamer type/class combination it can't parse.
func LogChannelWarning(channelID uint16, class ChannelClass, msg string) {
	log.Warn().Uint16("channel_id", channelID).Str("class", string(class)).Msg(msg)
}
