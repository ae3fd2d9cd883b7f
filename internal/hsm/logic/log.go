package logic

import (
	"github.com/andrei-cloud/go_dukpt/internal/logging"
	"github.com/rs/zerolog/log"
)

func logInfo(msg string) {
	log.Info().Str("component", "logic").Msg(msg)
}

func logDebug(msg string) {
	log.Debug().Str("component", "logic").Msg(msg)
}

func logError(msg string, err error) {
	log.Error().Str("component", "logic").Err(err).Msg(msg)
}

func logData(label string, data []byte) {
	log.Debug().Str("component", "logic").Str("data", logging.FormatData(data)).Msg(label)
}
