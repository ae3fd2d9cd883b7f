// Package logging configures the global zerolog logger and provides the
// structured request/response events emitted by the host server.
package logging

import (
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxLoggedBytes caps the payload dumped by FormatData.
const maxLoggedBytes = 64

// InitLogger initializes the zerolog logger with the specified debug mode and output format.
func InitLogger(debug, human bool) {
	InitLoggerWithWriter(os.Stdout, debug, human)
}

// InitLoggerWithWriter is InitLogger writing to w.
func InitLoggerWithWriter(w io.Writer, debug, human bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(w).With().Timestamp().Logger()
	if human {
		log.Logger = base.Output(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339Nano,
		})
	} else {
		log.Logger = base
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// IsDebug reports whether a configured level string enables debug output.
func IsDebug(level string) bool {
	return strings.EqualFold(level, "debug")
}

// IsHuman reports whether a configured format string selects console output.
func IsHuman(format string) bool {
	return !strings.EqualFold(format, "json")
}

// FormatData renders a payload for debug logs: printable ASCII as is,
// anything else as hex. Output is truncated after maxLoggedBytes.
func FormatData(data []byte) string {
	suffix := ""
	if len(data) > maxLoggedBytes {
		data, suffix = data[:maxLoggedBytes], "..."
	}
	for _, b := range data {
		if b < 0x20 || b > 0x7E {
			return strings.ToUpper(hex.EncodeToString(data)) + suffix
		}
	}

	return string(data) + suffix
}

// LogRequest logs a received command with structured fields.
func LogRequest(
	requestID string,
	clientIP string,
	command string,
	description string,
	activeRequests int,
) {
	log.Info().
		Str("event", "request_received").
		Str("request_id", requestID).
		Str("client_ip", clientIP).
		Str("command", command).
		Str("description", description).
		Int("active_requests", activeRequests).
		Msg("received command")
}

// LogResponse logs a sent response with structured fields.
func LogResponse(
	requestID string,
	clientIP string,
	command string,
	responseCommand string,
	errorCode string,
	duration time.Duration,
	activeRequests int,
) {
	log.Info().
		Str("event", "response_sent").
		Str("request_id", requestID).
		Str("client_ip", clientIP).
		Str("command", command).
		Str("response_command", responseCommand).
		Str("error_code", errorCode).
		Dur("duration", duration).
		Int("active_requests", activeRequests).
		Msg("sent response")
}
