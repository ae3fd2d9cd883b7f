// Package server exposes the host command set over TCP.
package server

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	anetserver "github.com/andrei-cloud/anet/server"
	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/hsm/logic"
	"github.com/andrei-cloud/go_dukpt/internal/logging"
	"github.com/andrei-cloud/go_dukpt/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// logAdapter implements anet.Logger using zerolog.
type logAdapter struct{}

func (l logAdapter) Print(v ...any) {
	log.Info().Msg(fmt.Sprint(v...))
}

func (l logAdapter) Printf(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Infof(format string, v ...any) {
	log.Info().Msgf(format, v...)
}

func (l logAdapter) Warnf(format string, v ...any) {
	log.Warn().Msgf(format, v...)
}

func (l logAdapter) Errorf(format string, v ...any) {
	log.Error().Msgf(format, v...)
}

// Server wraps the anet TCP server and the command registry.
type Server struct {
	address     string
	srv         *anetserver.Server
	registry    *logic.Registry
	metrics     *metrics.Metrics
	activeRequests int32
}

// NewServer configures the server. m may be nil.
func NewServer(address string, registry *logic.Registry, m *metrics.Metrics) (*Server, error) {
	cfg := &anetserver.ServerConfig{
		MaxConns:        100,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     0 * time.Second, // keep idle connections open.
		ShutdownTimeout: 5 * time.Second,
		Logger:          logAdapter{},
	}

	s := &Server{
		address:  address,
		registry: registry,
		metrics:  m,
	}
	srv, err := anetserver.NewServer(address, anetserver.HandlerFunc(s.handle), cfg)
	if err != nil {
		return nil, fmt.Errorf("server setup failed: %w", err)
	}
	s.srv = srv

	return s, nil
}

// Start begins listening for connections.
func (s *Server) Start() error {
	log.Info().Str("address", s.address).Msg("server started")

	return s.srv.Start()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	return s.srv.Stop()
}

// incrementCode returns the response code for cmd by incrementing its second character.
func incrementCode(cmd string) string {
	b := []byte(cmd)
	if len(b) < 2 {
		return cmd
	}
	if b[1] == 'Z' {
		b[1] = 'A'
	} else {
		b[1]++
	}

	return string(b)
}

// errorResponse builds "<response code><error code>".
func errorResponse(cmd, code string) []byte {
	return []byte(incrementCode(cmd) + code)
}

func (s *Server) handle(conn *anetserver.ServerConn, data []byte) ([]byte, error) {
	client := conn.Conn.RemoteAddr().String()
	active := int(atomic.AddInt32(&s.activeRequests, 1))
	defer atomic.AddInt32(&s.activeRequests, -1)
	if s.metrics != nil {
		s.metrics.RequestStarted()
		defer s.metrics.RequestFinished()
	}

	if len(data) < 2 {
		log.Error().Str("client_ip", client).Msg("malformed request")

		return nil, errors.New("malformed request")
	}

	requestID := uuid.NewString()
	start := time.Now()
	cmd := string(data[:2])

	description := "unknown"
	if c, ok := s.registry.Lookup(cmd); ok {
		description = c.Description
	}
	logging.LogRequest(requestID, client, cmd, description, active)
	log.Debug().
		Str("request_id", requestID).
		Str("request", logging.FormatData(data)).
		Msg("request payload")

	resp, execErr := s.registry.Execute(cmd, data[2:])

	result := metrics.ResultOK
	switch {
	case errors.Is(execErr, logic.ErrUnknownCommand):
		result = metrics.ResultUnknown
		resp = errorResponse(cmd, errorcodes.Err68.Code)
		log.Warn().
			Str("event", "unknown_command").
			Str("request_id", requestID).
			Str("client_ip", client).
			Str("command", cmd).
			Msg("command not recognized, responding with error code")
	case execErr != nil:
		result = metrics.ResultError
		code := errorcodes.CodeOf(execErr)
		resp = errorResponse(cmd, code)
		log.Error().
			Str("event", "command_error").
			Str("request_id", requestID).
			Str("client_ip", client).
			Str("command", cmd).
			Str("error_code", code).
			Err(execErr).
			Msg("command failed")
	}

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveCommand(cmd, result, elapsed)
	}

	respCode := ""
	errCode := ""
	if len(resp) >= 4 {
		respCode, errCode = string(resp[:2]), string(resp[2:4])
	}
	logging.LogResponse(requestID, client, cmd, respCode, errCode, elapsed, active)

	return resp, nil
}
