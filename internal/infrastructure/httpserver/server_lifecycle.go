package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Start serves until Shutdown is called. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.LogMetricsInitialization()

	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	useTLS := s.config.TLSCertFile != "" && s.config.TLSKeyFile != ""
	s.logStart(addr, useTLS)

	var err error
	if useTLS {
		s.applyTimeouts(s.echo.TLSServer)
		err = s.echo.StartTLS(addr, s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		s.applyTimeouts(s.echo.Server)
		s.echo.Server.Addr = addr
		err = s.echo.StartServer(s.echo.Server)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Draining in-flight requests")
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) applyTimeouts(srv *http.Server) {
	srv.ReadTimeout = s.config.ReadTimeout
	srv.WriteTimeout = s.config.WriteTimeout
	srv.IdleTimeout = s.config.IdleTimeout
}

func (s *Server) logStart(addr string, useTLS bool) {
	if s.logger == nil {
		return
	}
	entry := s.logger.WithFields(logrus.Fields{"addr": addr, "tls": useTLS})
	if useTLS {
		entry.Info("Starting HTTPS server")
		return
	}
	entry.Warn("Starting HTTP server without TLS")
}
