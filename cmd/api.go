package cmd

import (
	"context"
	"fmt"
	"net"
	"signals-service/internal/delivery/http"

	"go.uber.org/zap"
)

type HTTPServer struct {
	ctx     context.Context
	appDep  *AppDependency
	handler *http.HttpAPIHandler
}

func NewHTTPServer(ctx context.Context, appDep *AppDependency, handler *http.HttpAPIHandler) *HTTPServer {
	return &HTTPServer{
		ctx:     ctx,
		appDep:  appDep,
		handler: handler,
	}
}

// Listen binds the configured address so a busy port fails startup
// before anything else runs.
func (s *HTTPServer) Listen() error {
	address := fmt.Sprintf("%s:%d", s.appDep.cfg.API.Host, s.appDep.cfg.API.Port)
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", address, err)
	}
	s.appDep.echo.Listener = ln
	s.SetupRoutes()
	s.appDep.log.Info("HTTP server listening", zap.String("address", ln.Addr().String()))
	return nil
}

// Addr is the bound address, valid after Listen.
func (s *HTTPServer) Addr() string {
	if s.appDep.echo.Listener == nil {
		return ""
	}
	return s.appDep.echo.Listener.Addr().String()
}

// Serve blocks until the server stops. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *HTTPServer) Serve() error {
	if s.appDep.echo.Listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.appDep.echo.Start("")
}

func (s *HTTPServer) Stop() error {
	s.appDep.log.Info("Shutting down HTTP server")

	timeout := s.appDep.cfg.API.ShutdownTimeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.appDep.echo.Shutdown(ctx); err != nil {
		s.appDep.log.Error("Error When Stop HTTP server", zap.Error(err))
		return err
	}
	s.appDep.log.Info("HTTP server stopped successfully")
	return nil
}

func (s *HTTPServer) SetupRoutes() {
	s.handler.SetupRoutes()
}
