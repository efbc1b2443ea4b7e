package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute // conversions stream back large artifacts
	DefaultShutdownTimeout = 30 * time.Second
)

// Server wraps http.Server with signal driven graceful shutdown.
type Server struct {
	*http.Server

	signalChan chan os.Signal
	onShutdown []func()
}

// NewServer creates a Server with timeouts and handler.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *Server {
	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      writeTimeout,
		},
		signalChan: make(chan os.Signal, 1),
	}
}

// OnShutdown registers fn to run after the HTTP server has drained.
func (srv *Server) OnShutdown(fn func()) {
	srv.onShutdown = append(srv.onShutdown, fn)
}

// ListenAndServe serves until SIGINT or SIGTERM, then drains in-flight
// requests for up to DefaultShutdownTimeout.
func (srv *Server) ListenAndServe() error {
	signal.Notify(srv.signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(srv.signalChan)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		srv.runHooks()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-srv.signalChan:
		Sugar.Infof("received %s, graceful shutting down HTTP server", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	if err != nil {
		Sugar.Errorf("HTTP server shutdown error: %v", err)
	} else {
		Sugar.Info("HTTP server shutdown success")
	}
	srv.runHooks()
	return err
}

func (srv *Server) runHooks() {
	for _, fn := range srv.onShutdown {
		fn()
	}
}

// GraceServer starts an HTTP server with graceful shutdown.
func GraceServer(addr string, handler http.Handler, onShutdown ...func()) error {
	srv := NewServer(addr, handler, DefaultReadTimeout, DefaultWriteTimeout)
	for _, fn := range onShutdown {
		srv.OnShutdown(fn)
	}
	return srv.ListenAndServe()
}
