package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/dakhnod/fpc2534-gateway/internal/coordinator"
	"github.com/dakhnod/fpc2534-gateway/internal/logging"
)

// shutdownTimeout bounds how long Shutdown waits for in-flight requests
// (including long-lived WebSocket connections) to drain.
const shutdownTimeout = 10 * time.Second

// Config holds the HTTP server's own configuration, independent of the
// coordinator it serves.
type Config struct {
	Addr string
}

// Server is the gateway's HTTP/WebSocket frontend.
type Server struct {
	config Config
	coord  *coordinator.Coordinator
	http   *http.Server
}

// New builds a Server that dispatches every route against coord.
func New(config Config, coord *coordinator.Coordinator) *Server {
	s := &Server{
		config: config,
		coord:  coord,
	}

	router := mux.NewRouter()
	s.registerRoutes(router)

	s.http = &http.Server{
		Addr:    config.Addr,
		Handler: loggingMiddleware(router),
	}

	return s
}

// loggingMiddleware logs every request/response pair the way the teacher's
// HTTP helpers logged device upgrade requests, adapted to a REST surface.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, headers)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.LogHTTPResponse(r.RemoteAddr, rec.status, nil)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack passes through to the wrapped writer so the /sensor/identify
// WebSocket upgrade works behind loggingMiddleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("server: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Start listens and blocks until a shutdown signal arrives or the listener
// fails, then shuts down gracefully.
func (s *Server) Start() error {
	logging.Info("starting HTTP server", zap.String("addr", s.config.Addr))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logging.Info("shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return fmt.Errorf("server: listen: %w", err)
	}
}

// Shutdown gracefully stops accepting new connections and waits for
// in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		logging.Warn("shutdown did not complete cleanly", zap.Error(err))
		return err
	}
	logging.Info("server stopped")
	logging.Sync()
	return nil
}
