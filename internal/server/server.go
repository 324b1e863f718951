package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows which path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Running is a started [http.Server].
type Running struct {
	srv    *http.Server
	addr   string
	errs   chan error
	logger *log.Logger
}

// Listen binds addr and serves h in the background. The listener is open when Listen
// returns, so the address can be handed to a browser immediately. Use port 0 to let
// the kernel pick one.
func Listen(addr string, h http.Handler, logger *log.Logger) (*Running, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	r := &Running{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr:   ln.Addr().String(),
		errs:   make(chan error, 1),
		logger: logger,
	}

	go func() {
		if err := r.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.errs <- err
		}
		close(r.errs)
	}()

	return r, nil
}

// Addr is the bound host:port.
func (r *Running) Addr() string { return r.addr }

// Err yields a serve error, if any, and is closed when the server stops.
func (r *Running) Err() <-chan error { return r.errs }

// Shutdown stops the server, waiting up to five seconds for open requests.
func (r *Running) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.srv.Shutdown(ctx); err != nil {
		if r.logger != nil {
			r.logger.Warn("error shutting down server", "addr", r.addr, "error", err)
		}
		return err
	}
	return nil
}
