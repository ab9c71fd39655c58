package components

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/maksimkurb/openwrt-monitor/src/internal/api"
	"github.com/maksimkurb/openwrt-monitor/src/internal/log"
	"github.com/maksimkurb/openwrt-monitor/src/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// APIServer serves the HTTP API and /metrics.
type APIServer struct {
	bindAddr string
	provider api.DependenciesProvider
	recorder *metrics.Recorder

	mu         sync.Mutex
	httpServer *http.Server
	addr       net.Addr
	running    bool
}

var _ Component = (*APIServer)(nil)

// NewAPIServer creates an API server component.
func NewAPIServer(bindAddr string, provider api.DependenciesProvider, recorder *metrics.Recorder) *APIServer {
	return &APIServer{
		bindAddr: bindAddr,
		provider: provider,
		recorder: recorder,
	}
}

func (a *APIServer) Name() string {
	return "API server"
}

// Start binds the listener and serves in the background.
// A bind failure is returned; later serve errors are logged.
func (a *APIServer) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("API server is already running")
	}

	ln, err := net.Listen("tcp", a.bindAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.bindAddr, err)
	}

	a.httpServer = &http.Server{
		Handler:      api.NewRouter(a.provider, a.recorder),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	a.addr = ln.Addr()

	srv := a.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("API server error: %v", err)
		}
	}()

	log.Infof("API server listening on http://%s (private networks only)", a.addr)
	a.running = true
	return nil
}

// Stop shuts the server down, waiting for in-flight requests.
func (a *APIServer) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.Errorf("Error shutting down API server: %v", err)
		a.httpServer.Close()
	}

	a.running = false
	log.Infof("API server stopped")
	return nil
}

// Addr returns the bound address, or nil when stopped.
func (a *APIServer) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	return a.addr
}

// IsRunning returns whether the API server is running
func (a *APIServer) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
