// Package server composes the HTTP API, its stores, and the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	authapi "github.com/teamsplit/teamsplit/internal/services/auth/api"
	authsqlite "github.com/teamsplit/teamsplit/internal/services/auth/storage/sqlite"
	"github.com/teamsplit/teamsplit/internal/services/auth/token"
	eventapi "github.com/teamsplit/teamsplit/internal/services/event/api"
	eventsqlite "github.com/teamsplit/teamsplit/internal/services/event/storage/sqlite"
	rosterapi "github.com/teamsplit/teamsplit/internal/services/roster/api"
	rostersqlite "github.com/teamsplit/teamsplit/internal/services/roster/storage/sqlite"
)

// Options configures a Server.
type Options struct {
	// Addr is the TCP address the HTTP server listens on.
	Addr string
	// DBPath is the SQLite file shared by every store.
	DBPath string
	// TokenSecret signs access tokens.
	TokenSecret string
}

// Server hosts the HTTP API and owns its stores.
type Server struct {
	listener    net.Listener
	httpServer  *http.Server
	authStore   *authsqlite.Store
	rosterStore *rostersqlite.Store
	eventStore  *eventsqlite.Store
}

// New builds a configured server listening on opts.Addr.
func New(opts Options) (*Server, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	path := strings.TrimSpace(opts.DBPath)
	if path == "" {
		path = filepath.Join("data", "teamsplit.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	signer, err := token.NewSigner(opts.TokenSecret, nil)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.Addr, err)
	}

	authStore, err := authsqlite.Open(path)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("open auth store: %w", err)
	}
	rosterStore, err := rostersqlite.Open(path)
	if err != nil {
		_ = listener.Close()
		_ = authStore.Close()
		return nil, fmt.Errorf("open roster store: %w", err)
	}
	eventStore, err := eventsqlite.Open(path)
	if err != nil {
		_ = listener.Close()
		_ = authStore.Close()
		_ = rosterStore.Close()
		return nil, fmt.Errorf("open event store: %w", err)
	}

	authService := authapi.NewService(authStore, signer)
	mux := http.NewServeMux()
	authapi.RegisterRoutes(mux, authService)
	rosterapi.RegisterRoutes(mux, rosterapi.NewService(rosterStore))
	eventapi.RegisterRoutes(mux, eventapi.NewService(eventStore, rosterStore))

	return &Server{
		listener:    listener,
		httpServer:  &http.Server{Handler: authService.Authenticate(mux)},
		authStore:   authStore,
		rosterStore: rosterStore,
		eventStore:  eventStore,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, opts Options) error {
	srv, err := New(opts)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStores()

	log.Printf("http server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) closeStores() {
	if s.eventStore != nil {
		_ = s.eventStore.Close()
	}
	if s.rosterStore != nil {
		_ = s.rosterStore.Close()
	}
	if s.authStore != nil {
		_ = s.authStore.Close()
	}
}
