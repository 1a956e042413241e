// Package server exposes the catalog over HTTP: cached reads through the
// gate, credential management, and sync triggers.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/depot/internal/config"
	"github.com/zulandar/depot/internal/gate"
	"github.com/zulandar/depot/internal/gitlab"
	"github.com/zulandar/depot/internal/store"
	"github.com/zulandar/depot/internal/syncer"
)

// Opts holds configuration for the API server.
type Opts struct {
	Store    *store.Store
	Config   *config.Config
	Notifier syncer.Notifier
	Out      io.Writer
}

// Server is the Depot HTTP API. The upstream client is swappable at
// runtime: a successful POST /api/config takes effect immediately without
// a restart.
type Server struct {
	store    *store.Store
	cfg      *config.Config
	gate     *gate.Gate
	notifier syncer.Notifier
	out      io.Writer

	mu     sync.Mutex
	client *gitlab.Client

	syncMu  sync.Mutex
	syncing bool
}

// New creates a Server, resolving initial credentials through the standard
// chain. Starting unconfigured is not an error; cached reads still work.
func New(opts Opts) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if opts.Config == nil {
		return nil, fmt.Errorf("server: config is required")
	}

	s := &Server{
		store:    opts.Store,
		cfg:      opts.Config,
		notifier: opts.Notifier,
		out:      opts.Out,
	}
	s.gate = gate.New(opts.Store, s.currentClient)

	creds, from, err := config.Resolve(config.DefaultChain(opts.Config, opts.Store, "depot.yaml.template")...)
	if err == nil {
		s.client = gitlab.New(creds.URL, creds.Token)
		if s.out != nil {
			fmt.Fprintf(s.out, "GitLab credentials resolved from %s\n", from)
		}
	}

	return s, nil
}

// currentClient returns the configured upstream client, or nil.
func (s *Server) currentClient() gate.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return s.client
}

// setClient swaps the upstream client.
func (s *Server) setClient(c *gitlab.Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}

// newSyncer builds a sync service over the current client, or nil when
// unconfigured.
func (s *Server) newSyncer() *syncer.Service {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client == nil {
		return nil
	}
	return syncer.New(s.store, client, syncer.Opts{
		Workers:  s.cfg.Sync.Workers,
		Notifier: s.notifier,
	})
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)
	return router
}

// Start runs the HTTP server. It blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if s.out != nil {
		fmt.Fprintf(s.out, "Depot API listening on http://%s\n", addr)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
