package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/taskflowhq/taskflow/store"
	"github.com/taskflowhq/taskflow/types"
)

// Server is the HTTP face of the task store. It is a thin consumer: every
// handler resolves into one or two store calls and an envelope.
type Server struct {
	cfg    types.AppConfig
	store  store.TaskStore
	server *http.Server
}

// New wires the routes around the given store. The store is usually a
// *store.Selector so each request lands on whichever backend is live.
func New(cfg types.AppConfig, st store.TaskStore) *Server {
	s := &Server{cfg: cfg, store: st}
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: s.registerRoutes(),
	}
	return s
}

// Start runs the listener on its own goroutine, reporting a fatal listen
// error through errChan.
func (s *Server) Start(wg *sync.WaitGroup, errChan chan<- error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}
