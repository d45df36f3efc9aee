package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Brownie44l1/flower-api/internal/config"
	"github.com/Brownie44l1/flower-api/internal/handlers"
	"github.com/gorilla/mux"
)

// Server wires the inference API onto an HTTP listener.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
	router     *mux.Router
}

// New creates a Server around an already loaded classifier.
func New(cfg config.ServerConfig, classifier handlers.Classifier) *Server {
	s := &Server{
		cfg:    cfg,
		router: mux.NewRouter(),
	}

	handlers.NewHandler(classifier, cfg.Version).RegisterRoutes(s.router)

	return s
}

// Handler returns the router wrapped in the CORS and request logging
// middleware. CORS sits outside the router so preflight requests are
// answered even for routes that only accept POST.
func (s *Server) Handler() http.Handler {
	return EnableCORS(LogRequests(s.router))
}

// Start begins listening for HTTP connections
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server listening on http://localhost:%d", s.cfg.Port)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
