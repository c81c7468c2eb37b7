// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package server exposes the video catalog over HTTP and drives recording
// sessions over websockets.
//
// Routes:
//
//	GET    /health                  liveness probe
//	GET    /api/videos              list, newest first (?kind=&skip=&n=)
//	GET    /api/videos/{file}       video content, range requests supported
//	GET    /api/videos/{file}/cover cover image
//	DELETE /api/videos/{file}       delete video, cover and record
//	GET    /ws/{kind}               websocket session, kind is text or drawing
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/frame"
	"github.com/gogpu/ggvideo/session"
)

// ShutdownTimeout bounds the graceful shutdown of ListenAndServe.
const ShutdownTimeout = 5 * time.Second

// Catalog is the part of *catalog.Store the server uses.
type Catalog interface {
	List(kind *frame.Kind, skip, n int) ([]catalog.Video, error)
	Get(fileName string) (catalog.Video, error)
	Delete(fileName string) error
}

// Factory creates the session of one websocket connection.
type Factory interface {
	NewText() (*session.Text, error)
	NewDrawing() (*session.Drawing, error)
}

// Config configures a Server.
type Config struct {
	Addr string

	// AllowedOrigins lists the origins allowed for CORS and websocket
	// upgrades. Empty or "*" allows any origin.
	AllowedOrigins []string

	Catalog Catalog
	Factory Factory
}

// Server serves the catalog API and websocket sessions.
type Server struct {
	cfg      Config
	upgrader websocket.Upgrader
	handler  http.Handler

	mu    sync.Mutex
	conns map[string]*websocket.Conn
	wg    sync.WaitGroup
}

// New creates a server. It does not listen until ListenAndServe.
func New(cfg Config) *Server {
	s := &Server{
		cfg:   cfg,
		conns: make(map[string]*websocket.Conn),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", s.handleListVideos).Methods(http.MethodGet)
	api.HandleFunc("/videos/{file}", s.handleGetVideo).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/videos/{file}", s.handleDeleteVideo).Methods(http.MethodDelete)
	api.HandleFunc("/videos/{file}/cover", s.handleGetCover).Methods(http.MethodGet, http.MethodHead)

	router.HandleFunc("/ws/{kind}", s.handleWS)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodDelete},
		AllowedHeaders: []string{"Range"},
		ExposedHeaders: []string{"Content-Range", "Content-Length", "Accept-Ranges"},
	})
	s.handler = c.Handler(router)
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
// and closes every websocket session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		ggvideo.Logger().Info("server: listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeConns()
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	ggvideo.Logger().Info("server: stopped")
	return err
}

// closeConns closes every websocket and waits for its session to end.
// Hijacked connections are not tracked by http.Server.Shutdown.
func (s *Server) closeConns() {
	s.mu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(s.cfg.AllowedOrigins, origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}
