// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"

	"github.com/gogpu/ggvideo"
	"github.com/gogpu/ggvideo/catalog"
	"github.com/gogpu/ggvideo/frame"
)

var decoder = schema.NewDecoder()

// ListQuery are the query parameters of GET /api/videos.
type ListQuery struct {
	// Kind is text or drawing; empty lists both.
	Kind string `schema:"kind"`

	// Skip is the number of videos to skip, for paging.
	Skip int `schema:"skip"`

	// N is the number of videos to return; 0 returns all.
	N int `schema:"n"`
}

func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	var q ListQuery
	if err := decoder.Decode(&q, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if q.Skip < 0 || q.N < 0 {
		http.Error(w, "skip and n must not be negative", http.StatusBadRequest)
		return
	}

	var kind *frame.Kind
	if q.Kind != "" {
		k, ok := frame.ParseKind(q.Kind)
		if !ok {
			http.Error(w, "invalid kind", http.StatusBadRequest)
			return
		}
		kind = &k
	}

	videos, err := s.cfg.Catalog.List(kind, q.Skip, q.N)
	if err != nil {
		ggvideo.Logger().Warn("server: list videos", "error", err)
		http.Error(w, "failed to list videos", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// lookup returns the record named by the {file} route variable, writing
// the error response itself when there is none.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (catalog.Video, bool) {
	name := mux.Vars(r)["file"]
	v, err := s.cfg.Catalog.Get(name)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		http.NotFound(w, r)
		return v, false
	case err != nil:
		ggvideo.Logger().Warn("server: get video", "file", name, "error", err)
		http.Error(w, "failed to read catalog", http.StatusInternalServerError)
		return v, false
	}
	return v, true
}

func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", v.ContentType)
	serveFile(w, r, v.Path)
}

func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if v.Cover == "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	serveFile(w, r, v.Cover)
}

// serveFile serves path with range support, so players can seek.
func serveFile(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "failed to stat file", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
}

func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["file"]
	err := s.cfg.Catalog.Delete(name)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		http.NotFound(w, r)
	case err != nil:
		ggvideo.Logger().Warn("server: delete video", "file", name, "error", err)
		http.Error(w, "failed to delete video", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ggvideo.Logger().Debug("server: write response", "error", err)
	}
}
