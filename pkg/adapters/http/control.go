package http

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/aretw0/hivemesh/pkg/view"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 4 << 20

// readDefinition returns a text/plain body as a string and decodes anything
// else as JSON. A JSON string carries compact or YAML text.
func readDefinition(r *http.Request) (any, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/plain" || mediaType == "application/yaml" {
		return string(raw), nil
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// PostBoot handles POST /boot. The body is {"config": ...} or the config itself.
func (s *Server) PostBoot(w http.ResponseWriter, r *http.Request) {
	body, err := readDefinition(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if m, ok := body.(map[string]any); ok && len(m) == 1 {
		if cfg, ok := m["config"]; ok {
			body = cfg
		}
	}
	if err := s.Hive.Boot(r.Context(), body); err != nil {
		s.Logger.Warn("boot failed", "err", err)
		s.writeError(w, definitionStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.Hive.Status())
}

// ListShards handles GET /shards.
func (s *Server) ListShards(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Hive.ListShards())
}

// CreateShard handles POST /shards.
func (s *Server) CreateShard(w http.ResponseWriter, r *http.Request) {
	body, err := readDefinition(r)
	if err != nil || body == nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sum, err := s.Hive.CreateShard(r.Context(), body)
	if err != nil {
		s.writeError(w, definitionStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, sum)
}

// GetShard handles GET /shards/{id}.
func (s *Server) GetShard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, sum := range s.Hive.ListShards() {
		if sum.ID == id {
			s.writeJSON(w, http.StatusOK, sum)
			return
		}
	}
	s.writeError(w, http.StatusNotFound, "shard not found: "+id)
}

// GetShardView handles GET /shards/{id}/view and renders the shard's view as HTML.
func (s *Server) GetShardView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	for _, sum := range s.Hive.ListShards() {
		if sum.ID != id {
			continue
		}
		if sum.View == nil {
			s.writeError(w, http.StatusNotFound, "shard has no view: "+id)
			return
		}
		out, err := view.Compile(sum.View)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, out)
		return
	}
	s.writeError(w, http.StatusNotFound, "shard not found: "+id)
}

// DeleteShard handles DELETE /shards/{id}.
func (s *Server) DeleteShard(w http.ResponseWriter, r *http.Request) {
	if err := s.Hive.DeleteShard(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, definitionStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
