package http

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Mesh handles ANY /mesh/{shardId}/{path...} by routing the request to a shard.
func (s *Server) Mesh(w http.ResponseWriter, r *http.Request) {
	shardID, path, ok := splitMeshPath(chi.URLParam(r, "*"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "mesh path must be /mesh/{shard}/{path}")
		return
	}

	data, err := requestData(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.Hive.RouteToShard(r.Context(), shardID, r.Method, path, data)
	if err != nil {
		if domain.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.Logger.Error("mesh call failed", "shard", shardID, "method", r.Method, "path", path, "err", err)
		s.writeError(w, http.StatusInternalServerError, "mesh call failed")
		return
	}

	if status, body, ok := responseEnvelope(result); ok {
		s.writeJSON(w, status, body)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// splitMeshPath splits "users/list/all" into ("users", "/list/all").
func splitMeshPath(rest string) (string, string, bool) {
	shardID, path, found := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	if !found || shardID == "" || path == "" {
		return "", "", false
	}
	return shardID, "/" + path, true
}

// requestData returns the JSON body for methods that carry one and the query
// map otherwise. Absent input is nil.
func requestData(r *http.Request) (any, error) {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return nil, err
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			return queryData(r.URL.Query()), nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return queryData(r.URL.Query()), nil
}

func queryData(q url.Values) any {
	if len(q) == 0 {
		return nil
	}
	out := make(map[string]any, len(q))
	for k, vs := range q {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

// responseEnvelope recognizes {"status": <code>, "body": ...} results.
func responseEnvelope(result any) (int, any, bool) {
	m, ok := result.(map[string]any)
	if !ok {
		return 0, nil, false
	}
	body, hasBody := m["body"]
	if !hasBody {
		return 0, nil, false
	}
	var code int
	switch v := m["status"].(type) {
	case int:
		code = v
	case int64:
		code = int(v)
	case float64:
		if v != math.Trunc(v) {
			return 0, nil, false
		}
		code = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, nil, false
		}
		code = int(n)
	default:
		return 0, nil, false
	}
	if code < 100 || code > 599 {
		return 0, nil, false
	}
	return code, body, true
}
