// Package loam loads shard definitions from a Loam document repository.
//
// Each document is one shard. Frontmatter (or the JSON/YAML body) carries the
// definition; a Markdown body becomes the handler of every route that does not
// name one, so a shard can be written as
//
//	---
//	id: users
//	port: 3001
//	api:
//	  - path: /users
//	---
//	[Wo "hello"]
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to ports.DefinitionLoader.
type Loader struct {
	Repo *loam.TypedRepository[ShardMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ShardMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ShardMetadata](repo)), nil
}

// LoadDefinitions returns one definition tree per document, ordered by shard ID.
func (l *Loader) LoadDefinitions(ctx context.Context) ([]any, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	defs := make(map[string]map[string]any, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: shard '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		defs[id] = buildDefinition(id, doc.Data, doc.Content)
	}

	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, defs[id])
	}
	return out, nil
}

// Get loads a single shard definition by ID.
func (l *Loader) Get(ctx context.Context, id string) (map[string]any, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	rawID := doc.Data.ID
	if rawID == "" {
		rawID = doc.ID
	}
	return buildDefinition(trimExtension(rawID), doc.Data, doc.Content), nil
}

func buildDefinition(id string, meta ShardMetadata, content string) map[string]any {
	def := map[string]any{"id": id}
	if meta.Port != nil {
		def["port"] = meta.Port
	}
	if meta.Runtime != "" {
		def["runtime"] = meta.Runtime
	}
	if meta.View != nil {
		def["view"] = meta.View
	}
	if len(meta.State) > 0 {
		def["state"] = meta.State
	}

	body := strings.TrimSpace(content)
	routes := make([]any, 0, len(meta.API))
	for _, r := range meta.API {
		route := make(map[string]any, len(r)+1)
		for k, v := range r {
			route[k] = v
		}
		if _, ok := route["handler"]; !ok && body != "" {
			route["handler"] = body
		}
		routes = append(routes, route)
	}
	if len(routes) > 0 {
		def["api"] = routes
	}
	return def
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
