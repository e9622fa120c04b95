package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// Loader implements ports.DefinitionLoader over a fixed list.
type Loader struct {
	defs []any
}

// NewLoader creates a loader that returns defs in order. Each element may be a
// tree, JSON/YAML text or compact text.
func NewLoader(defs ...any) *Loader {
	return &Loader{defs: defs}
}

// NewFromDefinitions creates a loader from typed definitions.
// This handles conversion automatically, improving DX for tests.
func NewFromDefinitions(defs ...domain.ShardDefinition) (*Loader, error) {
	out := make([]any, 0, len(defs))
	for _, d := range defs {
		raw, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal shard %s: %w", d.ID, err)
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("failed to convert shard %s: %w", d.ID, err)
		}
		out = append(out, tree)
	}
	return &Loader{defs: out}, nil
}

// LoadDefinitions returns a copy of the configured definitions.
func (l *Loader) LoadDefinitions(ctx context.Context) ([]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]any(nil), l.defs...), nil
}
