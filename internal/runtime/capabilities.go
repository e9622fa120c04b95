package runtime

import (
	"context"

	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/aretw0/hivemesh/pkg/scx"
)

// Decompress decodes compact text and passes anything else through.
func (o *Orchestrator) Decompress(_ context.Context, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	return scx.Decode(s)
}

// Normalize strips reserved key prefixes.
func (o *Orchestrator) Normalize(_ context.Context, v any) (any, error) {
	return definition.Normalize(v), nil
}

// Register creates a shard from inside a handler and returns its summary.
func (o *Orchestrator) Register(ctx context.Context, v any) (any, error) {
	sum, err := o.CreateShard(ctx, v)
	if err != nil {
		return nil, err
	}
	routes := make([]any, len(sum.Routes))
	for i, r := range sum.Routes {
		routes[i] = r
	}
	return map[string]any{
		"id":      sum.ID,
		"port":    sum.Port,
		"runtime": sum.Runtime,
		"routes":  routes,
	}, nil
}
