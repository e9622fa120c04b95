package ports

import "context"

// DefinitionLoader supplies shard definitions. Each element is anything the
// orchestrator's CreateShard accepts: a tree, JSON/YAML text or compact text.
type DefinitionLoader interface {
	LoadDefinitions(ctx context.Context) ([]any, error)
}
