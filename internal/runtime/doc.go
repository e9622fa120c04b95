// Package runtime implements the hive orchestrator: it materializes shard
// definitions, keeps the shard and mesh registries consistent, and routes
// calls to shard handlers running on the glyph engine.
package runtime
