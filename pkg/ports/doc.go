/*
Package ports defines the driven ports (interfaces) for the hive orchestrator.

These interfaces decouple the core logic from external implementations, allowing
the orchestrator to work with various storage backends and definition sources.

# Key Interfaces

  - StateStore: persists the per-shard state bag between calls (memory, Redis).
  - DistributedLocker: serializes calls to one shard across replicas.
  - DefinitionLoader: supplies shard definitions from outside the process (memory, Loam).
*/
package ports
