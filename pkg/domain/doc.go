/*
Package domain contains the core domain models of the hive mesh.

It defines the declarative shape of a Hive (its shards, routes and mesh descriptor)
and the read-only projections handed out by the orchestrator. This package is kept
pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - HiveConfig: the boot definition (identifier, shard definitions, mesh ports).
  - ShardDefinition: a virtual service declared in data (id, port, runtime, routes, view).
  - RouteDefinition: a binding of METHOD and path to a handler program or name.
  - MeshDescriptor: transport label plus the ordered virtual port assignments.
  - Status / ShardSummary: snapshots of the registry for status endpoints and tools.
*/
package domain
