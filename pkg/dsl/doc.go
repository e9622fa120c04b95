/*
Package dsl provides a Go DSL for programmatically constructing hive definitions.

It replaces hand-written YAML or JSON with a type-safe, fluent builder. This is
useful for tests, embedded hives, and generated topologies.

Example usage:

	b := dsl.New("shop")

	b.Shard("users").
		Port(3001).
		Get("/hello", `[Wo "hello"]`).
		Post("/echo", "[Lo data]")

	b.Shard("assets").Port(3002).Static().Get("/logo", nil)

	hive, _ := hivemesh.New()
	_ = hive.Boot(ctx, b.Build())

Unless Ports is called, the mesh ports are taken from the shards in the order
they were added, so position and declaration always agree.
*/
package dsl
