/*
Package hivemesh is an in-process microservice mesh.

A Hive hosts shards: virtual services declared as data. Each shard has an
identifier, a virtual port, a runtime and a list of routes binding METHOD and
path to a handler. Handlers are small glyph programs executed by a per-shard
instruction engine, so a whole service mesh can be described in one YAML, JSON
or compact definition and booted without touching the network.

# Concept

Definitions are normalized first (reserved "@" key prefixes are stripped), then
materialized into shards. Calls are routed by shard identifier or virtual port
and serialized per shard; each shard keeps a small state bag between calls in a
pluggable store (in memory by default, Redis for replicas).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/hivemesh"
	)

	func main() {
		hive, err := hivemesh.New()
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		err = hive.Boot(ctx, `
	shards:
	  - id: users
	    port: 3001
	    api:
	      - path: /users
	        handler: '[Wo "hello"]'
	`)
		if err != nil {
			log.Fatal(err)
		}

		out, _ := hive.Call(ctx, "users", "GET", "/users", nil)
		fmt.Println(out) // hello
	}

# Glyph programs

See package github.com/aretw0/hivemesh/pkg/glyph for the instruction set.

# Compact form

Package github.com/aretw0/hivemesh/pkg/scx encodes definition trees into a single
separator-delimited string ("⟁m⟁G⟁P⟁3001"), convenient for URLs and agent prompts.
*/
package hivemesh
