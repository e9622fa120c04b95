package hivemesh_test

import (
	"context"
	"fmt"

	"github.com/aretw0/hivemesh"
)

func ExampleHive_Call() {
	hive, _ := hivemesh.New()
	ctx := context.Background()

	_ = hive.Boot(ctx, `
shards:
  - id: users
    port: 3001
    api:
      - path: /users
        handler: '[Wo "hello"]'
      - path: /users
        method: POST
        handler: |
          [Lo data.name]
          [Ca remember last]
          [Wo "created"]
      - path: /last
        handler: '[Ca recall last]'
`)

	out, _ := hive.Call(ctx, "users", "GET", "/users", nil)
	fmt.Println(out)

	out, _ = hive.Call(ctx, "3001", "POST", "/users", map[string]any{"name": "ada"})
	fmt.Println(out)

	out, _ = hive.Call(ctx, "users", "GET", "/last", nil)
	fmt.Println(out)
	// Output:
	// hello
	// created
	// ada
}
