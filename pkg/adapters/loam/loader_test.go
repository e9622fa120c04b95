package loam

import (
	"context"
	"testing"

	"github.com/aretw0/loam"

	"github.com/aretw0/hivemesh/internal/testutils"
	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadDefinitions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"users.md": `---
id: users
port: 3001
api:
  - path: /users
  - path: /users
    method: POST
    handler: "[Ca createUser]"
---
[Wo "hello"]`,
		"orders.json": `{
  "id": "orders.json",
  "port": 3002,
  "runtime": "static",
  "api": [{"path": "/orders"}]
}`,
	})

	loader := New(loam.NewTypedRepository[ShardMetadata](repo))
	defs, err := loader.LoadDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)

	orders, err := definition.ParseShardDefinition(defs[0])
	require.NoError(t, err)
	assert.Equal(t, "orders", orders.ID, "extension should be stripped")
	assert.Equal(t, 3002, orders.Port)
	assert.Equal(t, "static", orders.Runtime)

	users, err := definition.ParseShardDefinition(defs[1])
	require.NoError(t, err)
	assert.Equal(t, "users", users.ID)
	assert.Equal(t, 3001, users.Port)
	require.Len(t, users.API, 2)
	assert.Equal(t, `[Wo "hello"]`, users.API[0].Handler, "body is the default handler")
	assert.Equal(t, "[Ca createUser]", users.API[1].Handler)
}

func TestLoader_ImplicitIDFromFilename(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"inventory.md": `---
port: 3005
---
`,
	})

	loader := New(loam.NewTypedRepository[ShardMetadata](repo))
	defs, err := loader.LoadDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "inventory", defs[0].(map[string]any)["id"])
	assert.NotContains(t, defs[0].(map[string]any), "api")
}

func TestLoader_DetectsCollisions(t *testing.T) {
	dir, repo := testutils.SetupTestRepo(t)
	testutils.WriteFiles(t, dir, map[string]string{
		"foo.md": `---
id: foo
---
Explicit ID`,
		"foo.json": `{"id": "foo"}`,
	})

	loader := New(loam.NewTypedRepository[ShardMetadata](repo))
	_, err := loader.LoadDefinitions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "foo")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"cart.md": "---\nid: cart\n---\n",
	})

	loader, err := Open(dir)
	require.NoError(t, err)

	def, err := loader.Get(context.Background(), "cart")
	require.NoError(t, err)
	assert.Equal(t, "cart", def["id"])
}
