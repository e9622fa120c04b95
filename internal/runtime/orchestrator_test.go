package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/hivemesh/internal/runtime"
	"github.com/aretw0/hivemesh/pkg/adapters/memory"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/registry"
	"github.com/aretw0/hivemesh/pkg/scx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usersConfig() map[string]any {
	return map[string]any{
		"hive": "test-hive",
		"shards": []any{
			map[string]any{
				"id":   "users",
				"port": 3001,
				"api": []any{
					map[string]any{"path": "/users", "method": "GET", "handler": `[Wo "hello"]`},
				},
			},
		},
		"mesh": map[string]any{"protocol": "http", "ports": []any{3001}},
	}
}

func booted(t *testing.T, opts ...runtime.Option) *runtime.Orchestrator {
	t.Helper()
	o := runtime.New(opts...)
	require.NoError(t, o.Boot(context.Background(), usersConfig()))
	return o
}

func TestBootAndRoute(t *testing.T) {
	o := booted(t)
	ctx := context.Background()

	out, err := o.RouteToShard(ctx, "users", "GET", "/users", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	st := o.Status()
	assert.Equal(t, "test-hive", st.ID)
	assert.True(t, st.Booted)
	assert.Equal(t, 1, st.ShardCount)
	assert.Equal(t, "http", st.Mesh.Protocol)
	assert.Equal(t, []domain.PortAssignment{{Port: 3001, ShardID: "users"}}, st.Mesh.Assignments)
	assert.Equal(t, domain.MeshEntry{Port: 3001, Routes: []string{"GET:/users"}}, st.Registry["users"])
}

func TestRoute_MethodIsCaseInsensitive(t *testing.T) {
	o := booted(t)
	out, err := o.RouteToShard(context.Background(), "users", "get", "/users", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRoute_ByVirtualPort(t *testing.T) {
	o := booted(t)
	out, err := o.RouteToShard(context.Background(), "3001", "GET", "/users", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	id, ok := o.ResolvePort(3001)
	assert.True(t, ok)
	assert.Equal(t, "users", id)
}

func TestRoute_NotFound(t *testing.T) {
	o := booted(t)
	ctx := context.Background()

	_, err := o.RouteToShard(ctx, "ghost", "GET", "/x", nil)
	assert.ErrorIs(t, err, domain.ErrShardNotFound)
	assert.True(t, domain.IsNotFound(err))

	_, err = o.RouteToShard(ctx, "9999", "GET", "/users", nil)
	assert.ErrorIs(t, err, domain.ErrShardNotFound)

	_, err = o.RouteToShard(ctx, "users", "POST", "/users", nil)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestCreateShard_Defaults(t *testing.T) {
	o := runtime.New()
	sum, err := o.CreateShard(context.Background(), map[string]any{
		"api": []any{map[string]any{"path": "/ping", "handler": "[Wo 'pong']"}},
	})
	require.NoError(t, err)

	assert.Regexp(t, `^shard-[0-9a-f]{8}$`, sum.ID)
	assert.Equal(t, domain.DefaultShardPort, sum.Port)
	assert.Equal(t, domain.RuntimeGlyph, sum.Runtime)
	assert.True(t, sum.Engine)
	assert.Equal(t, []string{"GET:/ping"}, sum.Routes)

	out, err := o.RouteToShard(context.Background(), sum.ID, "GET", "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestCreateShard_LastDuplicateRouteWins(t *testing.T) {
	o := runtime.New()
	_, err := o.CreateShard(context.Background(), map[string]any{
		"id": "dup",
		"api": []any{
			map[string]any{"path": "/x", "handler": "[Wo 'first']"},
			map[string]any{"path": "/x", "method": "get", "handler": "[Wo 'second']"},
		},
	})
	require.NoError(t, err)

	out, err := o.RouteToShard(context.Background(), "dup", "GET", "/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestCreateShard_MeshConsistency(t *testing.T) {
	o := booted(t)
	ctx := context.Background()

	_, err := o.CreateShard(ctx, map[string]any{
		"@id":   "orders",
		"@port": "3002",
		"@api": []any{
			map[string]any{"@path": "/orders", "@method": "POST", "@handler": "[Lo data]"},
		},
	})
	require.NoError(t, err)

	st := o.Status()
	assert.Equal(t, 2, st.ShardCount)
	assert.Equal(t, domain.MeshEntry{Port: 3002, Routes: []string{"POST:/orders"}}, st.Registry["orders"])

	sum, ok := o.Shard("orders")
	require.True(t, ok)
	assert.Equal(t, st.Registry["orders"].Routes, sum.Routes)

	ids := []string{}
	for _, s := range o.ListShards() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"users", "orders"}, ids)
}

func TestCreateShard_ReplacesExistingID(t *testing.T) {
	o := booted(t)
	ctx := context.Background()

	_, err := o.CreateShard(ctx, map[string]any{
		"id": "users", "port": 4000,
		"api": []any{map[string]any{"path": "/v2", "handler": "[Wo 2]"}},
	})
	require.NoError(t, err)

	st := o.Status()
	assert.Equal(t, 1, st.ShardCount)
	assert.Equal(t, 4000, st.Registry["users"].Port)

	_, err = o.RouteToShard(ctx, "users", "GET", "/users", nil)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
}

func TestCreateShard_FromText(t *testing.T) {
	o := runtime.New()
	ctx := context.Background()

	compact, err := scx.Encode(map[string]any{"id": "compact", "port": 3010})
	require.NoError(t, err)
	sum, err := o.CreateShard(ctx, compact)
	require.NoError(t, err)
	assert.Equal(t, "compact", sum.ID)
	assert.Equal(t, 3010, sum.Port)

	sum, err = o.CreateShard(ctx, `{"id": "json", "port": 3011}`)
	require.NoError(t, err)
	assert.Equal(t, 3011, sum.Port)

	_, err = o.CreateShard(ctx, "⟁i⟁x⟁P")
	assert.ErrorIs(t, err, domain.ErrDecode)

	_, err = o.CreateShard(ctx, []any{1})
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
}

func TestStaticRuntimeAcknowledges(t *testing.T) {
	o := runtime.New()
	ctx := context.Background()
	sum, err := o.CreateShard(ctx, domain.ShardDefinition{
		ID:      "audit",
		Runtime: "STATIC",
		API:     []domain.RouteDefinition{{Path: "/log", Method: "post"}},
	})
	require.NoError(t, err)
	assert.False(t, sum.Engine)

	out, err := o.RouteToShard(ctx, "audit", "POST", "/log", map[string]any{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"shard":  "audit",
		"method": "POST",
		"path":   "/log",
		"status": "accepted",
		"data":   map[string]any{"n": 1},
	}, out)
}

func TestHandlerSeedVariables(t *testing.T) {
	o := runtime.New()
	ctx := context.Background()
	_, err := o.CreateShard(ctx, map[string]any{
		"id": "echo",
		"api": []any{
			map[string]any{"path": "/name", "method": "POST", "handler": "[Lo data.name]"},
			map[string]any{"path": "/who", "handler": "[Lo shard]"},
			map[string]any{"path": "/vars", "handler": nil},
		},
	})
	require.NoError(t, err)

	out, err := o.RouteToShard(ctx, "echo", "POST", "/name", map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "ada", out)

	out, err = o.RouteToShard(ctx, "echo", "GET", "/who", nil)
	require.NoError(t, err)
	assert.Equal(t, "echo", out)

	out, err = o.RouteToShard(ctx, "echo", "GET", "/vars", "q")
	require.NoError(t, err)
	vars := out.(map[string]any)
	assert.Equal(t, "GET", vars["method"])
	assert.Equal(t, "/vars", vars["path"])
	assert.Equal(t, "q", vars["data"])
}

func TestOpaqueHandlerName(t *testing.T) {
	o := runtime.New()
	ctx := context.Background()
	_, err := o.CreateShard(ctx, map[string]any{
		"id":  "named",
		"api": []any{map[string]any{"path": "/list", "handler": "listUsers"}},
	})
	require.NoError(t, err)

	out, err := o.RouteToShard(ctx, "named", "GET", "/list", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"operation": "listUsers", "executed": true}, out)
}

func TestShardStatePersistsAcrossCalls(t *testing.T) {
	store := memory.NewStore()
	o := runtime.New(runtime.WithStateStore(store))
	ctx := context.Background()
	_, err := o.CreateShard(ctx, map[string]any{
		"id":    "notes",
		"state": map[string]any{"last": "seeded"},
		"api": []any{
			map[string]any{"path": "/last", "method": "PUT", "handler": "[Lo data]\n[Ca remember last]\n[Wo true]"},
			map[string]any{"path": "/last", "handler": "[Ca recall last]"},
			map[string]any{"path": "/snapshot", "handler": "[Lo state.last]"},
		},
	})
	require.NoError(t, err)

	out, err := o.RouteToShard(ctx, "notes", "GET", "/last", nil)
	require.NoError(t, err)
	assert.Equal(t, "seeded", out)

	_, err = o.RouteToShard(ctx, "notes", "PUT", "/last", "written")
	require.NoError(t, err)

	out, err = o.RouteToShard(ctx, "notes", "GET", "/last", nil)
	require.NoError(t, err)
	assert.Equal(t, "written", out)

	out, err = o.RouteToShard(ctx, "notes", "GET", "/snapshot", nil)
	require.NoError(t, err)
	assert.Equal(t, "written", out)

	saved, err := store.Load(ctx, "notes")
	require.NoError(t, err)
	assert.Equal(t, "written", saved["last"])
}

func TestHandlerFaults(t *testing.T) {
	natives := registry.NewRegistry()
	natives.Register("explode", func(context.Context, map[string]any) (any, error) {
		panic("kaboom")
	})
	natives.Register("wait", func(ctx context.Context, _ map[string]any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	o := runtime.New(runtime.WithRegistry(natives), runtime.WithCallTimeout(20*time.Millisecond))
	ctx := context.Background()
	_, err := o.CreateShard(ctx, map[string]any{
		"id": "faulty",
		"api": []any{
			map[string]any{"path": "/panic", "handler": "[Ca explode]"},
			map[string]any{"path": "/slow", "handler": "[Ca wait]"},
			map[string]any{"path": "/ok", "handler": "[Wo 'fine']"},
		},
	})
	require.NoError(t, err)

	_, err = o.RouteToShard(ctx, "faulty", "GET", "/panic", nil)
	assert.ErrorIs(t, err, domain.ErrHandlerFault)
	assert.False(t, domain.IsNotFound(err))

	_, err = o.RouteToShard(ctx, "faulty", "GET", "/slow", nil)
	assert.ErrorIs(t, err, domain.ErrHandlerFault)

	out, err := o.RouteToShard(ctx, "faulty", "GET", "/ok", nil)
	require.NoError(t, err, "a fault must not poison the shard")
	assert.Equal(t, "fine", out)
}

func TestRegisterFromHandler(t *testing.T) {
	o := runtime.New()
	ctx := context.Background()
	_, err := o.CreateShard(ctx, map[string]any{
		"id": "spawner",
		"api": []any{map[string]any{
			"path":    "/spawn",
			"method":  "POST",
			"handler": "[Lo data]\n[Ca normalize]\n[Ca register]",
		}},
	})
	require.NoError(t, err)

	out, err := o.RouteToShard(ctx, "spawner", "POST", "/spawn", map[string]any{
		"@id":  "spawned",
		"@api": []any{map[string]any{"@path": "/ping", "@handler": "[Wo 'pong']"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "spawned", out.(map[string]any)["id"])

	out, err = o.RouteToShard(ctx, "spawned", "GET", "/ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
}

func TestDecompressFromHandler(t *testing.T) {
	o := runtime.New()
	ctx := context.Background()
	_, err := o.CreateShard(ctx, map[string]any{
		"id":  "codec",
		"api": []any{map[string]any{"path": "/decode", "method": "POST", "handler": "[Lo data]\n[Ca decompress]\n[Ca get method]"}},
	})
	require.NoError(t, err)

	out, err := o.RouteToShard(ctx, "codec", "POST", "/decode", "⟁m⟁G⟁P⟁3001")
	require.NoError(t, err)
	assert.Equal(t, "GET", out)
}

func TestDeleteShard(t *testing.T) {
	store := memory.NewStore()
	o := runtime.New(runtime.WithStateStore(store))
	ctx := context.Background()
	require.NoError(t, o.Boot(ctx, usersConfig()))
	require.NoError(t, store.Save(ctx, "users", domain.ShardState{"k": 1}))

	require.NoError(t, o.DeleteShard(ctx, "users"))

	st := o.Status()
	assert.Zero(t, st.ShardCount)
	assert.NotContains(t, st.Registry, "users")
	assert.Equal(t, "", st.Mesh.Assignments[0].ShardID)
	_, err := store.Load(ctx, "users")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)

	assert.ErrorIs(t, o.DeleteShard(ctx, "users"), domain.ErrShardNotFound)
}

func TestOrchestrator_ConcurrentAccess(t *testing.T) {
	o := booted(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := o.RouteToShard(ctx, "users", "GET", "/users", nil)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := o.CreateShard(ctx, map[string]any{"port": 5000})
			assert.NoError(t, err)
			_ = o.Status()
			_ = o.ListShards()
		}()
	}
	wg.Wait()
	assert.Equal(t, 21, o.Status().ShardCount)
}
