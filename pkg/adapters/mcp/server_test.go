package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/hivemesh/internal/runtime"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	orch := runtime.New(runtime.WithID("mcp-hive"))
	require.NoError(t, orch.Boot(context.Background(), map[string]any{
		"shards": []any{map[string]any{
			"id": "users",
			"api": []any{
				map[string]any{"path": "/hello", "handler": `[Wo "hello"]`},
				map[string]any{"path": "/echo", "method": "POST", "handler": "[Lo data]"},
			},
		}},
	}))
	return NewServer(orch, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestMeshCall(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleMeshCall(ctx, call(map[string]any{"shard": "users", "path": "/hello"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, `"hello"`, text(t, res))

	res, err = s.handleMeshCall(ctx, call(map[string]any{
		"shard": "users", "path": "/echo", "method": "POST", "data": `{"n":1}`,
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, text(t, res))
}

func TestMeshCall_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleMeshCall(ctx, call(map[string]any{"shard": "ghost", "path": "/hello"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "shard not found")

	res, err = s.handleMeshCall(ctx, call(map[string]any{"path": "/hello"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleMeshCall(ctx, call(map[string]any{"shard": "users", "path": "/echo", "method": "POST", "data": "{"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStatusAndList(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStatus(ctx, call(nil))
	require.NoError(t, err)
	var st map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &st))
	assert.Equal(t, "mcp-hive", st["id"])

	res, err = s.handleListShards(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), `"users"`)

	contents, err := s.readStatus(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, StatusURI, contents[0].(mcp.TextResourceContents).URI)
}

func TestCreateShard(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCreateShard(ctx, call(map[string]any{
		"definition": "id: orders\napi:\n  - path: /ping\n    handler: '[Wo \"pong\"]'\n",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))

	res, err = s.handleMeshCall(ctx, call(map[string]any{"shard": "orders", "path": "/ping"}))
	require.NoError(t, err)
	assert.Equal(t, `"pong"`, text(t, res))

	res, err = s.handleCreateShard(ctx, call(map[string]any{"definition": "⟁i⟁x⟁P"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestEncodeDecode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleEncode(ctx, call(map[string]any{"input": `{"shard":"users","port":3001,"method":"GET"}`}))
	require.NoError(t, err)
	encoded := text(t, res)
	assert.Equal(t, "⟁m⟁G⟁P⟁3001⟁s⟁users", encoded)

	res, err = s.handleDecode(ctx, call(map[string]any{"input": encoded}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"shard":"users","port":3001,"method":"GET"}`, text(t, res))

	res, err = s.handleDecode(ctx, call(map[string]any{"input": "⟁a⟁b⟁c"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
