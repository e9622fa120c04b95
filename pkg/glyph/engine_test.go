package glyph_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/glyph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func program(lines ...string) string {
	return strings.Join(lines, "\n")
}

type funcs map[string]glyph.NativeFunc

func (f funcs) Lookup(name string) (glyph.NativeFunc, bool) {
	fn, ok := f[name]
	return fn, ok
}

type bag map[string]any

func (b bag) Get(k string) (any, bool) { v, ok := b[k]; return v, ok }
func (b bag) Set(k string, v any)      { b[k] = v }

type upperCaps struct{ registered []any }

func (c *upperCaps) Decompress(_ context.Context, v any) (any, error) {
	return "decoded:" + v.(string), nil
}

func (c *upperCaps) Normalize(_ context.Context, v any) (any, error) {
	return map[string]any{"normalized": v}, nil
}

func (c *upperCaps) Register(_ context.Context, v any) (any, error) {
	if v == nil {
		return nil, errors.New("nothing to register")
	}
	c.registered = append(c.registered, v)
	return map[string]any{"registered": true}, nil
}

func TestCompile(t *testing.T) {
	p := glyph.Compile(program(
		"# header comment",
		"",
		"  [Wo 'hi']  ",
		"// another",
		"not an instruction",
		"[Xul]",
		"[Zzz a b]",
	))

	require.Len(t, p.Instructions, 3)
	assert.Equal(t, 1, p.Ignored)

	assert.Equal(t, glyph.OpWrite, p.Instructions[0].Op)
	assert.Equal(t, "'hi'", p.Instructions[0].Args)
	assert.Equal(t, 3, p.Instructions[0].Line)
	assert.Equal(t, glyph.OpHalt, p.Instructions[1].Op)
	assert.Equal(t, glyph.OpUnknown, p.Instructions[2].Op)
	assert.Equal(t, "Zzz", p.Instructions[2].Glyph)

	assert.True(t, glyph.IsProgram("[Ca listUsers]"))
	assert.False(t, glyph.IsProgram("listUsers"))
}

func TestExecute_UnknownOpcodeIsSkipped(t *testing.T) {
	logger, buf := bufferLogger()
	e := glyph.NewEngine(glyph.WithLogger(logger))

	out, err := e.Execute(context.Background(), program("[Zzz foo]", "[Xul]"), nil)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out)
	assert.Contains(t, buf.String(), "unknown opcode")
}

func TestExecute_WriteBindLoad(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), program(
		"[Wo {name: ada, langs: [go, c]}]",
		"[Bi user]",
		"[Lo user.langs.0]",
	), nil)

	require.NoError(t, err)
	assert.Equal(t, "go", out)
}

func TestExecute_ReturnsVariablesWhenStackEmpty(t *testing.T) {
	e := glyph.NewEngine()
	seed := map[string]any{"shard": "users"}

	out, err := e.Execute(context.Background(), "[Wo 7]\n[Bi n]", seed)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"shard": "users", "n": 7}, out)
	assert.NotContains(t, seed, "n", "seed must not be mutated")
}

func TestExecute_UnboundLoadPushesNil(t *testing.T) {
	logger, buf := bufferLogger()
	e := glyph.NewEngine(glyph.WithLogger(logger))

	out, err := e.Execute(context.Background(), "[Lo missing]", nil)

	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Contains(t, buf.String(), "unbound variable")
}

func TestExecute_MalformedLiteralIsSkipped(t *testing.T) {
	logger, buf := bufferLogger()
	e := glyph.NewEngine(glyph.WithLogger(logger))

	out, err := e.Execute(context.Background(), program("[Wo 1]", "[Wo bareword]"), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, out)
	assert.Contains(t, buf.String(), "malformed literal")
}

func TestExecute_Halt(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), program("[Wo 1]", "[Xul]", "[Wo 2]"), nil)

	require.NoError(t, err)
	assert.Equal(t, 1, out)
}

func TestExecute_GetWalksSeed(t *testing.T) {
	e := glyph.NewEngine()
	seed := map[string]any{"data": map[string]any{"user": map[string]any{"id": "u-1"}}}

	out, err := e.Execute(context.Background(), program("[Lo data]", "[Ca get user.id]"), seed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", out)

	out, err = e.Execute(context.Background(), "[Lo data.user.id]", seed)
	require.NoError(t, err)
	assert.Equal(t, "u-1", out)
}

func TestExecute_EachRunsFunctionPerElement(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), program(
		"[Sa pick]",
		"[Lo item]",
		"[Ca get id]",
		"[Sa]",
		`[Wo [{"id": 1}, {"id": 2}, {"id": 3}]]`,
		"[Ca each pick]",
	), map[string]any{"item": "outer"})

	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, out)
}

func TestExecute_EachRestoresReservedVariables(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), program(
		"[Sa idx]",
		"[Lo index]",
		"[Sa]",
		"[Wo [a, b]]",
		"[Ca each idx]",
		"[Bi indexes]",
	), map[string]any{"item": "outer"})

	require.NoError(t, err)
	vars := out.(map[string]any)
	assert.Equal(t, []any{0, 1}, vars["indexes"])
	assert.Equal(t, "outer", vars["item"])
	assert.NotContains(t, vars, "index")
}

func TestExecute_HaltInsideFunctionStopsProgram(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), program(
		"[Sa stop]",
		"[Wo 'stopped']",
		"[Xul]",
		"[Sa]",
		"[Ca stop]",
		"[Wo 'unreachable']",
	), nil)

	require.NoError(t, err)
	assert.Equal(t, "stopped", out)
}

func TestExecute_QuotedCallPushesLiteral(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), `[Ca "hello mesh"]`, nil)

	require.NoError(t, err)
	assert.Equal(t, "hello mesh", out)
}

func TestExecute_UnknownCallPushesMarker(t *testing.T) {
	e := glyph.NewEngine()
	want := map[string]any{"operation": "listUsers", "executed": true}

	out, err := e.Execute(context.Background(), "[Ca listUsers]", nil)
	require.NoError(t, err)
	assert.Equal(t, want, out)

	out, err = e.Execute(context.Background(), glyph.Ref("listUsers"), nil)
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestExecute_NativeFunctions(t *testing.T) {
	reg := funcs{
		"greet": func(_ context.Context, args map[string]any) (any, error) {
			return "hello " + args["name"].(string), nil
		},
		"fail": func(context.Context, map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	}
	e := glyph.NewEngine(glyph.WithRegistry(reg))

	out, err := e.Execute(context.Background(), "[Wo {name: ada}]\n[Ca greet]", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello ada", out)

	_, err = e.Execute(context.Background(), "[Ca fail]", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHandlerFault)
}

func TestExecute_Capabilities(t *testing.T) {
	t.Run("pass through without capabilities", func(t *testing.T) {
		e := glyph.NewEngine()
		out, err := e.Execute(context.Background(), "[Wo 'x']\n[Ca decompress]\n[Ca normalize]", nil)
		require.NoError(t, err)
		assert.Equal(t, "x", out)
	})

	t.Run("resolved through capabilities", func(t *testing.T) {
		caps := &upperCaps{}
		e := glyph.NewEngine(glyph.WithCapabilities(caps))

		out, err := e.Execute(context.Background(), "[Wo 'x']\n[Ca decompress]\n[Ca normalize]", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"normalized": "decoded:x"}, out)

		out, err = e.Execute(context.Background(), "[Wo {id: orders}]\n[Ca register]", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"registered": true}, out)
		assert.Len(t, caps.registered, 1)
	})

	t.Run("capability errors are handler faults", func(t *testing.T) {
		e := glyph.NewEngine(glyph.WithCapabilities(&upperCaps{}))
		_, err := e.Execute(context.Background(), "[Ca register]", nil)
		assert.ErrorIs(t, err, domain.ErrHandlerFault)
	})
}

func TestExecute_StateBag(t *testing.T) {
	state := bag{}
	e := glyph.NewEngine(glyph.WithStateBag(state))

	_, err := e.Execute(context.Background(), "[Wo 3]\n[Ca remember visits]", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, state["visits"])

	out, err := e.Execute(context.Background(), "[Ca recall visits]", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	other := bag{"visits": 9}
	out, err = e.Execute(glyph.ContextWithState(context.Background(), other), "[Ca recall visits]", nil)
	require.NoError(t, err)
	assert.Equal(t, 9, out)
}

func TestExecute_NoStateBag(t *testing.T) {
	e := glyph.NewEngine()
	out, err := e.Execute(context.Background(), "[Wo 1]\n[Ca remember k]\n[Ca recall k]", nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := glyph.NewEngine().Execute(ctx, "[Wo 1]", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_MaxSteps(t *testing.T) {
	e := glyph.NewEngine(glyph.WithMaxSteps(2))
	out, err := e.Execute(context.Background(), program("[Wo 1]", "[Wo 2]", "[Wo 3]"), nil)

	require.NoError(t, err)
	assert.Equal(t, 2, out)
}

func TestExecute_RecursionIsBounded(t *testing.T) {
	logger, buf := bufferLogger()
	e := glyph.NewEngine(glyph.WithLogger(logger))

	_, err := e.Execute(context.Background(), program("[Sa loop]", "[Ca loop]", "[Sa]", "[Ca loop]"), nil)

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "call depth exceeded")
}

func TestExecute_Deterministic(t *testing.T) {
	e := glyph.NewEngine()
	src := program(
		"[Sa wrap]",
		"[Lo item]",
		"[Ca tag]",
		"[Sa]",
		"[Lu main]",
		"[Wo [x, y]]",
		"[Ca each wrap]",
		"[Lx main]",
	)
	seed := map[string]any{"data": map[string]any{"k": "v"}}

	first, err := e.Execute(context.Background(), src, seed)
	require.NoError(t, err)
	second, err := e.Execute(context.Background(), src, seed)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`"a \"b\""`, `a "b"`},
		{`'it\'s'`, "it's"},
		{"true", true},
		{"false", false},
		{"null", nil},
		{"42", 42},
		{"-1.5", -1.5},
		{"[1, 2]", []any{1, 2}},
		{`{"a": {"b": true}}`, map[string]any{"a": map[string]any{"b": true}}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := glyph.ParseLiteral(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "bare", `"open`, "'open", "[1, 2"} {
		_, err := glyph.ParseLiteral(bad)
		assert.ErrorIs(t, err, domain.ErrMalformedInstruction, bad)
	}
}
