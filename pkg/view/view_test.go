package view

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_Golden(t *testing.T) {
	tree := map[string]any{
		"tag":        "section",
		"attributes": map[string]any{"cls": "card", "id": "users"},
		"children": []any{
			map[string]any{"tag": "h1", "children": []any{"Users"}},
			map[string]any{"tag": "p", "children": []any{"a < b & c"}},
			map[string]any{"tag": "br"},
		},
	}

	out, err := Compile(tree)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "card", []byte(out))
}

func TestCompile_PrefixedKeysAndDefaults(t *testing.T) {
	out, err := Compile(map[string]any{
		"@attributes": map[string]any{"@cls": "row"},
		"@children":   []any{"n=", 3, " ok=", true},
	})
	require.NoError(t, err)
	assert.Equal(t, `<div class="row">n=3 ok=true</div>`, out)
}

func TestCompile_SingleChildIsWrapped(t *testing.T) {
	out, err := Compile(map[string]any{"tag": "span", "children": "solo"})
	require.NoError(t, err)
	assert.Equal(t, "<span>solo</span>", out)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile(map[string]any{"tag": 5})
	assert.Error(t, err)

	_, err = Compile(map[string]any{"tag": "p", "attributes": []any{"x"}})
	assert.Error(t, err)

	_, err = Compile(map[string]any{"tag": "br", "children": []any{"text"}})
	assert.Error(t, err, "void elements cannot have children")

	_, err = Compile(map[string]any{"children": []any{[]any{"nested array"}}})
	assert.Error(t, err)
}
