package definition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/scx"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a definition file and returns its raw tree.
// Compact-encoded content is decoded first; ".json" files are parsed as JSON and
// everything else as YAML.
func LoadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%w: failed to parse %s: %v", domain.ErrDecode, filepath.Base(path), err)
		}
		return tree, nil
	}
	return ParseText(string(data))
}

// ParseText parses inline definition text: compact form, JSON, or YAML.
// The result must be an object or an array.
func ParseText(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty definition", domain.ErrDecode)
	}
	if scx.IsEncoded(trimmed) {
		tree, err := scx.Decode(trimmed)
		if err != nil {
			return nil, err
		}
		return requireContainer(tree)
	}

	var tree any
	if err := json.Unmarshal([]byte(trimmed), &tree); err == nil {
		return requireContainer(tree)
	}
	if err := yaml.Unmarshal([]byte(trimmed), &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return requireContainer(tree)
}

func requireContainer(tree any) (any, error) {
	switch tree.(type) {
	case map[string]any, []any:
		return tree, nil
	}
	return nil, fmt.Errorf("%w: definition must be an object or array, got %T", domain.ErrDecode, tree)
}
