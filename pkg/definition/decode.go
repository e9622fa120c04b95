package definition

import (
	"fmt"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decode normalizes tree and decodes it into out (a pointer to a struct).
// Numeric strings are accepted for numeric fields.
func Decode(tree any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := dec.Decode(Normalize(tree)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidDefinition, err)
	}
	return nil
}

// ParseHiveConfig decodes a boot definition.
// The hive identifier may be given as a string or as an object with an id.
func ParseHiveConfig(tree any) (domain.HiveConfig, error) {
	root, ok := Normalize(tree).(map[string]any)
	if !ok {
		return domain.HiveConfig{}, fmt.Errorf("%w: hive definition must be an object, got %T", domain.ErrInvalidDefinition, tree)
	}
	if h, ok := root["hive"].(map[string]any); ok {
		root["hive"] = h["id"]
	}

	var cfg domain.HiveConfig
	if err := Decode(root, &cfg); err != nil {
		return domain.HiveConfig{}, err
	}
	return cfg, nil
}

// ParseShardDefinition decodes one shard definition.
func ParseShardDefinition(tree any) (domain.ShardDefinition, error) {
	root, ok := Normalize(tree).(map[string]any)
	if !ok {
		return domain.ShardDefinition{}, fmt.Errorf("%w: shard definition must be an object, got %T", domain.ErrInvalidDefinition, tree)
	}
	var def domain.ShardDefinition
	if err := Decode(root, &def); err != nil {
		return domain.ShardDefinition{}, err
	}
	return def, nil
}
