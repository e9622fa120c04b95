package loam

// ShardMetadata is the frontmatter of a shard document.
// Numeric fields stay untyped; Loam strict mode yields json.Number, which the
// definition decoder accepts.
type ShardMetadata struct {
	ID      string           `json:"id" mapstructure:"id"`
	Port    any              `json:"port" mapstructure:"port"`
	Runtime string           `json:"runtime" mapstructure:"runtime"`
	API     []map[string]any `json:"api" mapstructure:"api"`
	View    any              `json:"view" mapstructure:"view"`
	State   map[string]any   `json:"state" mapstructure:"state"`
}
