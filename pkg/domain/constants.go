package domain

// Runtime kinds a shard may declare.
const (
	// RuntimeGlyph backs the shard with a glyph VM instance.
	RuntimeGlyph = "glyph"
	// RuntimeStatic materializes a shard without an engine. Calls are acknowledged only.
	RuntimeStatic = "static"
)

// Defaults applied while materializing definitions.
const (
	DefaultShardPort     = 3001
	DefaultRouteMethod   = "GET"
	DefaultMeshProtocol  = "virtual"
	AckStatusAccepted    = "accepted"
	RouteKeySeparator    = ":"
	DefaultHandlerStatus = 200
)

// Seed variable names made available to every handler program.
const (
	VarShard  = "shard"
	VarData   = "data"
	VarMethod = "method"
	VarPath   = "path"
	VarState  = "state"
)
