package domain

import "errors"

// ErrDecode is returned when compact-encoded or structured input is malformed.
var ErrDecode = errors.New("decode error")

// ErrInvalidDefinition is returned when a decoded definition cannot be materialized.
var ErrInvalidDefinition = errors.New("invalid definition")

// ErrShardNotFound is returned when no shard matches the requested id or virtual port.
var ErrShardNotFound = errors.New("shard not found")

// ErrRouteNotFound is returned when a shard has no binding for METHOD:path.
var ErrRouteNotFound = errors.New("route not found")

// ErrHandlerFault is returned when a handler program fails while running.
var ErrHandlerFault = errors.New("handler fault")

// ErrMalformedInstruction marks an instruction the glyph VM skipped.
// It is only ever logged, never returned from Execute.
var ErrMalformedInstruction = errors.New("malformed instruction")

// ErrStateNotFound is returned when a shard has no persisted state bag.
var ErrStateNotFound = errors.New("state not found")

// IsNotFound reports whether err is one of the 404-equivalent errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShardNotFound) || errors.Is(err, ErrRouteNotFound)
}
