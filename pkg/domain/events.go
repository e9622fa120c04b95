package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventBoot         EventType = "hive_boot"
	EventShardCreated EventType = "shard_created"
	EventShardDeleted EventType = "shard_deleted"
	EventCall         EventType = "mesh_call"
	EventCallReturn   EventType = "mesh_call_return"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	HiveID    string    `json:"hive_id"`
}

// ShardEvent represents a change in the shard registry.
type ShardEvent struct {
	EventBase
	ShardID string `json:"shard_id"`
	Port    int    `json:"port"`
}

// CallEvent represents one routed mesh call.
type CallEvent struct {
	EventBase
	ShardID  string        `json:"shard_id"`
	Method   string        `json:"method"`
	Path     string        `json:"path"`
	Input    any           `json:"input,omitempty"`
	Output   any           `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// BootEvent is emitted after a successful boot.
type BootEvent struct {
	EventBase
	ShardCount int `json:"shard_count"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
// Hooks run synchronously on the calling goroutine and must not block.
type LifecycleHooks struct {
	OnBoot         func(context.Context, *BootEvent)
	OnShardCreated func(context.Context, *ShardEvent)
	OnShardDeleted func(context.Context, *ShardEvent)
	OnCall         func(context.Context, *CallEvent)
	OnCallReturn   func(context.Context, *CallEvent)
}

// Merge returns hooks that invoke h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnBoot:         chain(h.OnBoot, other.OnBoot),
		OnShardCreated: chain(h.OnShardCreated, other.OnShardCreated),
		OnShardDeleted: chain(h.OnShardDeleted, other.OnShardDeleted),
		OnCall:         chain(h.OnCall, other.OnCall),
		OnCallReturn:   chain(h.OnCallReturn, other.OnCallReturn),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
