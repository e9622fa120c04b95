package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/hivemesh/internal/logging"
	"github.com/aretw0/hivemesh/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sc.sigCh:
			sc.mu.Lock()
			sc.sigVal = sig
			sc.mu.Unlock()
			sc.Cancel()
		case <-sc.Context.Done():
		}
		sc.stop.Do(func() { signal.Stop(sc.sigCh) })
	}()
	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger resolves the level from the flag, then HIVEMESH_LOG_LEVEL.
// Debug forces debug level. Without either the logger is silent.
func createLogger(level string, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	if l, ok := logging.ParseLevel(level); ok {
		return logging.New(l)
	}
	if l, ok := logging.ParseLevel(os.Getenv(logging.EnvLevel)); ok {
		return logging.New(l)
	}
	return logging.NewNop()
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnBoot: func(ctx context.Context, e *domain.BootEvent) {
			logger.Debug("Hive Boot", "hive", e.HiveID, "shards", e.ShardCount)
		},
		OnShardCreated: func(ctx context.Context, e *domain.ShardEvent) {
			logger.Debug("Shard Created", "shard", e.ShardID, "port", e.Port)
		},
		OnShardDeleted: func(ctx context.Context, e *domain.ShardEvent) {
			logger.Debug("Shard Deleted", "shard", e.ShardID)
		},
		OnCall: func(ctx context.Context, e *domain.CallEvent) {
			logger.Debug("Mesh Call", "shard", e.ShardID, "method", e.Method, "path", e.Path)
		},
		OnCallReturn: func(ctx context.Context, e *domain.CallEvent) {
			if e.IsError {
				logger.Debug("Mesh Return (Error)", "shard", e.ShardID, "err", e.Error)
			} else {
				logger.Debug("Mesh Return (Success)", "shard", e.ShardID, "duration", e.Duration)
			}
		},
	}
}
