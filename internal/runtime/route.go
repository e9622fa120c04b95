package runtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/glyph"
	"github.com/aretw0/hivemesh/pkg/session"
)

// resolve must be called with mu held for reading.
func (o *Orchestrator) resolve(ref string) (*shard, bool) {
	if s, ok := o.shards[ref]; ok {
		return s, true
	}
	port, err := strconv.Atoi(ref)
	if err != nil {
		return nil, false
	}
	for _, id := range o.order {
		if s := o.shards[id]; s.def.Port == port {
			return s, true
		}
	}
	return nil, false
}

// RouteToShard runs the handler bound to METHOD:path on the shard named by
// shardRef, which is a shard identifier or a virtual port number.
//
// Calls to one shard are serialized; calls to different shards run in parallel.
func (o *Orchestrator) RouteToShard(ctx context.Context, shardRef, method, path string, data any) (any, error) {
	o.mu.RLock()
	s, ok := o.resolve(shardRef)
	hiveID := o.id
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrShardNotFound, shardRef)
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = domain.DefaultRouteMethod
	}
	key := domain.RouteKey(method, path)
	handler, ok := s.routes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrRouteNotFound, key, s.def.ID)
	}

	ev := &domain.CallEvent{
		EventBase: o.event(hiveID, domain.EventCall),
		ShardID:   s.def.ID,
		Method:    method,
		Path:      path,
		Input:     data,
	}
	if o.hooks.OnCall != nil {
		o.hooks.OnCall(ctx, ev)
	}

	start := time.Now()
	out, err := o.dispatch(ctx, s, handler, method, path, data)

	ret := *ev
	ret.Type = domain.EventCallReturn
	ret.Timestamp = time.Now()
	ret.Duration = time.Since(start)
	ret.Output = out
	if err != nil {
		ret.IsError = true
		ret.Error = err.Error()
		o.logger.Warn("mesh call failed", "shard", s.def.ID, "route", key, "err", err)
	} else {
		o.logger.Debug("mesh call", "shard", s.def.ID, "route", key, "duration", ret.Duration)
	}
	if o.hooks.OnCallReturn != nil {
		o.hooks.OnCallReturn(ctx, &ret)
	}
	return out, err
}

func (o *Orchestrator) dispatch(ctx context.Context, s *shard, handler any, method, path string, data any) (any, error) {
	if s.engine == nil {
		return map[string]any{
			"shard":  s.def.ID,
			"method": method,
			"path":   path,
			"status": domain.AckStatusAccepted,
			"data":   data,
		}, nil
	}

	if o.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.callTimeout)
		defer cancel()
	}

	var out any
	err := o.sessions.Do(ctx, s.def.ID, func(ctx context.Context, bag *session.Bag) error {
		seed := map[string]any{
			domain.VarShard:  s.def.ID,
			domain.VarData:   data,
			domain.VarMethod: method,
			domain.VarPath:   path,
			domain.VarState:  map[string]any(bag.Snapshot()),
		}
		var err error
		out, err = execute(glyph.ContextWithState(ctx, bag), s.engine, handler, seed)
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrHandlerFault) {
		err = fmt.Errorf("%w: %w", domain.ErrHandlerFault, err)
	}
	return out, err
}

func execute(ctx context.Context, e *glyph.Engine, handler any, seed map[string]any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrHandlerFault, r)
		}
	}()
	return e.Execute(ctx, handler, seed)
}
