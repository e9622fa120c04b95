package glyph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
)

// maxCallDepth bounds user function nesting.
const maxCallDepth = 64

// Capabilities are the cross-layer services reachable from a program.
type Capabilities interface {
	Decompress(ctx context.Context, v any) (any, error)
	Normalize(ctx context.Context, v any) (any, error)
	Register(ctx context.Context, v any) (any, error)
}

// StateBag is the per-shard key/value memory used by remember and recall.
type StateBag interface {
	Get(key string) (any, bool)
	Set(key string, v any)
}

// NativeFunc is a Go function callable from a program.
type NativeFunc func(ctx context.Context, args map[string]any) (any, error)

// Registry resolves native functions by name.
type Registry interface {
	Lookup(name string) (NativeFunc, bool)
}

// Engine executes programs. An Engine is immutable after construction and safe
// for concurrent use; each Execute runs on its own machine.
type Engine struct {
	logger   *slog.Logger
	caps     Capabilities
	registry Registry
	state    StateBag
	maxSteps int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for program diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCapabilities wires decompress, normalize and register.
func WithCapabilities(c Capabilities) Option {
	return func(e *Engine) { e.caps = c }
}

// WithRegistry wires native functions.
func WithRegistry(r Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithStateBag sets the default state bag. A bag attached to the context with
// ContextWithState takes precedence.
func WithStateBag(s StateBag) Option {
	return func(e *Engine) { e.state = s }
}

// WithMaxSteps halts programs after n dispatched instructions. Zero means unlimited.
func WithMaxSteps(n int) Option {
	return func(e *Engine) { e.maxSteps = n }
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type stateKey struct{}

// ContextWithState attaches a state bag for a single execution.
func ContextWithState(ctx context.Context, s StateBag) context.Context {
	return context.WithValue(ctx, stateKey{}, s)
}

func stateFrom(ctx context.Context) (StateBag, bool) {
	s, ok := ctx.Value(stateKey{}).(StateBag)
	return s, ok && s != nil
}

// Execute runs code with variables seeded from seed.
//
// code may be program text, a *Program, a Ref or any other value; the last two
// run as a single call naming the value.
func (e *Engine) Execute(ctx context.Context, code any, seed map[string]any) (any, error) {
	var prog *Program
	switch c := code.(type) {
	case nil:
		prog = &Program{}
	case *Program:
		prog = c
	case string:
		prog = Compile(c)
	case Ref:
		prog = call(string(c))
	default:
		prog = call(fmt.Sprint(c))
	}

	m := e.newMachine(ctx, seed)
	if prog.Ignored > 0 {
		m.logger.Debug("ignored non-instruction lines", "count", prog.Ignored)
	}
	if err := m.run(prog.Instructions); err != nil {
		return nil, err
	}
	if len(m.stack) > 0 {
		return m.stack[len(m.stack)-1], nil
	}
	return maps.Clone(m.vars), nil
}

func (e *Engine) newMachine(ctx context.Context, seed map[string]any) *machine {
	vars := make(map[string]any, len(seed))
	maps.Copy(vars, seed)
	state := e.state
	if s, ok := stateFrom(ctx); ok {
		state = s
	}
	return &machine{
		ctx:    ctx,
		engine: e,
		logger: e.logger,
		vars:   vars,
		funcs:  make(map[string][]Instruction),
		state:  state,
	}
}
