package glyph

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// Reserved variables bound by each.
const (
	VarItem  = "item"
	VarIndex = "index"
)

type machine struct {
	ctx    context.Context
	engine *Engine
	logger *slog.Logger
	state  StateBag

	stack  []any
	vars   map[string]any
	funcs  map[string][]Instruction
	loops  []string
	halted bool
	steps  int
	depth  int
}

func (m *machine) push(v any) { m.stack = append(m.stack, v) }

func (m *machine) pop() (any, bool) {
	if len(m.stack) == 0 {
		return nil, false
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, true
}

func (m *machine) diag(in Instruction, msg string, args ...any) {
	m.logger.Warn(msg, append([]any{"line", in.Line, "opcode", in.Glyph}, args...)...)
}

func (m *machine) run(code []Instruction) error {
	for ip := 0; ip < len(code); ip++ {
		if m.halted {
			return nil
		}
		if err := m.ctx.Err(); err != nil {
			return err
		}
		if limit := m.engine.maxSteps; limit > 0 && m.steps >= limit {
			m.logger.Warn("step limit reached, halting", "limit", limit)
			m.halted = true
			return nil
		}
		m.steps++

		in := code[ip]
		switch in.Op {
		case OpScope:
			if in.Args == "" {
				m.diag(in, "scope close without open scope")
				continue
			}
			end := scopeEnd(code, ip)
			m.funcs[in.Args] = code[ip+1 : end]
			ip = end
		case OpWrite:
			v, err := ParseLiteral(in.Args)
			if err != nil {
				m.diag(in, "skipping malformed literal", "err", err)
				continue
			}
			m.push(v)
		case OpBind:
			if in.Args == "" {
				continue
			}
			v, ok := m.pop()
			if !ok {
				m.diag(in, "bind on empty stack", "name", in.Args)
				continue
			}
			m.vars[in.Args] = v
		case OpLoad:
			v, ok := m.load(in.Args)
			if !ok {
				m.diag(in, "unbound variable", "name", in.Args)
			}
			m.push(v)
		case OpCall:
			if err := m.call(in); err != nil {
				return err
			}
		case OpLoopBegin:
			m.loops = append(m.loops, in.Args)
		case OpLoopEnd:
			m.leaveLoop(in)
		case OpHalt:
			m.halted = true
		default:
			m.diag(in, "skipping unknown opcode", "err", domain.ErrMalformedInstruction)
		}
	}
	return nil
}

// scopeEnd returns the index of the "[Sa]" closing the scope opened at start,
// or len(code) when the scope is never closed.
func scopeEnd(code []Instruction, start int) int {
	depth := 0
	for i := start + 1; i < len(code); i++ {
		if code[i].Op != OpScope {
			continue
		}
		if code[i].Args != "" {
			depth++
			continue
		}
		if depth == 0 {
			return i
		}
		depth--
	}
	return len(code)
}

func (m *machine) leaveLoop(in Instruction) {
	if len(m.loops) == 0 {
		m.diag(in, "loop end without loop")
		return
	}
	if in.Args == "" {
		m.loops = m.loops[:len(m.loops)-1]
		return
	}
	for i := len(m.loops) - 1; i >= 0; i-- {
		if m.loops[i] == in.Args {
			m.loops = m.loops[:i]
			return
		}
	}
	m.diag(in, "loop end does not match an open loop", "name", in.Args)
}

func (m *machine) load(name string) (any, bool) {
	if v, ok := m.vars[name]; ok {
		return v, true
	}
	head, rest, dotted := strings.Cut(name, ".")
	if !dotted {
		return nil, false
	}
	root, ok := m.vars[head]
	if !ok {
		return nil, false
	}
	return property(root, rest)
}

// property walks a dotted path through objects and arrays.
func property(v any, path string) (any, bool) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(t) {
				return nil, false
			}
			cur = t[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func (m *machine) call(in Instruction) error {
	if strings.HasPrefix(in.Args, `"`) || strings.HasPrefix(in.Args, "'") {
		v, err := ParseLiteral(in.Args)
		if err != nil {
			m.diag(in, "skipping malformed literal", "err", err)
			return nil
		}
		m.push(v)
		return nil
	}

	name, arg, _ := strings.Cut(in.Args, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "":
		m.diag(in, "call without operation")
		return nil
	case "get":
		obj, _ := m.pop()
		v, ok := property(obj, arg)
		if !ok {
			m.logger.Debug("property not found", "line", in.Line, "path", arg)
		}
		m.push(v)
		return nil
	case "each":
		return m.each(in, arg)
	case "decompress", "normalize", "register":
		return m.crossLayer(name)
	case "remember":
		v, _ := m.pop()
		if m.state != nil {
			m.state.Set(arg, v)
		}
		return nil
	case "recall":
		var v any
		if m.state != nil {
			v, _ = m.state.Get(arg)
		}
		m.push(v)
		return nil
	}
	return m.invoke(name)
}

func (m *machine) invoke(name string) error {
	if body, ok := m.funcs[name]; ok {
		return m.runFunction(name, body)
	}
	if fn, ok := m.native(name); ok {
		top, _ := m.pop()
		out, err := fn(m.ctx, asArgs(top))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrHandlerFault, name, err)
		}
		m.push(out)
		return nil
	}
	m.push(map[string]any{"operation": name, "executed": true})
	return nil
}

func (m *machine) native(name string) (NativeFunc, bool) {
	if m.engine.registry == nil {
		return nil, false
	}
	return m.engine.registry.Lookup(name)
}

func asArgs(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case nil:
		return map[string]any{}
	}
	return map[string]any{"value": v}
}

func (m *machine) runFunction(name string, body []Instruction) error {
	if m.depth >= maxCallDepth {
		m.logger.Warn("call depth exceeded", "function", name, "limit", maxCallDepth)
		return nil
	}
	m.depth++
	defer func() { m.depth-- }()
	return m.run(body)
}

func (m *machine) each(in Instruction, fn string) error {
	top, _ := m.pop()
	items, ok := top.([]any)
	if !ok {
		m.diag(in, "each expects an array", "function", fn)
		m.push([]any{})
		return nil
	}
	body, isFunc := m.funcs[fn]
	nf, isNative := m.native(fn)
	if !isFunc && !isNative {
		m.diag(in, "each references unknown function", "function", fn)
	}

	prevItem, hadItem := m.vars[VarItem]
	prevIndex, hadIndex := m.vars[VarIndex]
	defer func() {
		restore(m.vars, VarItem, prevItem, hadItem)
		restore(m.vars, VarIndex, prevIndex, hadIndex)
	}()

	results := make([]any, 0, len(items))
	for i, item := range items {
		if m.halted {
			break
		}
		var out any
		switch {
		case isFunc:
			m.vars[VarItem] = item
			m.vars[VarIndex] = i
			base := len(m.stack)
			if err := m.runFunction(fn, body); err != nil {
				return err
			}
			if len(m.stack) > base {
				out = m.stack[len(m.stack)-1]
				m.stack = m.stack[:base]
			}
		case isNative:
			v, err := nf(m.ctx, map[string]any{VarItem: item, VarIndex: i})
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrHandlerFault, fn, err)
			}
			out = v
		}
		results = append(results, out)
	}
	m.push(results)
	return nil
}

func restore(vars map[string]any, key string, prev any, had bool) {
	if had {
		vars[key] = prev
		return
	}
	delete(vars, key)
}

func (m *machine) crossLayer(name string) error {
	v, _ := m.pop()
	caps := m.engine.caps
	if caps == nil {
		m.push(v)
		return nil
	}
	var (
		out any
		err error
	)
	switch name {
	case "decompress":
		out, err = caps.Decompress(m.ctx, v)
	case "normalize":
		out, err = caps.Normalize(m.ctx, v)
	case "register":
		out, err = caps.Register(m.ctx, v)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrHandlerFault, name, err)
	}
	m.push(out)
	return nil
}
