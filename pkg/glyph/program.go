package glyph

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
	"gopkg.in/yaml.v3"
)

var (
	instructionPattern = regexp.MustCompile(`^\[([^\s\]]+)(?:\s+(.*?))?\s*\]$`)
	numberPattern      = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)
)

// Instruction is one parsed program line.
type Instruction struct {
	Op    Opcode
	Glyph string
	Args  string
	Line  int
}

// Program is a compiled instruction list.
type Program struct {
	Instructions []Instruction
	// Ignored counts non-blank, non-comment lines that were not instructions.
	Ignored int
}

// Ref names an opaque handler. Executing a Ref synthesizes a single call.
type Ref string

// Compile parses src into a Program. Compile never fails; lines that are not
// instructions are counted in Ignored.
func Compile(src string) *Program {
	p := &Program{}
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		m := instructionPattern.FindStringSubmatch(line)
		if m == nil {
			p.Ignored++
			continue
		}
		p.Instructions = append(p.Instructions, Instruction{
			Op:    LookupOpcode(m[1]),
			Glyph: m[1],
			Args:  strings.TrimSpace(m[2]),
			Line:  i + 1,
		})
	}
	return p
}

// IsProgram reports whether src contains at least one instruction.
func IsProgram(src string) bool {
	return len(Compile(src).Instructions) > 0
}

func call(name string) *Program {
	return &Program{Instructions: []Instruction{{Op: OpCall, Glyph: "Ca", Args: name}}}
}

// ParseLiteral parses a write argument.
func ParseLiteral(s string) (any, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("%w: empty literal", domain.ErrMalformedInstruction)
	case s == "true":
		return true, nil
	case s == "false":
		return false, nil
	case s == "null":
		return nil, nil
	case strings.HasPrefix(s, `"`):
		v, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("%w: bad string literal %s", domain.ErrMalformedInstruction, s)
		}
		return v, nil
	case strings.HasPrefix(s, "'"):
		if len(s) < 2 || !strings.HasSuffix(s, "'") {
			return nil, fmt.Errorf("%w: unterminated string literal %s", domain.ErrMalformedInstruction, s)
		}
		return strings.ReplaceAll(s[1:len(s)-1], `\'`, "'"), nil
	case numberPattern.MatchString(s):
		if i, err := strconv.ParseInt(s, 10, 0); err == nil {
			return int(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad number %s", domain.ErrMalformedInstruction, s)
		}
		return f, nil
	case strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{"):
		return parseStructured(s)
	}
	return nil, fmt.Errorf("%w: unrecognized literal %s", domain.ErrMalformedInstruction, s)
}

// parseStructured accepts strict JSON and the looser YAML flow syntax
// ({name: x, tags: [a, b]}).
func parseStructured(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		var strict any
		if jerr := json.Unmarshal([]byte(s), &strict); jerr != nil {
			return nil, fmt.Errorf("%w: bad structured literal: %v", domain.ErrMalformedInstruction, err)
		}
		return strict, nil
	}
	return stringKeys(v), nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = stringKeys(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = stringKeys(e)
		}
		return t
	}
	return v
}
