// Package validator checks hive definitions for mistakes the orchestrator
// would accept silently: positional port drift, shadowed routes, unknown
// opcodes and unrenderable views.
package validator

import (
	"context"
	"fmt"
	"strings"

	loamAdapter "github.com/aretw0/hivemesh/pkg/adapters/loam"
	"github.com/aretw0/hivemesh/pkg/definition"
	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/glyph"
	"github.com/aretw0/hivemesh/pkg/view"
)

// Severity grades an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding.
type Issue struct {
	Severity Severity
	Shard    string
	Message  string
}

func (i Issue) String() string {
	if i.Shard == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: shard '%s': %s", i.Severity, i.Shard, i.Message)
}

type collector struct {
	issues []Issue
}

func (c *collector) errorf(shard, format string, args ...any) {
	c.issues = append(c.issues, Issue{SeverityError, shard, fmt.Sprintf(format, args...)})
}

func (c *collector) warnf(shard, format string, args ...any) {
	c.issues = append(c.issues, Issue{SeverityWarning, shard, fmt.Sprintf(format, args...)})
}

// ValidateHive inspects a decoded hive definition.
func ValidateHive(cfg domain.HiveConfig) []Issue {
	c := &collector{}

	ids := make(map[string]int)
	ports := make(map[int]string)
	for i, s := range cfg.Shards {
		name := s.ID
		if name == "" {
			name = fmt.Sprintf("#%d", i)
			c.warnf(name, "no id; one will be generated on every boot")
		} else if prev, dup := ids[s.ID]; dup {
			c.errorf(s.ID, "duplicate id (shard #%d is replaced by #%d)", prev, i)
		}
		ids[s.ID] = i

		port := s.Port
		if port == 0 {
			port = domain.DefaultShardPort
		}
		if owner, dup := ports[port]; dup {
			c.errorf(name, "port %d already declared by '%s'; calls by port reach '%s'", port, owner, owner)
		} else {
			ports[port] = name
		}

		validateShard(c, name, s)
	}

	validateMesh(c, cfg)
	return c.issues
}

// ValidateShard inspects one shard definition.
func ValidateShard(def domain.ShardDefinition) []Issue {
	c := &collector{}
	name := def.ID
	if name == "" {
		name = "#0"
	}
	validateShard(c, name, def)
	return c.issues
}

func validateShard(c *collector, name string, s domain.ShardDefinition) {
	runtime := strings.ToLower(strings.TrimSpace(s.Runtime))
	switch runtime {
	case "", domain.RuntimeGlyph, domain.RuntimeStatic:
	default:
		c.warnf(name, "unknown runtime '%s'; calls are acknowledged without running handlers", s.Runtime)
	}
	engine := runtime == "" || runtime == domain.RuntimeGlyph

	seen := make(map[string]bool)
	for _, r := range s.API {
		if r.Path == "" {
			c.errorf(name, "route with empty path")
			continue
		}
		if !strings.HasPrefix(r.Path, "/") {
			c.warnf(name, "route path '%s' does not start with '/'; the mesh router always sends one", r.Path)
		}
		key := domain.RouteKey(r.Method, r.Path)
		if seen[key] {
			c.warnf(name, "route %s declared more than once; the last definition wins", key)
		}
		seen[key] = true

		if src, ok := r.Handler.(string); ok && engine {
			validateProgram(c, name, key, src)
		}
	}

	if s.View != nil {
		if _, err := view.Compile(s.View); err != nil {
			c.errorf(name, "view does not compile: %v", err)
		}
	}
}

func validateProgram(c *collector, shard, route, src string) {
	prog := glyph.Compile(src)
	if len(prog.Instructions) == 0 {
		return
	}
	for _, in := range prog.Instructions {
		if in.Op == glyph.OpUnknown {
			c.warnf(shard, "%s line %d: unknown opcode '%s' will be skipped", route, in.Line, in.Glyph)
		}
	}
	if prog.Ignored > 0 {
		c.warnf(shard, "%s: %d non-instruction line(s) ignored", route, prog.Ignored)
	}
}

func validateMesh(c *collector, cfg domain.HiveConfig) {
	if len(cfg.Mesh.Ports) == 0 {
		return
	}
	for i, port := range cfg.Mesh.Ports {
		if i >= len(cfg.Shards) {
			c.warnf("", "mesh port %d has no shard at position %d", port, i)
			continue
		}
		s := cfg.Shards[i]
		declared := s.Port
		if declared == 0 {
			declared = domain.DefaultShardPort
		}
		if declared != port {
			c.warnf(s.ID, "mesh port %d is assigned by position but the shard declares %d", port, declared)
		}
	}
	if extra := len(cfg.Shards) - len(cfg.Mesh.Ports); extra > 0 {
		c.warnf("", "%d shard(s) without a mesh port", extra)
	}
}

// ValidateFile parses a hive definition file and validates it.
func ValidateFile(path string) ([]Issue, error) {
	tree, err := definition.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := definition.ParseHiveConfig(tree)
	if err != nil {
		return nil, err
	}
	return ValidateHive(cfg), nil
}

// ValidateDir validates every shard document of a Loam repository at dir.
func ValidateDir(ctx context.Context, dir string) ([]Issue, error) {
	loader, err := loamAdapter.Open(dir)
	if err != nil {
		return nil, err
	}
	defs, err := loader.LoadDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	cfg := domain.HiveConfig{}
	for _, d := range defs {
		sd, err := definition.ParseShardDefinition(d)
		if err != nil {
			return nil, err
		}
		cfg.Shards = append(cfg.Shards, sd)
	}
	return ValidateHive(cfg), nil
}

// Err aggregates error-severity issues. Warnings alone return nil.
func Err(issues []Issue) error {
	var errs []string
	for _, i := range issues {
		if i.Severity == SeverityError {
			errs = append(errs, i.String())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
}
