package registry

import (
	"context"
	"fmt"
	"sort"
)

// Standard returns a registry preloaded with the built-in functions:
//
//	echo   returns its arguments
//	keys   sorted keys of the "value" object
//	len    length of the "value" array, object or string
//	merge  shallow merge of the "left" and "right" objects
func Standard() *Registry {
	r := NewRegistry()
	r.Register("echo", echo)
	r.Register("keys", keys)
	r.Register("len", length)
	r.Register("merge", merge)
	return r
}

func echo(_ context.Context, args map[string]any) (any, error) {
	return args, nil
}

func keys(_ context.Context, args map[string]any) (any, error) {
	obj, ok := args["value"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("keys: value must be an object, got %T", args["value"])
	}
	out := make([]string, 0, len(obj))
	for k := range obj {
		out = append(out, k)
	}
	sort.Strings(out)
	list := make([]any, len(out))
	for i, k := range out {
		list[i] = k
	}
	return list, nil
}

func length(_ context.Context, args map[string]any) (any, error) {
	switch v := args["value"].(type) {
	case []any:
		return len(v), nil
	case map[string]any:
		return len(v), nil
	case string:
		return len(v), nil
	case nil:
		return 0, nil
	default:
		return nil, fmt.Errorf("len: unsupported type %T", v)
	}
}

func merge(_ context.Context, args map[string]any) (any, error) {
	out := make(map[string]any)
	for _, side := range []string{"left", "right"} {
		v, ok := args[side]
		if !ok || v == nil {
			continue
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("merge: %s must be an object, got %T", side, v)
		}
		for k, e := range obj {
			out[k] = e
		}
	}
	return out, nil
}
