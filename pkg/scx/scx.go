// Package scx implements the compact wire form used to ship shard and hive
// definitions: dictionary substitution followed by flattening into
// separator-joined path/value tokens.
//
// A tree such as {"shard": "users", "port": 3001, "method": "GET"} encodes to
//
//	⟁m⟁G⟁P⟁3001⟁s⟁users
//
// Object keys are emitted in sorted order, nested keys are joined with "." and
// array indices are rendered as "[i]".
//
// Round trips are lossy in a few documented cases: a string value equal to a
// short dictionary token expands to its long form, numeric-looking strings come
// back as numbers, empty objects and arrays vanish, and purely numeric object
// keys come back as array indices.
package scx

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
)

// Separator delimits tokens. A leading Separator marks compact-encoded text.
const Separator = "⟁"

// maxIndex bounds array indices accepted while decoding.
const maxIndex = 1 << 16

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)

// Codec encodes and decodes against one Dictionary.
type Codec struct {
	dict *Dictionary
}

// NewCodec creates a Codec. A nil dictionary selects DefaultDictionary.
func NewCodec(dict *Dictionary) *Codec {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Codec{dict: dict}
}

var defaultCodec = NewCodec(nil)

// Encode encodes data with the default dictionary.
func Encode(data any) (string, error) {
	return defaultCodec.Encode(data)
}

// Decode decodes s with the default dictionary.
func Decode(s string) (any, error) {
	return defaultCodec.Decode(s)
}

// IsEncoded reports whether s carries the compact-encoding sentinel.
func IsEncoded(s string) bool {
	return strings.Contains(s, Separator)
}

// Encode converts data into its compact form.
// Text that parses as a JSON object or array is encoded as a tree; any other
// text is compressed word by word and prefixed with the separator.
func (c *Codec) Encode(data any) (string, error) {
	switch v := data.(type) {
	case string:
		return c.encodeText(v)
	case []byte:
		return c.encodeText(string(v))
	}
	tree, err := plain(data)
	if err != nil {
		return "", err
	}
	switch tree.(type) {
	case map[string]any, []any:
	default:
		s, err := c.renderValue(tree)
		if err != nil {
			return "", err
		}
		return Separator + s, nil
	}

	var tokens []string
	if err := c.flatten("", tree, &tokens); err != nil {
		return "", err
	}
	return Separator + strings.Join(tokens, Separator), nil
}

func (c *Codec) encodeText(text string) (string, error) {
	var tree any
	if err := json.Unmarshal([]byte(text), &tree); err == nil {
		switch tree.(type) {
		case map[string]any, []any:
			return c.Encode(tree)
		}
	}
	if strings.Contains(text, Separator) {
		return "", fmt.Errorf("%w: text already contains the separator", domain.ErrDecode)
	}
	return Separator + c.dict.compressText(text), nil
}

func (c *Codec) flatten(prefix string, v any, tokens *[]string) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if k == "" || strings.Contains(k, Separator) {
				return fmt.Errorf("%w: key %q cannot be encoded", domain.ErrDecode, k)
			}
			key := c.dict.Compress(k)
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := c.flatten(key, t[k], tokens); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for i, elem := range t {
			if err := c.flatten(prefix+"["+strconv.Itoa(i)+"]", elem, tokens); err != nil {
				return err
			}
		}
		return nil
	}

	if isComposite(v) {
		converted, err := plain(v)
		if err != nil {
			return err
		}
		return c.flatten(prefix, converted, tokens)
	}
	s, err := c.renderValue(v)
	if err != nil {
		return err
	}
	*tokens = append(*tokens, prefix, s)
	return nil
}

func (c *Codec) renderValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		if strings.Contains(t, Separator) {
			return "", fmt.Errorf("%w: value %q contains the separator", domain.ErrDecode, t)
		}
		return c.dict.Compress(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t), nil
	}
	return "", fmt.Errorf("%w: unsupported value type %T", domain.ErrDecode, v)
}

// Decode rebuilds a tree from its compact form. Input without the separator is
// returned unchanged.
func (c *Codec) Decode(s string) (any, error) {
	if !IsEncoded(s) {
		return s, nil
	}
	tokens := strings.Split(strings.TrimPrefix(s, Separator), Separator)
	if len(tokens) == 1 {
		return c.dict.expandText(tokens[0]), nil
	}
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of tokens (%d)", domain.ErrDecode, len(tokens))
	}

	var root any
	for i := 0; i < len(tokens); i += 2 {
		segs, err := c.parsePath(tokens[i])
		if err != nil {
			return nil, err
		}
		root, err = assign(root, segs, c.coerce(tokens[i+1]))
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", domain.ErrDecode, tokens[i], err)
		}
	}
	return root, nil
}

func (c *Codec) coerce(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if numericPattern.MatchString(raw) {
		if i, err := strconv.ParseInt(raw, 10, 0); err == nil {
			return int(i)
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return c.dict.Expand(raw)
}

type segment struct {
	key     string
	index   int
	isIndex bool
}

func (c *Codec) parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrDecode)
	}
	var segs []segment
	for _, part := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(part, "[")
		switch {
		case name != "" && isDigits(name):
			idx, err := parseIndex(name)
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{index: idx, isIndex: true})
		case name != "":
			segs = append(segs, segment{key: c.dict.Expand(name)})
		case rest == "" && !strings.HasPrefix(part, "["):
			return nil, fmt.Errorf("%w: empty segment in %q", domain.ErrDecode, path)
		}
		if !strings.HasPrefix(part, name+"[") {
			continue
		}
		for _, raw := range strings.Split(strings.TrimSuffix(part[len(name)+1:], "]"), "][") {
			idx, err := parseIndex(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: in %q", err, path)
			}
			segs = append(segs, segment{index: idx, isIndex: true})
		}
	}
	return segs, nil
}

func parseIndex(raw string) (int, error) {
	if !isDigits(raw) {
		return 0, fmt.Errorf("%w: bad index %q", domain.ErrDecode, raw)
	}
	idx, err := strconv.Atoi(raw)
	if err != nil || idx >= maxIndex {
		return 0, fmt.Errorf("%w: index %q out of range", domain.ErrDecode, raw)
	}
	return idx, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func assign(node any, segs []segment, val any) (any, error) {
	if len(segs) == 0 {
		if node != nil {
			return nil, fmt.Errorf("duplicate path")
		}
		return val, nil
	}
	seg := segs[0]
	if seg.isIndex {
		var arr []any
		switch n := node.(type) {
		case nil:
		case []any:
			arr = n
		default:
			return nil, fmt.Errorf("index [%d] into %T", seg.index, node)
		}
		for len(arr) <= seg.index {
			arr = append(arr, nil)
		}
		child, err := assign(arr[seg.index], segs[1:], val)
		if err != nil {
			return nil, err
		}
		arr[seg.index] = child
		return arr, nil
	}

	var obj map[string]any
	switch n := node.(type) {
	case nil:
		obj = make(map[string]any)
	case map[string]any:
		obj = n
	default:
		return nil, fmt.Errorf("key %q into %T", seg.key, node)
	}
	child, err := assign(obj[seg.key], segs[1:], val)
	if err != nil {
		return nil, err
	}
	obj[seg.key] = child
	return obj, nil
}

func isComposite(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return true
	}
	return false
}

// plain converts typed maps, slices and structs to map[string]any / []any trees.
func plain(v any) (any, error) {
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	}
	if !isComposite(v) {
		return v, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return tree, nil
}
