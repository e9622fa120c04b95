// Package view compiles declarative view descriptors into HTML markup.
//
// A node is an object of the shape {tag, attributes, children[]}. Children may be
// nested nodes or scalars, which render as escaped text. The attribute name "cls"
// is an alias for "class".
package view

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/aretw0/hivemesh/pkg/definition"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultTag is used when a node omits its tag.
const DefaultTag = "div"

// Compile renders tree as markup. Prefixed definition keys are accepted.
func Compile(tree any) (string, error) {
	node, err := build(definition.Normalize(tree))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", fmt.Errorf("failed to render view: %w", err)
	}
	return buf.String(), nil
}

func build(tree any) (*html.Node, error) {
	switch t := tree.(type) {
	case map[string]any:
		return buildElement(t)
	case nil:
		return &html.Node{Type: html.TextNode}, nil
	case string:
		return &html.Node{Type: html.TextNode, Data: t}, nil
	case bool:
		return &html.Node{Type: html.TextNode, Data: strconv.FormatBool(t)}, nil
	case int, int64, float64, float32, int32:
		return &html.Node{Type: html.TextNode, Data: fmt.Sprint(t)}, nil
	}
	return nil, fmt.Errorf("unsupported view node %T", tree)
}

func buildElement(m map[string]any) (*html.Node, error) {
	tag := DefaultTag
	if raw, ok := m["tag"]; ok {
		s, ok := raw.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("view tag must be a non-empty string, got %T", raw)
		}
		tag = s
	}
	el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}

	if raw, ok := m["attributes"]; ok && raw != nil {
		attrs, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("view attributes of <%s> must be an object, got %T", tag, raw)
		}
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := k
			if name == "cls" {
				name = "class"
			}
			el.Attr = append(el.Attr, html.Attribute{Key: name, Val: fmt.Sprint(attrs[k])})
		}
	}

	if raw, ok := m["children"]; ok && raw != nil {
		children, ok := raw.([]any)
		if !ok {
			children = []any{raw}
		}
		for i, c := range children {
			child, err := build(c)
			if err != nil {
				return nil, fmt.Errorf("<%s> child %d: %w", tag, i, err)
			}
			el.AppendChild(child)
		}
	}
	return el, nil
}
