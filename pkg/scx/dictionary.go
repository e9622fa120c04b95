package scx

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Dictionary is a fixed bidirectional mapping between long-form words and
// their compact tokens. A Dictionary is immutable once built.
type Dictionary struct {
	Version int

	forward map[string]string
	reverse map[string]string

	longWords  *regexp.Regexp
	shortWords *regexp.Regexp
}

// NewDictionary validates entries (long -> short) and builds a Dictionary.
// Tokens must be non-empty, unique, free of the separator, and no short token may
// equal a long-form word, otherwise expansion would be ambiguous.
func NewDictionary(version int, entries map[string]string) (*Dictionary, error) {
	d := &Dictionary{
		Version: version,
		forward: make(map[string]string, len(entries)),
		reverse: make(map[string]string, len(entries)),
	}
	for long, short := range entries {
		if long == "" || short == "" {
			return nil, fmt.Errorf("dictionary v%d: empty token for %q", version, long)
		}
		if strings.Contains(long, Separator) || strings.Contains(short, Separator) {
			return nil, fmt.Errorf("dictionary v%d: token %q contains the separator", version, long)
		}
		if prev, ok := d.reverse[short]; ok {
			return nil, fmt.Errorf("dictionary v%d: short token %q used by %q and %q", version, short, prev, long)
		}
		d.forward[long] = short
		d.reverse[short] = long
	}
	for short := range d.reverse {
		if _, ok := d.forward[short]; ok {
			return nil, fmt.Errorf("dictionary v%d: short token %q collides with a long-form word", version, short)
		}
	}
	d.longWords = wordPattern(d.forward)
	d.shortWords = wordPattern(d.reverse)
	return d, nil
}

// Compress returns the short token for word, or word itself when unknown.
func (d *Dictionary) Compress(word string) string {
	if short, ok := d.forward[word]; ok {
		return short
	}
	return word
}

// Expand returns the long form of token, or token itself when unknown.
func (d *Dictionary) Expand(token string) string {
	if long, ok := d.reverse[token]; ok {
		return long
	}
	return token
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.forward)
}

func (d *Dictionary) compressText(text string) string {
	if d.longWords == nil {
		return text
	}
	return d.longWords.ReplaceAllStringFunc(text, d.Compress)
}

func (d *Dictionary) expandText(text string) string {
	if d.shortWords == nil {
		return text
	}
	return d.shortWords.ReplaceAllStringFunc(text, d.Expand)
}

// wordPattern matches any key of words as a whole word, longest alternatives first.
func wordPattern(words map[string]string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	keys := make([]string, 0, len(words))
	for k := range words {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return regexp.MustCompile(`\b(?:` + strings.Join(keys, "|") + `)\b`)
}

// defaultEntries is dictionary version 1.
var defaultEntries = map[string]string{
	// keys
	"hive":       "h",
	"shards":     "ss",
	"shard":      "s",
	"id":         "i",
	"port":       "P",
	"ports":      "Ps",
	"runtime":    "r",
	"api":        "a",
	"path":       "p",
	"method":     "m",
	"handler":    "hd",
	"view":       "v",
	"mesh":       "M",
	"protocol":   "pr",
	"tag":        "t",
	"attributes": "at",
	"children":   "c",
	"data":       "d",
	"state":      "st",
	"requestId":  "rq",
	"type":       "ty",
	"result":     "rs",

	// values
	"GET":       "G",
	"POST":      "Po",
	"PUT":       "Pu",
	"DELETE":    "D",
	"PATCH":     "Pa",
	"glyph":     "gl",
	"static":    "sc",
	"virtual":   "vt",
	"http":      "ht",
	"websocket": "ws",
}

var defaultDictionary = mustDictionary(1, defaultEntries)

func mustDictionary(version int, entries map[string]string) *Dictionary {
	d, err := NewDictionary(version, entries)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultDictionary returns the built-in dictionary.
func DefaultDictionary() *Dictionary {
	return defaultDictionary
}
