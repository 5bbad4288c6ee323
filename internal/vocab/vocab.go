// Package vocab loads and holds the fixed tag vocabulary. The
// vocabulary is read once at startup and shared read-only for the rest
// of the run; classifier output is always intersected with it before
// being used.
package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary is the ordered list of permissible tag strings.
type Vocabulary struct {
	names []string
	index map[string]struct{}
}

// Load reads a YAML sequence of tag strings from path.
func Load(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var names []string
	if err := yaml.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("parse vocabulary file %s: %w", path, err)
	}

	v := New(names)
	if v.Len() == 0 {
		return nil, fmt.Errorf("vocabulary file %s contains no tags", path)
	}
	return v, nil
}

// New builds a vocabulary from the given names, preserving order and
// dropping empty or duplicate entries.
func New(names []string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]struct{}, len(names))}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := v.index[name]; ok {
			continue
		}
		v.index[name] = struct{}{}
		v.names = append(v.names, name)
	}
	return v
}

// Contains reports vocabulary membership. Matching is exact and
// case-sensitive: the model is instructed to echo tags verbatim, and
// anything it got wrong is discarded rather than repaired.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Filter returns the members of tags that belong to the vocabulary,
// preserving input order and removing duplicates.
func (v *Vocabulary) Filter(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if !v.Contains(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Names returns the vocabulary in its declared order. Callers must not
// modify the returned slice.
func (v *Vocabulary) Names() []string { return v.names }

// Len returns the number of tags in the vocabulary.
func (v *Vocabulary) Len() int { return len(v.names) }
