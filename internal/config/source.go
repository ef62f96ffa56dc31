package config

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// ErrInvalidOverride indicates an override that is not in key=value form.
var ErrInvalidOverride = errors.New("override must be in key=value form")

// Source is a named mapping from dotted keys to string values.
type Source interface {
	Name() string
	Lookup(key string) (string, bool)
}

// MapSource serves a fixed set of properties held in memory.
type MapSource struct {
	name  string
	props map[string]string
}

// NewMapSource copies props into a new source called name.
func NewMapSource(name string, props map[string]string) *MapSource {
	copied := make(map[string]string, len(props))
	maps.Copy(copied, props)
	return &MapSource{name: name, props: copied}
}

// Name implements Source.
func (s *MapSource) Name() string {
	return s.name
}

// Lookup implements Source.
func (s *MapSource) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.props[key]
	return value, ok
}

// Keys returns the held keys in sorted order.
func (s *MapSource) Keys() []string {
	keys := make([]string, 0, len(s.props))
	for key := range s.props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports how many properties the source holds.
func (s *MapSource) Len() int {
	return len(s.props)
}

// ParseOverrides builds a source from key=value pairs. Later pairs win.
func ParseOverrides(name string, pairs []string) (*MapSource, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOverride, pair)
		}
		props[key] = value
	}
	return NewMapSource(name, props), nil
}
