package config

import "strings"

// View reads keys relative to a prefix across an ordered list of sources.
type View struct {
	prefix  string
	sources []Source
}

// NewView binds prefix to sources. Sources are consulted in the given order and
// nil entries are skipped.
func NewView(prefix string, sources ...Source) View {
	kept := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			kept = append(kept, src)
		}
	}
	return View{prefix: strings.TrimSpace(prefix), sources: kept}
}

// Key returns the fully qualified key for name.
func (v View) Key(name string) string {
	return withDottedPrefix(v.prefix, name)
}

// Lookup returns the first value held for name and the name of the source holding it.
func (v View) Lookup(name string) (string, string, bool) {
	key := v.Key(name)
	for _, src := range v.sources {
		if value, ok := src.Lookup(key); ok {
			return value, src.Name(), true
		}
	}
	return "", "", false
}

// withDottedPrefix joins prefix and key with a dot. A blank prefix addresses key as is.
func withDottedPrefix(prefix, key string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
