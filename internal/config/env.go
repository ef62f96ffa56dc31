package config

import (
	"os"
	"strings"
)

// EnvSourceName names the environment source in provenance reports.
const EnvSourceName = "systemEnvironment"

// EnvSource resolves keys against a snapshot of environment variables.
type EnvSource struct {
	vars map[string]string
}

// Environment snapshots the current process environment.
func Environment() *EnvSource {
	return NewEnvSource(os.Environ())
}

// NewEnvSource builds a source from NAME=value entries. Entries without '=' are ignored.
func NewEnvSource(environ []string) *EnvSource {
	vars := make(map[string]string, len(environ))
	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = value
	}
	return &EnvSource{vars: vars}
}

// Name implements Source.
func (s *EnvSource) Name() string {
	return EnvSourceName
}

// Lookup tries the key verbatim and then its relaxed variable name (demo.foo -> DEMO_FOO).
func (s *EnvSource) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	if value, ok := s.vars[key]; ok {
		return value, true
	}
	value, ok := s.vars[EnvName(key)]
	return value, ok
}

// EnvName converts a dotted key into its environment variable form.
func EnvName(key string) string {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	return strings.ToUpper(replacer.Replace(key))
}
