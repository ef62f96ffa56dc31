// Package config resolves the demo configuration record from an ordered list of
// key-value sources (command-line properties, explicit overrides, environment
// variables, property files, a remote config server). The first source holding a
// key wins; keys missing everywhere fall back to compiled-in defaults.
package config
