package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// DefaultFileNames are the optional property files looked up by DiscoverFiles, in
// precedence order.
var DefaultFileNames = []string{"application.properties", "application.yaml", "application.yml"}

// LoadFile reads a property file into a source. YAML files (.yaml, .yml) are
// flattened to dotted keys; anything else is parsed as a .properties file.
func LoadFile(path string) (*MapSource, error) {
	var (
		props map[string]string
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		props, err = loadYAML(path)
	default:
		props, err = loadProperties(path)
	}
	if err != nil {
		return nil, err
	}

	return NewMapSource(fileSourceName(path), props), nil
}

// DiscoverFiles returns the default property files present in dir.
func DiscoverFiles(dir string) ([]string, error) {
	found := make([]string, 0, len(DefaultFileNames))
	for _, name := range DefaultFileNames {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", candidate, err)
		}
		if info.IsDir() {
			continue
		}
		found = append(found, candidate)
	}
	return found, nil
}

// fileSourceName names a file source after its path.
func fileSourceName(path string) string {
	return "file [" + path + "]"
}

// loadProperties parses a Java-style .properties file.
func loadProperties(path string) (map[string]string, error) {
	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parse properties: %w", err)
	}

	props := make(map[string]string, p.Len())
	for _, key := range p.Keys() {
		if value, ok := p.Get(key); ok {
			props[key] = value
		}
	}
	return props, nil
}

// loadYAML reads a YAML file and flattens it to dotted keys.
func loadYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	props := make(map[string]string)
	if len(doc.Content) == 0 {
		return props, nil
	}
	if err := flattenNode("", doc.Content[0], props); err != nil {
		return nil, fmt.Errorf("flatten YAML: %w", err)
	}
	return props, nil
}

// flattenNode writes every scalar below node into props under its dotted path.
// Sequence items are addressed as key[i].
func flattenNode(prefix string, node *yaml.Node, props map[string]string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := flattenNode(prefix, child, props); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if err := flattenNode(withDottedPrefix(prefix, key), node.Content[i+1], props); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, item := range node.Content {
			if err := flattenNode(prefix+"["+strconv.Itoa(i)+"]", item, props); err != nil {
				return err
			}
		}
	case yaml.AliasNode:
		if node.Alias == nil {
			return fmt.Errorf("dangling alias at line %d", node.Line)
		}
		return flattenNode(prefix, node.Alias, props)
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("top-level scalar at line %d", node.Line)
		}
		if node.ShortTag() == "!!null" {
			props[prefix] = ""
			return nil
		}
		props[prefix] = node.Value
	}
	return nil
}
