package vendors

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadSpec reads a YAML vendor spec file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vendor spec %s: %w", path, err)
	}

	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse vendor spec %s: %w", path, err)
	}

	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("vendor spec %s: %w", path, err)
	}

	return &spec, nil
}

// LoadSpecFromBytes parses a YAML vendor spec from raw bytes.
func LoadSpecFromBytes(data []byte) (*Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse vendor spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadDir builds a registry from YAML spec files in dir, falling back to the
// compiled-in spec for any vendor kind without a file. A missing or empty dir
// yields the builtins only.
func LoadDir(dir string) (*Registry, error) {
	registry := NewRegistry()

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read vendors dir %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			spec, err := LoadSpec(filepath.Join(dir, entry.Name()))
			if err != nil {
				return nil, err
			}
			if err := registry.Register(spec); err != nil {
				return nil, err
			}
		}
	}

	for _, spec := range Builtins() {
		if _, err := registry.Get(string(spec.Kind)); err == nil {
			continue // file override wins
		}
		if err := registry.Register(spec); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
