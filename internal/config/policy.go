package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jurisgate/internal/validator"
)

// LoadPolicy reads the YAML gate policy at path on top of the built-in
// defaults. An empty path or a missing file yields the defaults.
func LoadPolicy(path string) (*validator.Policy, error) {
	p := validator.DefaultPolicy()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("gate policy read: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("gate policy unmarshal: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("gate policy: %w", err)
	}
	return p, nil
}
