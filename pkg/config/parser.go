package config

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

func ParseFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseFromYAML(data)
}

// ParseFromYAML decodes cfgData on top of Default and validates the result.
func ParseFromYAML(cfgData []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(cfgData)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(cfgData))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
