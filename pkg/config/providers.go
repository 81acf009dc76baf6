package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/asystent-radnego/common-go/pkg/types"
)

// providersFile is the layout of a providers YAML file
type providersFile struct {
	Providers []types.ProviderConfig `yaml:"providers"`
}

// LoadProviderFile reads provider configurations from a YAML file.
// ${VAR} references are expanded from the environment before parsing so
// keys can stay out of the file.
func LoadProviderFile(path string) ([]types.ProviderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}
	return ParseProviders(data)
}

// ParseProviders decodes a providers YAML document
func ParseProviders(data []byte) ([]types.ProviderConfig, error) {
	var file providersFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse providers file: %w", err)
	}

	for i, p := range file.Providers {
		if p.Provider == "" {
			return nil, fmt.Errorf("provider %d (%s): provider type is required", i, p.Name)
		}
		if p.ID == "" {
			file.Providers[i].ID = p.Name
		}
	}

	return file.Providers, nil
}

// FindProvider returns the configuration whose id or name is key
func FindProvider(configs []types.ProviderConfig, key string) (types.ProviderConfig, bool) {
	for _, cfg := range configs {
		if cfg.ID == key || cfg.Name == key {
			return cfg, true
		}
	}
	return types.ProviderConfig{}, false
}
