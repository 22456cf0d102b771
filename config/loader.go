package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if len(cfg.Functions) == 0 {
		return nil, fmt.Errorf("no managed functions configured")
	}
	for _, fn := range cfg.Functions {
		if fn.Name == "" || fn.TransactionType == "" || fn.QueueURL == "" {
			return nil, fmt.Errorf("managed function needs name, transaction_type and queue_url: %+v", fn)
		}
	}

	return &cfg, nil
}
