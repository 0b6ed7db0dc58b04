package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	config     *DetectorConfig
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex
)

// Load loads the configuration from the specified YAML file once and caches
// it globally. Subsequent calls return the cached config.
func Load(configPath string) (*DetectorConfig, error) {
	configOnce.Do(func() {
		cfg, err := Parse(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}

// Parse parses the YAML config file without touching the global cache.
func Parse(configPath string) (*DetectorConfig, error) {
	// Resolve symlinks to handle mounted config files
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &DetectorConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Replace replaces the globally cached config. Safe for concurrent readers.
func Replace(newCfg *DetectorConfig) {
	configMu.Lock()
	config = newCfg
	configErr = nil
	configMu.Unlock()
}

// Get returns the current configuration, or nil if Load has not run.
func Get() *DetectorConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

func validate(cfg *DetectorConfig) error {
	t := cfg.Thresholds
	if t.AllowBelow < 0 || t.AllowBelow > 1 || t.BlockAtOrAbove < 0 || t.BlockAtOrAbove > 1 {
		return fmt.Errorf("thresholds must lie in [0,1], got allow_below=%.4f block_at_or_above=%.4f",
			t.AllowBelow, t.BlockAtOrAbove)
	}
	if t.AllowBelow > t.BlockAtOrAbove {
		return fmt.Errorf("allow_below (%.4f) must not exceed block_at_or_above (%.4f)",
			t.AllowBelow, t.BlockAtOrAbove)
	}
	if cfg.MaxTextLength <= 0 {
		return fmt.Errorf("max_text_length must be positive, got %d", cfg.MaxTextLength)
	}
	if cfg.Batch.MaxItems <= 0 {
		return fmt.Errorf("batch.max_items must be positive, got %d", cfg.Batch.MaxItems)
	}
	if cfg.Lexicon.MaxEditDistance < 0 || cfg.Lexicon.MaxEditDistance > 2 {
		return fmt.Errorf("lexicon.max_edit_distance must be 0..2, got %d", cfg.Lexicon.MaxEditDistance)
	}
	switch cfg.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q (want memory or redis)", cfg.Cache.Backend)
	}
	return nil
}
