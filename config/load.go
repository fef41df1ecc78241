package config

import (
	"encoding/json"
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
)

// ReadFile reads a JSON config file. Fields absent from the file stay
// invalid.
func ReadFile(fs afero.Fs, path string) (Config, error) {
	var cfg Config
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// FromEnv reads the DRIVERLIB_* environment variables. Unset variables leave
// their fields invalid.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults overridden by the JSON file at path, when path is
// not empty, and then by the environment. The result is validated.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := NewConfig()
	if path != "" {
		fileCfg, err := ReadFile(fs, path)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.Apply(fileCfg)
	}
	envCfg, err := FromEnv()
	if err != nil {
		return cfg, err
	}
	cfg = cfg.Apply(envCfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
