package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"nodekit/internal/fsutil"
)

// Ensure loads the config at path, writing the defaults there first when
// no file exists yet.
func Ensure(path string) (Config, error) {
	cfg, found, err := read(path)
	if err != nil {
		return Config{}, err
	}
	if found {
		return cfg, nil
	}
	cfg = DefaultConfig()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads an existing config. A missing file is DOC_CONFIG_MISSING.
func Load(path string) (Config, error) {
	cfg, found, err := read(path)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, fmt.Errorf("DOC_CONFIG_MISSING: %s does not exist", orDefault(path))
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	path = orDefault(path)
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("DOC_CONFIG_ENCODE: %w", err)
	}
	if err := fsutil.EnsureContainingDir(path); err != nil {
		return err
	}
	return fsutil.AtomicWrite(path, blob, 0o644)
}

func read(path string) (Config, bool, error) {
	path = orDefault(path)
	blob, ok, err := fsutil.ReadFileOpt(path)
	if err != nil {
		return Config{}, false, fmt.Errorf("DOC_CONFIG_READ: %s: %w", path, err)
	}
	if !ok {
		return Config{}, false, nil
	}
	var cfg Config
	if err := toml.Unmarshal(blob, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("DOC_CONFIG_PARSE: %s: %w", path, err)
	}
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, false, err
	}
	return cfg, true, nil
}

func orDefault(path string) string {
	if path == "" {
		return DefaultConfigPath()
	}
	return path
}
