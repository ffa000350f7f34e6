package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	envHome   = "NODEKIT_HOME"
	envConfig = "NODEKIT_CONFIG"
)

func DefaultConfigPath() string {
	if explicit := os.Getenv(envConfig); explicit != "" {
		return explicit
	}
	if home := os.Getenv(envHome); home != "" {
		return filepath.Join(home, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nodekit/config.toml"
	}
	return filepath.Join(home, ".nodekit", "config.toml")
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}

// ResolveStorageRoot returns the data directory. NODEKIT_HOME wins over the
// configured root.
func ResolveStorageRoot(cfg Config) (string, error) {
	root := cfg.Storage.Root
	if env := os.Getenv(envHome); env != "" {
		root = env
	}
	expanded, err := ExpandPath(root)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}
