package config

import "strings"

func Normalize(cfg Config) Config {
	if cfg.Version == 0 {
		cfg.Version = SchemaVersion
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "~/.nodekit"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	def := DefaultRegistry()
	r := &cfg.Registry
	if r.NodeIndex == "" {
		r.NodeIndex = def.NodeIndex
	}
	if r.NodeDist == "" {
		r.NodeDist = def.NodeDist
	}
	if r.YarnIndex == "" {
		r.YarnIndex = def.YarnIndex
	}
	if r.YarnLatest == "" {
		r.YarnLatest = def.YarnLatest
	}
	if r.YarnDist == "" {
		r.YarnDist = def.YarnDist
	}
	if r.PackageRoot == "" {
		r.PackageRoot = def.PackageRoot
	}
	r.NodeDist = strings.TrimSuffix(r.NodeDist, "/")
	r.YarnDist = strings.TrimSuffix(r.YarnDist, "/")
	r.PackageRoot = strings.TrimSuffix(r.PackageRoot, "/")
	return cfg
}
