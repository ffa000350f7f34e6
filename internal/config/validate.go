package config

import (
	"fmt"
	"net/url"
)

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var allowedLogFormats = map[string]struct{}{
	"text":   {},
	"json":   {},
	"logfmt": {},
}

func Validate(cfg Config) error {
	if cfg.Version != SchemaVersion {
		return fmt.Errorf("DOC_CONFIG_VERSION: unsupported version %d", cfg.Version)
	}
	if cfg.Storage.Root == "" {
		return fmt.Errorf("DOC_CONFIG_STORAGE: missing storage root")
	}
	if _, ok := allowedLogLevels[cfg.Logging.Level]; !ok {
		return fmt.Errorf("DOC_CONFIG_LOGGING: invalid level %q", cfg.Logging.Level)
	}
	if _, ok := allowedLogFormats[cfg.Logging.Format]; !ok {
		return fmt.Errorf("DOC_CONFIG_LOGGING: invalid format %q", cfg.Logging.Format)
	}

	endpoints := map[string]string{
		"node_index":   cfg.Registry.NodeIndex,
		"node_dist":    cfg.Registry.NodeDist,
		"yarn_index":   cfg.Registry.YarnIndex,
		"yarn_latest":  cfg.Registry.YarnLatest,
		"yarn_dist":    cfg.Registry.YarnDist,
		"package_root": cfg.Registry.PackageRoot,
	}
	for key, raw := range endpoints {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("DOC_CONFIG_REGISTRY: %s must be an absolute URL, got %q", key, raw)
		}
	}

	tools := map[string]ToolHooksConfig{
		"node":     cfg.Hooks.Node,
		"yarn":     cfg.Hooks.Yarn,
		"packages": cfg.Hooks.Packages,
	}
	for tool, hooks := range tools {
		for name, h := range map[string]*HookConfig{"latest": hooks.Latest, "index": hooks.Index, "distro": hooks.Distro} {
			if h == nil {
				continue
			}
			if err := validateHook(h); err != nil {
				return fmt.Errorf("DOC_CONFIG_HOOK: hooks.%s.%s: %w", tool, name, err)
			}
		}
	}
	return nil
}

func validateHook(h *HookConfig) error {
	set := 0
	for _, v := range []string{h.Prefix, h.Template, h.Bin} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("exactly one of prefix, template or bin is required")
	}
	return nil
}
