package config

// Config is the v1 global schema stored in ~/.nodekit/config.toml.
type Config struct {
	Version  int            `toml:"version"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
	Registry RegistryConfig `toml:"registry"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Hooks    HooksConfig    `toml:"hooks"`
}

type StorageConfig struct {
	Root string `toml:"root"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// RegistryConfig holds the public endpoints. Tests point these at local
// servers instead of swapping them at build time.
type RegistryConfig struct {
	NodeIndex   string `toml:"node_index" json:"nodeIndex"`
	NodeDist    string `toml:"node_dist" json:"nodeDist"`
	YarnIndex   string `toml:"yarn_index" json:"yarnIndex"`
	YarnLatest  string `toml:"yarn_latest" json:"yarnLatest"`
	YarnDist    string `toml:"yarn_dist" json:"yarnDist"`
	PackageRoot string `toml:"package_root" json:"packageRoot"`
}

type DispatchConfig struct {
	InterceptGlobalInstalls bool `toml:"intercept_global_installs" json:"interceptGlobalInstalls"`
}

type HooksConfig struct {
	Node     ToolHooksConfig `toml:"node,omitempty" json:"node,omitempty"`
	Yarn     ToolHooksConfig `toml:"yarn,omitempty" json:"yarn,omitempty"`
	Packages ToolHooksConfig `toml:"packages,omitempty" json:"packages,omitempty"`
}

// ToolHooksConfig configures the optional URL overrides for one tool kind.
// Each field is independent; a nil hook falls back to the public registry.
type ToolHooksConfig struct {
	Latest *HookConfig `toml:"latest,omitempty" json:"latest,omitempty"`
	Index  *HookConfig `toml:"index,omitempty" json:"index,omitempty"`
	Distro *HookConfig `toml:"distro,omitempty" json:"distro,omitempty"`
}

// HookConfig sets exactly one of Prefix, Template or Bin.
type HookConfig struct {
	Prefix   string `toml:"prefix,omitempty" json:"prefix,omitempty"`
	Template string `toml:"template,omitempty" json:"template,omitempty"`
	Bin      string `toml:"bin,omitempty" json:"bin,omitempty"`
}
