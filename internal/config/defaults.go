package config

const (
	SchemaVersion = 1
)

const (
	PublicNodeIndex   = "https://nodejs.org/dist/index.json"
	PublicNodeDist    = "https://nodejs.org/dist"
	PublicYarnIndex   = "https://api.github.com/repos/yarnpkg/yarn/releases"
	PublicYarnLatest  = "https://yarnpkg.com/latest-version"
	PublicYarnDist    = "https://github.com/yarnpkg/yarn/releases/download"
	PublicPackageRoot = "https://registry.npmjs.org"
)

// DefaultConfig returns a fully-populated v1 config document.
func DefaultConfig() Config {
	return Config{
		Version: SchemaVersion,
		Storage: StorageConfig{
			Root: "~/.nodekit",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Registry: DefaultRegistry(),
		Dispatch: DispatchConfig{
			InterceptGlobalInstalls: true,
		},
	}
}

// DefaultRegistry returns the public registry endpoints.
func DefaultRegistry() RegistryConfig {
	return RegistryConfig{
		NodeIndex:   PublicNodeIndex,
		NodeDist:    PublicNodeDist,
		YarnIndex:   PublicYarnIndex,
		YarnLatest:  PublicYarnLatest,
		YarnDist:    PublicYarnDist,
		PackageRoot: PublicPackageRoot,
	}
}
