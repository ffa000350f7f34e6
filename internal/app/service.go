package app

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"nodekit/internal/apperr"
	"nodekit/internal/config"
	"nodekit/internal/dispatch"
	"nodekit/internal/distro"
	"nodekit/internal/doctor"
	"nodekit/internal/hook"
	"nodekit/internal/installer"
	"nodekit/internal/inventory"
	"nodekit/internal/platform"
	"nodekit/internal/registry"
	"nodekit/internal/resolve"
	storepkg "nodekit/internal/store"
	"nodekit/internal/version"
)

type Options struct {
	ConfigPath string
	HTTPClient *http.Client
	WorkDir    string
	// Logger overrides the configured logger. Otherwise one is built from
	// the [logging] table writing to LogWriter.
	Logger    *log.Logger
	LogWriter io.Writer
	Verbose   bool
}

type Service struct {
	ConfigPath string
	Config     config.Config
	Root       string
	WorkDir    string
	Logger     *log.Logger

	Hooks      hook.Set
	Client     *registry.Client
	IndexCache *registry.IndexCache
	Resolver   *resolve.Service
	Installer  *installer.Service
	Inventory  *inventory.Inventory
	Fetcher    *inventory.Fetcher
	Dispatcher *dispatch.Dispatcher
}

// New loads configuration and the inventory once and wires every
// component. The returned Service is meant to live for one invocation.
func New(opts Options) (*Service, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Ensure(configPath)
	if err != nil {
		return nil, err
	}
	root, err := config.ResolveStorageRoot(cfg)
	if err != nil {
		return nil, err
	}
	if err := storepkg.EnsureLayout(root); err != nil {
		return nil, err
	}
	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			workDir = "."
		}
	}
	logger := opts.Logger
	if logger == nil {
		w := opts.LogWriter
		if w == nil {
			w = io.Discard
		}
		logger = NewLogger(w, cfg.Logging, opts.Verbose)
	}

	inv, err := inventory.Load(root)
	if err != nil {
		return nil, err
	}
	hooks := hook.FromConfig(cfg.Hooks)
	client := registry.NewClient(opts.HTTPClient, logger)
	indexCache := registry.NewIndexCache(storepkg.CacheRoot(root), client, logger)
	resolver := resolve.New(client, indexCache, cfg.Registry, logger)
	installerSvc := installer.New(root, logger)
	fetcher := &inventory.Fetcher{
		Inventory:  inv,
		Resolver:   resolver,
		Downloader: client,
		Installer:  installerSvc,
		Registry:   cfg.Registry,
		Hooks:      hooks,
		Logger:     logger,
	}
	svc := &Service{
		ConfigPath: configPath,
		Config:     cfg,
		Root:       root,
		WorkDir:    workDir,
		Logger:     logger,
		Hooks:      hooks,
		Client:     client,
		IndexCache: indexCache,
		Resolver:   resolver,
		Installer:  installerSvc,
		Inventory:  inv,
		Fetcher:    fetcher,
	}
	svc.Dispatcher = &dispatch.Dispatcher{
		Platform: svc.CurrentPlatform,
		Checkout: func(ctx context.Context, p *platform.Platform) (*platform.Image, error) {
			return p.Checkout(ctx, fetcher, root)
		},
		Policy:  dispatch.Policy{InterceptGlobalInstalls: cfg.Dispatch.InterceptGlobalInstalls},
		ShimDir: storepkg.ShimRoot(root),
		Logger:  logger,
	}
	return svc, nil
}

// FetchResult describes one fetched tool.
type FetchResult struct {
	Tool    string `json:"tool"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Npm     string `json:"npm,omitempty"`
	Status  string `json:"status"`
	Default bool   `json:"default,omitempty"`
}

func kindOf(name string) distro.Kind {
	switch name {
	case "node":
		return distro.KindNode
	case "yarn":
		return distro.KindYarn
	}
	return distro.KindPackage
}

// Fetch resolves a tool[@spec] argument and makes it available locally.
func (s *Service) Fetch(ctx context.Context, arg string) (FetchResult, error) {
	name, spec, err := version.ParseTool(arg)
	if err != nil {
		return FetchResult{}, err
	}
	kind := kindOf(name)
	var fetched distro.Fetched
	switch kind {
	case distro.KindNode:
		fetched, err = s.Fetcher.Node(ctx, spec)
	case distro.KindYarn:
		fetched, err = s.Fetcher.Yarn(ctx, spec)
	default:
		fetched, err = s.Fetcher.Package(ctx, name, spec)
	}
	if err != nil {
		return FetchResult{}, err
	}
	res := FetchResult{
		Tool:    string(kind),
		Name:    name,
		Version: fetched.Version.Version.String(),
		Status:  "cached",
	}
	if fetched.Status == distro.Now {
		res.Status = "fetched"
	}
	if fetched.Version.Npm != nil {
		res.Npm = fetched.Version.Npm.String()
	}
	return res, nil
}

// Install fetches node or yarn and makes it the user default toolchain.
func (s *Service) Install(ctx context.Context, arg string) (FetchResult, error) {
	name, _, err := version.ParseTool(arg)
	if err != nil {
		return FetchResult{}, err
	}
	if kind := kindOf(name); kind == distro.KindPackage {
		return FetchResult{}, apperr.New(apperr.CodeUnknownTool, "only node and yarn can be installed as defaults; use 'nodekit fetch %s'", arg)
	}
	res, err := s.Fetch(ctx, arg)
	if err != nil {
		return FetchResult{}, err
	}
	st, err := storepkg.LoadState(s.Root)
	if err != nil {
		return FetchResult{}, err
	}
	if name == "node" {
		st.Toolchain.Node = res.Version
	} else {
		st.Toolchain.Yarn = res.Version
	}
	st.Toolchain.UpdatedAt = time.Now().UTC()
	if err := storepkg.SaveState(s.Root, st); err != nil {
		return FetchResult{}, err
	}
	res.Default = true
	return res, nil
}

// ListEntry is one locally available version.
type ListEntry struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
	Default bool   `json:"default,omitempty"`
}

// List returns the inventory, optionally filtered to node, yarn or
// packages.
func (s *Service) List(tool string) ([]ListEntry, error) {
	st, err := storepkg.LoadState(s.Root)
	if err != nil {
		return nil, err
	}
	var out []ListEntry
	add := func(name string, versions []string, def string) {
		if tool != "" && tool != name {
			return
		}
		for _, v := range versions {
			out = append(out, ListEntry{Tool: name, Version: v, Default: def != "" && v == def})
		}
	}
	add("node", s.Inventory.Node.Versions(), st.Toolchain.Node)
	add("yarn", s.Inventory.Yarn.Versions(), st.Toolchain.Yarn)
	add("packages", s.Inventory.Packages.Versions(), "")
	return out, nil
}

// CurrentPlatform resolves the toolchain for the working directory.
func (s *Service) CurrentPlatform() (*platform.Platform, error) {
	st, err := storepkg.LoadState(s.Root)
	if err != nil {
		return nil, err
	}
	return platform.Current(s.WorkDir, st, s.Logger)
}

// Command dispatches an invocation whose argv[0] names the tool.
func (s *Service) Command(ctx context.Context, argv []string) (*dispatch.ToolCommand, error) {
	return s.Dispatcher.Command(ctx, argv)
}

// Which reports the executable an invocation of tool would run.
func (s *Service) Which(ctx context.Context, tool string) (string, error) {
	cmd, err := s.Command(ctx, []string{tool})
	if err != nil {
		return "", err
	}
	return cmd.Lookup()
}

func (s *Service) CachePath() string {
	return s.IndexCache.Dir
}

func (s *Service) ClearCache() error {
	return s.IndexCache.Clear()
}

// Doctor checks the installation and the current directory's platform.
func (s *Service) Doctor(ctx context.Context) doctor.Report {
	d := &doctor.Service{ConfigPath: s.ConfigPath, Root: s.Root, WorkDir: s.WorkDir}
	return d.Run(ctx)
}
