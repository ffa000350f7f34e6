// Package resolve turns a version requirement into a concrete release for
// Node, Yarn or an npm package.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"nodekit/internal/apperr"
	"nodekit/internal/config"
	"nodekit/internal/distro"
	"nodekit/internal/hook"
	"nodekit/internal/registry"
	"nodekit/internal/version"
)

// VersionNotFoundError reports that nothing in the registry satisfied the
// request.
type VersionNotFoundError struct {
	Tool     string
	Name     string
	Matching string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("%s: no %s version matching %q", apperr.CodeVersionNotFound, e.Tool, e.Matching)
}

func (e *VersionNotFoundError) Code() apperr.Code { return apperr.CodeVersionNotFound }

// NodeIndexSource serves the Node version index, usually from disk cache.
type NodeIndexSource interface {
	NodeIndex(ctx context.Context, url string) (registry.NodeIndex, error)
}

type Service struct {
	Client   *registry.Client
	Index    NodeIndexSource
	Registry config.RegistryConfig
	Logger   *log.Logger
	// Build is the Node index file name for this platform. Releases that
	// list files but not Build are skipped; empty disables the check.
	Build string
}

func New(client *registry.Client, index NodeIndexSource, reg config.RegistryConfig, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Service{Client: client, Index: index, Registry: reg, Logger: logger, Build: hook.NodeIndexFile()}
}

// Resolve picks the release of name matching spec. Exact requests are
// answered without network access and without consulting hooks.
func (s *Service) Resolve(ctx context.Context, kind distro.Kind, name string, spec version.Spec, hooks hook.ToolHooks) (distro.Resolved, error) {
	if spec.Kind() == version.Exact {
		return s.resolveExact(kind, name, spec.Version()), nil
	}
	var (
		resolved distro.Resolved
		err      error
	)
	switch kind {
	case distro.KindNode:
		resolved, err = s.resolveNode(ctx, spec, hooks)
	case distro.KindYarn:
		resolved, err = s.resolveYarn(ctx, spec, hooks)
	case distro.KindPackage:
		resolved, err = s.resolvePackage(ctx, name, spec, hooks)
	default:
		return distro.Resolved{}, fmt.Errorf("resolve: unknown kind %q", kind)
	}
	if err != nil {
		return distro.Resolved{}, err
	}
	s.Logger.Debug("resolved version", "tool", distro.ToolName(kind, name), "spec", spec.String(), "version", resolved.Version.String())
	return resolved, nil
}

func (s *Service) resolveExact(kind distro.Kind, name string, v *semver.Version) distro.Resolved {
	r := distro.Resolved{Kind: kind, Name: name, Version: v}
	if kind == distro.KindPackage {
		r.Entry = &registry.PackageEntry{Version: v, Tarball: s.packageTarball(name, v)}
	}
	return r
}

// packageTarball follows the registry's conventional layout
// <root>/<name>/-/<basename>-<version>.tgz.
func (s *Service) packageTarball(name string, v *semver.Version) string {
	base := name
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return fmt.Sprintf("%s/%s/-/%s-%s.tgz", s.Registry.PackageRoot, name, base, v.String())
}

func (s *Service) resolveNode(ctx context.Context, spec version.Spec, hooks hook.ToolHooks) (distro.Resolved, error) {
	h := hooks.Index
	if spec.Kind() == version.Latest {
		h = hooks.Latest
	}
	u, err := hook.URL(ctx, h, "index.json", s.Registry.NodeIndex)
	if err != nil {
		return distro.Resolved{}, err
	}
	idx, err := s.Index.NodeIndex(ctx, u)
	if err != nil {
		return distro.Resolved{}, err
	}
	for _, entry := range idx.Entries {
		if s.Build != "" && len(entry.Files) > 0 && !entry.HasFile(s.Build) {
			s.Logger.Debug("skipping release without a build for this platform", "version", entry.Version, "build", s.Build)
			continue
		}
		var ok bool
		switch spec.Kind() {
		case version.LTS:
			ok = entry.LTS
		default:
			ok = spec.Matches(entry.Version)
		}
		if ok {
			return distro.Resolved{Kind: distro.KindNode, Name: "node", Version: entry.Version, Npm: entry.Npm}, nil
		}
	}
	return distro.Resolved{}, &VersionNotFoundError{Tool: "Node", Name: "node", Matching: spec.String()}
}

// Yarn has no LTS line; lts is an alias of latest.
func (s *Service) resolveYarn(ctx context.Context, spec version.Spec, hooks hook.ToolHooks) (distro.Resolved, error) {
	if spec.Kind() != version.Semver {
		u, err := hook.URL(ctx, hooks.Latest, "latest-version", s.Registry.YarnLatest)
		if err != nil {
			return distro.Resolved{}, err
		}
		text, err := s.Client.GetText(ctx, "Yarn", u)
		if err != nil {
			return distro.Resolved{}, err
		}
		v, err := semver.NewVersion(strings.TrimSpace(text))
		if err != nil {
			return distro.Resolved{}, apperr.Wrap(apperr.CodeRegistryParse, err, "invalid Yarn version from %s", u)
		}
		return distro.Resolved{Kind: distro.KindYarn, Name: "yarn", Version: v}, nil
	}

	u, err := hook.URL(ctx, hooks.Index, "releases", s.Registry.YarnIndex)
	if err != nil {
		return distro.Resolved{}, err
	}
	idx, err := s.Client.YarnReleases(ctx, u)
	if err != nil {
		return distro.Resolved{}, err
	}
	for _, v := range idx.Versions {
		if spec.Matches(v) {
			return distro.Resolved{Kind: distro.KindYarn, Name: "yarn", Version: v}, nil
		}
	}
	return distro.Resolved{}, &VersionNotFoundError{Tool: "Yarn", Name: "yarn", Matching: spec.String()}
}

// Packages have no LTS line either; lts resolves like latest.
func (s *Service) resolvePackage(ctx context.Context, name string, spec version.Spec, hooks hook.ToolHooks) (distro.Resolved, error) {
	h := hooks.Index
	if spec.Kind() != version.Semver {
		h = hooks.Latest
	}
	u, err := hook.URL(ctx, h, name, s.Registry.PackageRoot+"/"+escapePackage(name))
	if err != nil {
		return distro.Resolved{}, err
	}
	idx, err := s.Client.PackageIndex(ctx, u)
	if err != nil {
		return distro.Resolved{}, err
	}
	for i := range idx.Entries {
		entry := idx.Entries[i]
		var ok bool
		if spec.Kind() == version.Semver {
			ok = spec.Matches(entry.Version)
		} else {
			ok = idx.Latest != nil && entry.Version.Equal(idx.Latest)
		}
		if ok {
			return distro.Resolved{Kind: distro.KindPackage, Name: name, Version: entry.Version, Entry: &entry}, nil
		}
	}
	matching := spec.String()
	if spec.Kind() == version.LTS {
		matching = "latest"
	}
	return distro.Resolved{}, &VersionNotFoundError{Tool: name, Name: name, Matching: matching}
}

// escapePackage encodes the scope separator the way the npm registry
// expects in metadata URLs.
func escapePackage(name string) string {
	if strings.HasPrefix(name, "@") {
		return strings.Replace(name, "/", url.PathEscape("/"), 1)
	}
	return name
}
