// Package distro describes downloadable builds of Node, Yarn and npm
// packages and how they are fetched into the local inventory.
package distro

import (
	"context"
	"fmt"
	"path"
	"runtime"

	"github.com/Masterminds/semver/v3"

	"nodekit/internal/config"
	"nodekit/internal/hook"
	"nodekit/internal/registry"
)

// Kind is the closed set of tool kinds.
type Kind string

const (
	KindNode    Kind = "node"
	KindYarn    Kind = "yarn"
	KindPackage Kind = "package"
)

// Tag is implemented by the marker types used to keep collections of
// different kinds apart at compile time.
type Tag interface {
	Kind() Kind
}

type (
	Node    struct{}
	Yarn    struct{}
	Package struct{}
)

func (Node) Kind() Kind    { return KindNode }
func (Yarn) Kind() Kind    { return KindYarn }
func (Package) Kind() Kind { return KindPackage }

// Resolved is the concrete version chosen for a request. Npm is only set
// for Node releases whose index entry names the bundled npm; Entry is only
// set for packages.
type Resolved struct {
	Kind    Kind
	Name    string
	Version *semver.Version
	Npm     *semver.Version
	Entry   *registry.PackageEntry
}

// Key identifies the resolved version inside its collection.
func (r Resolved) Key() string {
	if r.Kind == KindPackage {
		return r.Name + "@" + r.Version.String()
	}
	return r.Version.String()
}

func (r Resolved) String() string {
	return r.Name + "@" + r.Version.String()
}

// Status tells whether a fetch did any work.
type Status int

const (
	Already Status = iota
	Now
)

func (s Status) String() string {
	if s == Now {
		return "now"
	}
	return "already"
}

type FetchedVersion struct {
	Version *semver.Version
	Npm     *semver.Version
}

type Fetched struct {
	Status  Status
	Version FetchedVersion
}

// Contains reports whether a collection already holds key.
type Contains interface {
	Contains(key string) bool
}

// Downloader retrieves an archive.
type Downloader interface {
	GetBytes(ctx context.Context, tool, url string) ([]byte, error)
}

// Installer stores a downloaded archive. Unpacking is the installer's
// business.
type Installer interface {
	Install(ctx context.Context, d *Distro, archive []byte) error
}

// Distro is a resolved build together with where to download it from.
type Distro struct {
	Resolved Resolved
	Filename string
	URL      string
}

// New builds the distro for resolved, using the distro hook when set.
func New(ctx context.Context, resolved Resolved, hooks hook.ToolHooks, reg config.RegistryConfig) (*Distro, error) {
	if resolved.Version == nil {
		return nil, fmt.Errorf("distro: %s has no version", resolved.Name)
	}
	v := resolved.Version.String()
	var filename, public string
	switch resolved.Kind {
	case KindNode:
		filename = NodeArchiveName(v)
		public = fmt.Sprintf("%s/v%s/%s", reg.NodeDist, v, filename)
	case KindYarn:
		filename = fmt.Sprintf("yarn-v%s.tar.gz", v)
		public = fmt.Sprintf("%s/v%s/%s", reg.YarnDist, v, filename)
	case KindPackage:
		if resolved.Entry == nil || resolved.Entry.Tarball == "" {
			return nil, fmt.Errorf("distro: %s has no tarball", resolved)
		}
		public = resolved.Entry.Tarball
		filename = path.Base(public)
	default:
		return nil, fmt.Errorf("distro: unknown kind %q", resolved.Kind)
	}
	url, err := hook.URL(ctx, hook.WithVersion(hooks.Distro, v), filename, public)
	if err != nil {
		return nil, err
	}
	return &Distro{Resolved: resolved, Filename: filename, URL: url}, nil
}

// NodeArchiveName is the file name Node publishes for version on this
// platform.
func NodeArchiveName(version string) string {
	ext := "tar.gz"
	if runtime.GOOS == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("node-v%s-%s-%s.%s", version, hook.NodeOS(), hook.NodeArch(), ext)
}

// Fetch downloads and installs the distro unless have already contains it.
func (d *Distro) Fetch(ctx context.Context, have Contains, dl Downloader, ins Installer) (Fetched, error) {
	fetched := Fetched{Version: FetchedVersion{Version: d.Resolved.Version, Npm: d.Resolved.Npm}}
	if have.Contains(d.Resolved.Key()) {
		fetched.Status = Already
		return fetched, nil
	}
	archive, err := dl.GetBytes(ctx, ToolName(d.Resolved.Kind, d.Resolved.Name), d.URL)
	if err != nil {
		return Fetched{}, err
	}
	if err := ins.Install(ctx, d, archive); err != nil {
		return Fetched{}, err
	}
	fetched.Status = Now
	return fetched, nil
}

// ToolName is the name used for kind in messages. Packages go by their own
// name.
func ToolName(kind Kind, name string) string {
	switch kind {
	case KindNode:
		return "Node"
	case KindYarn:
		return "Yarn"
	}
	return name
}
