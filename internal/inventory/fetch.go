package inventory

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"nodekit/internal/config"
	"nodekit/internal/distro"
	"nodekit/internal/hook"
	"nodekit/internal/version"
)

// Resolver picks a concrete release for a request.
type Resolver interface {
	Resolve(ctx context.Context, kind distro.Kind, name string, spec version.Spec, hooks hook.ToolHooks) (distro.Resolved, error)
}

// Fetcher resolves requests and materializes them into an Inventory.
type Fetcher struct {
	Inventory  *Inventory
	Resolver   Resolver
	Downloader distro.Downloader
	Installer  distro.Installer
	Registry   config.RegistryConfig
	Hooks      hook.Set
	Logger     *log.Logger
}

func (f *Fetcher) logger() *log.Logger {
	if f.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return f.Logger
}

// Node fetches a Node release matching spec.
func (f *Fetcher) Node(ctx context.Context, spec version.Spec) (distro.Fetched, error) {
	return Fetch(ctx, f, &f.Inventory.Node, "node", spec, f.Hooks.Node)
}

// Yarn fetches a Yarn release matching spec.
func (f *Fetcher) Yarn(ctx context.Context, spec version.Spec) (distro.Fetched, error) {
	return Fetch(ctx, f, &f.Inventory.Yarn, "yarn", spec, f.Hooks.Yarn)
}

// Package fetches a release of the npm package name matching spec.
func (f *Fetcher) Package(ctx context.Context, name string, spec version.Spec) (distro.Fetched, error) {
	return Fetch(ctx, f, &f.Inventory.Packages, name, spec, f.Hooks.Packages)
}

// Fetch resolves spec, fetches the distro unless coll already has it, and
// records a fresh download in coll. Resolution always runs so a moved
// "latest" is noticed. The result is returned unchanged.
func Fetch[T distro.Tag](ctx context.Context, f *Fetcher, coll *Collection[T], name string, spec version.Spec, hooks hook.ToolHooks) (distro.Fetched, error) {
	resolved, err := f.Resolver.Resolve(ctx, coll.Kind(), name, spec, hooks)
	if err != nil {
		return distro.Fetched{}, err
	}
	d, err := distro.New(ctx, resolved, hooks, f.Registry)
	if err != nil {
		return distro.Fetched{}, err
	}
	fetched, err := d.Fetch(ctx, coll, f.Downloader, f.Installer)
	if err != nil {
		return distro.Fetched{}, err
	}
	f.logger().Debug("fetch", "tool", resolved.String(), "status", fetched.Status.String())
	// The archive is installed by now, so the in-memory insert stays even
	// when persisting fails; only later runs would fetch it again.
	if fetched.Status == distro.Now && coll.Insert(resolved.Key()) {
		if err := f.Inventory.Save(); err != nil {
			f.logger().Warn("could not persist inventory", "tool", resolved.String(), "err", err)
			return distro.Fetched{}, err
		}
	}
	return fetched, nil
}
