// Package hook resolves registry URLs through user configured overrides.
package hook

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"

	"nodekit/internal/apperr"
	"nodekit/internal/config"
)

// Hook maps a path relative to a registry endpoint to an absolute URL.
type Hook interface {
	Resolve(ctx context.Context, path string) (string, error)
}

// Prefix prepends a fixed base URL.
type Prefix string

func (p Prefix) Resolve(_ context.Context, path string) (string, error) {
	return string(p) + path, nil
}

// Template substitutes {{os}}, {{arch}}, {{filename}} and {{version}}.
type Template struct {
	Pattern string
	Version string
}

func (t Template) Resolve(_ context.Context, path string) (string, error) {
	r := strings.NewReplacer(
		"{{os}}", NodeOS(),
		"{{arch}}", NodeArch(),
		"{{filename}}", path,
		"{{version}}", t.Version,
	)
	return r.Replace(t.Pattern), nil
}

// Bin runs an executable with the path as its only argument; trimmed stdout
// is the URL.
type Bin string

func (b Bin) Resolve(ctx context.Context, path string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, string(b), path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "hook command failed"
		}
		return "", apperr.Wrap(apperr.CodeHookResolve, err, "%s %s: %s", b, path, msg)
	}
	url := strings.TrimSpace(stdout.String())
	if url == "" {
		return "", apperr.New(apperr.CodeHookResolve, "%s %s: empty output", b, path)
	}
	return url, nil
}

// ToolHooks holds the optional overrides for one tool kind. Each field is
// independent; nil falls back to the public registry for that endpoint only.
type ToolHooks struct {
	Latest Hook
	Index  Hook
	Distro Hook
}

// Set is the hook configuration for every tool kind.
type Set struct {
	Node     ToolHooks
	Yarn     ToolHooks
	Packages ToolHooks
}

// FromConfig builds hooks from the [hooks.*] tables.
func FromConfig(cfg config.HooksConfig) Set {
	return Set{
		Node:     fromToolConfig(cfg.Node),
		Yarn:     fromToolConfig(cfg.Yarn),
		Packages: fromToolConfig(cfg.Packages),
	}
}

func fromToolConfig(cfg config.ToolHooksConfig) ToolHooks {
	return ToolHooks{
		Latest: fromConfig(cfg.Latest),
		Index:  fromConfig(cfg.Index),
		Distro: fromConfig(cfg.Distro),
	}
}

func fromConfig(h *config.HookConfig) Hook {
	switch {
	case h == nil:
		return nil
	case h.Prefix != "":
		return Prefix(h.Prefix)
	case h.Template != "":
		return Template{Pattern: h.Template}
	case h.Bin != "":
		return Bin(h.Bin)
	}
	return nil
}

// URL resolves path through h when set and returns fallback otherwise.
func URL(ctx context.Context, h Hook, path, fallback string) (string, error) {
	if h == nil {
		return fallback, nil
	}
	return h.Resolve(ctx, path)
}

// WithVersion returns h with the version bound for template hooks.
func WithVersion(h Hook, version string) Hook {
	if t, ok := h.(Template); ok {
		t.Version = version
		return t
	}
	return h
}

// NodeOS reports the operating system segment of Node archive names.
func NodeOS() string {
	if runtime.GOOS == "windows" {
		return "win"
	}
	return runtime.GOOS
}

// NodeArch reports the architecture segment of Node archive names.
func NodeArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x64"
	case "386":
		return "x86"
	}
	return runtime.GOARCH
}

// NodeIndexFile is the build name the Node index lists under "files" for
// this platform, e.g. "linux-x64", "osx-arm64-tar" or "win-x64-zip".
func NodeIndexFile() string {
	switch runtime.GOOS {
	case "darwin":
		return "osx-" + NodeArch() + "-tar"
	case "windows":
		return "win-" + NodeArch() + "-zip"
	}
	return NodeOS() + "-" + NodeArch()
}
