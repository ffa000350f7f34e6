// Package dispatch decides how an invocation of node, npm, npx or yarn
// runs: against the managed toolchain, refused, or handed to the system
// tool.
package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"nodekit/internal/apperr"
	"nodekit/internal/platform"
)

// ErrNoPlatform explains why a passthrough command did not use a managed
// toolchain.
var ErrNoPlatform = apperr.New(apperr.CodeNoPlatform,
	"no nodekit toolchain applies here; pin one in package.json or run 'nodekit install node'")

// Tools are the executables nodekit shims.
var Tools = []string{"node", "npm", "npx", "yarn"}

// ToolName maps an argv[0] to the shimmed tool, or "" if it is not one.
func ToolName(argv0 string) string {
	base := filepath.Base(argv0)
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".exe"), ".cmd")
	for _, t := range Tools {
		if base == t {
			return t
		}
	}
	return ""
}

type Dispatcher struct {
	Platform func() (*platform.Platform, error)
	Checkout func(ctx context.Context, p *platform.Platform) (*platform.Image, error)
	Policy   Policy
	ShimDir  string
	Getenv   func(string) string
	Logger   *log.Logger
}

func (d *Dispatcher) getenv(key string) string {
	if d.Getenv == nil {
		return os.Getenv(key)
	}
	return d.Getenv(key)
}

func (d *Dispatcher) logger() *log.Logger {
	if d.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return d.Logger
}

// Command builds the command for argv, where argv[0] names the tool.
// Platform resolution comes first; without a platform the system tool is
// used whatever the arguments. Interception is only checked when the tool
// is managed by the platform, and before anything is fetched.
func (d *Dispatcher) Command(ctx context.Context, argv []string) (*ToolCommand, error) {
	if len(argv) == 0 {
		return nil, apperr.New(apperr.CodeUnknownTool, "empty invocation")
	}
	tool := ToolName(argv[0])
	if tool == "" {
		return nil, apperr.New(apperr.CodeUnknownTool, "%s is not managed by nodekit", argv[0])
	}
	systemPath := withoutDir(d.getenv("PATH"), d.ShimDir)

	p, err := d.Platform()
	if err != nil {
		return nil, err
	}
	if p == nil {
		d.logger().Debug("no managed platform, delegating to system", "tool", tool)
		return passthrough(tool, argv, systemPath, ErrNoPlatform), nil
	}
	// An unpinned yarn is the system's yarn, so its global installs are
	// not ours to block.
	if tool == "yarn" && p.Yarn == nil {
		d.logger().Debug("yarn not pinned, delegating to system", "platform", p.Source)
		return passthrough(tool, argv, systemPath, apperr.New(apperr.CodeNoPlatform,
			"yarn is not pinned for this %s; run 'nodekit install yarn'", p.Source)), nil
	}
	if err := Intercept(tool, argv, d.Policy); err != nil {
		d.logger().Debug("intercepted invocation", "tool", tool, "args", argv[1:])
		return nil, err
	}
	img, err := d.Checkout(ctx, p)
	if err != nil {
		return nil, err
	}
	d.logger().Debug("using managed toolchain", "tool", tool, "node", img.Node, "yarn", img.Yarn, "source", p.Source)
	return &ToolCommand{
		Exe:        tool,
		Args:       append([]string(nil), argv[1:]...),
		PathPrefix: img.Bins(),
		SearchPath: systemPath,
		Managed:    true,
	}, nil
}

func passthrough(tool string, argv []string, systemPath string, deferred error) *ToolCommand {
	return &ToolCommand{
		Exe:        tool,
		Args:       append([]string(nil), argv[1:]...),
		SearchPath: systemPath,
		Deferred:   deferred,
	}
}
