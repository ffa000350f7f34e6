// Package platform works out which toolchain applies to the current
// directory.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/log"

	"nodekit/internal/inventory"
	"nodekit/internal/store"
	"nodekit/internal/version"
)

const (
	manifestFile      = "package.json"
	manifestKey       = "nodekit"
	maxAncestorSearch = 64
)

type Source string

const (
	SourceProject Source = "project"
	SourceUser    Source = "user"
)

// Platform is the pinned toolchain. Node is always set; Yarn is optional.
type Platform struct {
	Node   *semver.Version
	Yarn   *semver.Version
	Source Source
	// Manifest is the package.json the pins came from, for project platforms.
	Manifest string
}

type pins struct {
	Node string `json:"node"`
	Yarn string `json:"yarn"`
}

var errManifestSyntax = errors.New("not valid JSON")

// FindProject walks up from startDir to the nearest package.json that pins
// a Node version under the "nodekit" key. A package.json that is not valid
// JSON cannot pin anything and is skipped; a malformed "nodekit" value is
// an error.
func FindProject(startDir string, logger *log.Logger) (string, bool, error) {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, err
	}
	for i := 0; i < maxAncestorSearch; i++ {
		manifest := filepath.Join(dir, manifestFile)
		p, ok, err := readPins(manifest)
		switch {
		case errors.Is(err, errManifestSyntax):
			logger.Debug("skipping unparsable manifest", "path", manifest, "err", err)
		case err != nil:
			return "", false, err
		}
		if ok && p.Node != "" {
			return manifest, true, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func readPins(manifest string) (pins, bool, error) {
	blob, err := os.ReadFile(manifest)
	if err != nil {
		if os.IsNotExist(err) {
			return pins{}, false, nil
		}
		return pins{}, false, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(blob, &doc); err != nil {
		return pins{}, false, fmt.Errorf("DOC_PROJECT_PARSE: %s: %w: %v", manifest, errManifestSyntax, err)
	}
	raw, ok := doc[manifestKey]
	if !ok {
		return pins{}, false, nil
	}
	var p pins
	if err := json.Unmarshal(raw, &p); err != nil {
		return pins{}, false, fmt.Errorf("DOC_PROJECT_PARSE: %s: %q must be an object: %w", manifest, manifestKey, err)
	}
	return p, true, nil
}

// Current returns the project platform for cwd, else the user default in
// st, else nil.
func Current(cwd string, st store.State, logger *log.Logger) (*Platform, error) {
	manifest, ok, err := FindProject(cwd, logger)
	if err != nil {
		return nil, err
	}
	if ok {
		p, _, err := readPins(manifest)
		if err != nil {
			return nil, err
		}
		platform, err := build(p.Node, p.Yarn)
		if err != nil {
			return nil, fmt.Errorf("DOC_PROJECT_PIN: %s: %w", manifest, err)
		}
		platform.Source = SourceProject
		platform.Manifest = manifest
		return platform, nil
	}
	if st.Toolchain.Node == "" {
		return nil, nil
	}
	platform, err := build(st.Toolchain.Node, st.Toolchain.Yarn)
	if err != nil {
		return nil, fmt.Errorf("DOC_STATE_TOOLCHAIN: %w", err)
	}
	platform.Source = SourceUser
	return platform, nil
}

func build(node, yarn string) (*Platform, error) {
	n, err := exact("node", node)
	if err != nil {
		return nil, err
	}
	p := &Platform{Node: n}
	if strings.TrimSpace(yarn) != "" {
		if p.Yarn, err = exact("yarn", yarn); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func exact(tool, raw string) (*semver.Version, error) {
	spec, err := version.Parse(raw)
	if err != nil {
		return nil, err
	}
	if spec.Kind() != version.Exact {
		return nil, fmt.Errorf("%s pin %q must be an exact version", tool, raw)
	}
	return spec.Version(), nil
}

// Image is a checked out platform.
type Image struct {
	Root string
	Node string
	Npm  string
	Yarn string
}

// Checkout makes sure every pinned version is in the inventory and returns
// the image to run against.
func (p *Platform) Checkout(ctx context.Context, f *inventory.Fetcher, root string) (*Image, error) {
	node, err := f.Node(ctx, version.ExactVersion(p.Node))
	if err != nil {
		return nil, err
	}
	img := &Image{Root: root, Node: node.Version.Version.String()}
	if node.Version.Npm != nil {
		img.Npm = node.Version.Npm.String()
	}
	if p.Yarn != nil {
		yarn, err := f.Yarn(ctx, version.ExactVersion(p.Yarn))
		if err != nil {
			return nil, err
		}
		img.Yarn = yarn.Version.Version.String()
	}
	return img, nil
}

// Bins lists the image's executable directories in lookup order.
func (i *Image) Bins() []string {
	bins := []string{filepath.Join(store.ImageRoot(i.Root), "node", i.Node, "bin")}
	if i.Yarn != "" {
		bins = append(bins, filepath.Join(store.ImageRoot(i.Root), "yarn", i.Yarn, "bin"))
	}
	return bins
}
