package registry

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"nodekit/internal/apperr"
)

// NodeEntry is one release in the Node version index.
type NodeEntry struct {
	Version *semver.Version
	Npm     *semver.Version
	Files   []string
	LTS     bool
}

// HasFile reports whether the release publishes the named build.
func (e NodeEntry) HasFile(name string) bool {
	for _, f := range e.Files {
		if f == name {
			return true
		}
	}
	return false
}

// NodeIndex lists Node releases newest first.
type NodeIndex struct {
	Entries []NodeEntry
}

type nodeIndexDoc []struct {
	Version string          `json:"version"`
	Npm     string          `json:"npm"`
	Files   []string        `json:"files"`
	LTS     json.RawMessage `json:"lts"`
}

// ParseNodeIndex decodes nodejs.org/dist/index.json. The lts field is either
// false or the release codename. Entries with unparsable versions are skipped.
func ParseNodeIndex(data []byte) (NodeIndex, error) {
	var doc nodeIndexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return NodeIndex{}, apperr.Wrap(apperr.CodeRegistryParse, err, "invalid Node index")
	}
	idx := NodeIndex{Entries: make([]NodeEntry, 0, len(doc))}
	for _, raw := range doc {
		v, err := semver.NewVersion(raw.Version)
		if err != nil {
			continue
		}
		entry := NodeEntry{Version: v, Files: raw.Files, LTS: isLTS(raw.LTS)}
		if raw.Npm != "" {
			if npm, err := semver.NewVersion(raw.Npm); err == nil {
				entry.Npm = npm
			}
		}
		idx.Entries = append(idx.Entries, entry)
	}
	return idx, nil
}

func isLTS(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", "false":
		return false
	}
	var codename string
	if err := json.Unmarshal(raw, &codename); err == nil {
		return codename != ""
	}
	return s == "true"
}

// YarnIndex holds released Yarn versions, newest first.
type YarnIndex struct {
	Versions []*semver.Version
}

type yarnRelease struct {
	TagName string `json:"tag_name"`
}

// newYarnIndex orders the release list explicitly since the GitHub releases
// endpoint does not promise any order.
func newYarnIndex(releases []yarnRelease) YarnIndex {
	seen := make(map[string]struct{}, len(releases))
	var versions []*semver.Version
	for _, r := range releases {
		v, err := semver.NewVersion(r.TagName)
		if err != nil {
			continue
		}
		if _, ok := seen[v.String()]; ok {
			continue
		}
		seen[v.String()] = struct{}{}
		versions = append(versions, v)
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))
	return YarnIndex{Versions: versions}
}

// PackageEntry is one published version of an npm package.
type PackageEntry struct {
	Version *semver.Version
	Tarball string
	Shasum  string
	Bin     map[string]string
}

// PackageIndex is the parsed npm metadata document. Entries are sorted
// newest first.
type PackageIndex struct {
	Name    string
	Latest  *semver.Version
	Entries []PackageEntry
}

type packageDoc struct {
	Name     string `json:"name"`
	DistTags struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
	Versions map[string]struct {
		Bin  json.RawMessage `json:"bin"`
		Dist struct {
			Tarball string `json:"tarball"`
			Shasum  string `json:"shasum"`
		} `json:"dist"`
	} `json:"versions"`
}

// ParsePackageIndex decodes npm registry metadata fetched from url.
func ParsePackageIndex(data []byte, url string) (PackageIndex, error) {
	var doc packageDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return PackageIndex{}, apperr.Wrap(apperr.CodeRegistryParse, err, "invalid package metadata from %s", url)
	}
	idx := PackageIndex{Name: doc.Name}
	if doc.DistTags.Latest != "" {
		latest, err := semver.NewVersion(doc.DistTags.Latest)
		if err != nil {
			return PackageIndex{}, apperr.Wrap(apperr.CodeRegistryParse, err, "invalid latest tag in %s", url)
		}
		idx.Latest = latest
	}
	for raw, meta := range doc.Versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		idx.Entries = append(idx.Entries, PackageEntry{
			Version: v,
			Tarball: meta.Dist.Tarball,
			Shasum:  meta.Dist.Shasum,
			Bin:     parseBin(doc.Name, meta.Bin),
		})
	}
	sort.Slice(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].Version.GreaterThan(idx.Entries[j].Version)
	})
	return idx, nil
}

// parseBin normalizes the "bin" field, which is either a single path or a
// map of command names to paths.
func parseBin(name string, raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		cmd := name
		if i := strings.LastIndex(cmd, "/"); i >= 0 {
			cmd = cmd[i+1:]
		}
		return map[string]string{cmd: single}
	}
	var many map[string]string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many
	}
	return nil
}
