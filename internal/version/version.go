// Package version parses user supplied version requirements.
package version

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"nodekit/internal/apperr"
)

// Kind identifies the variant of a Spec.
type Kind int

const (
	Latest Kind = iota
	LTS
	Semver
	Exact
)

// Spec is a parsed version requirement. The zero value requests the latest
// version. Specs are immutable once parsed.
type Spec struct {
	kind       Kind
	constraint *semver.Constraints
	raw        string
	exact      *semver.Version
}

var exactPattern = regexp.MustCompile(`^v?(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)\.(0|[1-9][0-9]*)(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)

// Parse turns user input into a Spec. Empty input and "latest" request the
// latest version, "lts" the latest long-term-support release, a complete
// x.y.z version is exact, and anything else must be a semver range.
func Parse(raw string) (Spec, error) {
	in := strings.TrimSpace(raw)
	switch strings.ToLower(in) {
	case "", "latest":
		return Spec{kind: Latest}, nil
	case "lts":
		return Spec{kind: LTS}, nil
	}
	if exactPattern.MatchString(in) {
		v, err := semver.NewVersion(in)
		if err != nil {
			return Spec{}, apperr.Wrap(apperr.CodeVersionParse, err, "invalid version %q", raw)
		}
		return Spec{kind: Exact, exact: v, raw: v.String()}, nil
	}
	c, err := semver.NewConstraint(in)
	if err != nil {
		return Spec{}, apperr.Wrap(apperr.CodeVersionParse, err, "invalid version requirement %q", raw)
	}
	return Spec{kind: Semver, constraint: c, raw: in}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level defaults.
func MustParse(raw string) Spec {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// ExactVersion returns a Spec for the already parsed version v.
func ExactVersion(v *semver.Version) Spec {
	return Spec{kind: Exact, exact: v, raw: v.String()}
}

func (s Spec) Kind() Kind { return s.kind }

// Version returns the version for Exact specs and nil otherwise.
func (s Spec) Version() *semver.Version { return s.exact }

// String returns the human readable requirement: "latest", "lts", the range
// text or the exact version.
func (s Spec) String() string {
	switch s.kind {
	case LTS:
		return "lts"
	case Semver, Exact:
		return s.raw
	default:
		return "latest"
	}
}

// Matches reports whether v satisfies the spec. Latest and LTS match
// every version; the caller decides which one is newest or flagged.
func (s Spec) Matches(v *semver.Version) bool {
	switch s.kind {
	case Semver:
		return s.constraint.Check(v)
	case Exact:
		return s.exact.Equal(v)
	default:
		return true
	}
}
