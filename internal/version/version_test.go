package version

import (
	"testing"

	"github.com/Masterminds/semver/v3"

	"nodekit/internal/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		wantKind Kind
		wantStr  string
	}{
		{"", Latest, "latest"},
		{"latest", Latest, "latest"},
		{"LTS", LTS, "lts"},
		{"18.19.0", Exact, "18.19.0"},
		{"v20.1.0", Exact, "20.1.0"},
		{"1.0.0-beta.2", Exact, "1.0.0-beta.2"},
		{"18", Semver, "18"},
		{"^16.2", Semver, "^16.2"},
		{">=14 <20", Semver, ">=14 <20"},
		{"18.x", Semver, "18.x"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if s.Kind() != tt.wantKind {
				t.Errorf("kind = %v, want %v", s.Kind(), tt.wantKind)
			}
			if s.String() != tt.wantStr {
				t.Errorf("String() = %q, want %q", s.String(), tt.wantStr)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-version")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !apperr.Is(err, apperr.CodeVersionParse) {
		t.Fatalf("expected VER_PARSE, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	v := semver.MustParse("18.19.0")
	if !MustParse("^18").Matches(v) {
		t.Error("^18 should match 18.19.0")
	}
	if MustParse("^20").Matches(v) {
		t.Error("^20 should not match 18.19.0")
	}
	if !MustParse("18.19.0").Matches(v) {
		t.Error("exact should match itself")
	}
	if !MustParse("latest").Matches(v) {
		t.Error("latest matches everything")
	}
}

func TestParseTool(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
		wantSpec string
	}{
		{"node", "node", "latest"},
		{"node@18", "node", "18"},
		{"yarn@1.22.19", "yarn", "1.22.19"},
		{"typescript@lts", "typescript", "lts"},
		{"@vue/cli", "@vue/cli", "latest"},
		{"@vue/cli@^5", "@vue/cli", "^5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, spec, err := ParseTool(tt.in)
			if err != nil {
				t.Fatalf("ParseTool(%q): %v", tt.in, err)
			}
			if name != tt.wantName || spec.String() != tt.wantSpec {
				t.Errorf("ParseTool(%q) = %q, %q; want %q, %q", tt.in, name, spec.String(), tt.wantName, tt.wantSpec)
			}
		})
	}

	for _, bad := range []string{"", "@", "node@bogus!"} {
		if _, _, err := ParseTool(bad); err == nil {
			t.Errorf("ParseTool(%q) should fail", bad)
		}
	}
}
