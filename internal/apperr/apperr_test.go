package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessageCarriesCode(t *testing.T) {
	err := New(CodeVersionParse, "invalid version %q", "x.y")
	if got, want := err.Error(), `VER_PARSE: invalid version "x.y"`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	wrapped := Wrap(CodeCacheWrite, errors.New("disk full"), "write %s", "index.json")
	if got, want := wrapped.Error(), "CACHE_WRITE: write index.json: disk full"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestCodeOfAndIs(t *testing.T) {
	base := New(CodeRegistryFetch, "boom")
	err := fmt.Errorf("context: %w", base)

	if got := CodeOf(err); got != CodeRegistryFetch {
		t.Fatalf("CodeOf = %q, want %q", got, CodeRegistryFetch)
	}
	if !Is(err, CodeRegistryFetch) {
		t.Fatal("Is should find wrapped code")
	}
	if Is(err, CodeNoPlatform) {
		t.Fatal("Is should not match a different code")
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("CodeOf(plain) = %q, want empty", got)
	}
}
