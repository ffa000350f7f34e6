package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	if err := AtomicWrite(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want hello", got)
	}

	// Verify no tmp file remains
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("tmp file %s should not exist after successful write", e.Name())
		}
	}
}

func TestAtomicWrite_Overwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")

	if err := AtomicWrite(path, []byte("v1"), 0o644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := AtomicWrite(path, []byte("v2"), 0o644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "v2" {
		t.Errorf("content = %q, want v2", got)
	}
}

func TestAtomicWrite_BadDir(t *testing.T) {
	err := AtomicWrite("/nonexistent/dir/file.txt", []byte("data"), 0o644)
	if err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestReadFileOpt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, ok, err := ReadFileOpt(path)
	if err != nil || !ok || string(data) != "x" {
		t.Fatalf("ReadFileOpt(present) = %q, %v, %v", data, ok, err)
	}

	data, ok, err = ReadFileOpt(filepath.Join(dir, "missing"))
	if err != nil || ok || data != nil {
		t.Fatalf("ReadFileOpt(missing) = %q, %v, %v", data, ok, err)
	}
}

func TestEnsureContainingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "file")
	if err := EnsureContainingDir(path); err != nil {
		t.Fatalf("EnsureContainingDir: %v", err)
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil || !info.IsDir() {
		t.Fatalf("parent dir missing: %v", err)
	}
}

func TestRemoveDirIfExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")
	if err := RemoveDirIfExists(dir); err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := RemoveDirIfExists(dir); err != nil {
		t.Fatalf("RemoveDirIfExists: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("dir should be removed, stat err = %v", err)
	}
}
