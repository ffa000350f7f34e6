package store

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestEnsureLayoutCreatesExpectedDirectories(t *testing.T) {
	root := t.TempDir() + "/home"
	if err := EnsureLayout(root); err != nil {
		t.Fatalf("ensure layout failed: %v", err)
	}
	for _, dir := range []string{root, CacheRoot(root), ArchiveRoot(root), ImageRoot(root), ShimRoot(root), TmpRoot(root)} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestEnsureLayoutErrorsWhenRootIsAFile(t *testing.T) {
	root := t.TempDir() + "/not-a-dir"
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("write root file failed: %v", err)
	}
	err := EnsureLayout(root)
	if err == nil || !strings.Contains(err.Error(), "FS_CREATE_DIR") {
		t.Fatalf("expected FS_CREATE_DIR error, got %v", err)
	}
}

func TestLoadStateMissingFileReturnsDefaultState(t *testing.T) {
	st, err := LoadState(t.TempDir())
	if err != nil {
		t.Fatalf("load state failed: %v", err)
	}
	if st.Version != StateVersion {
		t.Fatalf("expected version %d, got %d", StateVersion, st.Version)
	}
	if st.Toolchain.Node != "" || st.Toolchain.Yarn != "" {
		t.Fatalf("expected empty toolchain, got %+v", st.Toolchain)
	}
}

func TestSaveAndLoadStateRoundTrip(t *testing.T) {
	root := t.TempDir()
	now := time.Now().UTC().Round(time.Second)
	st := State{Version: 99, Toolchain: Toolchain{Node: "18.19.0", Yarn: "1.22.19", UpdatedAt: now}}
	if err := SaveState(root, st); err != nil {
		t.Fatalf("save state failed: %v", err)
	}
	loaded, err := LoadState(root)
	if err != nil {
		t.Fatalf("load state failed: %v", err)
	}
	if loaded.Version != StateVersion {
		t.Fatalf("expected version %d, got %d", StateVersion, loaded.Version)
	}
	if loaded.Toolchain.Node != "18.19.0" || loaded.Toolchain.Yarn != "1.22.19" {
		t.Fatalf("unexpected toolchain %+v", loaded.Toolchain)
	}
	if !loaded.Toolchain.UpdatedAt.Equal(now) {
		t.Fatalf("expected updated_at %v, got %v", now, loaded.Toolchain.UpdatedAt)
	}
}

func TestLoadStateInvalidTOMLReturnsParseError(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(StatePath(root), []byte("version = ["), 0o644); err != nil {
		t.Fatalf("write invalid state failed: %v", err)
	}
	_, err := LoadState(root)
	if err == nil || !strings.Contains(err.Error(), "DOC_STATE_PARSE") {
		t.Fatalf("expected DOC_STATE_PARSE error, got %v", err)
	}
}

func TestSaveAndLoadInventoryRoundTrip(t *testing.T) {
	root := t.TempDir()
	inv := InventoryFile{
		Node:     []string{"16.20.0", "18.19.0"},
		Yarn:     []string{"1.22.19"},
		Packages: []string{"left-pad@1.3.0"},
	}
	if err := SaveInventory(root, inv); err != nil {
		t.Fatalf("save inventory failed: %v", err)
	}
	loaded, err := LoadInventory(root)
	if err != nil {
		t.Fatalf("load inventory failed: %v", err)
	}
	if loaded.Version != InventoryVersion {
		t.Fatalf("expected version %d, got %d", InventoryVersion, loaded.Version)
	}
	if len(loaded.Node) != 2 || loaded.Node[1] != "18.19.0" || loaded.Packages[0] != "left-pad@1.3.0" {
		t.Fatalf("unexpected inventory %+v", loaded)
	}
}

func TestLoadInventoryRejectsDuplicates(t *testing.T) {
	root := t.TempDir()
	doc := "version = 1\nnode = [\"18.19.0\", \"18.19.0\"]\n"
	if err := os.WriteFile(InventoryPath(root), []byte(doc), 0o644); err != nil {
		t.Fatalf("write inventory failed: %v", err)
	}
	_, err := LoadInventory(root)
	if err == nil || !strings.Contains(err.Error(), "DOC_STATE_INVENTORY_SCHEMA") {
		t.Fatalf("expected DOC_STATE_INVENTORY_SCHEMA error, got %v", err)
	}
}

func TestLoadInventoryMissingFileIsEmpty(t *testing.T) {
	inv, err := LoadInventory(t.TempDir())
	if err != nil {
		t.Fatalf("load inventory failed: %v", err)
	}
	if len(inv.Node)+len(inv.Yarn)+len(inv.Packages) != 0 {
		t.Fatalf("expected empty inventory, got %+v", inv)
	}
}
