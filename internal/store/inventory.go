package store

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"nodekit/internal/fsutil"
)

const InventoryVersion = 1

func LoadInventory(root string) (InventoryFile, error) {
	blob, ok, err := fsutil.ReadFileOpt(InventoryPath(root))
	if err != nil {
		return InventoryFile{}, err
	}
	if !ok {
		return InventoryFile{Version: InventoryVersion}, nil
	}
	var inv InventoryFile
	if err := toml.Unmarshal(blob, &inv); err != nil {
		return InventoryFile{}, fmt.Errorf("DOC_STATE_INVENTORY_PARSE: %w", err)
	}
	if inv.Version == 0 {
		inv.Version = InventoryVersion
	}
	if inv.Version != InventoryVersion {
		return InventoryFile{}, fmt.Errorf("DOC_STATE_INVENTORY_VERSION: unsupported version %d", inv.Version)
	}
	for kind, list := range map[string][]string{"node": inv.Node, "yarn": inv.Yarn, "packages": inv.Packages} {
		seen := map[string]struct{}{}
		for _, v := range list {
			if v == "" {
				return InventoryFile{}, fmt.Errorf("DOC_STATE_INVENTORY_SCHEMA: empty %s version", kind)
			}
			if _, ok := seen[v]; ok {
				return InventoryFile{}, fmt.Errorf("DOC_STATE_INVENTORY_SCHEMA: duplicate %s version %q", kind, v)
			}
			seen[v] = struct{}{}
		}
	}
	return inv, nil
}

func SaveInventory(root string, inv InventoryFile) error {
	if err := fsutil.EnsureContainingDir(InventoryPath(root)); err != nil {
		return err
	}
	inv.Version = InventoryVersion
	blob, err := toml.Marshal(inv)
	if err != nil {
		return fmt.Errorf("DOC_STATE_INVENTORY_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(InventoryPath(root), blob, 0o644)
}
