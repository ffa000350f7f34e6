package store

import "path/filepath"

func StatePath(root string) string {
	return filepath.Join(root, "state.toml")
}

func InventoryPath(root string) string {
	return filepath.Join(root, "inventory.toml")
}

// CacheRoot holds remote index caches.
func CacheRoot(root string) string {
	return filepath.Join(root, "cache")
}

// ArchiveRoot holds downloaded archives, one directory per tool kind.
func ArchiveRoot(root string) string {
	return filepath.Join(root, "tools", "inventory")
}

// ImageRoot holds unpacked toolchains, laid out as <kind>/<version>.
func ImageRoot(root string) string {
	return filepath.Join(root, "tools", "image")
}

// ShimRoot holds the node, npm, npx and yarn shims.
func ShimRoot(root string) string {
	return filepath.Join(root, "bin")
}

func TmpRoot(root string) string {
	return filepath.Join(root, "tmp")
}
