// Package inventory tracks the toolchain versions available locally and
// fetches new ones into it.
package inventory

import (
	"nodekit/internal/distro"
	"nodekit/internal/store"
)

// Inventory holds one collection per tool kind. It is loaded once per run
// and passed explicitly to whatever needs it. Collections only grow.
type Inventory struct {
	Node     Collection[distro.Node]
	Yarn     Collection[distro.Yarn]
	Packages Collection[distro.Package]

	root string
}

// Load reads the persisted inventory under root.
func Load(root string) (*Inventory, error) {
	file, err := store.LoadInventory(root)
	if err != nil {
		return nil, err
	}
	return &Inventory{
		Node:     newCollection[distro.Node](file.Node),
		Yarn:     newCollection[distro.Yarn](file.Yarn),
		Packages: newCollection[distro.Package](file.Packages),
		root:     root,
	}, nil
}

// Save persists the inventory atomically.
func (inv *Inventory) Save() error {
	return store.SaveInventory(inv.root, store.InventoryFile{
		Node:     inv.Node.Versions(),
		Yarn:     inv.Yarn.Versions(),
		Packages: inv.Packages.Versions(),
	})
}
