package store

import "time"

const StateVersion = 1

// State is the user level toolchain stored in state.toml.
type State struct {
	Version   int       `toml:"version"`
	Toolchain Toolchain `toml:"toolchain"`
}

// Toolchain pins exact versions. Empty fields are unset.
type Toolchain struct {
	Node      string    `toml:"node,omitempty"`
	Yarn      string    `toml:"yarn,omitempty"`
	UpdatedAt time.Time `toml:"updated_at,omitempty"`
}

// InventoryFile lists every version fetched into the local archive store.
type InventoryFile struct {
	Version  int      `toml:"version"`
	Node     []string `toml:"node"`
	Yarn     []string `toml:"yarn"`
	Packages []string `toml:"packages"`
}
