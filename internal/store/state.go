package store

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"nodekit/internal/fsutil"
)

func EnsureLayout(root string) error {
	dirs := []string{root, CacheRoot(root), ArchiveRoot(root), ImageRoot(root), ShimRoot(root), TmpRoot(root)}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("FS_CREATE_DIR: %w", err)
		}
	}
	return nil
}

func LoadState(root string) (State, error) {
	blob, ok, err := fsutil.ReadFileOpt(StatePath(root))
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{Version: StateVersion}, nil
	}
	var st State
	if err := toml.Unmarshal(blob, &st); err != nil {
		return State{}, fmt.Errorf("DOC_STATE_PARSE: %w", err)
	}
	if st.Version == 0 {
		st.Version = StateVersion
	}
	if st.Version != StateVersion {
		return State{}, fmt.Errorf("DOC_STATE_VERSION: unsupported state version %d", st.Version)
	}
	return st, nil
}

func SaveState(root string, st State) error {
	if err := EnsureLayout(root); err != nil {
		return err
	}
	st.Version = StateVersion
	blob, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("DOC_STATE_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(StatePath(root), blob, 0o644)
}
