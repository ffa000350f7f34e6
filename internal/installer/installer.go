// Package installer stores downloaded toolchain archives in the local
// inventory. Unpacking into images is left to the shim layer.
package installer

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"nodekit/internal/apperr"
	"nodekit/internal/distro"
	"nodekit/internal/fsutil"
	"nodekit/internal/store"
)

// Record is written next to every stored archive.
type Record struct {
	Kind      string    `toml:"kind"`
	Name      string    `toml:"name"`
	Version   string    `toml:"version"`
	URL       string    `toml:"url"`
	Checksum  string    `toml:"checksum"`
	FetchedAt time.Time `toml:"fetched_at"`
}

type Service struct {
	Root   string
	Logger *log.Logger
}

func New(root string, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Service{Root: root, Logger: logger}
}

// ArchivePath is where the archive for d is kept.
func (s *Service) ArchivePath(d *distro.Distro) string {
	dir := filepath.Join(store.ArchiveRoot(s.Root), string(d.Resolved.Kind))
	if d.Resolved.Kind == distro.KindPackage {
		dir = filepath.Join(dir, safeEntryName(d.Resolved.Name))
	}
	return filepath.Join(dir, d.Filename)
}

// Install verifies archive against the registry checksum when one is known
// and commits it together with its record.
func (s *Service) Install(_ context.Context, d *distro.Distro, archive []byte) error {
	if len(archive) == 0 {
		return apperr.New(apperr.CodeInstallWrite, "empty archive for %s", d.Resolved)
	}
	if d.Resolved.Entry != nil && d.Resolved.Entry.Shasum != "" {
		if err := verifyShasum(archive, d.Resolved.Entry.Shasum); err != nil {
			return err
		}
	}
	path := s.ArchivePath(d)
	if err := fsutil.EnsureContainingDir(path); err != nil {
		return err
	}
	if err := fsutil.AtomicWrite(path, archive, 0o644); err != nil {
		return apperr.Wrap(apperr.CodeInstallWrite, err, "could not store %s", d.Resolved)
	}

	sum := sha256.Sum256(archive)
	rec := Record{
		Kind:      string(d.Resolved.Kind),
		Name:      d.Resolved.Name,
		Version:   d.Resolved.Version.String(),
		URL:       d.URL,
		Checksum:  "sha256:" + hex.EncodeToString(sum[:]),
		FetchedAt: time.Now().UTC(),
	}
	blob, err := toml.Marshal(rec)
	if err != nil {
		return apperr.Wrap(apperr.CodeInstallWrite, err, "could not encode record for %s", d.Resolved)
	}
	if err := fsutil.AtomicWrite(path+".toml", blob, 0o644); err != nil {
		_ = os.Remove(path)
		return apperr.Wrap(apperr.CodeInstallWrite, err, "could not store record for %s", d.Resolved)
	}
	s.Logger.Debug("stored archive", "tool", d.Resolved.String(), "path", path)
	return nil
}

// LoadRecord reads the record stored for d.
func (s *Service) LoadRecord(d *distro.Distro) (Record, error) {
	blob, err := os.ReadFile(s.ArchivePath(d) + ".toml")
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := toml.Unmarshal(blob, &rec); err != nil {
		return Record{}, fmt.Errorf("DOC_STATE_RECORD_PARSE: %w", err)
	}
	return rec, nil
}

// verifyShasum checks the hex sha1 the npm registry publishes per tarball.
func verifyShasum(archive []byte, expected string) error {
	expected = strings.ToLower(strings.TrimSpace(expected))
	h := sha1.Sum(archive)
	actual := hex.EncodeToString(h[:])
	if actual != expected {
		return apperr.New(apperr.CodeInstallChecksum, "expected %s got %s", expected, actual)
	}
	return nil
}

func safeEntryName(v string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "@", "_", " ", "-")
	out := r.Replace(v)
	if out == "" {
		return "unknown"
	}
	return out
}
