/*
Package file persists the voucher ledger as three JSON snapshot files.

PURPOSE:
  The default storage backend. Each collection lives in its own file
  under one data directory:

    active.json     active partition, array, insertion order
    redeemed.json   redeemed partition, array, redemption order
    counters.json   recipient -> lifetime redemption count

ATOMIC WRITES:
  Every save marshals the whole collection, writes it to a temp file in
  the same directory, fsyncs, and renames over the target. A reader
  therefore always observes a complete snapshot - either the previous
  one or the new one, never a partial write.

CORRUPTION POLICY:
  A file that exists but does not parse loads as an empty collection so
  a damaged disk never blocks startup. The damage is not silent: an
  error-level log names the file, and the corrupt file is renamed to
  <name>.corrupt so the next save does not overwrite the evidence.

SEE ALSO:
  - voucher/store.go:  the contract this implements
  - store/sqlite:      the database-backed alternative
*/
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/warp/voucher-engine/voucher"
)

const (
	activeFile   = "active.json"
	redeemedFile = "redeemed.json"
	countersFile = "counters.json"
)

// Store is a JSON-snapshot implementation of voucher.Store.
type Store struct {
	dir string
	log *slog.Logger
}

// New creates the data directory if needed and returns a store rooted
// in it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, log: slog.Default()}, nil
}

// =============================================================================
// LOAD
// =============================================================================

func (s *Store) LoadActive(_ context.Context) ([]voucher.Voucher, error) {
	var out []voucher.Voucher
	if err := s.load(activeFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LoadRedeemed(_ context.Context) ([]voucher.Voucher, error) {
	var out []voucher.Voucher
	if err := s.load(redeemedFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LoadCounts(_ context.Context) (map[string]int, error) {
	out := make(map[string]int)
	if err := s.load(countersFile, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// load reads one snapshot file into v. Missing and corrupt files both
// leave v untouched (empty collection); only real I/O failures are
// returned as errors.
func (s *Store) load(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.quarantine(path, name, err)
		return nil
	}
	return nil
}

// quarantine sets a corrupt snapshot aside instead of leaving it in
// place to be overwritten by the next save.
func (s *Store) quarantine(path, name string, cause error) {
	aside := path + ".corrupt"
	s.log.Error("discarding corrupt snapshot, loading empty collection",
		"file", name, "moved_to", filepath.Base(aside), "err", cause)
	if err := os.Rename(path, aside); err != nil {
		s.log.Error("failed to set corrupt snapshot aside", "file", name, "err", err)
	}
}

// =============================================================================
// SAVE
// =============================================================================

func (s *Store) SaveActive(_ context.Context, active []voucher.Voucher) error {
	if active == nil {
		active = []voucher.Voucher{}
	}
	return s.save(activeFile, active)
}

func (s *Store) SaveRedeemed(_ context.Context, redeemed []voucher.Voucher) error {
	if redeemed == nil {
		redeemed = []voucher.Voucher{}
	}
	return s.save(redeemedFile, redeemed)
}

func (s *Store) SaveCounts(_ context.Context, counts map[string]int) error {
	if counts == nil {
		counts = map[string]int{}
	}
	return s.save(countersFile, counts)
}

// save writes the whole snapshot via temp file + rename.
func (s *Store) save(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name()) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

var _ voucher.Store = (*Store)(nil)
