package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tubedigest/domain/dto"
)

// ErrNoSnapshot indicates nothing usable is persisted locally.
var ErrNoSnapshot = errors.New("session: no snapshot")

// SnapshotTTL bounds how long a persisted session may be restored without
// revalidation against the server.
const SnapshotTTL = 24 * time.Hour

// Snapshot is the locally persisted session state. It carries identity for
// optimistic restore only; the server remains the authority.
type Snapshot struct {
	User      dto.MeResponse `json:"user"`
	Onboarded bool           `json:"onboarded"`
	SavedAt   time.Time      `json:"savedAt"`
}

// Expired reports whether the snapshot is past its restore window.
func (s Snapshot) Expired(now time.Time) bool {
	return now.Sub(s.SavedAt) > SnapshotTTL
}

// Storage persists session snapshots between runs.
type Storage interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
	Clear() error
}

// FileStorage keeps the snapshot in a single JSON file, written atomically
// so a crash mid-write never leaves a truncated snapshot behind.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() (Snapshot, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNoSnapshot
		}
		return Snapshot{}, fmt.Errorf("session: read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// Corrupt snapshot is equivalent to none; drop it.
		_ = f.Clear()
		return Snapshot{}, ErrNoSnapshot
	}
	if snap.User.ID == "" {
		return Snapshot{}, ErrNoSnapshot
	}
	return snap, nil
}

func (f *FileStorage) Save(snap Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("session: create dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0600); err != nil {
		return fmt.Errorf("session: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("session: commit snapshot: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryStorage is an in-process Storage for tests and ephemeral sessions.
type MemoryStorage struct {
	snap *Snapshot
}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (m *MemoryStorage) Load() (Snapshot, error) {
	if m.snap == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return *m.snap, nil
}

func (m *MemoryStorage) Save(snap Snapshot) error {
	copied := snap
	m.snap = &copied
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.snap = nil
	return nil
}
