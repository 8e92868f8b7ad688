package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const storageKind = "json_snapshot"

// LoadSnapshot decodes the snapshot at path. A missing file is reported with an
// error satisfying os.IsNotExist so callers can start empty.
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return snap, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Meta.Version > SnapshotVersion {
		return snap, fmt.Errorf("snapshot %s has version %d, newest supported is %d", path, snap.Meta.Version, SnapshotVersion)
	}
	return snap, nil
}

// SaveSnapshot writes snap to path+".tmp" and renames it over path, so a crash
// mid-write leaves the previous snapshot intact.
func SaveSnapshot(path string, snap Snapshot) error {
	snap.Meta.Storage = storageKind
	snap.Meta.Version = SnapshotVersion
	snap.Meta.Timestamp = time.Now().UTC()
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
