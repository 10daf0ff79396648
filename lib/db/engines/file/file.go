// Package file implements db.SnapshotDB with one JSON file per key.
//
// Keys are escaped with url.PathEscape, so every key maps to exactly one file
// directly below the root directory and no key can address a path outside of it.
// Saves write a temp file in the same directory and rename it over the old
// snapshot, readers therefore never see a partially written file.
package file

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ValentinKolb/dTodo/lib/db"
)

const (
	snapshotExt   = ".json"
	corruptMarker = ".corrupt-"
)

type fileDB struct {
	root string
}

// NewFileDB creates (if needed) root and returns a SnapshotDB storing its snapshots there.
func NewFileDB(root string) (db.SnapshotDB, error) {
	if root == "" {
		return nil, errors.New("file db: empty root directory")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("file db: create root: %w", err)
	}
	return &fileDB{root: root}, nil
}

func (f *fileDB) path(key string) string {
	return filepath.Join(f.root, url.PathEscape(key)+snapshotExt)
}

func (f *fileDB) Load(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("file db: read %q: %w", key, err)
	}
	return data, true, nil
}

func (f *fileDB) Save(key string, data []byte) error {
	target := f.path(key)

	tmp, err := os.CreateTemp(f.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("file db: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("file db: write %q: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("file db: sync %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file db: close %q: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("file db: rename %q: %w", key, err)
	}
	return nil
}

func (f *fileDB) Quarantine(key string) error {
	src := f.path(key)
	dst := fmt.Sprintf("%s%s%d", src, corruptMarker, time.Now().UnixNano())
	if err := os.Rename(src, dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("file db: quarantine %q: %w", key, err)
	}
	return nil
}

func (f *fileDB) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("file db: list %s: %w", f.root, err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, snapshotExt) || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, snapshotExt))
		if err != nil {
			continue // not written by us
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *fileDB) GetInfo() (db.DatabaseInfo, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("file db: list %s: %w", f.root, err)
	}

	info := db.DatabaseInfo{DbType: db.ImplFile, Location: f.root}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.Contains(name, corruptMarker):
			info.Quarantined++
		case strings.HasSuffix(name, snapshotExt) && !strings.HasPrefix(name, ".tmp-"):
			info.Keys++
			if fi, err := e.Info(); err == nil {
				info.SizeBytes += fi.Size()
			}
		}
	}
	return info, nil
}

func (f *fileDB) Close() error {
	return nil
}
