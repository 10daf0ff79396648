// Package memory implements db.SnapshotDB on top of xsync maps. Nothing survives
// a restart of the process.
package memory

import (
	"github.com/ValentinKolb/dTodo/lib/db"
	"github.com/puzpuzpuz/xsync/v3"
)

type memoryDB struct {
	snapshots   *xsync.MapOf[string, []byte]
	quarantined *xsync.MapOf[string, []byte]
}

// NewMemoryDB returns an empty in-memory SnapshotDB.
func NewMemoryDB() db.SnapshotDB {
	return &memoryDB{
		snapshots:   xsync.NewMapOf[string, []byte](),
		quarantined: xsync.NewMapOf[string, []byte](),
	}
}

func clone(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func (m *memoryDB) Load(key string) ([]byte, bool, error) {
	data, ok := m.snapshots.Load(key)
	if !ok {
		return nil, false, nil
	}
	return clone(data), true, nil
}

func (m *memoryDB) Save(key string, data []byte) error {
	m.snapshots.Store(key, clone(data))
	return nil
}

func (m *memoryDB) Quarantine(key string) error {
	if data, ok := m.snapshots.LoadAndDelete(key); ok {
		m.quarantined.Store(key, data)
	}
	return nil
}

func (m *memoryDB) Keys() ([]string, error) {
	keys := make([]string, 0, m.snapshots.Size())
	m.snapshots.Range(func(key string, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

func (m *memoryDB) GetInfo() (db.DatabaseInfo, error) {
	info := db.DatabaseInfo{DbType: db.ImplMemory, Quarantined: m.quarantined.Size()}
	m.snapshots.Range(func(_ string, data []byte) bool {
		info.Keys++
		info.SizeBytes += int64(len(data))
		return true
	})
	return info, nil
}

func (m *memoryDB) Close() error {
	m.snapshots.Clear()
	m.quarantined.Clear()
	return nil
}
