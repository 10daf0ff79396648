package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/dTodo/lib/db"
	"github.com/ValentinKolb/dTodo/lib/db/engines/file"
	"github.com/ValentinKolb/dTodo/lib/db/engines/memory"
	"github.com/ValentinKolb/dTodo/lib/db/engines/sqlite"
	"github.com/ValentinKolb/dTodo/lib/store"
	"github.com/ValentinKolb/dTodo/rpc/common"
)

// NewDBFactory returns the factory for the configured storage backend.
func NewDBFactory(config common.ServerConfig) (store.DBFactory, error) {
	impl, err := db.ParseImplementation(config.Backend)
	if err != nil {
		return nil, err
	}

	switch impl {
	case db.ImplMemory:
		return func() (db.SnapshotDB, error) { return memory.NewMemoryDB(), nil }, nil
	case db.ImplFile:
		dir := config.DataDir
		return func() (db.SnapshotDB, error) { return file.NewFileDB(dir) }, nil
	case db.ImplSQLite:
		dir := config.DataDir
		return func() (db.SnapshotDB, error) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
			return sqlite.NewSQLiteDB(filepath.Join(dir, "dtodo.sqlite"))
		}, nil
	default:
		return nil, fmt.Errorf("backend %s not supported", impl)
	}
}
