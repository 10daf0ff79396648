// Package sqlite implements db.SnapshotDB inside a single SQLite database file
// using the pure Go driver modernc.org/sqlite.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ValentinKolb/dTodo/lib/db"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots_quarantine (
	key            TEXT NOT NULL,
	data           BLOB NOT NULL,
	quarantined_at INTEGER NOT NULL
);`

type sqliteDB struct {
	sqlDB *sql.DB
	path  string
}

// NewSQLiteDB opens (and creates if needed) the database at path.
func NewSQLiteDB(path string) (db.SnapshotDB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite db: path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// the store accesses the database from one goroutine only
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &sqliteDB{sqlDB: sqlDB, path: cleanPath}, nil
}

func (s *sqliteDB) Load(key string) ([]byte, bool, error) {
	var data []byte
	err := s.sqlDB.QueryRow(`SELECT data FROM snapshots WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite db: load %q: %w", key, err)
	}
	return data, true, nil
}

func (s *sqliteDB) Save(key string, data []byte) error {
	_, err := s.sqlDB.Exec(
		`INSERT INTO snapshots (key, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite db: save %q: %w", key, err)
	}
	return nil
}

func (s *sqliteDB) Quarantine(key string) (err error) {
	tx, err := s.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("sqlite db: quarantine %q: %w", key, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(
		`INSERT INTO snapshots_quarantine (key, data, quarantined_at)
		 SELECT key, data, ? FROM snapshots WHERE key = ?`,
		time.Now().UnixNano(), key,
	); err != nil {
		return fmt.Errorf("sqlite db: quarantine %q: %w", key, err)
	}
	if _, err = tx.Exec(`DELETE FROM snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite db: quarantine %q: %w", key, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite db: quarantine %q: %w", key, err)
	}
	return nil
}

func (s *sqliteDB) Keys() ([]string, error) {
	rows, err := s.sqlDB.Query(`SELECT key FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("sqlite db: list keys: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("sqlite db: list keys: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *sqliteDB) GetInfo() (db.DatabaseInfo, error) {
	info := db.DatabaseInfo{DbType: db.ImplSQLite, Location: s.path}
	err := s.sqlDB.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(data)), 0) FROM snapshots`,
	).Scan(&info.Keys, &info.SizeBytes)
	if err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("sqlite db: info: %w", err)
	}
	if err := s.sqlDB.QueryRow(`SELECT COUNT(*) FROM snapshots_quarantine`).Scan(&info.Quarantined); err != nil {
		return db.DatabaseInfo{}, fmt.Errorf("sqlite db: info: %w", err)
	}
	return info, nil
}

func (s *sqliteDB) Close() error {
	return s.sqlDB.Close()
}
