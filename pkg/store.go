package detectdupes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// HashStore is the durable table of (hash, filename) rows behind the hash cache.
// Rows are only ever appended.
type HashStore interface {
	// EnsureSchema creates the hashes table if it does not exist yet
	EnsureSchema() error
	// LoadAll calls fn for every stored row in insertion order
	LoadAll(fn func(hash, filename string)) error
	// Begin opens a write transaction
	Begin() (HashTx, error)
	Close() error
}

// HashTx is an open write transaction on a HashStore
type HashTx interface {
	Insert(hash, filename string) error
	Commit() error
	Rollback() error
}

// hashRow mirrors one row of the hashes table
type hashRow struct {
	Hash     string `gorm:"column:hash"`
	Filename string `gorm:"column:filename"`
}

func (hashRow) TableName() string { return HashTable }

// sqliteStore implements HashStore on a SQLite file through GORM
type sqliteStore struct {
	db   *gorm.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the SQLite cache database at path
func OpenSQLiteStore(path string) (HashStore, error) {
	if path == "" {
		return nil, fmt.Errorf("cache database path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	// journal_mode(WAL) keeps commits cheap, busy_timeout waits out short locks
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database %s: %w", path, err)
	}

	DebugLog("store", "opened %s", path)
	return &sqliteStore{db: db, path: path}, nil
}

func (s *sqliteStore) EnsureSchema() error {
	if err := s.db.Exec("CREATE TABLE IF NOT EXISTS " + HashTable + " (hash TEXT, filename TEXT)").Error; err != nil {
		return fmt.Errorf("failed to create %s table: %w", HashTable, err)
	}
	return nil
}

func (s *sqliteStore) LoadAll(fn func(hash, filename string)) error {
	rows, err := s.db.Model(&hashRow{}).Select("hash, filename").Order("rowid").Rows()
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", HashTable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var row hashRow
		if err := s.db.ScanRows(rows, &row); err != nil {
			return fmt.Errorf("failed to read %s row: %w", HashTable, err)
		}
		fn(row.Hash, row.Filename)
	}

	return rows.Err()
}

func (s *sqliteStore) Begin() (HashTx, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &sqliteTx{tx: tx}, nil
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

type sqliteTx struct {
	tx *gorm.DB
}

func (t *sqliteTx) Insert(hash, filename string) error {
	return t.tx.Exec("INSERT INTO "+HashTable+" (hash, filename) VALUES (?, ?)", hash, filename).Error
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit().Error
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback().Error
}

// StoredHash is one row held by a MemoryStore
type StoredHash struct {
	Hash     string
	Filename string
}

// MemoryStore is an in-process HashStore. Rows survive only as long as the
// value does. The Fail* fields inject errors into the matching operation.
type MemoryStore struct {
	Rows    []StoredHash
	Commits int

	FailSchema error
	FailLoad   error
	FailBegin  error
	FailInsert error
	FailCommit error

	open   *memoryTx
	closed bool
}

// NewMemoryStore returns an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) EnsureSchema() error {
	if m.closed {
		return errStoreClosed
	}
	return m.FailSchema
}

func (m *MemoryStore) LoadAll(fn func(hash, filename string)) error {
	if m.closed {
		return errStoreClosed
	}
	if m.FailLoad != nil {
		return m.FailLoad
	}
	for _, row := range m.Rows {
		fn(row.Hash, row.Filename)
	}
	return nil
}

func (m *MemoryStore) Begin() (HashTx, error) {
	if m.closed {
		return nil, errStoreClosed
	}
	if m.FailBegin != nil {
		return nil, m.FailBegin
	}
	if m.open != nil {
		return nil, fmt.Errorf("transaction already open")
	}
	m.open = &memoryTx{store: m}
	return m.open, nil
}

// Pending returns the number of rows inserted in the open transaction
func (m *MemoryStore) Pending() int {
	if m.open == nil {
		return 0
	}
	return len(m.open.rows)
}

func (m *MemoryStore) Close() error {
	m.closed = true
	m.open = nil
	return nil
}

var errStoreClosed = errors.New("store is closed")

type memoryTx struct {
	store *MemoryStore
	rows  []StoredHash
	done  bool
}

func (t *memoryTx) Insert(hash, filename string) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	if t.store.FailInsert != nil {
		return t.store.FailInsert
	}
	t.rows = append(t.rows, StoredHash{Hash: hash, Filename: filename})
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	if t.store.FailCommit != nil {
		return t.store.FailCommit
	}
	t.done = true
	t.store.Rows = append(t.store.Rows, t.rows...)
	t.store.Commits++
	t.store.open = nil
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.open = nil
	return nil
}
