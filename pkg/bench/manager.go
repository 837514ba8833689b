// Package bench persists optional benchmark-run history for the benchmark
// driver binary. It is entirely separate from the index itself, which is
// never persisted.
package bench

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager owns the benchmark-history database connection.
type Manager struct {
	mu      sync.RWMutex
	db      *gorm.DB
	dbPath  string
	initErr error
}

var (
	instance *Manager
	once     sync.Once
)

// GetInstance returns the singleton benchmark-history manager.
func GetInstance() *Manager {
	once.Do(func() {
		instance = &Manager{}
	})
	return instance
}

// Init opens (creating if necessary) the SQLite database at dbPath and runs
// its migrations. Calling Init again with the same path is a no-op.
func (m *Manager) Init(dbPath string) error {
	m.mu.Lock()
	if m.dbPath == dbPath && m.db != nil && m.initErr == nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &StoreError{Op: "create_data_dir", Err: err}
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		m.mu.Lock()
		m.initErr = &StoreError{Op: "open_database", Err: err}
		m.mu.Unlock()
		return m.initErr
	}

	m.mu.Lock()
	m.db = db
	m.dbPath = dbPath
	m.initErr = nil
	m.mu.Unlock()

	if err := m.AutoMigrate(); err != nil {
		m.mu.Lock()
		m.db = nil
		m.initErr = &StoreError{Op: "migrate", Err: err}
		m.mu.Unlock()
		return m.initErr
	}

	return nil
}

// AutoMigrate runs auto-migration for all benchmark-history models.
func (m *Manager) AutoMigrate() error {
	db := m.GetDB()
	if db == nil {
		return &StoreError{Op: "migrate", Err: os.ErrInvalid}
	}
	return db.AutoMigrate(&Run{})
}

// GetDB returns the underlying GORM handle, or nil if Init has not
// succeeded yet.
func (m *Manager) GetDB() *gorm.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Close closes the database connection, if open.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Reset clears the singleton; intended for tests.
func Reset() {
	once = sync.Once{}
	instance = nil
}
