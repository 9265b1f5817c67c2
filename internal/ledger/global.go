package ledger

import (
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/sirupsen/logrus"
)

// StoreManager holds the process-wide ledger store.
type StoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	store        contract.LedgerStore
}

// GetStore returns the ledger store, or nil before InitLedger.
func (mgr *StoreManager) GetStore() contract.LedgerStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.store
}

// Global Manager instance for main logic.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitLedger initializes the global ledger store exactly once.
func InitLedger(backend schema.DatabaseBackend, connStr string, logger *logrus.Logger) error {
	var initErr error
	initOnce.Do(func() {
		store, err := NewStore(backend, connStr, logger)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize ledger store: %w", err)
			return
		}
		Manager.Lock()
		Manager.store = store
		Manager.Unlock()
	})
	return initErr
}

// CloseLedger should be called on application shutdown.
func CloseLedger() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.store != nil {
			_ = Manager.store.Close()
		}
	})
}

// ClearLedger removes all ledger data for the backend.
// For SQLite, it deletes the database file.
// For MySQL/PostgreSQL, it drops the ledger tables.
func ClearLedger(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		db, err := openDB(backend, connStr, false)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to ping %s database: %w", backend, err)
		}
		// Children first so foreign keys never block a drop
		for i := len(schema.AllTables) - 1; i >= 0; i-- {
			table := schema.AllTables[i]
			query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(table, backend))
			if _, err := db.Exec(query); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}
