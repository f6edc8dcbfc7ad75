// Package sqlite implements the SQLite storage backend for the library.
// JSONL files in DataDir are the source of truth; SQLite is the query engine
// rebuilt from them on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// dbFileName is the SQLite file created inside DataDir.
const dbFileName = "shelf.db"

var _ types.Cupboard = (*Backend)(nil)

// Backend implements the Cupboard interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB

	syncStrategy  string         // effective sync strategy: immediate, on_close, batch
	batchSize     int            // number of writes before batch flush
	batchInterval time.Duration  // time between batch flushes
	pendingWrites []pendingWrite // one entry per table with unpersisted changes
	pendingCount  int            // writes since the last flush
	batchTimer    *time.Timer    // timer for interval-based batch flush
	batchMu       sync.Mutex     // protects pendingWrites, pendingCount and batchTimer
}

// pendingWrite is a deferred JSONL rewrite for one table. Rewrites are whole
// file, so a single entry per table is enough no matter how many rows changed.
type pendingWrite struct {
	tableName string
	persist   func() error
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// GetTable returns a Table scoped to userID for the given collection name.
// Returns ErrCupboardDetached if the backend is not attached, ErrInvalidUser
// for an empty user, and ErrTableNotFound for an unknown name.
func (b *Backend) GetTable(userID, name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCupboardDetached
	}
	if userID == "" {
		return nil, types.ErrInvalidUser
	}

	switch name {
	case types.TableBooks:
		return &booksTable{backend: b, userID: userID}, nil
	case types.TableCategories:
		return &categoriesTable{backend: b, userID: userID}, nil
	case types.TableShelves:
		return &shelvesTable{backend: b, userID: userID}, nil
	case types.TableProfiles:
		return &profilesTable{backend: b, userID: userID}, nil
	default:
		return nil, types.ErrTableNotFound
	}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite schema, and
// loads the JSONL files into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The database is a cache of the JSONL files; start from a clean file.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening sqlite: %w", err)
	}
	for _, ddl := range slices.Concat(schemaDDL, indexDDL) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := ensureJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir

	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pendingWrites = nil
	b.pendingCount = 0

	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}
	return nil
}

// Detach releases all resources held by the backend. Pending writes are
// flushed before the SQLite connection closes. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()

	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// newUUID generates a UUID v7 string, falling back to v4.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// persister returns the function that rewrites a table's JSONL file.
func (b *Backend) persister(tableName string) func() error {
	switch tableName {
	case types.TableBooks:
		return b.persistBooksJSONL
	case types.TableCategories:
		return b.persistCategoriesJSONL
	case types.TableShelves:
		return b.persistShelvesJSONL
	case types.TableProfiles:
		return b.persistProfilesJSONL
	default:
		return func() error { return types.ErrTableNotFound }
	}
}

// schedulePersist writes the table's JSONL file now or queues the rewrite,
// depending on the sync strategy. The caller must hold b.mu.
func (b *Backend) schedulePersist(tableName string) error {
	persist := b.persister(tableName)
	if b.shouldPersistImmediately() {
		return persist()
	}
	return b.queueWrite(tableName, persist)
}

// shouldPersistImmediately reports whether JSONL writes happen on every change.
func (b *Backend) shouldPersistImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// queueWrite records that tableName needs a rewrite. For the batch strategy
// the queue flushes once batchSize writes have accumulated.
// The caller must hold b.mu.
func (b *Backend) queueWrite(tableName string, persist func() error) error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	b.pendingCount++
	queued := slices.ContainsFunc(b.pendingWrites, func(pw pendingWrite) bool {
		return pw.tableName == tableName
	})
	if !queued {
		b.pendingWrites = append(b.pendingWrites, pendingWrite{tableName: tableName, persist: persist})
	}

	if b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.pendingCount >= b.batchSize {
		return b.flushPendingWritesBatchLocked()
	}
	return nil
}

// flushPendingWritesLocked flushes all pending writes to JSONL files.
// The caller must hold b.mu.
func (b *Backend) flushPendingWritesLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	return b.flushPendingWritesBatchLocked()
}

// flushPendingWritesBatchLocked executes all pending writes. Writes that fail
// stay queued for the next flush. The caller must hold b.batchMu.
func (b *Backend) flushPendingWritesBatchLocked() error {
	var failed []pendingWrite
	var firstErr error
	for _, pw := range b.pendingWrites {
		if err := pw.persist(); err != nil {
			failed = append(failed, pw)
			if firstErr == nil {
				firstErr = fmt.Errorf("flush %s: %w", pw.tableName, err)
			}
		}
	}
	b.pendingWrites = failed
	b.pendingCount = len(failed)
	return firstErr
}

// startBatchTimer starts the interval timer for periodic batch flushes.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}

	b.batchTimer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}
		_ = b.flushPendingWritesLocked()

		b.batchMu.Lock()
		if b.batchTimer != nil {
			b.batchTimer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
}

// stopBatchTimer stops the batch interval timer if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
