// Package dbstore implements store.HistoryStore on SQLite through GORM.
// Each Save replaces the whole snapshot inside one transaction, so readers
// never observe a half-written history.
package dbstore

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yiblet/cliphist/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// FileName is the database file name inside the data directory.
const FileName = "history.db"

const (
	metaSchemaVersion = "schema_version"
	metaUpdatedAt     = "updated_at"
	insertBatchSize   = 100
)

// SQLiteStore is a SQLite-backed implementation of store.HistoryStore
type SQLiteStore struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// migrates the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&HistoryEntryModel{}, &MetaModel{}); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	// The driver creates the file with the process umask; history is private.
	if err := os.Chmod(dbPath, 0600); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to set permissions: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchemaVersion(); err != nil {
		closeDB(db)
		return nil, err
	}

	return s, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Load returns all entries ordered by position (most recent first)
func (s *SQLiteStore) Load() ([]store.Entry, error) {
	var models []HistoryEntryModel
	if err := s.db.Order("position ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]store.Entry, len(models))
	for i := range models {
		entries[i] = models[i].ToEntry()
	}
	return entries, nil
}

// Save replaces the stored snapshot with entries in a single transaction
func (s *SQLiteStore) Save(entries []store.Entry) error {
	models := make([]HistoryEntryModel, len(entries))
	for i, e := range entries {
		models[i] = HistoryEntryModel{
			Position:    i,
			Text:        e.Text,
			TimestampMs: e.Timestamp.UnixMilli(),
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&HistoryEntryModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous snapshot: %w", err)
		}
		if len(models) > 0 {
			if err := tx.CreateInBatches(models, insertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to insert snapshot: %w", err)
			}
		}
		stamp := MetaModel{Key: metaUpdatedAt, Value: time.Now().UTC().Format(time.RFC3339Nano)}
		if err := tx.Save(&stamp).Error; err != nil {
			return fmt.Errorf("failed to record update time: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return closeDB(s.db)
}

// initSchemaVersion records the schema version on a fresh database and
// refuses databases written by a newer schema.
func (s *SQLiteStore) initSchemaVersion() error {
	var meta MetaModel
	err := s.db.First(&meta, "key = ?", metaSchemaVersion).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		meta = MetaModel{Key: metaSchemaVersion, Value: strconv.Itoa(store.SchemaVersion)}
		if err := s.db.Create(&meta).Error; err != nil {
			return fmt.Errorf("failed to record schema version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	version, err := strconv.Atoi(meta.Value)
	if err != nil {
		return fmt.Errorf("%w: schema version %q", store.ErrMalformed, meta.Value)
	}
	if version > store.SchemaVersion {
		return fmt.Errorf("%w: %d", store.ErrUnsupportedVersion, version)
	}
	return nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
