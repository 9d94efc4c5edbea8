package dbstore

import (
	"github.com/yiblet/cliphist/internal/store"
)

// HistoryEntryModel is one row of the persisted snapshot.
// Position 0 is the most recent entry.
type HistoryEntryModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Position    int    `gorm:"not null;uniqueIndex"` // Order within the snapshot
	Text        string `gorm:"type:text;not null"`   // Full clipboard text
	TimestampMs int64  `gorm:"not null"`             // Capture time, Unix milliseconds
}

// TableName returns the table name for HistoryEntryModel
func (HistoryEntryModel) TableName() string {
	return "history_entries"
}

// ToEntry converts the GORM model to a store.Entry
func (m *HistoryEntryModel) ToEntry() store.Entry {
	return store.Entry{
		Text:      m.Text,
		Timestamp: store.UnixMilli(m.TimestampMs),
	}
}

// MetaModel holds snapshot metadata such as the schema version.
type MetaModel struct {
	Key   string `gorm:"primaryKey;size:100"`
	Value string `gorm:"type:text;not null"`
}

// TableName returns the table name for MetaModel
func (MetaModel) TableName() string {
	return "meta"
}
