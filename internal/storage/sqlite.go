package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KVEntry is a single stored record
type KVEntry struct {
	Key       string    `gorm:"primaryKey;column:entry_key"`
	Value     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`
}

// SQLiteStore persists entries in a SQLite database through gorm
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the database at dbFilePath.
// Pass ":memory:" for an in-memory database.
func NewSQLiteStore(dbFilePath string) (*SQLiteStore, error) {
	if dbFilePath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbFilePath), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	// Silent logger: a missing key is an expected outcome, not an error to print
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	// Each pooled connection to ":memory:" would see its own empty database
	if dbFilePath == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("migrating store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(key string) (string, error) {
	var entry KVEntry
	result := s.db.Where("entry_key = ?", key).First(&entry)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if result.Error != nil {
		return "", result.Error
	}
	return entry.Value, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	entry := KVEntry{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (s *SQLiteStore) Delete(key string) error {
	return s.db.Where("entry_key = ?", key).Delete(&KVEntry{}).Error
}

// Keys returns every stored key, oldest first
func (s *SQLiteStore) Keys() ([]string, error) {
	var keys []string
	result := s.db.Model(&KVEntry{}).Order("created_at asc").Pluck("entry_key", &keys)
	if result.Error != nil {
		return nil, result.Error
	}
	return keys, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
