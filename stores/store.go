// Package stores is the document-store layer. Every read and write is
// scoped by the owning user (plus session for messages), which stands in
// for any in-process locking.
package stores

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// StoreConfig holds configuration for database stores.
type StoreConfig struct {
	Type       string `json:"type"`       // "sqlite" or "postgres"
	Connection string `json:"connection"` // file path or DSN
}

// NewStoreConfig creates a new store configuration.
func NewStoreConfig(storeType, connection string) *StoreConfig {
	return &StoreConfig{Type: storeType, Connection: connection}
}

// Store wraps the gorm connection and exposes scoped domain queries.
type Store struct {
	db *gorm.DB
}

// NewStore opens a store based on the configuration.
func NewStore(config *StoreConfig) (*Store, error) {
	var dialector gorm.Dialector
	switch config.Type {
	case "sqlite":
		dialector = sqlite.Open(config.Connection)
	case "postgres":
		dialector = postgres.Open(config.Connection)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", config.Type, err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore opens a SQLite-backed store at the given path.
func NewSQLiteStore(dbPath string) (*Store, error) {
	return NewStore(NewStoreConfig("sqlite", dbPath))
}

// NewPostgresStore opens a PostgreSQL-backed store.
func NewPostgresStore(host, user, password, dbname string, port int) (*Store, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)
	return NewStore(NewStoreConfig("postgres", dsn))
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&UserRecord{},
		&SessionRecord{},
		&MessageRecord{},
		&PluginRecord{},
		&TranslationRecord{},
		&CopyRecord{},
		&PrototypeRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive.
func (s *Store) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
