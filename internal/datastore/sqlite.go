package datastore

import (
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
}

// Open sets up the SQLite database connection, creating the parent
// directory of the database file when needed.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Database.Path
	if path == "" {
		return errors.Newf("sqlite database path is empty").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Component("datastore").
				Category(errors.CategoryFileIO).
				Context("operation", "create_database_dir").
				Context("path", dir).
				Build()
		}
	}

	db, err := gorm.Open(sqlite.Open(path), store.gormConfig())
	if err != nil {
		return dbError(err, "open", errors.PriorityCritical, "engine", "sqlite", "path", path)
	}
	store.DB = db

	store.log.Info("opened database", logger.String("engine", "sqlite"), logger.String("path", path))
	return store.migrate("SQLite")
}

// Close releases the SQLite connection.
func (store *SQLiteStore) Close() error {
	return store.closeDB()
}
