package datastore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// MySQLStore implements DataStore for MySQL
type MySQLStore struct {
	DataStore
}

// mysqlDSN builds the driver DSN. Times are stored and read in UTC.
func mysqlDSN(s conf.MySQLSettings) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		s.Username, s.Password, s.Host, s.Port, s.Database)
}

// Open sets up the MySQL database connection
func (store *MySQLStore) Open() error {
	cfg := store.Settings.Database.MySQL

	db, err := gorm.Open(mysql.Open(mysqlDSN(cfg)), store.gormConfig())
	if err != nil {
		store.log.Error("failed to open MySQL database",
			logger.String("host", cfg.Host),
			logger.String("port", cfg.Port),
			logger.String("database", cfg.Database),
			logger.Error(err))
		return dbError(err, "open", errors.PriorityCritical,
			"engine", "mysql", "host", cfg.Host, "database", cfg.Database)
	}
	store.DB = db

	store.log.Info("opened database",
		logger.String("engine", "mysql"),
		logger.String("host", cfg.Host),
		logger.String("database", cfg.Database))
	return store.migrate("MySQL")
}

// Close MySQL database connections
func (store *MySQLStore) Close() error {
	return store.closeDB()
}
