// Package db defines the persistent models of the Parley service and
// opens the backing SQLite database.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open opens (creating if necessary) the SQLite database at path and
// migrates the schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := gdb.AutoMigrate(&Conversation{}, &Message{}, &Project{}, &User{}, &Session{}); err != nil {
		return nil, fmt.Errorf("migrate database %s: %w", path, err)
	}
	return gdb, nil
}
