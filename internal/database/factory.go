package database

import (
	"fmt"
	"path/filepath"

	"tempo-go/internal/config"
	"tempo-go/internal/tempo"
)

// DatabaseFile is the registry file name inside DataDir.
const DatabaseFile = "projects.db"

// NewDatabaseFromConfig creates a project registry based on the database config type.
// Memory databases are migrated immediately; sqlite files are migrated by
// "tempo config init" and checked by the app.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, clock tempo.Clock) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFile), clock)
	case "memory":
		db, err := NewSQLiteDatabase(":memory:", clock)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating memory database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
