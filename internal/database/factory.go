package database

import (
	"fmt"
	"os"
	"path/filepath"

	"isearch/internal/catalog"
	"isearch/internal/config"
)

// DatabaseFileName is the catalog file created under DatabaseConfig.DataDir.
const DatabaseFileName = "files.db"

// NewDatabaseFromConfig creates a catalog store based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, logger catalog.Logger) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFileName), logger, nil)
	case "memory":
		return NewSQLiteDatabase(":memory:", logger, nil)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
