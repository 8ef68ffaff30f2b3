package app

import (
	"fmt"

	"tempo-go/internal/config"
	"tempo-go/internal/database"
	"tempo-go/internal/encryption"
)

// Setup writes a new config file to path and prepares everything it
// points at: the project registry schema and, for age encryption, a key
// pair sealed with passphrase.
func Setup(path string, cfg *config.Config, passphrase string) error {
	if cfg.Encryption.Type == "age" && passphrase == "" {
		return fmt.Errorf("a passphrase is required for age encryption")
	}

	if err := config.Init(path, cfg); err != nil {
		return err
	}

	if err := MigrateDatabase(cfg); err != nil {
		return err
	}

	if cfg.Encryption.Type == "age" {
		c := encryption.NewAgeCipher(cfg.Encryption, nil)
		if c.IsConfigured() {
			return nil
		}
		if err := c.Setup(passphrase); err != nil {
			return fmt.Errorf("generating encryption keys: %w", err)
		}
	}
	return nil
}

// MigrateDatabase brings the configured project registry to the latest schema.
func MigrateDatabase(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}
