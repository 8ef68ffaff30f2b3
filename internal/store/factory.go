package store

import (
	"fmt"

	"tempo-go/internal/config"
	"tempo-go/internal/tempo"
)

// NewStoreFromConfig creates a Store based on the store config type.
func NewStoreFromConfig(cfg config.StoreConfig, cipher tempo.Cipher) (*Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(cipher), nil
	case "filesystem", "":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem store requires root to be set")
		}
		return NewFileSystemStore(cfg.Root, cipher)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
