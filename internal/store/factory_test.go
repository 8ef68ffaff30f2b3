package store

import (
	"testing"

	"tempo-go/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantDir bool
		wantErr bool
	}{
		{name: "memory", cfg: config.StoreConfig{Type: "memory"}},
		{name: "filesystem", cfg: config.StoreConfig{Type: "filesystem", Root: t.TempDir()}, wantDir: true},
		{name: "default type", cfg: config.StoreConfig{Root: t.TempDir()}, wantDir: true},
		{name: "filesystem without root", cfg: config.StoreConfig{Type: "filesystem"}, wantErr: true},
		{name: "unknown", cfg: config.StoreConfig{Type: "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Error("NewStoreFromConfig() should return nil on error")
				}
				return
			}
			if (got.Dir() != "") != tt.wantDir {
				t.Errorf("Dir() = %q, wantDir %v", got.Dir(), tt.wantDir)
			}
		})
	}
}
