package encryption

import (
	"testing"

	"tempo-go/internal/config"
)

func TestNewCipherFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantNil bool
		wantErr bool
	}{
		{name: "none", cfg: config.EncryptionConfig{Type: "none"}, wantNil: true},
		{name: "empty type", cfg: config.EncryptionConfig{}, wantNil: true},
		{name: "test", cfg: config.EncryptionConfig{Type: "test"}},
		{name: "age", cfg: config.EncryptionConfig{Type: "age", PublicKeyPath: "/k/tempo.pub", PrivateKeyPath: "/k/tempo.key"}},
		{name: "age without keys", cfg: config.EncryptionConfig{Type: "age"}, wantErr: true},
		{name: "unknown", cfg: config.EncryptionConfig{Type: "rot13"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCipherFromConfig(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewCipherFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (got == nil) != tt.wantNil {
				t.Errorf("NewCipherFromConfig() = %v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}
