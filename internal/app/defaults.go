package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults holds the default locations tempo uses before a config exists.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - TEMPO_CONFIG_PATH: config file location (default: ~/.config/tempo.toml)
//   - TEMPO_HOME: base directory for tempo data (default: ~/.local/share/tempo)
func GetDefaults() (*Defaults, error) {
	configPath, err := fromEnvOrHome("TEMPO_CONFIG_PATH", ".config", "tempo.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome("TEMPO_HOME", ".local", "share", "tempo")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns the value of env, or the path under the home
// directory when env is unset or empty.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
