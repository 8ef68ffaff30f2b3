package store

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"tempo-go/internal/tempo"
)

// RecordDir is the per-model directory for interval records under the root.
const RecordDir = "tempo_time_records"

const (
	plainExt  = ".yaml"
	sealedExt = ".yaml.age"
)

// fsBackend stores each day as a file:
//
//	<root>/
//	  tempo_time_records/
//	    20140101.yaml      (or .yaml.age when sealed)
type fsBackend struct {
	dir string
	ext string
}

// NewFileSystemStore creates a store rooted at root. The record directory is
// created if needed. A non-nil cipher seals every day file.
func NewFileSystemStore(root string, cipher tempo.Cipher) (*Store, error) {
	dir := filepath.Join(root, RecordDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	ext := plainExt
	if cipher != nil {
		ext = sealedExt
	}
	return &Store{
		backend: &fsBackend{dir: dir, ext: ext},
		cipher:  cipher,
	}, nil
}

func (b *fsBackend) path(day tempo.Day) string {
	return filepath.Join(b.dir, day.String()+b.ext)
}

func (b *fsBackend) describe(day tempo.Day) string {
	return b.path(day)
}

func (b *fsBackend) read(day tempo.Day) ([]byte, error) {
	return os.ReadFile(b.path(day))
}

func (b *fsBackend) remove(day tempo.Day) error {
	return os.Remove(b.path(day))
}

// write stores data with an atomic write (temp file + rename), so a day file
// is either complete or absent.
func (b *fsBackend) write(day tempo.Day, data []byte) error {
	tmpFile, err := os.CreateTemp(b.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.path(day)); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// days parses the day identifier of every file with this backend's
// extension. Other files are ignored.
func (b *fsBackend) days() ([]tempo.Day, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, err
	}

	var days []tempo.Day
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), b.ext) {
			continue
		}
		day, err := tempo.ParseDay(strings.TrimSuffix(e.Name(), b.ext))
		if err != nil {
			continue
		}
		days = append(days, day)
	}
	slices.SortFunc(days, tempo.Day.Compare)
	return days, nil
}
