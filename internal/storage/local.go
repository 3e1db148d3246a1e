package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider stores objects as files under a base directory. Writes go
// through a temp file and rename so readers never observe a partial
// snapshot.
type LocalProvider struct {
	baseDir string
}

// NewLocalProvider creates the base directory if needed and verifies it is
// writable.
func NewLocalProvider(baseDir string) (*LocalProvider, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
	}
	probe := filepath.Join(baseDir, ".writable_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory %s is not writable: %w", baseDir, err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}
	return &LocalProvider{baseDir: baseDir}, nil
}

// Path returns the filesystem path an object is stored at.
func (p *LocalProvider) Path(objectName string) string {
	return filepath.Join(p.baseDir, filepath.FromSlash(objectName))
}

// Save writes data to a temp file in the target directory and renames it
// into place.
func (p *LocalProvider) Save(ctx context.Context, objectName string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save %s: %w", objectName, err)
	}
	target := p.Path(objectName)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("create directory for %s: %w", target, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", target, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file for %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file for %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s into place: %w", target, err)
	}
	return nil
}

// Load reads the object file.
func (p *LocalProvider) Load(ctx context.Context, objectName string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", objectName, err)
	}
	data, err := os.ReadFile(p.Path(objectName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", objectName, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s: %w", objectName, err)
	}
	return data, nil
}
