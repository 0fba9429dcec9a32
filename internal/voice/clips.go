package voice

import (
	"fmt"
	"os"
	"path/filepath"
)

// ClipStore defines the interface for synthesized audio storage
type ClipStore interface {
	// Save saves a clip and returns its name
	Save(name string, data []byte) (string, error)

	// Get retrieves a clip by name
	Get(name string) ([]byte, error)

	// Delete removes a clip
	Delete(name string) error
}

// LocalClipStore implements the ClipStore interface using local filesystem
type LocalClipStore struct {
	basePath string
}

// NewLocalClipStore creates a new LocalClipStore instance
func NewLocalClipStore(basePath string) (*LocalClipStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating clip directory: %w", err)
	}

	return &LocalClipStore{
		basePath: basePath,
	}, nil
}

// Path returns where a clip lives on disk
func (l *LocalClipStore) Path(name string) string {
	return filepath.Join(l.basePath, filepath.Base(name))
}

// Save writes a clip to disk
func (l *LocalClipStore) Save(name string, data []byte) (string, error) {
	name = filepath.Base(name)
	if err := os.WriteFile(l.Path(name), data, 0644); err != nil {
		return "", fmt.Errorf("writing clip: %w", err)
	}
	return name, nil
}

// Get reads a clip from disk
func (l *LocalClipStore) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(name))
	if err != nil {
		return nil, fmt.Errorf("reading clip: %w", err)
	}
	return data, nil
}

// Delete removes a clip from disk
func (l *LocalClipStore) Delete(name string) error {
	if err := os.Remove(l.Path(name)); err != nil {
		return fmt.Errorf("deleting clip: %w", err)
	}
	return nil
}
