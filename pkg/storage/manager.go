package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager stores mirrored assets as <ref><ext> files in one directory and
// remembers which refs are already present
type Manager struct {
	outputDir string
	assets    map[string]string // ref -> file name
	mu        sync.RWMutex
}

// NewManager creates a new storage manager
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		assets:    make(map[string]string),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

// scanExistingFiles indexes assets left by earlier runs. Leftover temp files
// from interrupted writes are ignored.
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		ref := strings.TrimSuffix(name, filepath.Ext(name))
		m.assets[ref] = name
	}

	return nil
}

// Lookup returns the path of the asset stored under ref
func (m *Manager) Lookup(ref string) (string, bool) {
	m.mu.RLock()
	name, ok := m.assets[ref]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}

	path := filepath.Join(m.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		// Removed behind our back
		m.mu.Lock()
		delete(m.assets, ref)
		m.mu.Unlock()
		return "", false
	}
	return path, true
}

// SaveAsset writes r to <ref><ext> atomically and returns the final path
func (m *Manager) SaveAsset(r io.Reader, ref, ext string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) {
		return "", fmt.Errorf("invalid asset ref %q", ref)
	}
	name := ref + ext
	filename := filepath.Join(m.outputDir, name)

	// Unique temp name so concurrent writers of one ref cannot collide
	out, err := os.CreateTemp(m.outputDir, "."+ref+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save asset data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.assets[ref] = name
	m.mu.Unlock()

	return filename, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Count returns the number of stored assets
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}
