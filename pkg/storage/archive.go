package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ImportArchive keeps a copy of every uploaded timetable file on disk so an
// administrator can audit what was imported and when.
type ImportArchive struct {
	baseDir string
}

// NewImportArchive ensures the base directory exists and returns a handle.
func NewImportArchive(baseDir string) (*ImportArchive, error) {
	if baseDir == "" {
		baseDir = "./data/imports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create import archive directory: %w", err)
	}
	return &ImportArchive{baseDir: baseDir}, nil
}

// Save stores the raw upload under the classroom's directory with a
// timestamped name and returns the relative path.
func (a *ImportArchive) Save(classroomID string, data []byte) (string, error) {
	if classroomID == "" {
		return "", fmt.Errorf("classroom id required")
	}
	rel := filepath.Join(classroomID, time.Now().UTC().Format("20060102T150405")+".csv")
	path := filepath.Join(a.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare archive directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archived import: %w", err)
	}
	return rel, nil
}

// List returns the archived upload names for a classroom, newest first.
func (a *ImportArchive) List(classroomID string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(a.baseDir, classroomID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read import archive: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// CleanupOlderThan removes archived uploads older than the TTL and returns
// the relative paths it deleted.
func (a *ImportArchive) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err := filepath.WalkDir(a.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(a.baseDir, path)
		if err != nil {
			rel = path
		}
		deleted = append(deleted, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup import archive: %w", err)
	}
	return deleted, nil
}
