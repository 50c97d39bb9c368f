// Package storage provides per-user JSON file persistence.
//
// Durable state in Gather is deliberately simple: one JSON document per
// concern per user under the data directory. Saves are atomic
// whole-file overwrites (write to a temp file, then rename), and a
// missing or corrupt file always degrades to the caller's default
// rather than failing the turn.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a root data directory holding per-user state.
type Dir struct {
	root string
}

// NewDir returns a Dir rooted at path. The directory is created on
// first save, not here.
func NewDir(path string) *Dir {
	return &Dir{root: path}
}

// UserPath returns the path of a user-scoped file, e.g.
// UserPath("me", "calendar.json") → <root>/users/me/calendar.json.
func (d *Dir) UserPath(userID, name string) string {
	return filepath.Join(d.root, "users", userID, name)
}

// LoadJSON reads the JSON document at path into v. A missing or
// unreadable or corrupt file leaves v untouched and returns false;
// callers treat that as the empty state.
func (d *Dir) LoadJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

// SaveJSON writes v as indented JSON to path atomically: the document
// is written to a temp file in the same directory and renamed into
// place, so readers never observe a partial write.
func (d *Dir) SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".gather-*")
	if err != nil {
		return fmt.Errorf("temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
