// Package fileutil holds small filesystem helpers shared by the stores.
package fileutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to a temporary file next to filename and
// renames it into place, so readers see either the old or the new content.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = os.Rename(tmpName, filename); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filename, err)
	}
	return nil
}

// WriteJSON marshals v with tab indentation and writes it atomically.
func WriteJSON(filename string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "	")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(filename), err)
	}
	return WriteFileAtomic(filename, data, perm)
}

// ReadJSON decodes filename into v. A missing file leaves v untouched and
// reports found=false.
func ReadJSON(filename string, v any) (found bool, err error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to parse %s: %w", filepath.Base(filename), err)
	}
	return true, nil
}
