package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir creates the directory (and parents) if it does not exist and
// returns the path unchanged.
func EnsureDir(path string) (string, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return path, nil
}

// ClearDir removes all regular files in the directory. Subdirectories are
// left untouched.
func ClearDir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(path, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// MoveWithStamp moves a file into destDir. When the target name already
// exists, a timestamp is appended to the stem so nothing is overwritten.
func MoveWithStamp(src, destDir string) (string, error) {
	target := filepath.Join(destDir, filepath.Base(src))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(src)
		stem := strings.TrimSuffix(filepath.Base(src), ext)
		stamp := time.Now().Format("20060102-150405")
		target = filepath.Join(destDir, fmt.Sprintf("%s_%s%s", stem, stamp, ext))
	}
	if err := os.Rename(src, target); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", src, target, err)
	}
	return target, nil
}

// ChooseExistingPath returns the first candidate that exists on disk, or
// the fallback when none does.
func ChooseExistingPath(candidates []string, fallback string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return fallback
}
