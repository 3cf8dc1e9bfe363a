// Package filex holds filesystem helpers for the data directories.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if needed and returns its absolute
// path. A relative dir is taken relative to the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return abs, nil
}

// RemoveDurable removes path and then asks the OS to push the change to
// the storage device. Only the removal can fail; flushing is best effort.
func RemoveDurable(path string) error {
	if err := os.Remove(path); err != nil {
		return err
	}
	_ = flush(path)
	return nil
}
