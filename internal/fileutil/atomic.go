// Package fileutil holds small filesystem helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteAtomic replaces path with data. The bytes go to a temp file in the
// same directory, are synced, then renamed over path, so readers see
// either the old or the new content.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(step string, cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s %s: %w", step, tmpName, cause)
	}

	if _, err = tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err = tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fail("chmod", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err = os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename onto %s: %w", path, err)
	}

	return nil
}
