package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
)

// RestrictFile limits an existing file to mode. Missing files are ignored.
// On Windows this is a no-op because Windows does not support Unix-style
// permission bits.
func RestrictFile(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if info.Mode().Perm() == mode {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}
	return nil
}

// RestrictFiles applies RestrictFile to every path, stopping at the first
// error.
func RestrictFiles(mode os.FileMode, paths ...string) error {
	for _, p := range paths {
		if err := RestrictFile(p, mode); err != nil {
			return err
		}
	}
	return nil
}
