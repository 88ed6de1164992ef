package config

import (
	"os"
	"path/filepath"
)

// Discover looks for a project configuration. Starting at dir it checks
// dir/.vulnark/config.yaml and each parent, stopping after the repository
// root (a directory containing .git) or the filesystem root. When nothing is
// found it returns the per-user default path and false.
func Discover(dir string) (string, bool) {
	if dir != "" {
		for {
			candidate := filepath.Join(dir, DirName, FileName)
			if isFile(candidate) {
				return candidate, true
			}
			if exists(filepath.Join(dir, ".git")) {
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	path, err := DefaultPath()
	if err != nil {
		return "", false
	}
	return path, isFile(path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
