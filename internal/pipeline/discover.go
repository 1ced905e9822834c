package pipeline

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/backmassage/cbzscan/internal/archive"
)

// Discover walks root and returns every regular file (or symlink to one)
// whose name ends in ext, case-insensitively, sorted lexicographically.
// Subdirectories that cannot be read are passed to warn and skipped; only a
// failure on root itself is returned. A root that is itself a matching file
// yields just that file.
func Discover(root, ext string, warn func(path string, err error)) ([]string, error) {
	if warn == nil {
		warn = func(string, error) {}
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			warn(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !archive.HasExt(d.Name(), ext) {
			return nil
		}
		if isRegular(path, d) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
