package path

import (
	"io/fs"
	"path/filepath"
)

// LocalFiles returns the namespace paths (rooted at "/") of every regular
// file found by a recursive traversal of the local directory root, the
// static operation spec.md §4.1 gives storage servers for use at
// registration time. Directories and non-regular files (symlinks,
// devices, ...) are skipped; symlinks are explicitly out of scope.
func LocalFiles(root string) ([]Path, error) {
	var out []Path
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		parsed, err := Parse("/" + filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		out = append(out, parsed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
