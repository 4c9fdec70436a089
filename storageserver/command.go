package storageserver

import (
	"os"
	"path/filepath"

	p "nsfs.io/path"
)

// Create creates all missing parent directories and an empty file at
// path, returning true. It returns false, making no change, if path is
// root or already exists.
func (s *Server) Create(path p.Path) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path.IsRoot() {
		return false, nil
	}
	local := s.localPath(path)
	if _, err := os.Stat(local); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(local, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, f.Close()
}

// Delete recursively removes the subtree rooted at path on disk. It
// returns false, making no change, if path is root.
func (s *Server) Delete(path p.Path) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if path.IsRoot() {
		return false, nil
	}
	if err := os.RemoveAll(s.localPath(path)); err != nil {
		return false, err
	}
	// Drop cached sizes of path and of every file beneath it.
	var stale []interface{}
	for it := s.sizeCache.NewIterator(); ; {
		k, _, ok := it.GetAndAdvance()
		if !ok {
			break
		}
		if k.(p.Path).IsSubpath(path) {
			stale = append(stale, k)
		}
	}
	for _, k := range stale {
		s.sizeCache.Remove(k)
	}
	return true, nil
}
