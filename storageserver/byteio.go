package storageserver

import (
	"os"

	"nsfs.io/errs"
	p "nsfs.io/path"
)

// Size returns the size in bytes of the file at path. It fails with
// NotExist if path is absent or refers to a directory.
func (s *Server) Size(path p.Path) (int64, error) {
	const op = errs.Op("storageserver.Server.Size")
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.sizeCache.Get(path); ok {
		return v.(int64), nil
	}

	info, err := s.statFile(path)
	if err != nil {
		return 0, errs.E(op, err)
	}
	s.sizeCache.Add(path, info.Size())
	return info.Size(), nil
}

// Read returns length bytes starting at offset from the file at path. It
// fails with NotExist as Size does, and with OutOfRange if length < 0,
// offset < 0, or offset+length exceeds the file's size.
func (s *Server) Read(path p.Path, offset, length int64) ([]byte, error) {
	const op = errs.Op("storageserver.Server.Read")
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.statFile(path)
	if err != nil {
		return nil, errs.E(op, err)
	}
	if offset < 0 || length < 0 || offset+length > info.Size() {
		return nil, errs.E(op, errs.OutOfRange, path.String())
	}

	f, err := os.Open(s.localPath(path))
	if err != nil {
		return nil, errs.E(op, errs.NotExist, err)
	}
	defer f.Close()

	buf := make([]byte, length)
	if length > 0 {
		if _, err := f.ReadAt(buf, offset); err != nil {
			return nil, errs.E(op, err)
		}
	}
	return buf, nil
}

// Write writes data into the file at path starting at offset. It fails
// with NotExist as Size does, and with OutOfRange if offset < 0. Writing
// at offset 0 truncates and overwrites the file; otherwise bytes before
// offset are preserved and data is written starting at offset, extending
// the file if necessary.
func (s *Server) Write(path p.Path, offset int64, data []byte) error {
	const op = errs.Op("storageserver.Server.Write")
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.statFile(path); err != nil {
		return errs.E(op, err)
	}
	if offset < 0 {
		return errs.E(op, errs.OutOfRange, path.String())
	}

	flags := os.O_WRONLY
	if offset == 0 {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(s.localPath(path), flags, 0o644)
	if err != nil {
		return errs.E(op, err)
	}
	defer f.Close()

	if len(data) > 0 {
		if _, err := f.WriteAt(data, offset); err != nil {
			return errs.E(op, err)
		}
	}
	s.sizeCache.Remove(path)
	return nil
}

// statFile stats the file at path, failing with NotExist if it is absent
// or is a directory (a directory is not a file for byte-I/O purposes).
func (s *Server) statFile(path p.Path) (os.FileInfo, error) {
	info, err := os.Stat(s.localPath(path))
	if err != nil {
		return nil, errs.E(errs.NotExist, path.String())
	}
	if info.IsDir() {
		return nil, errs.E(errs.NotExist, path.String(), errs.Str("is a directory"))
	}
	return info, nil
}
