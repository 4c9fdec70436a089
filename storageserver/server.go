// Package storageserver implements a storage server: a
// process that hosts a directory subtree on local disk and exposes it
// through two remote interfaces, a byte-I/O interface and a command
// interface, registering with the naming server on startup. Grounded on
// store/filesystem/store.go's root-directory-backed file addressing
// ("<root>/<path>", no sidecar metadata) and on dir/server's
// registration-and-reconcile handshake shape.
package storageserver

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"nsfs.io/cache"
	"nsfs.io/errs"
	p "nsfs.io/path"
	"nsfs.io/rpc"
	"nsfs.io/wire"
)

// sizeCacheEntries bounds the number of file sizes cached in memory, saving
// a stat syscall on repeat Size calls for the same hot file.
const sizeCacheEntries = 10000

// ByteService is the byte-I/O remote interface: size, read, write on files
// already known to the namespace.
type ByteService interface {
	Size(path p.Path) (int64, error)
	Read(path p.Path, offset, length int64) ([]byte, error)
	Write(path p.Path, offset int64, data []byte) error
}

// CommandService is the mutation remote interface: create and delete.
type CommandService interface {
	Create(path p.Path) (bool, error)
	Delete(path p.Path) (bool, error)
}

// Server is a storage server: a local root directory plus the two
// skeletons that expose it, and the self-stubs it registered with the
// naming server.
//
// Concurrency: every exported method is serialized under mu, treating the
// server as having one coarse lock on filesystem state: per-file atomicity
// of a read, write, create, or delete, not per-node locking.
type Server struct {
	root string

	mu sync.Mutex

	sizeCache *cache.LRU

	byteSkeleton    *rpc.Skeleton
	commandSkeleton *rpc.Skeleton

	// ByteStub and CommandStub are this server's own stubs, created at
	// Start and handed to the naming server's Register call so the
	// naming server can later invoke this storage server remotely.
	ByteStub    rpc.Stub
	CommandStub rpc.Stub

	// Stopped is invoked once after Stop completes.
	Stopped func()
}

var (
	_ ByteService    = (*Server)(nil)
	_ CommandService = (*Server)(nil)
)

// New returns a storage server rooted at root. root must exist and be a
// directory by the time Start is called.
func New(root string) *Server {
	return &Server{root: root, sizeCache: cache.NewLRU(sizeCacheEntries)}
}

// Start validates the root, binds and starts both skeletons on host,
// creates self-stubs referring to them, enumerates the local files under
// root, and registers with the naming server at registrationAddr. Files
// the naming server reports as duplicates (already present from a
// previous registrant) are deleted locally, and any directory left empty
// by those deletions is pruned.
func (s *Server) Start(host string, registrationAddr rpc.Address) error {
	const op = errs.Op("storageserver.Server.Start")

	info, err := os.Stat(s.root)
	if err != nil {
		return errs.E(op, errs.NotExist, err)
	}
	if !info.IsDir() {
		return errs.E(op, errs.NotExist, errs.Str("root is not a directory"))
	}

	byteSk, err := rpc.NewSkeleton("storageserver.ByteService", byteServiceMethods(s), s, rpc.Address(host+":0"))
	if err != nil {
		return errs.E(op, err)
	}
	if err := byteSk.Start(); err != nil {
		return errs.E(op, err)
	}
	s.byteSkeleton = byteSk

	cmdSk, err := rpc.NewSkeleton("storageserver.CommandService", commandServiceMethods(s), s, rpc.Address(host+":0"))
	if err != nil {
		byteSk.Stop()
		return errs.E(op, err)
	}
	if err := cmdSk.Start(); err != nil {
		byteSk.Stop()
		return errs.E(op, err)
	}
	s.commandSkeleton = cmdSk

	byteStub, err := rpc.NewFromSkeletonHost("storageserver.ByteService", byteSk, host)
	if err != nil {
		s.stopSkeletons()
		return errs.E(op, err)
	}
	commandStub, err := rpc.NewFromSkeletonHost("storageserver.CommandService", cmdSk, host)
	if err != nil {
		s.stopSkeletons()
		return errs.E(op, err)
	}
	s.ByteStub = byteStub
	s.CommandStub = commandStub

	localPaths, err := p.LocalFiles(s.root)
	if err != nil {
		s.stopSkeletons()
		return errs.E(op, err)
	}

	registration, err := rpc.NewFromAddress("naming.Registration", registrationAddr)
	if err != nil {
		s.stopSkeletons()
		return errs.E(op, err)
	}

	var toDelete []p.Path
	args := wire.RegisterArgs{Storage: byteStub, Command: commandStub, Paths: localPaths}
	if err := registration.Call("Register", args, &toDelete); err != nil {
		s.stopSkeletons()
		return errs.E(op, err)
	}

	if err := s.reconcile(toDelete); err != nil {
		return errs.E(op, err)
	}

	return nil
}

// Stop stops both skeletons and invokes Stopped once.
func (s *Server) Stop() {
	s.stopSkeletons()
	if s.Stopped != nil {
		s.Stopped()
	}
}

func (s *Server) stopSkeletons() {
	if s.byteSkeleton != nil {
		s.byteSkeleton.Stop()
	}
	if s.commandSkeleton != nil {
		s.commandSkeleton.Stop()
	}
}

// localPath maps a namespace path to its location on disk.
func (s *Server) localPath(path p.Path) string {
	return filepath.Join(s.root, filepath.FromSlash(path.String()))
}

// reconcile deletes the files the naming server reported as duplicates and
// prunes any directory left empty by those deletions. Paths are handled
// concurrently with an errgroup, each path's ancestor chain pruned
// bottom-up on its own; paths that share an ancestor directory may race
// on it, which pruneEmptyAncestors tolerates.
func (s *Server) reconcile(toDelete []p.Path) error {
	if len(toDelete) == 0 {
		return nil
	}
	g, _ := errgroup.WithContext(context.Background())
	for _, path := range toDelete {
		path := path
		g.Go(func() error {
			local := s.localPath(path)
			if err := os.RemoveAll(local); err != nil {
				return err
			}
			return s.pruneEmptyAncestors(filepath.Dir(local))
		})
	}
	return g.Wait()
}

// pruneEmptyAncestors removes dir and each of its ancestors, stopping at
// the first non-empty directory or at the server's root. Two duplicate
// siblings pruned concurrently can race on a shared ancestor: both may see
// it empty before either removes it, so a NotExist from Remove means a
// concurrent pruner already won that ancestor (and, having won it, is
// itself continuing up the chain), not a failure.
func (s *Server) pruneEmptyAncestors(dir string) error {
	rootClean := filepath.Clean(s.root)
	for {
		dir = filepath.Clean(dir)
		if dir == rootClean || len(dir) < len(rootClean) {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if len(entries) != 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		dir = filepath.Dir(dir)
	}
}
