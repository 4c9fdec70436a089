// Package naming implements the naming server: the
// process that owns the namespace engine and the storage-server registry,
// and hosts the two remote interfaces spec.md §4.7 calls for — the client
// service and the registration service — on well-known ports.
package naming

import (
	"sort"
	"sync"

	"nsfs.io/errs"
	"nsfs.io/namespace"
	"nsfs.io/path"
	"nsfs.io/rpc"
)

// registryEntry is one (storage-handle, command-handle) pair the naming
// server has accepted via Register.
type registryEntry struct {
	Storage rpc.Stub
	Command rpc.Stub
}

// Server is the naming server: one namespace engine, one storage-server
// registry, and the two skeletons that expose them to the network.
//
// Per spec.md §5, all namespace/registry *mutations* (Register, CreateFile,
// CreateDirectory, Delete) are serialized behind mu, a single exclusive
// lock; pure reads (IsDirectory, List, GetStorage) go straight to the
// namespace.Tree, which allows concurrent readers under its own
// reader-writer lock.
type Server struct {
	tree *namespace.Tree

	mu  sync.Mutex
	reg []registryEntry // insertion order; never shrinks.

	ClientAddr       rpc.Address
	RegistrationAddr rpc.Address

	clientSkeleton       *rpc.Skeleton
	registrationSkeleton *rpc.Skeleton
}

// New returns a naming server with an empty namespace and registry, bound
// (but not yet started) to the given well-known client-service and
// registration-service addresses.
func New(clientAddr, registrationAddr rpc.Address) *Server {
	return &Server{
		tree:             namespace.New(),
		ClientAddr:       clientAddr,
		RegistrationAddr: registrationAddr,
	}
}

// Start binds and starts both skeletons. It is the naming server's half of
// the "orchestrates start/stop of its skeletons".
func (s *Server) Start() error {
	const op = errs.Op("naming.Server.Start")

	cs, err := rpc.NewSkeleton("naming.ClientService", clientServiceMethods(s), s, s.ClientAddr)
	if err != nil {
		return errs.E(op, err)
	}
	if err := cs.Start(); err != nil {
		return errs.E(op, err)
	}
	s.clientSkeleton = cs
	s.ClientAddr = cs.Addr()

	rs, err := rpc.NewSkeleton("naming.Registration", registrationMethods(s), s, s.RegistrationAddr)
	if err != nil {
		cs.Stop()
		return errs.E(op, err)
	}
	if err := rs.Start(); err != nil {
		cs.Stop()
		return errs.E(op, err)
	}
	s.registrationSkeleton = rs
	s.RegistrationAddr = rs.Addr()

	return nil
}

// Stop stops both skeletons.
func (s *Server) Stop() {
	if s.clientSkeleton != nil {
		s.clientSkeleton.Stop()
	}
	if s.registrationSkeleton != nil {
		s.registrationSkeleton.Stop()
	}
}

// IsDirectory reports whether p is a directory. It fails with NotExist if
// p does not exist.
func (s *Server) IsDirectory(p path.Path) (bool, error) {
	const op = errs.Op("naming.Server.IsDirectory")
	isDir, err := s.tree.IsFolder(p)
	if err != nil {
		return false, errs.E(op, err)
	}
	return isDir, nil
}

// List returns the child names of dir. It fails with NotExist if dir does
// not exist or is not a directory.
func (s *Server) List(dir path.Path) ([]string, error) {
	const op = errs.Op("naming.Server.List")
	names, err := s.tree.List(dir)
	if err != nil {
		return nil, errs.E(op, err)
	}
	return names, nil
}

// GetStorage returns the storage handle bound to file p. It fails with
// NotExist if p does not exist or is a directory.
func (s *Server) GetStorage(p path.Path) (rpc.Stub, error) {
	const op = errs.Op("naming.Server.GetStorage")
	h, err := s.tree.GetStorageHandle(p)
	if err != nil {
		return rpc.Stub{}, errs.E(op, err)
	}
	return h, nil
}

// CreateFile creates an empty file at p, choosing a registered storage
// server to host it. It fails with NotExist if p's parent does not
// pre-exist as a directory, and with Transport if no storage server is
// registered. It returns false, making no change, if p already exists.
//
// The choice of storage server is deterministic: the first-registered
// entry in the registry, never an iteration order over an unordered set.
func (s *Server) CreateFile(p path.Path) (bool, error) {
	const op = errs.Op("naming.Server.CreateFile")

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.ParentExists(p) {
		return false, errs.E(op, errs.NotExist, p.String())
	}
	if s.tree.PathExists(p) {
		return false, nil
	}
	if len(s.reg) == 0 {
		return false, errs.E(op, errs.Transport, errs.Str("no storage server registered"))
	}
	entry := s.reg[0]

	var created bool
	if err := entry.Command.Call("Create", p, &created); err != nil {
		return false, errs.E(op, err)
	}
	if !created {
		return false, errs.E(op, errs.Str("storage server refused to create file"))
	}

	if _, err := s.tree.AddFile(p, entry.Storage, entry.Command); err != nil {
		return false, errs.E(op, err)
	}
	return true, nil
}

// CreateDirectory creates a directory at p. It fails with NotExist if p's
// parent does not pre-exist as a directory. It returns false, making no
// change, if p already exists.
func (s *Server) CreateDirectory(p path.Path) (bool, error) {
	const op = errs.Op("naming.Server.CreateDirectory")

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.ParentExists(p) {
		return false, errs.E(op, errs.NotExist, p.String())
	}
	if s.tree.PathExists(p) {
		return false, nil
	}
	if _, err := s.tree.AddDirectory(p, rpc.Stub{}, rpc.Stub{}); err != nil {
		return false, errs.E(op, err)
	}
	return true, nil
}

// Delete removes the node at p. If p is a file, the bound storage
// server's Delete command is invoked first; a transport failure on that
// call returns false without modifying the namespace. If p is a
// directory, Delete(p) is issued against every distinct storage server
// that owns a file somewhere beneath p, so each server prunes its own
// on-disk copy of the subtree (directory included) before the directory
// node itself is removed from the namespace.
//
// Known caveat: because the remote
// delete happens before the namespace node is removed, a transport failure
// partway through a directory's subtree can leave the namespace
// inconsistent with storage for siblings already deleted. Two-phase commit
// across storage servers is explicitly out of scope; this is the same
// caveat the distilled spec calls out, not silently resolved.
func (s *Server) Delete(p path.Path) (bool, error) {
	const op = errs.Op("naming.Server.Delete")

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.PathExists(p) {
		return false, errs.E(op, errs.NotExist, p.String())
	}

	if err := s.deleteRemote(p); err != nil {
		return false, nil
	}
	if err := s.tree.Delete(p); err != nil {
		return false, errs.E(op, err)
	}
	return true, nil
}

// deleteRemote issues the remote delete command(s) needed to remove p's
// on-disk bytes (and, for a directory, the directory itself) before the
// namespace node is dropped. For a file this is a single Delete(p) call
// on its bound command handle. For a directory, every distinct command
// handle reachable from a file in the subtree is asked to Delete(p)
// itself: each storage server's Delete recursively removes its own
// locally-rooted copy of p, so the on-disk directory does not survive
// just because directory nodes carry no command handle of their own.
func (s *Server) deleteRemote(p path.Path) error {
	handles, err := s.commandHandlesUnder(p)
	if err != nil {
		return err
	}
	for _, h := range handles {
		var ok bool
		if err := h.Call("Delete", p, &ok); err != nil {
			return err
		}
	}
	return nil
}

// commandHandlesUnder returns the distinct command handles bound to every
// file in the subtree rooted at p (just p's own handle if p is a file).
func (s *Server) commandHandlesUnder(p path.Path) ([]rpc.Stub, error) {
	isDir, err := s.tree.IsFolder(p)
	if err != nil {
		return nil, err
	}
	if !isDir {
		h, err := s.tree.GetCommandHandle(p)
		if err != nil {
			return nil, err
		}
		return []rpc.Stub{h}, nil
	}

	names, err := s.tree.List(p)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	seen := make(map[rpc.Stub]bool)
	var out []rpc.Stub
	for _, name := range names {
		child, err := path.New(p, name)
		if err != nil {
			return nil, err
		}
		handles, err := s.commandHandlesUnder(child)
		if err != nil {
			return nil, err
		}
		for _, h := range handles {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out, nil
}

// Register accepts a storage server's announcement of its pre-existing
// files over the registration interface. It fails with Exist if
// either handle is already registered. It inserts every path in paths
// that is not already present in the namespace (and is not root) as a
// file bound to the new handles, adds the pair to the registry, and
// returns the set of paths that were already present — the caller deletes
// those locally, ceding them to the incumbent registrant.
func (s *Server) Register(storage, command rpc.Stub, paths []path.Path) ([]path.Path, error) {
	const op = errs.Op("naming.Server.Register")
	if storage.IsZero() || command.IsZero() {
		return nil, errs.E(op, errs.Invalid, errs.Str("storage and command handles must not be zero"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.reg {
		if e.Storage.Equal(storage) || e.Command.Equal(command) {
			return nil, errs.E(op, errs.Exist, errs.Str("storage server already registered"))
		}
	}

	var toDelete []path.Path
	for _, p := range paths {
		if p.IsRoot() {
			continue
		}
		if s.tree.PathExists(p) {
			toDelete = append(toDelete, p)
			continue
		}
		if _, err := s.tree.AddFile(p, storage, command); err != nil {
			return nil, errs.E(op, err)
		}
	}

	s.reg = append(s.reg, registryEntry{Storage: storage, Command: command})

	return toDelete, nil
}
