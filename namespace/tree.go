// Package namespace is the naming server's in-memory directory tree: the
// namespace engine described in spec.md §3/§4.6. Every node is a directory
// or a file; only a directory has children; the root always exists and is
// always a directory. This mirrors the tree-of-nodes shape dir/server keeps
// for upspin's namespace (directory nodes keyed by child name, file nodes
// carrying a binding), generalized to this system's simpler
// (storage-handle, command-handle) file binding.
package namespace

import (
	"sort"
	"sync"

	"nsfs.io/errs"
	"nsfs.io/path"
	"nsfs.io/rpc"
)

// node is one entry in the tree: a directory (children non-nil) or a file
// (storage/command bound, children nil). A node is never both.
type node struct {
	children map[string]*node // nil for a file node.
	storage  rpc.Stub
	command  rpc.Stub
}

func (n *node) isDir() bool { return n.children != nil }

func newDirNode() *node {
	return &node{children: make(map[string]*node)}
}

// Tree is the namespace engine: an in-memory directory tree mapping paths
// to (kind, storage binding). The zero value is not usable; use New.
type Tree struct {
	mu   sync.RWMutex
	root *node
}

// New returns an empty Tree containing only the root directory.
func New() *Tree {
	return &Tree{root: newDirNode()}
}

// walk resolves p against the tree, returning the node at p and whether it
// exists. Callers must hold at least a read lock.
func (t *Tree) walk(p path.Path) (*node, bool) {
	n := t.root
	for _, elem := range p.Elems() {
		if !n.isDir() {
			return nil, false
		}
		child, ok := n.children[elem]
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// PathExists reports whether p resolves to a node. The root always exists.
func (t *Tree) PathExists(p path.Path) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.walk(p)
	return ok
}

// IsFolder reports whether the node at p is a directory. It fails with
// NotExist if p does not exist.
func (t *Tree) IsFolder(p path.Path) (bool, error) {
	const op = errs.Op("namespace.IsFolder")
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.walk(p)
	if !ok {
		return false, errs.E(op, errs.NotExist, p.String())
	}
	return n.isDir(), nil
}

// ParentExists reports whether parent(p) exists and is a directory. It is
// false, not an error, for the root (which has no parent).
func (t *Tree) ParentExists(p path.Path) bool {
	if p.IsRoot() {
		return false
	}
	parent, err := p.Parent()
	if err != nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.walk(parent)
	return ok && n.isDir()
}

// List returns the sorted child names of dir. It fails with NotExist if
// dir does not exist or is a file.
func (t *Tree) List(dir path.Path) ([]string, error) {
	const op = errs.Op("namespace.List")
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.walk(dir)
	if !ok {
		return nil, errs.E(op, errs.NotExist, dir.String())
	}
	if !n.isDir() {
		return nil, errs.E(op, errs.NotExist, dir.String(), errs.Str("not a directory"))
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ensureDirPath walks down from the root along p's components, creating
// missing directory nodes as it goes, per the auto-creation semantics
// spec.md §4.6 grants to registration and to AddFile/AddDirectory. It
// fails if the walk passes through an existing file node, treating that
// as "parent does not exist".
func (t *Tree) ensureDirPath(elems []string) (*node, error) {
	const op = errs.Op("namespace.ensureDirPath")
	n := t.root
	for _, elem := range elems {
		if !n.isDir() {
			return nil, errs.E(op, errs.NotExist, errs.Str("parent path passes through a file"))
		}
		child, ok := n.children[elem]
		if !ok {
			child = newDirNode()
			n.children[elem] = child
		}
		n = child
	}
	if !n.isDir() {
		return nil, errs.E(op, errs.NotExist, errs.Str("parent path passes through a file"))
	}
	return n, nil
}

// AddFile inserts a file node at p bound to storage and command, creating
// intermediate directories as needed. It returns false without modifying
// the tree if p is root; otherwise it returns true, overwriting any
// pre-existing node at p (the last registrant wins).
func (t *Tree) AddFile(p path.Path, storage, command rpc.Stub) (bool, error) {
	return t.addLeaf(p, false, storage, command)
}

// AddDirectory inserts a directory node at p, creating intermediate
// directories as needed. It returns false without modifying the tree if p
// is root.
func (t *Tree) AddDirectory(p path.Path, storage, command rpc.Stub) (bool, error) {
	return t.addLeaf(p, true, storage, command)
}

func (t *Tree) addLeaf(p path.Path, isDir bool, storage, command rpc.Stub) (bool, error) {
	if p.IsRoot() {
		return false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	elems := p.Elems()
	parent, err := t.ensureDirPath(elems[:len(elems)-1])
	if err != nil {
		return false, err
	}
	last := elems[len(elems)-1]
	if isDir {
		parent.children[last] = newDirNode()
	} else {
		parent.children[last] = &node{storage: storage, command: command}
	}
	return true, nil
}

// Delete removes the node at p (and, if it is a directory, its entire
// subtree). It fails with NotExist if p does not exist; it always fails
// for the root.
func (t *Tree) Delete(p path.Path) error {
	const op = errs.Op("namespace.Delete")
	if p.IsRoot() {
		return errs.E(op, errs.Invalid, p.String(), errs.Str("cannot delete root"))
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.walk(mustParent(p))
	if !ok || !parent.isDir() {
		return errs.E(op, errs.NotExist, p.String())
	}
	last, _ := p.Last()
	if _, ok := parent.children[last]; !ok {
		return errs.E(op, errs.NotExist, p.String())
	}
	delete(parent.children, last)
	return nil
}

// GetStorageHandle returns the storage-interface handle bound to the file
// at p. It fails with NotExist if p does not exist or is a directory.
func (t *Tree) GetStorageHandle(p path.Path) (rpc.Stub, error) {
	const op = errs.Op("namespace.GetStorageHandle")
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.walk(p)
	if !ok || n.isDir() {
		return rpc.Stub{}, errs.E(op, errs.NotExist, p.String())
	}
	return n.storage, nil
}

// GetCommandHandle returns the command-interface handle bound to the file
// at p. It fails with NotExist if p does not exist or is a directory.
func (t *Tree) GetCommandHandle(p path.Path) (rpc.Stub, error) {
	const op = errs.Op("namespace.GetCommandHandle")
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.walk(p)
	if !ok || n.isDir() {
		return rpc.Stub{}, errs.E(op, errs.NotExist, p.String())
	}
	return n.command, nil
}

func mustParent(p path.Path) path.Path {
	parent, err := p.Parent()
	if err != nil {
		// p is never root here; callers check IsRoot first.
		panic(err)
	}
	return parent
}
