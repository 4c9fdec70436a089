// Package wire holds the argument shapes shared across the remote
// interfaces exposed by the naming server and storage server, so both
// sides of a call agree on field layout without introducing an import
// cycle between the naming and storageserver packages.
package wire

import (
	"nsfs.io/path"
	"nsfs.io/rpc"
)

// ReadArgs is the argument tuple for the byte-I/O interface's Read method.
type ReadArgs struct {
	Path   path.Path
	Offset int64
	Length int64
}

// WriteArgs is the argument tuple for the byte-I/O interface's Write
// method.
type WriteArgs struct {
	Path   path.Path
	Offset int64
	Data   []byte
}

// RegisterArgs is the argument tuple for the registration interface's
// Register method.
type RegisterArgs struct {
	Storage rpc.Stub
	Command rpc.Stub
	Paths   []path.Path
}
