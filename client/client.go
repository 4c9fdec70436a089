// Package client implements a thin, stateless client for the naming and
// storage servers, generalizing the shape of the teacher's client.Client
// (one struct wrapping the handles needed to reach the servers, one method
// per remote operation) to this system's own naming-service and
// byte-I/O/command interfaces in place of upspin.Client's directory/store
// split.
package client

import (
	"nsfs.io/errs"
	"nsfs.io/path"
	"nsfs.io/rpc"
	"nsfs.io/wire"
)

// Client talks to a naming server's client-service interface, resolving
// storage handles itself before each byte-I/O call so callers never see a
// storage server's address directly.
type Client struct {
	naming rpc.Stub
}

// New returns a Client that reaches the naming server's client-service
// interface at addr.
func New(addr rpc.Address) (*Client, error) {
	const op = errs.Op("client.New")
	stub, err := rpc.NewFromAddress("naming.ClientService", addr)
	if err != nil {
		return nil, errs.E(op, err)
	}
	return &Client{naming: stub}, nil
}

// IsDirectory reports whether p is a directory.
func (c *Client) IsDirectory(p path.Path) (bool, error) {
	var isDir bool
	if err := c.naming.Call("IsDirectory", p, &isDir); err != nil {
		return false, err
	}
	return isDir, nil
}

// List returns the child names of dir.
func (c *Client) List(dir path.Path) ([]string, error) {
	var names []string
	if err := c.naming.Call("List", dir, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// CreateFile creates an empty file at p.
func (c *Client) CreateFile(p path.Path) (bool, error) {
	var ok bool
	if err := c.naming.Call("CreateFile", p, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CreateDirectory creates a directory at p.
func (c *Client) CreateDirectory(p path.Path) (bool, error) {
	var ok bool
	if err := c.naming.Call("CreateDirectory", p, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Delete removes the node at p.
func (c *Client) Delete(p path.Path) (bool, error) {
	var ok bool
	if err := c.naming.Call("Delete", p, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Size returns the size in bytes of the file at p.
func (c *Client) Size(p path.Path) (int64, error) {
	storage, err := c.storageHandle(p)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := storage.Call("Size", p, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Read reads length bytes starting at offset from the file at p.
func (c *Client) Read(p path.Path, offset, length int64) ([]byte, error) {
	storage, err := c.storageHandle(p)
	if err != nil {
		return nil, err
	}
	var data []byte
	args := wire.ReadArgs{Path: p, Offset: offset, Length: length}
	if err := storage.Call("Read", args, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Write writes data into the file at p starting at offset.
func (c *Client) Write(p path.Path, offset int64, data []byte) error {
	storage, err := c.storageHandle(p)
	if err != nil {
		return err
	}
	args := wire.WriteArgs{Path: p, Offset: offset, Data: data}
	return storage.Call("Write", args, nil)
}

func (c *Client) storageHandle(p path.Path) (rpc.Stub, error) {
	var h rpc.Stub
	if err := c.naming.Call("GetStorage", p, &h); err != nil {
		return rpc.Stub{}, err
	}
	return h, nil
}
