package storageserver

import (
	p "nsfs.io/path"
	"nsfs.io/rpc"
	"nsfs.io/wire"
)

// byteServiceMethods builds the remote method table for the byte-I/O
// interface.
func byteServiceMethods(s *Server) rpc.Methods {
	return rpc.Methods{
		"Size": {
			NewArgs: func() interface{} { return new(p.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).Size(*args.(*p.Path))
			},
		},
		"Read": {
			NewArgs: func() interface{} { return new(wire.ReadArgs) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				a := args.(*wire.ReadArgs)
				return server.(*Server).Read(a.Path, a.Offset, a.Length)
			},
		},
		"Write": {
			NewArgs: func() interface{} { return new(wire.WriteArgs) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				a := args.(*wire.WriteArgs)
				return nil, server.(*Server).Write(a.Path, a.Offset, a.Data)
			},
		},
	}
}

// commandServiceMethods builds the remote method table for the command
// interface.
func commandServiceMethods(s *Server) rpc.Methods {
	return rpc.Methods{
		"Create": {
			NewArgs: func() interface{} { return new(p.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).Create(*args.(*p.Path))
			},
		},
		"Delete": {
			NewArgs: func() interface{} { return new(p.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).Delete(*args.(*p.Path))
			},
		},
	}
}
