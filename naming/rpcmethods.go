package naming

import (
	"nsfs.io/path"
	"nsfs.io/rpc"
	"nsfs.io/wire"
)

// clientServiceMethods builds the remote method table for the naming
// server's client-service interface.
func clientServiceMethods(s *Server) rpc.Methods {
	return rpc.Methods{
		"IsDirectory": {
			NewArgs: func() interface{} { return new(path.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).IsDirectory(*args.(*path.Path))
			},
		},
		"List": {
			NewArgs: func() interface{} { return new(path.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).List(*args.(*path.Path))
			},
		},
		"CreateFile": {
			NewArgs: func() interface{} { return new(path.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).CreateFile(*args.(*path.Path))
			},
		},
		"CreateDirectory": {
			NewArgs: func() interface{} { return new(path.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).CreateDirectory(*args.(*path.Path))
			},
		},
		"Delete": {
			NewArgs: func() interface{} { return new(path.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).Delete(*args.(*path.Path))
			},
		},
		"GetStorage": {
			NewArgs: func() interface{} { return new(path.Path) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				return server.(*Server).GetStorage(*args.(*path.Path))
			},
		},
	}
}

// registrationMethods builds the remote method table for the naming
// server's registration interface.
func registrationMethods(s *Server) rpc.Methods {
	return rpc.Methods{
		"Register": {
			NewArgs: func() interface{} { return new(wire.RegisterArgs) },
			Invoke: func(server interface{}, args interface{}) (interface{}, error) {
				a := args.(*wire.RegisterArgs)
				return server.(*Server).Register(a.Storage, a.Command, a.Paths)
			},
		},
	}
}
