// Package rpc is the remote-invocation runtime: the wire codec, the
// server-side skeleton, and the client-side stub described in spec.md
// §4.2–§4.4. It is a generic dispatcher parameterized by a method table
// (rpc.Methods) rather than a per-interface generated stub,
// since hand-written per-interface stubs would duplicate this package's
// logic three times over for no benefit at this scale.
package rpc

import (
	"fmt"

	"nsfs.io/errs"
)

// Address is a "host:port" network address.
type Address string

// Method describes one method of a remote interface: how to allocate a
// fresh argument value to decode into, and how to invoke the method on a
// concrete server object.
//
// Every Method is implicitly remote-capable: Invoke's error return is
// always surfaced to the caller as either an application failure or a
// transport error (never silently dropped), which is this package's
// translation of the "every method must declare it can fail
// with a transport error" rule into a statically typed target.
type Method struct {
	// NewArgs returns a pointer to a fresh, zero-valued arguments struct
	// for this method. The wire codec decodes into it.
	NewArgs func() interface{}

	// Invoke calls the method on server with the decoded arguments and
	// returns the result value (or nil) and an error (or nil).
	Invoke func(server interface{}, args interface{}) (interface{}, error)
}

// Methods is the full method table for one remote interface.
type Methods map[string]Method

// pingMethodName is reserved for the connectivity probe every skeleton
// answers regardless of its declared interface.
const pingMethodName = "__ping__"

// pingArgs is the ping method's argument type. Probed is never read.
type pingArgs struct {
	Probed bool
}

// validate checks that methods is a well-formed, remote-capable interface
// descriptor. A nil or empty table, or an entry missing NewArgs/Invoke, is
// a programmer error: it requires skeleton construction to fail
// immediately in that case rather than fail obscurely at call time.
func validate(methods Methods) error {
	const op = errs.Op("rpc.validate")
	if len(methods) == 0 {
		return errs.E(op, errs.Invalid, errs.Str("remote interface declares no methods"))
	}
	for name, m := range methods {
		if name == pingMethodName {
			return errs.E(op, errs.Invalid, errs.Str(fmt.Sprintf("method name %q is reserved", name)))
		}
		if m.NewArgs == nil || m.Invoke == nil {
			return errs.E(op, errs.Invalid, errs.Str(fmt.Sprintf(
				"method %q is not remote-capable: missing NewArgs or Invoke", name)))
		}
	}
	return nil
}

// withPing returns a copy of methods with the built-in ping handler added.
func withPing(methods Methods) Methods {
	out := make(Methods, len(methods)+1)
	for k, v := range methods {
		out[k] = v
	}
	out[pingMethodName] = Method{
		NewArgs: func() interface{} { return new(pingArgs) },
		Invoke: func(server interface{}, args interface{}) (interface{}, error) {
			return true, nil
		},
	}
	return out
}
