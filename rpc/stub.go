package rpc

import (
	"encoding/gob"
	"hash/fnv"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"nsfs.io/errs"
)

// dialTimeout bounds how long a stub call waits to establish its
// connection before failing with a transport error.
const dialTimeout = 10 * time.Second

var nextCallID uint64

// probeGroup collapses concurrent reachability probes to the same address
// into a single dial, mirroring the collapsing behavior the teacher's
// bind.inflightDial gives concurrent dials of the same service.
var probeGroup singleflight.Group

// Stub is a client-side proxy for a remote interface at a bound address.
// Per the design note, it is a plain value type
// holding (interface identity, network address) and reconnects per call
// rather than holding a live socket; that also makes it directly
// serializable, so a storage server can hand its own stub to the naming
// server during registration.
type Stub struct {
	iface string
	addr  Address
}

// zero is the Stub equivalent of a nil pointer: no constructor ever
// returns it alongside a nil error.
var zero Stub

// NewFromSkeleton builds a stub for iface from a skeleton that must
// already be Running and reachable.
func NewFromSkeleton(iface string, sk *Skeleton) (Stub, error) {
	const op = errs.Op("rpc.NewFromSkeleton")
	if sk == nil {
		return zero, errs.E(op, errs.Invalid, errs.Str("skeleton must not be nil"))
	}
	if sk.State() != Running {
		return zero, errs.E(op, errs.Invalid, errs.Str("skeleton is not Running"))
	}
	addr := sk.Addr()
	if err := probe(addr); err != nil {
		return zero, errs.E(op, errs.Transport, err)
	}
	return Stub{iface: iface, addr: addr}, nil
}

// NewFromSkeletonHost builds a stub for iface from a skeleton, overriding
// the host portion of its address with host (used when the skeleton's own
// address is not externally routable, e.g. it bound "0.0.0.0").
func NewFromSkeletonHost(iface string, sk *Skeleton, host string) (Stub, error) {
	const op = errs.Op("rpc.NewFromSkeletonHost")
	if sk == nil {
		return zero, errs.E(op, errs.Invalid, errs.Str("skeleton must not be nil"))
	}
	if host == "" {
		return zero, errs.E(op, errs.Invalid, errs.Str("host must not be empty"))
	}
	_, port, err := net.SplitHostPort(string(sk.Addr()))
	if err != nil {
		return zero, errs.E(op, errs.Invalid, err)
	}
	return Stub{iface: iface, addr: Address(net.JoinHostPort(host, port))}, nil
}

// NewFromAddress builds a stub for iface targeting a raw address with no
// local skeleton reference, used to bootstrap a client that already knows
// where the server is.
func NewFromAddress(iface string, addr Address) (Stub, error) {
	const op = errs.Op("rpc.NewFromAddress")
	if addr == "" {
		return zero, errs.E(op, errs.Invalid, errs.Str("address must not be empty"))
	}
	return Stub{iface: iface, addr: addr}, nil
}

// IsZero reports whether s is the unset Stub value (no constructor
// returns this alongside a nil error; useful for "no storage server
// registered yet" checks).
func (s Stub) IsZero() bool { return s == zero }

func probe(addr Address) error {
	_, err, _ := probeGroup.Do(string(addr), func() (interface{}, error) {
		s := Stub{iface: "__probe__", addr: addr}
		var ok bool
		return nil, s.Call(pingMethodName, &pingArgs{}, &ok)
	})
	return err
}

// Interface returns the remote interface name this stub targets.
func (s Stub) Interface() string { return s.iface }

// Addr returns the address this stub targets.
func (s Stub) Addr() Address { return s.addr }

// Equal reports whether s and o target the same remote interface and
// address (the testable property 5).
func (s Stub) Equal(o Stub) bool {
	return s == o
}

// Hash derives a hash from the same fields Equal compares, so equality and
// hashing agree.
func (s Stub) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(s.iface))
	h.Write([]byte{0})
	h.Write([]byte(s.addr))
	return h.Sum64()
}

// String returns a debuggable representation naming the interface and
// address.
func (s Stub) String() string {
	return s.iface + "@" + string(s.addr)
}

// Call ships (method, args) to the stub's address and decodes the reply
// into reply (which may be nil if the method has no return value). On an
// application-failure reply it returns an equivalent local error; on any
// failure of the remote-invocation layer itself it returns a transport
// error.
func (s Stub) Call(method string, args interface{}, reply interface{}) error {
	const op = errs.Op("rpc.Stub.Call")

	conn, err := net.DialTimeout("tcp", string(s.addr), dialTimeout)
	if err != nil {
		return errs.E(op, errs.Transport, err)
	}
	defer conn.Close()

	argData, err := gobEncode(args)
	if err != nil {
		return errs.E(op, errs.Transport, err)
	}

	call := callFrame{
		ID:     atomic.AddUint64(&nextCallID, 1),
		Method: method,
		Args:   argData,
	}
	if err := writeFrame(conn, call); err != nil {
		return errs.E(op, errs.Transport, err)
	}

	var rep replyFrame
	if err := readFrame(conn, &rep); err != nil {
		return errs.E(op, errs.Transport, err)
	}

	if rep.Failure != nil {
		return rep.Failure.toError()
	}
	if reply != nil && len(rep.Value) > 0 {
		if err := gobDecodeInto(rep.Value, reply); err != nil {
			return errs.E(op, errs.Transport, err)
		}
	}
	return nil
}

// gobStub is the serializable shadow of Stub: it exposes the otherwise
// unexported fields so gob can encode and decode a Stub value, letting
// storage servers hand their own stubs to the naming server during
// registration.
type gobStub struct {
	Interface string
	Addr      Address
}

// GobEncode implements gob.GobEncoder.
func (s Stub) GobEncode() ([]byte, error) {
	return gobEncode(gobStub{Interface: s.iface, Addr: s.addr})
}

// GobDecode implements gob.GobDecoder.
func (s *Stub) GobDecode(data []byte) error {
	var g gobStub
	if err := gobDecodeInto(data, &g); err != nil {
		return err
	}
	s.iface = g.Interface
	s.addr = g.Addr
	return nil
}

var (
	_ gob.GobEncoder = Stub{}
	_ gob.GobDecoder = (*Stub)(nil)
)
