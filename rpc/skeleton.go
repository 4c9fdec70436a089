package rpc

import (
	"errors"
	"io"
	"net"
	"sync"

	"nsfs.io/errs"
)

// State is a skeleton's position in its Unstarted -> Running -> Stopped
// state machine. Stopped is terminal; there is no restart.
type State int

const (
	Unstarted State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Skeleton is a multithreaded listener bound to an address, dispatching
// decoded calls to a server object implementing the declared remote
// interface.
type Skeleton struct {
	name    string
	methods Methods
	server  interface{}

	// Stopped is invoked exactly once after Stop, carrying nil for a
	// clean stop or the error that caused premature termination.
	Stopped func(cause error)
	// ListenError is consulted when Accept fails for a reason other than
	// the listener being closed by Stop. Returning true resumes
	// accepting; the default (nil hook, or a hook returning false) stops
	// the skeleton.
	ListenError func(err error) bool
	// ServiceError is invoked when a worker cannot decode, dispatch, or
	// reply to a call; the connection is always closed afterward.
	ServiceError func(err error)

	mu    sync.Mutex
	addr  Address
	state State
	ln    net.Listener
	wg    sync.WaitGroup
}

// NewSkeleton validates methods and returns an Unstarted skeleton for the
// named remote interface, bound to addr. An empty addr means "any
// available port on all interfaces", mirroring the default
// system-chosen-port construction.
func NewSkeleton(name string, methods Methods, server interface{}, addr Address) (*Skeleton, error) {
	const op = errs.Op("rpc.NewSkeleton")
	if server == nil {
		return nil, errs.E(op, errs.Invalid, errs.Str("server must not be nil"))
	}
	if err := validate(methods); err != nil {
		return nil, err
	}
	if addr == "" {
		addr = ":0"
	}
	return &Skeleton{
		name:    name,
		methods: withPing(methods),
		server:  server,
		addr:    addr,
		state:   Unstarted,
	}, nil
}

// SetAddr changes the address a not-yet-started skeleton will bind to. It
// fails if the skeleton is no longer Unstarted.
func (s *Skeleton) SetAddr(addr Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unstarted {
		return errs.E(errs.Op("rpc.Skeleton.SetAddr"), errs.Invalid,
			errs.Str("address may only be changed before Start"))
	}
	s.addr = addr
	return nil
}

// Addr returns the skeleton's bound address. Before Start this is the
// configured address (possibly ":0"); after Start it is the concrete
// address the listener bound to.
func (s *Skeleton) Addr() Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// State reports the skeleton's current position in its state machine.
func (s *Skeleton) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Name returns the remote interface name this skeleton serves.
func (s *Skeleton) Name() string { return s.name }

// Start binds a listening socket and spawns the listener goroutine,
// returning immediately. It fails with a transport error if the socket
// cannot be bound or the skeleton is not Unstarted.
func (s *Skeleton) Start() error {
	const op = errs.Op("rpc.Skeleton.Start")
	s.mu.Lock()
	if s.state != Unstarted {
		s.mu.Unlock()
		return errs.E(op, errs.Transport, errs.Str("skeleton is not Unstarted"))
	}
	ln, err := net.Listen("tcp", string(s.addr))
	if err != nil {
		s.mu.Unlock()
		return errs.E(op, errs.Transport, err)
	}
	s.ln = ln
	s.addr = Address(ln.Addr().String())
	s.state = Running
	s.mu.Unlock()

	go s.listen()
	return nil
}

// Stop closes the listening socket, returning the skeleton to Stopped.
// In-flight workers are allowed to complete; Stop does not wait for them.
// Calling Stop on an Unstarted skeleton moves it straight to Stopped
// without invoking Stopped (there is nothing to drain). Calling Stop on an
// already-Stopped skeleton is a no-op.
func (s *Skeleton) Stop() error {
	s.mu.Lock()
	switch s.state {
	case Unstarted:
		s.state = Stopped
		s.mu.Unlock()
		return nil
	case Stopped:
		s.mu.Unlock()
		return nil
	}
	ln := s.ln
	s.mu.Unlock()
	return ln.Close()
}

// listen runs the accept loop until the listener is closed or a
// non-recoverable listen error occurs.
func (s *Skeleton) listen() {
	var cause error
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			hook := s.ListenError
			if hook != nil && hook(err) {
				continue
			}
			cause = err
			break
		}
		s.wg.Add(1)
		go s.serve(conn)
	}

	s.mu.Lock()
	s.state = Stopped
	s.mu.Unlock()

	s.wg.Wait()

	if s.Stopped != nil {
		s.Stopped(cause)
	}
}

// serve handles one accepted connection: calls are strictly serial within
// the connection, so it loops decode-dispatch-reply until the
// client closes the connection or an unrecoverable error occurs.
func (s *Skeleton) serve(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	for {
		var frame callFrame
		if err := readFrame(conn, &frame); err != nil {
			if err != io.EOF {
				if s.ServiceError != nil {
					s.ServiceError(err)
				}
			}
			return
		}

		m, ok := s.methods[frame.Method]
		if !ok {
			if s.ServiceError != nil {
				s.ServiceError(errs.E(errs.Op("rpc.Skeleton.serve"), errs.Invalid,
					errs.Str("unknown method "+frame.Method)))
			}
			return
		}

		args := m.NewArgs()
		if err := gobDecodeInto(frame.Args, args); err != nil {
			if s.ServiceError != nil {
				s.ServiceError(err)
			}
			return
		}

		result, appErr := m.Invoke(s.server, args)

		reply := replyFrame{ID: frame.ID}
		if appErr != nil {
			reply.Failure = newRemoteFailure(appErr)
		} else if result != nil {
			data, err := gobEncode(result)
			if err != nil {
				if s.ServiceError != nil {
					s.ServiceError(err)
				}
				return
			}
			reply.Value = data
		}

		if err := writeFrame(conn, reply); err != nil {
			if s.ServiceError != nil {
				s.ServiceError(err)
			}
			return
		}
	}
}
