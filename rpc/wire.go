package rpc

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"
	"net"

	"nsfs.io/errs"
)

// maxFrameSize bounds a single frame's payload, guarding a worker against a
// malformed or hostile length header demanding an unreasonable allocation.
const maxFrameSize = 64 << 20 // 64MiB

// callFrame carries a method identifier and its gob-encoded argument
// value
type callFrame struct {
	ID     uint64
	Method string
	Args   []byte
}

// replyFrame carries either a gob-encoded return value or a remoteFailure
// descriptor, never both
type replyFrame struct {
	ID      uint64
	Value   []byte
	Failure *remoteFailure
}

// remoteFailure is the wire form of an application failure: enough
// information for the client to reconstruct an equivalent *errs.Error
// locally, per spec.md §7.
type remoteFailure struct {
	Kind errs.Kind
	Op   string
	Path string
	Msg  string
}

func newRemoteFailure(err error) *remoteFailure {
	if e, ok := err.(*errs.Error); ok {
		msg := ""
		if e.Err != nil {
			msg = e.Err.Error()
		}
		return &remoteFailure{Kind: e.Kind, Op: string(e.Op), Path: e.Path, Msg: msg}
	}
	return &remoteFailure{Msg: err.Error()}
}

// toError reconstructs an application error equivalent to the one raised
// on the server, the client side of an application failure on remote call.
func (f *remoteFailure) toError() error {
	args := make([]interface{}, 0, 4)
	if f.Op != "" {
		args = append(args, errs.Op(f.Op))
	}
	if f.Kind != errs.Other {
		args = append(args, f.Kind)
	}
	if f.Path != "" {
		args = append(args, f.Path)
	}
	if f.Msg != "" {
		args = append(args, errs.Str(f.Msg))
	}
	if len(args) == 0 {
		return errs.Str("remote failure")
	}
	return errs.E(args...)
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecodeInto(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// writeFrame gob-encodes v and writes it to conn behind a 4-byte
// big-endian length prefix, one frame per write, framing calls over the
// raw TCP stream.
func writeFrame(conn net.Conn, v interface{}) error {
	data, err := gobEncode(v)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}

// readFrame reads one length-prefixed frame from conn and gob-decodes it
// into v.
func readFrame(conn net.Conn, v interface{}) error {
	var lenBuf [4]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return errs.E(errs.Op("rpc.readFrame"), errs.Invalid, errs.Str("frame exceeds maximum size"))
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(conn, data); err != nil {
		return err
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
