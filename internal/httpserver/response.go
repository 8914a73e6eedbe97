// File: internal/httpserver/response.go
// Package httpserver implements the HTTP response pipeline: a per-request state machine driven by the parser's
// receive callback and by the transport's sent-callback.
//
// The state machine and its ~1440-byte send buffer are grounded on
// original_source/user/slighttp/http-response.c's response states and
// original_source/user/slighttp/http.c's send-buffer-backpressure loop.
package httpserver

import (
	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
)

// State is a response's position in this design's state machine:
// none -> status -> headers -> message -> assembled -> done, with
// error as a sink reachable from any state.
type State int

const (
	StateNone State = iota
	StateStatus
	StateHeaders
	StateMessage
	StateAssembled
	StateDone
	StateError
)

// Response is the per-request response state attached to a Connection
// while an HTTP exchange is in flight.
type Response struct {
	Status int
	State State

	// HeadOnly suppresses the message body.
	HeadOnly bool

	conn *connmgr.Connection
	pump *sendpump.Pump

	// Suspended is set by the listener when a handler returns
	// DoneNoDealloc to await an async event; the async callback then
	// writes the reply itself and calls Resume.
	Suspended bool

	// Resume, when set by the listener on a suspended response, tears
	// down the connection once the async callback has finished writing
	// the resumed reply.
	Resume func()
}

// NewResponse attaches a fresh response state to conn.
func NewResponse(conn *connmgr.Connection, pump *sendpump.Pump) *Response {
	return &Response{conn: conn, pump: pump}
}

// Write appends data to the connection's send buffer, flushing through
// the send pump whenever the buffer fills.
// It returns the number of bytes accepted from data; the count is
// short only when a flush fails, and the error is returned with it.
func (r *Response) Write(data []byte) (int, error) {
	total := 0
	for len(data) > 0 {
		n := r.conn.AppendToSendBuffer(data)
		total += n
		data = data[n:]
		if r.conn.SendBufferFree() == 0 {
			if err := r.Flush(); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// Flush submits whatever is staged in the send buffer through the send
// pump and resets the cursor. A no-op when nothing is staged.
func (r *Response) Flush() error {
	if r.conn.SendBufferLen() == 0 {
		return nil
	}
	bytes := append([]byte(nil), r.conn.SendBufferBytes()...)
	_, err := r.pump.Send(r.conn, bytes)
	r.conn.ResetSendBuffer()
	return err
}

// Done marks the response assembled and flushes any remaining bytes,
// advancing State to StateDone.
func (r *Response) Done() error {
	if err := r.Flush(); err != nil {
		r.State = StateError
		return err
	}
	r.State = StateDone
	return nil
}

// Error marks the response failed; the pipeline's terminal handler is
// responsible for emitting a canned body from here.
func (r *Response) Error() {
	r.State = StateError
}
