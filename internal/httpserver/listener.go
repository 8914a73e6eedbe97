// File: internal/httpserver/listener.go
// Package httpserver
//
// The TCP listener and per-connection driver loop: a net.Listen accept loop feeding a bounded pool of
// workers, each running two cooperating loops per connection — an
// HTTP request/response loop that can hand a connection off to a
// WebSocket frame loop mid-stream.
//
// The original firmware drives all of this from one non-blocking
// event loop with explicit suspend/resume states. Go's
// blocking net.Conn already serializes a connection's reads and
// writes one at a time, so a goroutine-per-connection loop gets the
// same "one event in flight" guarantee without needing the explicit
// DONE_NO_DEALLOC bookkeeping to survive an OS-level write stall —
// that bookkeeping is kept (Response.Suspended and Response.Resume)
// only for the suspensions this design calls out as crossing
// an asynchronous platform callback (a WiFi scan), which a blocking
// read/write can't absorb.
package httpserver

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/eapache/queue"

	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/dbffs"
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

// DefaultMaxConcurrent bounds how many accepted connections are served
// at once, mirroring the handful of simultaneous TCP connections an
// embedded connection table can actually hold. Accepted connections beyond this
// bound queue until a worker frees up, rather than spawning an
// unbounded number of goroutines.
const DefaultMaxConcurrent = 8

// Server owns the HTTP listener, the shared connection table, the send
// pump, and the response pipeline.
type Server struct {
	Table *connmgr.Table
	Pump *sendpump.Pump
	Pipeline *Pipeline
	FS *dbffs.Reader
	WSRegistry *wsframe.Registry

	maxConcurrent int
	backlogMu sync.Mutex
	backlog *queue.Queue
	work chan struct{}

	ln net.Listener
}

// NewServer wires a Server from its already-constructed collaborators.
// maxConcurrent bounds the number of connections served at once; 0
// selects DefaultMaxConcurrent.
func NewServer(table *connmgr.Table, pump *sendpump.Pump, pipeline *Pipeline, fs *dbffs.Reader, wsRegistry *wsframe.Registry, maxConcurrent int) *Server {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Server{
		Table: table, Pump: pump, Pipeline: pipeline, FS: fs, WSRegistry: wsRegistry,
		maxConcurrent: maxConcurrent,
		backlog: queue.New(),
		work: make(chan struct{}, 1),
	}
}

// ListenAndServe accepts connections on addr until the listener is
// closed. Accepted connections are
// pushed onto a backlog queue and drained by a fixed pool of workers,
// so the server never holds more than maxConcurrent connections open
// concurrently.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", addr, err)
	}
	s.ln = ln

	listenerConn, err := s.Table.Listen(api.CategoryHTTP, portOf(addr), connmgr.Callbacks{})
	if err != nil {
		ln.Close()
		return err
	}

	for i := 0; i < s.maxConcurrent; i++ {
		go s.worker(listenerConn)
	}

	for {
		netConn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.enqueue(netConn)
	}
}

// enqueue pushes an accepted connection onto the backlog and wakes a
// worker if one is idle.
func (s *Server) enqueue(netConn net.Conn) {
	s.backlogMu.Lock()
	s.backlog.Add(netConn)
	s.backlogMu.Unlock()
	select {
	case s.work <- struct{}{}:
	default:
	}
}

// worker drains the backlog one connection at a time, serving each to
// completion before picking up the next.
func (s *Server) worker(listener *connmgr.Connection) {
	for range s.work {
		for {
			s.backlogMu.Lock()
			if s.backlog.Length() == 0 {
				s.backlogMu.Unlock()
				break
			}
			netConn := s.backlog.Remove().(net.Conn)
			s.backlogMu.Unlock()
			s.serve(listener, netConn)
		}
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) serve(listener *connmgr.Connection, netConn net.Conn) {
	conn := s.Table.Accept(listener, netConn, netConn.RemoteAddr(), netConn.LocalAddr())
	resp := NewResponse(conn, s.Pump)
	conn.State = resp
	resp.Resume = func() { s.Table.Disconnect(conn.Handle()) }
	defer func() {
		// A suspended response is torn down by its own async callback
		// once it resumes, not here.
		if !resp.Suspended {
			s.Table.Disconnect(conn.Handle())
		}
	}()

	br := bufio.NewReaderSize(netConn, 4096)
	for {
		raw, err := readRequest(br)
		if err != nil {
			return
		}

		req, perr := httpparse.Parse(raw)
		if perr != nil {
			writeParseError(resp, perr)
			return
		}

		// Dispatch never hands back ResultDoneError: a failing handler
		// is already driven through the error-page handler and the
		// terminal handler (spec §7) before Dispatch returns, so the
		// only codes reaching here are ResultDoneFinal and
		// ResultDoneNoDealloc.
		result, _ := s.Pipeline.Dispatch(req, resp, 0)
		if result.Code == ResultDoneNoDealloc {
			// A handler suspended pending an async platform event (spec
			// §4.F); it is responsible for resuming resp itself once
			// that event fires, outside this read loop.
			resp.Suspended = true
			return
		}

		if ws, ok := conn.State.(*wsframe.ConnState); ok {
			s.serveWebSocket(conn, ws, br)
			return
		}
	}
}

// readRequest reads a single HTTP start-line-plus-headers-plus-body
// chunk off br. It is intentionally simple: read until the blank line,
// then read Content-Length bytes if present. Good enough for the small
// control-plane requests this core answers.
func readRequest(br *bufio.Reader) ([]byte, error) {
	var head []byte
	for {
		line, err := br.ReadBytes('\n')
		head = append(head, line...)
		if err != nil {
			if len(head) == 0 {
				return nil, err
			}
			return head, nil
		}
		trimmed := line
		for len(trimmed) > 0 && (trimmed[len(trimmed)-1] == '\n' || trimmed[len(trimmed)-1] == '\r') {
			trimmed = trimmed[:len(trimmed)-1]
		}
		if len(trimmed) == 0 {
			break
		}
	}

	n := contentLengthOf(head)
	if n > 0 {
		body := make([]byte, n)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, err
		}
		head = append(head, body...)
	}
	return head, nil
}

func contentLengthOf(head []byte) int {
	req, err := httpparse.Parse(head)
	if err != nil {
		return 0
	}
	var n int
	fmt.Sscanf(req.Get("content-length"), "%d", &n)
	return n
}

func writeParseError(resp *Response, perr *httpparse.ParseError) {
	status := 400
	if perr.Status == httpparse.StatusNotImplemented {
		status = 501
	}
	resp.SendStatusLine(status)
	resp.SendDefaultHeaders(0, "")
	resp.Flush()
}

// serveWebSocket takes over the connection's byte stream once the
// upgrade handler has attached ws.
func (s *Server) serveWebSocket(conn *connmgr.Connection, ws *wsframe.ConnState, br *bufio.Reader) {
	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := br.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			return
		}

		for {
			frame, consumed, ferr := wsframe.Decode(buf)
			if ferr == wsframe.ErrIncomplete {
				break
			}
			if ferr != nil {
				log.Printf("httpserver: websocket protocol violation: %v", ferr)
				s.Table.Disconnect(conn.Handle())
				return
			}
			buf = buf[consumed:]
			done := false
			wsframe.Dispatch(ws, frame, func() { done = true; s.Table.Disconnect(conn.Handle()) })
			if done {
				return
			}
		}
	}
}

func portOf(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}
