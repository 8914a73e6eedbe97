// File: internal/httpserver/fs_handler.go
// Package httpserver
//
// Filesystem handler: serves files out of internal/dbffs,
// rewriting a trailing "/" to "/index.html" and streaming in chunks
// sized to the remaining send-buffer space. Grounded on
// original_source/user/slighttp/http-tcp.c's send-buffer-aware file
// streaming loop and internal/dbffs.Reader for the lookup itself.
package httpserver

import (
	"errors"

	"github.com/deadbok/wifiswitch-core/internal/dbffs"
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
)

// fsState tracks a streaming read's file and offset while stream runs.
type fsState struct {
	file *dbffs.FileHeader
	offset int64
}

// FSHandler serves static assets rooted in a DBFFS image.
type FSHandler struct {
	fs *dbffs.Reader

	// pending maps a connection-scoped response to its in-flight
	// stream state; stream removes the entry before it returns.
	pending map[*Response]*fsState
}

// NewFSHandler constructs a filesystem handler over fs.
func NewFSHandler(fs *dbffs.Reader) *FSHandler {
	return &FSHandler{fs: fs, pending: make(map[*Response]*fsState)}
}

// Handle implements Handler.
func (h *FSHandler) Handle(req *httpparse.Request, resp *Response) Result {
	if st, resuming := h.pending[resp]; resuming {
		return h.stream(resp, st)
	}

	if req.Method != httpparse.MethodGET && req.Method != httpparse.MethodHEAD {
		return DoneContinue
	}

	path := req.URI
	if len(path) == 0 || path[len(path)-1] == '/' {
		path += "index.html"
	}

	file, err := h.fs.Find(path)
	if err != nil {
		if errors.Is(err, dbffs.ErrNotFound) {
			return DoneContinue
		}
		return DoneError
	}

	resp.HeadOnly = req.Method == httpparse.MethodHEAD
	resp.SendStatusLine(200)
	resp.SendDefaultHeaders(int(file.Size), mimeForPath(path))

	if resp.HeadOnly {
		resp.Flush()
		return DoneFinal
	}

	st := &fsState{file: file}
	h.pending[resp] = st
	return h.stream(resp, st)
}

// stream sends the file in chunks no larger than the connection's
// remaining send-buffer space.
func (h *FSHandler) stream(resp *Response, st *fsState) Result {
	buf := make([]byte, 1440)
	for {
		free := resp.conn.SendBufferFree()
		if free == 0 {
			if err := resp.Flush(); err != nil {
				delete(h.pending, resp)
				return DoneError
			}
			free = resp.conn.SendBufferFree()
		}
		chunk := buf
		if free < len(chunk) {
			chunk = chunk[:free]
		}

		n, err := h.fs.ReadFile(st.file, st.offset, chunk)
		if n > 0 {
			resp.Write(chunk[:n])
			st.offset += int64(n)
		}
		if err != nil {
			delete(h.pending, resp)
			resp.Flush()
			return DoneFinal
		}
		if n == 0 {
			delete(h.pending, resp)
			resp.Flush()
			return DoneFinal
		}
	}
}
