// File: internal/httpserver/errorpage_handler.go
// Package httpserver
//
// Error-page filesystem handler. Grounded on
// original_source/user/slighttp/http-tcp.c's error-branch lookup; this
// is the handler this design's Open Question (i) concerns — see
// DESIGN.md for why the 404-loop it names cannot recur here.
//
// Not registered as an ordinary route: Pipeline.Dispatch invokes it
// directly (via Pipeline.SetErrorHandler) once the rest of the chain
// has left a request unmatched or failed, so it always sees an
// already-set Status before Handle is ever called.
package httpserver

import (
	"errors"
	"strconv"

	"github.com/deadbok/wifiswitch-core/internal/dbffs"
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
)

// ErrorPageHandler serves a per-status canned HTML page from DBFFS.
type ErrorPageHandler struct {
	fs *dbffs.Reader
}

// NewErrorPageHandler constructs an error-page handler over fs.
func NewErrorPageHandler(fs *dbffs.Reader) *ErrorPageHandler {
	return &ErrorPageHandler{fs: fs}
}

// Handle implements Handler. It only acts when resp.Status >= 400;
// otherwise it declines so the pipeline tries the next handler.
func (h *ErrorPageHandler) Handle(req *httpparse.Request, resp *Response) Result {
	if resp.Status < 400 {
		return DoneContinue
	}

	path := "/" + strconv.Itoa(resp.Status) + ".html"
	file, err := h.fs.Find(path)
	if err != nil {
		if errors.Is(err, dbffs.ErrNotFound) {
			return DoneContinue
		}
		return DoneError
	}

	resp.SendStatusLine(resp.Status)
	resp.SendDefaultHeaders(int(file.Size), mimeForPath(path))
	if req.Method == httpparse.MethodHEAD {
		resp.Flush()
		return DoneFinal
	}

	buf := make([]byte, file.Size)
	n, err := h.fs.ReadFile(file, 0, buf)
	if err != nil && n == 0 {
		return DoneError
	}
	resp.Write(buf[:n])
	resp.Flush()
	return DoneFinal
}
