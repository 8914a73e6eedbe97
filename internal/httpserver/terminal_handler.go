// File: internal/httpserver/terminal_handler.go
// Package httpserver
//
// The terminal built-in status handler. Always matches; it is what Pipeline falls back to
// once every registered route has declined.
package httpserver

import "github.com/deadbok/wifiswitch-core/internal/httpparse"

// TerminalHandler answers with a minimal canned body for whatever
// status is already set on resp (404 if none was set — no handler
// matched), or 500 if the pipeline reached here via DoneError.
func TerminalHandler(req *httpparse.Request, resp *Response) Result {
	status := resp.Status
	if status == 0 {
		status = 404
	}
	if resp.State == StateError {
		status = 500
	}

	body := []byte("<html><body><h1>" + reasonFor(status) + "</h1></body></html>")
	resp.SendStatusLine(status)
	resp.SendDefaultHeaders(len(body), "text/html")
	if req.Method != httpparse.MethodHEAD {
		resp.Write(body)
	}
	resp.Flush()
	return DoneFinal
}
