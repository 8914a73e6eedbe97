// File: internal/httpserver/deny_handler.go
// Package httpserver
//
// Deny handler. Grounded on
// original_source/user/slighttp/http-tcp.c's deny-list handler, which
// is registered against a small set of off-limits URI prefixes.
package httpserver

import "github.com/deadbok/wifiswitch-core/internal/httpparse"

// DenyHandler unconditionally answers 403 for whatever pattern it is
// registered under.
func DenyHandler(req *httpparse.Request, resp *Response) Result {
	resp.SendStatusLine(403)
	resp.SendDefaultHeaders(0, "")
	resp.Flush()
	return DoneFinal
}
