// File: internal/restapi/json.go
// Package restapi implements the `/rest/...` JSON control endpoints.
// Each endpoint is a Pipeline Handler following the same GET/HEAD-builds-body,
// PUT-parses-body template original_source/user/rest/*.c repeats
// across version.c, mem.c, network.c, net-passwd.c and gpio.c.
//
// Bodies are small (well under a kilobyte) fixed-shape JSON objects,
// so encoding/json is used directly rather than a streaming or
// schema-driven library — the choice justified in DESIGN.md's
// internal/restapi entry.
package restapi

import (
	"encoding/json"

	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/httpserver"
)

// writeJSON sends status, default headers and a JSON body for a
// GET request, honoring HeadOnly the way every *_handler.go in
// internal/httpserver does.
func writeJSON(req *httpparse.Request, resp *httpserver.Response, status int, v any) httpserver.Result {
	body, err := json.Marshal(v)
	if err != nil {
		return httpserver.DoneError
	}

	resp.SendStatusLine(status)
	resp.SendDefaultHeaders(len(body), "application/json")
	if req.Method == httpparse.MethodHEAD {
		resp.Flush()
		return httpserver.DoneFinal
	}
	resp.Write(body)
	resp.Flush()
	return httpserver.DoneFinal
}

// writeNoContent sends a bodyless status line plus default headers.
func writeNoContent(resp *httpserver.Response, status int) httpserver.Result {
	resp.SendStatusLine(status)
	resp.SendDefaultHeaders(0, "")
	resp.Flush()
	return httpserver.DoneFinal
}

// methodNotAllowed sends the canned 405 body original_source/user/rest/gpio.c
// sends for a PUT against the GPIO collection URI.
func methodNotAllowed(resp *httpserver.Response) httpserver.Result {
	body := []byte("<!DOCTYPE html><head><title>Method Not Allowed.</title></head>" +
		"<body><h1>405 Method Not Allowed.</h1></body></html>")
	resp.SendStatusLine(405)
	resp.SendDefaultHeaders(len(body), "text/html")
	resp.Write(body)
	resp.Flush()
	return httpserver.DoneFinal
}
