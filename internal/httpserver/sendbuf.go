// File: internal/httpserver/sendbuf.go
// Package httpserver
//
// Status-line and header builder helpers. Grounded on
// original_source/user/slighttp/http-response.c's equivalents, expressed
// here as Response methods over Write/Flush.
package httpserver

import (
	"fmt"
	"strconv"
)

// statusText mirrors the subset of codes this design enumerates: "101,
// 200, 204, 400, 403, 404, 405, 426, 500, 501".
var statusText = map[int]string{
	101: "Switching Protocols",
	200: "OK",
	204: "No Content",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	426: "Upgrade Required",
	500: "Internal Server Error",
	501: "Not Implemented",
}

func reasonFor(status int) string {
	if t, ok := statusText[status]; ok {
		return t
	}
	return "Unknown"
}

// SendStatusLine writes "HTTP/1.1 <status> <reason>\r\n" and advances
// State to StateStatus.
func (r *Response) SendStatusLine(status int) (int, error) {
	r.Status = status
	r.State = StateStatus
	line := fmt.Sprintf("HTTP/1.1 %d %s\r\n", status, reasonFor(status))
	return r.Write([]byte(line))
}

// SendHeader writes one "Name: value\r\n" line.
func (r *Response) SendHeader(name, value string) (int, error) {
	r.State = StateHeaders
	return r.Write([]byte(name + ": " + value + "\r\n"))
}

// SendDefaultHeaders writes the standard header set this core always
// sends followed by the blank line that
// terminates headers, advancing State to StateMessage.
func (r *Response) SendDefaultHeaders(contentLength int, contentType string) (int, error) {
	n, err := r.SendHeader("Connection", "close")
	if err != nil {
		return n, err
	}
	m, err := r.SendHeader("Server", "wifiswitch-core")
	n += m
	if err != nil {
		return n, err
	}
	m, err = r.SendHeader("Content-Length", strconv.Itoa(contentLength))
	n += m
	if err != nil {
		return n, err
	}
	if contentType != "" {
		m, err = r.SendHeader("Content-Type", contentType)
		n += m
		if err != nil {
			return n, err
		}
	}
	r.State = StateMessage
	m, err = r.Write([]byte("\r\n"))
	return n + m, err
}
