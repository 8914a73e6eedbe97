// File: internal/httpserver/mime.go
// Package httpserver
//
// Extension-to-Content-Type table. Grounded on original_source/user/slighttp/http-mime.c's
// fixed extension table; this firmware core serves a small, known set
// of embedded web-UI assets, so a map beats pulling in mime.TypeByExtension
// and its OS mimetype-file probing, which doesn't exist on the target.
package httpserver

import "strings"

var mimeTypes = map[string]string{
	".html": "text/html",
	".htm": "text/html",
	".css": "text/css",
	".js": "application/javascript",
	".json": "application/json",
	".png": "image/png",
	".jpg": "image/jpeg",
	".jpeg": "image/jpeg",
	".gif": "image/gif",
	".ico": "image/x-icon",
	".svg": "image/svg+xml",
	".txt": "text/plain",
}

const defaultMimeType = "application/octet-stream"

// mimeForPath returns the Content-Type for path's extension, falling
// back to defaultMimeType for unknown extensions.
func mimeForPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return defaultMimeType
	}
	if ct, ok := mimeTypes[strings.ToLower(path[i:])]; ok {
		return ct
	}
	return defaultMimeType
}
