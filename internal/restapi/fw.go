// File: internal/restapi/fw.go
// Package restapi
//
// `/rest/fw/version` and `/rest/fw/mem`. Grounded on
// original_source/user/handlers/rest/version.c and.../mem.c, both of
// which share the same GET-only, no-PUT template (http_simple_GET_PUT_handler
// with a nil PUT callback).
package restapi

import (
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/httpserver"
	"github.com/shirou/gopsutil/v3/mem"
)

// VersionHandler answers `/rest/fw/version` with the firmware,
// HTTP-daemon and filesystem version triple.
type VersionHandler struct {
	FWVersion string
	HTTPDVersion string
	DBFFSVersion string
}

// Handle implements httpserver.Handler.
func (h *VersionHandler) Handle(req *httpparse.Request, resp *httpserver.Response) httpserver.Result {
	if req.URI != "/rest/fw/version" {
		return httpserver.DoneContinue
	}
	if req.Method != httpparse.MethodGET && req.Method != httpparse.MethodHEAD {
		return httpserver.DoneContinue
	}

	return writeJSON(req, resp, 200, map[string]any{
		"fw_ver": h.FWVersion,
		"httpd_ver": h.HTTPDVersion,
		"dbffs_ver": h.DBFFSVersion,
	})
}

// MemHandler answers `/rest/fw/mem` with a memory usage report. The
// original reports the ESP8266's free heap size
// (system_get_free_heap_size); this simulated target has no embedded
// allocator to introspect, so it reports real host memory through
// gopsutil/v3/mem the way the rest of the example pack's health
// endpoints do (SPEC_FULL.md's DOMAIN STACK wiring).
type MemHandler struct{}

// Handle implements httpserver.Handler.
func (h *MemHandler) Handle(req *httpparse.Request, resp *httpserver.Response) httpserver.Result {
	if req.URI != "/rest/fw/mem" {
		return httpserver.DoneContinue
	}
	if req.Method != httpparse.MethodGET && req.Method != httpparse.MethodHEAD {
		return httpserver.DoneContinue
	}

	v, err := mem.VirtualMemory()
	if err != nil {
		return httpserver.DoneError
	}

	return writeJSON(req, resp, 200, map[string]any{
		"free": v.Available,
	})
}
