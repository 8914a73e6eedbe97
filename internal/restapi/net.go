// File: internal/restapi/net.go
// Package restapi
//
// `/rest/net/network`, `/rest/net/networks` and `/rest/net/password`.
// Grounded on original_source/user/handlers/rest/network.c,
// net-names.c and net-passwd.c.
package restapi

import (
	"encoding/json"
	"sort"

	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/httpparse"
	"github.com/deadbok/wifiswitch-core/internal/httpserver"
)

// NetworkHandler serves `/rest/net/network`: GET reports the
// configured SSID, hostname and station IP; PUT updates the SSID
// and/or hostname (network.c's create_get_response/create_put_response).
type NetworkHandler struct {
	WiFi api.WiFi
	Config api.ConfigStore
}

type networkPutBody struct {
	Network *string `json:"network"`
	Hostname *string `json:"hostname"`
}

// Handle implements httpserver.Handler.
func (h *NetworkHandler) Handle(req *httpparse.Request, resp *httpserver.Response) httpserver.Result {
	if req.URI != "/rest/net/network" {
		return httpserver.DoneContinue
	}

	switch req.Method {
	case httpparse.MethodGET, httpparse.MethodHEAD:
		ssid, _ := h.WiFi.StationConfig()
		cfg, _ := h.Config.Load()
		ip, _ := h.WiFi.GetIP(true)
		return writeJSON(req, resp, 200, map[string]any{
			"network": ssid,
			"hostname": cfg.Hostname,
			"ip_addr": ip,
		})

	case httpparse.MethodPUT:
		var body networkPutBody
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return httpserver.DoneError
		}
		if body.Network != nil {
			_, password := h.WiFi.StationConfig()
			h.WiFi.SetStationConfig(*body.Network, password)
		}
		if body.Hostname != nil {
			cfg, err := h.Config.Load()
			if err == nil && cfg.Hostname != *body.Hostname {
				cfg.Hostname = *body.Hostname
				h.Config.Store(cfg)
			}
		}
		return writeNoContent(resp, 204)
	}
	return httpserver.DoneContinue
}

// PasswordHandler serves `/rest/net/password`: PUT-only, updates the
// station password while preserving the configured SSID (net-passwd.c's
// wifi_station_get_config round-trip).
type PasswordHandler struct {
	WiFi api.WiFi
}

type passwordPutBody struct {
	Password string `json:"password"`
}

// Handle implements httpserver.Handler.
func (h *PasswordHandler) Handle(req *httpparse.Request, resp *httpserver.Response) httpserver.Result {
	if req.URI != "/rest/net/password" {
		return httpserver.DoneContinue
	}
	if req.Method != httpparse.MethodPUT {
		return httpserver.DoneContinue
	}

	var body passwordPutBody
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return httpserver.DoneError
	}
	ssid, _ := h.WiFi.StationConfig()
	h.WiFi.SetStationConfig(ssid, body.Password)
	return writeNoContent(resp, 204)
}

// NetworksHandler serves `/rest/net/networks`: a suspending scan of
// nearby access points (net-names.c's scan_net_names/scan_done_cb).
// Only one scan may be outstanding at a time; a request that arrives
// while one is in flight gets DoneNoDealloc and no reply, the same
// single-scan-in-flight guard internal/wifiswitch uses.
type NetworksHandler struct {
	WiFi api.WiFi

	scanPending bool
}

// Handle implements httpserver.Handler.
func (h *NetworksHandler) Handle(req *httpparse.Request, resp *httpserver.Response) httpserver.Result {
	if req.URI != "/rest/net/networks" {
		return httpserver.DoneContinue
	}
	if req.Method != httpparse.MethodGET && req.Method != httpparse.MethodHEAD {
		return httpserver.DoneContinue
	}

	if h.scanPending {
		return httpserver.DoneNoDealloc
	}
	h.scanPending = true

	h.WiFi.Scan(func(results []api.ScanResult, err error) {
		h.scanPending = false
		if err != nil {
			writeJSON(req, resp, 200, []string{"error"})
		} else {
			ssids := make([]string, 0, len(results))
			for _, r := range results {
				ssids = append(ssids, truncateSSID(r.SSID))
			}
			sort.Strings(ssids)
			writeJSON(req, resp, 200, ssids)
		}
		if resp.Resume != nil {
			resp.Resume()
		}
	})
	return httpserver.DoneNoDealloc
}

// truncateSSID caps an SSID to 32 bytes, the 802.11 maximum
// (net-names.c's scan_done_cb: "SSID cannot be longer than 32 char").
func truncateSSID(ssid string) string {
	if len(ssid) > 32 {
		return ssid[:32]
	}
	return ssid
}
