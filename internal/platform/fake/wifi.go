package fake

import (
	"fmt"
	"sync"

	"github.com/deadbok/wifiswitch-core/api"
)

// WiFi is an in-memory api.WiFi. Scan invokes cb synchronously with
// whatever Networks currently holds, the way a real radio's scan
// completion callback would fire later — callers that need to
// exercise the async suspension path (internal/restapi's
// NetworksHandler, internal/wifiswitch's "networks" message) should
// wrap this in their own deferred-callback double instead, since this
// fake's job is to be a working default, not a timing stress test.
type WiFi struct {
	mu        sync.Mutex
	Networks  []api.ScanResult
	mode      api.NetworkMode
	ssid      string
	password  string
	stationIP string
	apIP      string
	ap        api.APInfo
}

// NewWiFi constructs a WiFi fake with an initial AP identity and
// station/AP IPs, the values a demo build would hand out on a private
// LAN.
func NewWiFi(ap api.APInfo, stationIP, apIP string) *WiFi {
	return &WiFi{ap: ap, stationIP: stationIP, apIP: apIP}
}

// Scan reports the configured Networks list through cb.
func (w *WiFi) Scan(cb func([]api.ScanResult, error)) {
	w.mu.Lock()
	results := append([]api.ScanResult(nil), w.Networks...)
	w.mu.Unlock()
	cb(results, nil)
}

// SetMode switches between station and AP mode.
func (w *WiFi) SetMode(m api.NetworkMode) error {
	w.mu.Lock()
	w.mode = m
	w.mu.Unlock()
	return nil
}

// GetIP reports the station or AP IP address.
func (w *WiFi) GetIP(station bool) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if station {
		return w.stationIP, nil
	}
	return w.apIP, nil
}

// SetStationConfig updates the configured SSID and password.
func (w *WiFi) SetStationConfig(ssid, password string) error {
	if ssid == "" {
		return fmt.Errorf("fake: empty ssid")
	}
	w.mu.Lock()
	w.ssid, w.password = ssid, password
	w.mu.Unlock()
	return nil
}

// StationConfig reports the currently configured SSID and password.
func (w *WiFi) StationConfig() (ssid, password string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ssid, w.password
}

// APInfo reports this device's own access-point identity.
func (w *WiFi) APInfo() api.APInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ap
}
