// Command wifiswitchd runs the WiFi-switch network core end to end:
// the HTTP/WebSocket server, the captive-portal DHCP and DNS
// responders, wired to in-memory stand-ins for the GPIO/config/
// scheduler/WiFi collaborators this repository treats as out of scope.
// It exists to exercise every subsystem together the way a real
// firmware build's startup sequence would, and as the demo entrypoint
// tests and manual smoke-runs drive.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deadbok/wifiswitch-core/api"
	"github.com/deadbok/wifiswitch-core/internal/captivedns"
	"github.com/deadbok/wifiswitch-core/internal/connmgr"
	"github.com/deadbok/wifiswitch-core/internal/dbffs"
	"github.com/deadbok/wifiswitch-core/internal/dhcp"
	"github.com/deadbok/wifiswitch-core/internal/httpserver"
	"github.com/deadbok/wifiswitch-core/internal/platform/fake"
	"github.com/deadbok/wifiswitch-core/internal/restapi"
	"github.com/deadbok/wifiswitch-core/internal/sendpump"
	"github.com/deadbok/wifiswitch-core/internal/wifiswitch"
	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

const (
	fwVersion = "1.0.0"
	httpdVersion = "1.0.0"
	dbffsVersion = "1.0.0"

	captivePortalSuffix = "wifiswitch.local"
)

func main() {
	var (
		httpAddr = flag.String("http", ":80", "HTTP listen address")
		enableDHCP = flag.Bool("dhcp", true, "Run the captive-portal DHCP responder on UDP/67")
		enableDNS = flag.Bool("dns", true, "Run the captive-portal DNS responder on UDP/53")
		apIPFlag = flag.String("ap-ip", "192.168.4.1", "The device's own access-point IPv4 address")
		apChannel = flag.Uint("ap-channel", 6, "Access-point channel reported by the /ws ap message")
		gpioEnabled = flag.Uint64("gpio-mask", 0x3, "Bitmask of GPIO pins this device exposes as switches")
	)
	flag.Parse()

	if err := run(*httpAddr, *apIPFlag, uint8(*apChannel), *gpioEnabled, *enableDHCP, *enableDNS); err != nil {
		fmt.Fprintf(os.Stderr, "wifiswitchd: %v\n", err)
		os.Exit(1)
	}
}

func run(httpAddr, apIP string, apChannel uint8, gpioMask uint64, enableDHCP, enableDNS bool) error {
	logger := log.New(os.Stderr, "wifiswitchd: ", log.LstdFlags)

	serverIP, err := parseIPv4(apIP)
	if err != nil {
		return fmt.Errorf("parsing -ap-ip: %w", err)
	}

	gpio := fake.NewGPIO(gpioMask)
	cfg := fake.NewConfigStore(api.Config{
		Signature: 0xdb00c09f,
		NetworkMode: api.ModeAP,
		Hostname: "wifiswitch",
	})
	scheduler := fake.NewScheduler()
	wifi := fake.NewWiFi(api.APInfo{SSID: "wifiswitch", Channel: apChannel}, "0.0.0.0", apIP)
	_ = scheduler // constructed but not passed to any handler; nothing in this binary uses the cooperative task runner

	fs, err := bootstrapFS()
	if err != nil {
		return fmt.Errorf("building dbffs image: %w", err)
	}

	table := connmgr.New()
	var pump *sendpump.Pump
	pump = sendpump.New(32, func(conn *connmgr.Connection, data []byte) error {
		nc := conn.NetConn()
		if nc == nil {
			return nil
		}
		_, err := nc.Write(data)
		pump.OnSendComplete()
		return err
	})
	wsRegistry := wsframe.NewRegistry()

	wsHandler := wifiswitch.New(gpio, cfg, wifi, fwVersion, httpdVersion, dbffsVersion)
	if _, err := wsRegistry.Register(wsHandler.WSHandler()); err != nil {
		return fmt.Errorf("registering wifiswitch protocol handler: %w", err)
	}

	pipeline := httpserver.NewPipeline(httpserver.TerminalHandler)
	registerHandlers(pipeline, fs, gpio, cfg, wifi, wsRegistry, pump, fwVersion, httpdVersion, dbffsVersion)

	httpSrv := httpserver.NewServer(table, pump, pipeline, fs, wsRegistry, httpserver.DefaultMaxConcurrent)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errc := make(chan error, 3)

	logger.Printf("HTTP/WebSocket server listening on %s", httpAddr)
	go func() { errc <- httpSrv.ListenAndServe(httpAddr) }()

	if enableDHCP {
		dhcpSrv := dhcp.NewServer(serverIP, [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}, dhcp.DefaultMaxLeases, dhcp.DefaultLeaseTime)
		logger.Printf("DHCP responder listening on UDP/%d", dhcp.ServerPort)
		go func() { errc <- dhcpSrv.ListenAndServe(ctx) }()
	}

	if enableDNS {
		dnsSrv := captivedns.NewServer(captivePortalSuffix, serverIP, logger)
		logger.Printf("captive-portal DNS responder listening on UDP/%d for suffix %q", captivedns.ServerPort, captivePortalSuffix)
		go func() { errc <- dnsSrv.ListenAndServe(ctx) }()
	}

	select {
	case <-ctx.Done():
		httpSrv.Close()
		return nil
	case err := <-errc:
		cancel()
		httpSrv.Close()
		return err
	}
}

// registerHandlers wires the HTTP handler chain in the order this design
// requires: specific REST/WebSocket-upgrade routes before the generic
// filesystem handler, the error-page handler last so it only ever sees
// a response no earlier handler claimed.
func registerHandlers(
	p *httpserver.Pipeline,
	fs *dbffs.Reader,
	gpio api.GPIO,
	cfg api.ConfigStore,
	wifi api.WiFi,
	wsRegistry *wsframe.Registry,
	pump *sendpump.Pump,
	fwVer, httpdVer, dbffsVer string,
) {
	version := &restapi.VersionHandler{FWVersion: fwVer, HTTPDVersion: httpdVer, DBFFSVersion: dbffsVer}
	mem := &restapi.MemHandler{}
	network := &restapi.NetworkHandler{WiFi: wifi, Config: cfg}
	networks := &restapi.NetworksHandler{WiFi: wifi}
	password := &restapi.PasswordHandler{WiFi: wifi}
	gpioHandler := &restapi.GPIOHandler{GPIO: gpio}

	p.Register("/rest/fw/version", version.Handle)
	p.Register("/rest/fw/mem", mem.Handle)
	p.Register("/rest/net/network", network.Handle)
	p.Register("/rest/net/networks", networks.Handle)
	p.Register("/rest/net/password", password.Handle)
	p.Register("/rest/gpios*", gpioHandler.Handle)

	wsUpgrade := &httpserver.WSUpgradeHandler{
		Registry: wsRegistry,
		Pump: pump,
	}
	p.Register("/ws", wsUpgrade.Handle)

	fsHandler := httpserver.NewFSHandler(fs)
	p.Register("/*", fsHandler.Handle)

	// Not a registered route: the error-page handler only ever runs
	// once the rest of the chain has left the response unmatched or
	// failed (spec §7), which Pipeline.Dispatch drives directly rather
	// than scanning for it via a URI pattern.
	p.SetErrorHandler(httpserver.NewErrorPageHandler(fs).Handle)
}

// bootstrapFS assembles a minimal in-memory DBFFS image for the web UI;
// a real flash build packs the UI assets at build time and opens the
// flash region with dbffs.NewReader instead.
func bootstrapFS() (*dbffs.Reader, error) {
	image := dbffs.Build([]dbffs.Entry{
		{Path: "/index.html", Data: []byte("<html><body><h1>wifiswitch</h1></body></html>")},
		{Path: "/404.html", Data: []byte("<html><body><h1>Not Found</h1></body></html>")},
	})
	return dbffs.NewReader(bytes.NewReader(image), 0)
}

func parseIPv4(s string) ([4]byte, error) {
	var ip [4]byte
	var a, b, c, d int
	if _, err := fmt.Sscanf(s, "%d.%d.%d.%d", &a, &b, &c, &d); err != nil {
		return ip, fmt.Errorf("invalid IPv4 address %q: %w", s, err)
	}
	ip = [4]byte{byte(a), byte(b), byte(c), byte(d)}
	return ip, nil
}
