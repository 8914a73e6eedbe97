// File: internal/captivedns/server.go
// Package captivedns
//
// The captive-portal DNS responder (spec component K): answers any
// query whose name matches a configured suffix with the device's own
// IPv4 address, and silently drops everything else (no NXDOMAIN -
// this is what steers a captive-portal client's connectivity-check
// requests back to the device without breaking its other lookups).
// Grounded on capport.c's dns_recv/init_captive_portal for the
// match-and-answer shape; the UDP bind follows the same
// net.ListenConfig.Control pattern internal/dhcp.Server uses.
package captivedns

import (
	"context"
	"log"
	"net"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// ServerPort is the port this responder listens on (UDP/53).
const ServerPort = 53

// Server answers DNS queries for a single captive-portal suffix.
type Server struct {
	suffix string
	apIP [4]byte
	logger *log.Logger

	conn *net.UDPConn
}

// NewServer constructs a Server that answers queries for names ending
// in suffix with apIP. The dot-joined question name matches when it
// equals suffix or ends in "." followed by suffix; the comparison
// ignores ASCII case.
func NewServer(suffix string, apIP [4]byte, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{suffix: suffix, apIP: apIP, logger: logger}
}

// ListenAndServe binds UDP/53 and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var setErr error
			c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					setErr = err
				}
			})
			return setErr
		},
	}

	pc, err := lc.ListenPacket(ctx, "udp4", ":53")
	if err != nil {
		return err
	}
	s.conn = pc.(*net.UDPConn)
	defer s.conn.Close()

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, 512)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		s.handleDatagram(buf[:n], addr)
	}
}

// handleDatagram parses the inbound query and, on a suffix match,
// sends a reply back to the querier (capport.c's dns_recv body).
func (s *Server) handleDatagram(buf []byte, from *net.UDPAddr) {
	hdr, err := decodeHeader(buf)
	if err != nil {
		s.logger.Printf("captivedns: dropping malformed message: %v", err)
		return
	}
	if !hdr.isQuery() {
		return
	}

	q, err := decodeQuestion(buf)
	if err != nil {
		s.logger.Printf("captivedns: dropping malformed question: %v", err)
		return
	}

	name := strings.ToLower(q.name)
	suffix := strings.ToLower(s.suffix)
	if name != suffix && !strings.HasSuffix(name, "."+suffix) {
		return
	}

	reply := buildReply(buf, hdr, q, s.apIP)
	if s.conn == nil {
		return
	}
	if _, err := s.conn.WriteToUDP(reply, from); err != nil {
		s.logger.Printf("captivedns: send failed: %v", err)
	}
}

// buildReply assembles the A-record answer described in §4.K: the
// original header with QR/AA set and TC/RA cleared, the question
// copied verbatim, and one answer resource record pointing at apIP.
func buildReply(req []byte, hdr header, q question, apIP [4]byte) []byte {
	questionEnd := headerLen + q.rawLen

	reply := make([]byte, questionEnd, questionEnd+16)
	copy(reply, req[:questionEnd])

	flags := hdr.flags
	flags |= flagQR | flagAA
	flags &^= flagTC | flagRA
	flags &^= rcodeMask

	putBE16(reply[0:2], hdr.id)
	putBE16(reply[2:4], flags)
	putBE16(reply[4:6], 1) // QDCount
	putBE16(reply[6:8], 1) // ANCount
	putBE16(reply[8:10], 0)
	putBE16(reply[10:12], 0)

	// Answer: a pointer back to the question name at offset 12,
	// type A, class IN, then the TTL and RDATA (capport.c's
	// hardcoded answer bytes).
	reply = append(reply, 0xc0, 0x0c) // name pointer to offset 12
	reply = append(reply, 0x00, 0x01) // TYPE = A
	reply = append(reply, 0x00, 0x01) // CLASS = IN
	// TTL: the original firmware writes 0x00 0x01 0x00 0x01 verbatim
	// here.
	reply = append(reply, 0x00, 0x01, 0x00, 0x01)
	reply = append(reply, 0x00, 0x04) // RDLENGTH = 4
	reply = append(reply, apIP[0], apIP[1], apIP[2], apIP[3])

	return reply
}
