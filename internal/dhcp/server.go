// File: internal/dhcp/server.go
// Package dhcp
//
// The captive-portal DHCP responder. Grounded on
// dhcpserver.c's dhcps_init/dhcps_task for the accept-dispatch shape,
// and on other_examples/.../athena-dhcpd/server.go for the idiomatic
// Go UDP server around it: a net.ListenConfig.Control callback
// wiring SO_REUSEADDR/SO_BROADCAST via golang.org/x/sys/unix (DHCP
// must be able to reply to 255.255.255.255), and a single receive
// loop dispatching each datagram synchronously (the original runs a
// single FreeRTOS task with no concurrent packet handling either, so
// this keeps one goroutine rather than athena-dhcpd's per-packet
// fan-out — there is exactly one lease table and no profit in
// parallelizing access to it).
package dhcp

import (
	"context"
	"log"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// ServerPort is the port this responder listens on.
	ServerPort = 67
	// ClientPort is where BOOTREPLY datagrams are addressed.
	ClientPort = 68

	// DefaultMaxLeases mirrors the original's DHCPS_MAX_LEASES.
	DefaultMaxLeases = 10
	// DefaultLeaseTime mirrors the original's DHCPS_LEASE_TIME.
	DefaultLeaseTime = 3600 * time.Second
)

// Server is the UDP/67 DHCP responder.
type Server struct {
	table *Table
	leaseTime time.Duration
	serverIP [4]byte

	conn *net.UDPConn
}

// NewServer constructs a Server with its own lease occupying slot
// zero (dhcpserver.c's dhcps_init creates the server's lease before
// starting the receive task).
func NewServer(serverIP [4]byte, serverMAC [6]byte, maxLeases int, leaseTime time.Duration) *Server {
	if maxLeases <= 0 {
		maxLeases = DefaultMaxLeases
	}
	if leaseTime <= 0 {
		leaseTime = DefaultLeaseTime
	}
	return &Server{
		table: NewTable(serverIP, serverMAC, maxLeases),
		leaseTime: leaseTime,
		serverIP: serverIP,
	}
}

// ListenAndServe binds UDP/67 and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var setErr error
			c.Control(func(fd uintptr) {
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
					setErr = err
				}
				if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
					setErr = err
				}
			})
			return setErr
		},
	}

	pc, err := lc.ListenPacket(ctx, "udp4", ":67")
	if err != nil {
		return err
	}
	s.conn = pc.(*net.UDPConn)
	defer s.conn.Close()

	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, 1500)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		s.handleDatagram(buf[:n])
	}
}

// handleDatagram parses and dispatches a single incoming datagram
// (dhcpserver.c's dhcps_task body, minus the FreeRTOS netbuf
// plumbing).
func (s *Server) handleDatagram(buf []byte) {
	msg, err := decodeMessage(buf)
	if err != nil {
		log.Printf("dhcp: dropping malformed message: %v", err)
		return
	}
	if msg.Op != bootRequest {
		return
	}
	if msg.HType != htypeEth {
		log.Printf("dhcp: unknown hardware type %d", msg.HType)
		return
	}

	mtype, ok := msg.Opts.messageType()
	if !ok {
		log.Printf("dhcp: message carries no DHCP message type option")
		return
	}

	switch mtype {
	case Discover:
		s.answerDiscover(msg)
	case Request:
		log.Printf("dhcp: request from %x (not fully implemented)", msg.CHAddr)
	case Decline:
		log.Printf("dhcp: decline from %x (not fully implemented)", msg.CHAddr)
	case Release:
		log.Printf("dhcp: release from %x (not fully implemented)", msg.CHAddr)
	case Inform:
		log.Printf("dhcp: inform from %x (not fully implemented)", msg.CHAddr)
	}
}

// answerDiscover implements this design's DISCOVER handling: reject
// subnetted requests, get-or-create a lease, assign the next free
// address if needed, and broadcast an OFFER (grounded on
// dhcpserver.c's answer_discover).
func (s *Server) answerDiscover(req *message) {
	if req.GIAddr != [4]byte{} {
		log.Printf("dhcp: relayed discover, no subnet support")
		s.sendNak(req)
		return
	}

	cid := req.Opts.clientID()
	existing := s.table.Find(req.CHAddr, cid)
	lease := existing
	if lease == nil {
		lease = s.table.Get(req.CHAddr, cid)
	}
	lease.State = LeaseOffered

	if lease.IP == ([4]byte{}) {
		ip, ok := s.table.NextIP()
		if !ok {
			log.Printf("dhcp: address pool exhausted")
			s.sendNak(req)
			return
		}
		lease.IP = ip
	}
	lease.Hostname = req.Opts.hostname()
	lease.Expires = time.Now().Add(s.leaseTime)

	if existing == nil {
		if !s.table.Insert(lease) {
			log.Printf("dhcp: could not add lease")
			s.sendNak(req)
			return
		}
	}

	body := replyHeader(req, lease.IP)
	body = appendByteOption(body, OptionMessageType, byte(Offer))
	body = appendOption(body, OptionSubnetMask, []byte{255, 255, 255, 0})
	body = appendOption(body, OptionRouter, s.serverIP[:])
	body = appendOption(body, OptionServerID, s.serverIP[:])
	leaseSecs := uint32(s.leaseTime / time.Second)
	body = appendOption(body, OptionLeaseTime, bigEndianUint32(leaseSecs))
	body = append(body, OptionEnd)

	s.broadcast(body)
}

// sendNak broadcasts a minimal DHCPNAK shell (dhcpserver.c's
// send_nak).
func (s *Server) sendNak(req *message) {
	body := replyHeader(req, [4]byte{})
	body = appendByteOption(body, OptionMessageType, byte(Nak))
	body = append(body, OptionEnd)
	s.broadcast(body)
}

// broadcast sends body to 255.255.255.255:68, the destination
// dhcpserver.c always uses (giaddr is assumed zero; this responder
// does not support relayed subnets, this design).
func (s *Server) broadcast(body []byte) {
	if s.conn == nil {
		return
	}
	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: ClientPort}
	if _, err := s.conn.WriteToUDP(body, dst); err != nil {
		log.Printf("dhcp: send failed: %v", err)
	}
}

func bigEndianUint32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
