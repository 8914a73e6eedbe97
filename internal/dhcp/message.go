// File: internal/dhcp/message.go
// Package dhcp
//
// The wire format (RFC2131 §2, RFC951's BOOTP layout dhcp_msg is
// carried over from): a fixed 236-byte header followed by the magic
// cookie and a variable option field. Grounded on dhcpserver.c's
// struct dhcp_msg and its DHCP_MAGIC_COOKIE/DHCP_OPTIONS_LEN
// constants.
package dhcp

import (
	"encoding/binary"
	"errors"
)

const (
	bootRequest = 1
	bootReply = 2
	htypeEth = 1
	hlenEth = 6

	magicCookie = 0x63825363

	fixedHeaderLen = 236
	minMessageLen = fixedHeaderLen + 4 // + magic cookie
)

var errTruncated = errors.New("dhcp: truncated message")

// message is a parsed DHCP/BOOTP packet.
type message struct {
	Op byte
	HType byte
	HLen byte
	Hops byte
	XID uint32
	Secs uint16
	Flags uint16
	CIAddr [4]byte
	YIAddr [4]byte
	SIAddr [4]byte
	GIAddr [4]byte
	CHAddr [6]byte
	Opts options
}

// decodeMessage parses buf as a DHCP message, rejecting anything too
// short to hold the fixed header and magic cookie, or carrying the
// wrong cookie (dhcpserver.c checks msg->cookie == DHCP_MAGIC_COOKIE
// before trusting the options field).
func decodeMessage(buf []byte) (*message, error) {
	if len(buf) < minMessageLen {
		return nil, errTruncated
	}
	m := &message{
		Op: buf[0],
		HType: buf[1],
		HLen: buf[2],
		Hops: buf[3],
		XID: binary.BigEndian.Uint32(buf[4:8]),
		Secs: binary.BigEndian.Uint16(buf[8:10]),
		Flags: binary.BigEndian.Uint16(buf[10:12]),
	}
	copy(m.CIAddr[:], buf[12:16])
	copy(m.YIAddr[:], buf[16:20])
	copy(m.SIAddr[:], buf[20:24])
	copy(m.GIAddr[:], buf[24:28])
	copy(m.CHAddr[:], buf[28:34])

	cookie := binary.BigEndian.Uint32(buf[236:240])
	if cookie != magicCookie {
		return nil, errors.New("dhcp: bad magic cookie")
	}
	m.Opts = parseOptions(buf[240:])
	return m, nil
}

// replyHeader builds the fixed portion of a BOOTREPLY echoing the
// request's transaction id and flags (dhcpserver.c's send_nak/
// answer_discover both fill these identically before diverging on
// yiaddr and the message-type option).
func replyHeader(req *message, yiaddr [4]byte) []byte {
	buf := make([]byte, fixedHeaderLen, fixedHeaderLen+4+64)
	buf[0] = bootReply
	buf[1] = htypeEth
	buf[2] = hlenEth
	binary.BigEndian.PutUint32(buf[4:8], req.XID)
	binary.BigEndian.PutUint16(buf[10:12], req.Flags)
	copy(buf[16:20], yiaddr[:])
	copy(buf[24:28], req.GIAddr[:])
	copy(buf[28:34], req.CHAddr[:])

	cookie := make([]byte, 4)
	binary.BigEndian.PutUint32(cookie, magicCookie)
	return append(buf, cookie...)
}
