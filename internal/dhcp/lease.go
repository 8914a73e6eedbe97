// File: internal/dhcp/lease.go
// Package dhcp
//
// The lease table: an ordered slice of leases, the
// server's own lease always first. Grounded on dhcpserver.c's
// find_lease/add_lease/get_next_ip, reworked as a Go-native sorted
// slice instead of the original's hand-linked doubly-linked list
// (spec Open Question iii flags the original's sort_leases as able to
// de-link the list under some swap sequences; re-slicing an owned
// []*Lease sidesteps that class of bug entirely rather than
// replicating a corrected pointer-swap).
package dhcp

import (
	"bytes"
	"sort"
	"time"
)

// LeaseState mirrors the original's DHCPOFFER/DHCPACK distinction
// (dhcpserver.c's dhcps_lease.state).
type LeaseState uint8

const (
	LeaseOffered LeaseState = iota
	LeaseAcked
)

// Lease records one client's address assignment.
type Lease struct {
	HWAddr [6]byte
	ClientID []byte // nil if the client sent none
	IP [4]byte
	Hostname string
	Expires time.Time
	State LeaseState
}

// Table is the ordered set of leases for one /24 network.
type Table struct {
	leases []*Lease
	maxLease int
}

// NewTable constructs a Table seeded with the server's own lease,
// which always occupies slot zero regardless of its address (the
// original's dhcps_init wires the server's lease in before any client
// ever gets one).
func NewTable(serverIP [4]byte, serverMAC [6]byte, maxLeases int) *Table {
	server := &Lease{
		HWAddr: serverMAC,
		IP: serverIP,
		State: LeaseAcked,
	}
	return &Table{leases: []*Lease{server}, maxLease: maxLeases}
}

// Len reports the number of leases currently held, including the
// server's own.
func (t *Table) Len() int { return len(t.leases) }

// Find looks up a lease by client-identifier first, falling back to
// hardware address when cid is nil on both sides.
func (t *Table) Find(hwaddr [6]byte, cid []byte) *Lease {
	if cid != nil {
		for _, l := range t.leases {
			if bytes.Equal(l.ClientID, cid) {
				return l
			}
		}
		return nil
	}
	for _, l := range t.leases {
		if l.ClientID == nil && l.HWAddr == hwaddr {
			return l
		}
	}
	return nil
}

// Insert adds lease keeping the table sorted ascending by the final
// octet of its IPv4 address. Returns false if the table
// is at capacity.
func (t *Table) Insert(lease *Lease) bool {
	if len(t.leases) >= t.maxLease {
		return false
	}
	t.leases = append(t.leases, lease)
	sort.SliceStable(t.leases, func(i, j int) bool {
		return t.leases[i].IP[3] < t.leases[j].IP[3]
	})
	return true
}

// Remove drops lease from the table, matching by pointer identity
// (dhcpserver.c's free_lease unlinks, then re-sorts; re-slicing
// keeps the same sortedness invariant without re-running a sort pass
// over an already-sorted remainder).
func (t *Table) Remove(lease *Lease) {
	for i, l := range t.leases {
		if l == lease {
			t.leases = append(t.leases[:i], t.leases[i+1:]...)
			return
		}
	}
}

// NextIP walks the sorted table looking for the first gap — a lease
// whose address is not exactly one more than the previous — and
// returns the address immediately after that lease. Fails once the table is full.
//
// The original's get_next_ip compares leases->ip->addr to
// leases->ip->addr - 1, which is always true and so never finds a
// gap; this follows this design's corrected description (compare each
// lease to its successor) rather than the source bug.
func (t *Table) NextIP() ([4]byte, bool) {
	if len(t.leases) >= t.maxLease {
		return [4]byte{}, false
	}
	gap := t.leases[len(t.leases)-1]
	for i := 0; i+1 < len(t.leases); i++ {
		if t.leases[i+1].IP[3] != t.leases[i].IP[3]+1 {
			gap = t.leases[i]
			break
		}
	}
	next := gap.IP
	next[3]++
	return next, true
}

// Get returns an existing lease for the client, or a freshly allocated
// one with no IP assigned yet (dhcpserver.c's get_lease).
func (t *Table) Get(hwaddr [6]byte, cid []byte) *Lease {
	if lease := t.Find(hwaddr, cid); lease != nil {
		return lease
	}
	return &Lease{HWAddr: hwaddr, ClientID: cid}
}
