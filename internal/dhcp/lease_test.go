package dhcp_test

import (
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/dhcp"
)

func serverIP() [4]byte  { return [4]byte{192, 168, 4, 1} }
func serverMAC() [6]byte { return [6]byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01} }

func TestNewTableSeedsServerLeaseFirst(t *testing.T) {
	table := dhcp.NewTable(serverIP(), serverMAC(), 10)
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}
	found := table.Find(serverMAC(), nil)
	if found == nil {
		t.Fatal("server lease not found by MAC")
	}
	if found.IP != serverIP() {
		t.Fatalf("server lease IP = %v, want %v", found.IP, serverIP())
	}
}

func TestNextIPSkipsServerAddress(t *testing.T) {
	table := dhcp.NewTable(serverIP(), serverMAC(), 10)
	ip, ok := table.NextIP()
	if !ok {
		t.Fatal("NextIP ok = false, want true")
	}
	want := [4]byte{192, 168, 4, 2}
	if ip != want {
		t.Fatalf("NextIP = %v, want %v", ip, want)
	}
}

func TestNextIPFindsGapAfterRemoval(t *testing.T) {
	table := dhcp.NewTable(serverIP(), serverMAC(), 10)

	mac1 := [6]byte{1, 1, 1, 1, 1, 1}
	mac2 := [6]byte{2, 2, 2, 2, 2, 2}
	mac3 := [6]byte{3, 3, 3, 3, 3, 3}

	l1 := &dhcp.Lease{HWAddr: mac1, IP: [4]byte{192, 168, 4, 2}}
	l2 := &dhcp.Lease{HWAddr: mac2, IP: [4]byte{192, 168, 4, 3}}
	l3 := &dhcp.Lease{HWAddr: mac3, IP: [4]byte{192, 168, 4, 4}}
	for _, l := range []*dhcp.Lease{l1, l2, l3} {
		if !table.Insert(l) {
			t.Fatalf("Insert(%v) = false", l.HWAddr)
		}
	}

	table.Remove(l2)
	if table.Len() != 3 {
		t.Fatalf("Len after remove = %d, want 3", table.Len())
	}

	ip, ok := table.NextIP()
	if !ok {
		t.Fatal("NextIP ok = false, want true")
	}
	want := [4]byte{192, 168, 4, 3}
	if ip != want {
		t.Fatalf("NextIP = %v, want %v (the gap left by removing l2)", ip, want)
	}
}

func TestFindPrefersClientID(t *testing.T) {
	table := dhcp.NewTable(serverIP(), serverMAC(), 10)
	mac := [6]byte{9, 9, 9, 9, 9, 9}
	cid := []byte{1, 0xaa}
	lease := &dhcp.Lease{HWAddr: mac, ClientID: cid, IP: [4]byte{192, 168, 4, 2}}
	table.Insert(lease)

	if got := table.Find(mac, cid); got != lease {
		t.Fatal("Find by client-id did not return the lease")
	}
	// A different MAC with the same client-id still matches, mirroring
	// RFC2131 4.2's preference for client-id over hardware address.
	if got := table.Find([6]byte{0, 0, 0, 0, 0, 0}, cid); got != lease {
		t.Fatal("Find by client-id should ignore hwaddr mismatch")
	}
	// With no client-id supplied, a lease that has one is not a hwaddr match.
	if got := table.Find(mac, nil); got != nil {
		t.Fatal("Find(hwaddr, nil) should not match a lease that has a client-id")
	}
}

func TestInsertFailsWhenFull(t *testing.T) {
	table := dhcp.NewTable(serverIP(), serverMAC(), 1)
	lease := &dhcp.Lease{HWAddr: [6]byte{1, 2, 3, 4, 5, 6}, IP: [4]byte{192, 168, 4, 2}}
	if table.Insert(lease) {
		t.Fatal("Insert on a full table should fail")
	}
}

func TestGetReturnsExistingLeaseBeforeAllocatingNew(t *testing.T) {
	table := dhcp.NewTable(serverIP(), serverMAC(), 10)
	mac := [6]byte{4, 4, 4, 4, 4, 4}
	lease := &dhcp.Lease{HWAddr: mac, IP: [4]byte{192, 168, 4, 2}}
	table.Insert(lease)

	got := table.Get(mac, nil)
	if got != lease {
		t.Fatal("Get allocated a new lease instead of returning the existing one")
	}
}
