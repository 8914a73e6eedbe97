package wsframe_test

import (
	"bytes"
	"testing"

	"github.com/deadbok/wifiswitch-core/internal/wsframe"
)

func maskedFrame(opcode byte, payload []byte, key [4]byte) []byte {
	out := []byte{0x80 | opcode, 0x80 | byte(len(payload))}
	out = append(out, key[:]...)
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ key[i%4]
	}
	return append(out, masked...)
}

func TestDecodeMaskedTextFrame(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	raw := maskedFrame(wsframe.OpText, []byte("hello"), key)

	f, n, err := wsframe.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(raw) {
		t.Fatalf("consumed %d, want %d", n, len(raw))
	}
	if !f.Fin || f.Opcode != wsframe.OpText {
		t.Fatalf("unexpected header: %+v", f)
	}
	if !bytes.Equal(f.Payload, []byte("hello")) {
		t.Fatalf("payload = %q", f.Payload)
	}
}

func TestDecodeIncompleteHeader(t *testing.T) {
	_, _, err := wsframe.Decode([]byte{0x81})
	if err != wsframe.ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestDecodeIncompletePayload(t *testing.T) {
	key := [4]byte{9, 9, 9, 9}
	raw := maskedFrame(wsframe.OpBinary, []byte("full payload"), key)
	_, _, err := wsframe.Decode(raw[:len(raw)-3])
	if err != wsframe.ErrIncomplete {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}

func TestDecodeUnmaskedClientFrameRejected(t *testing.T) {
	raw := []byte{0x81, 0x05, 'h', 'e', 'l', 'l', 'o'}
	_, _, err := wsframe.Decode(raw)
	if err != wsframe.ErrUnmaskedClientFrame {
		t.Fatalf("err = %v, want ErrUnmaskedClientFrame", err)
	}
}

func TestDecodeExtended16BitLength(t *testing.T) {
	payload := bytes.Repeat([]byte{'a'}, 300)
	key := [4]byte{5, 6, 7, 8}
	raw := []byte{0x82, 0xFE, 0x01, 0x2C}
	raw = append(raw, key[:]...)
	masked := make([]byte, len(payload))
	for i, b := range payload {
		masked[i] = b ^ key[i%4]
	}
	raw = append(raw, masked...)

	f, n, err := wsframe.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n != len(raw) || f.PayloadLen != 300 {
		t.Fatalf("n=%d payloadLen=%d", n, f.PayloadLen)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestEncodeNeverMasks(t *testing.T) {
	out := wsframe.Encode(wsframe.OpText, []byte("hi"))
	if out[1]&0x80 != 0 {
		t.Fatalf("encoded frame has mask bit set: %08b", out[1])
	}
	if out[0] != 0x81 {
		t.Fatalf("header byte = %08b, want fin+text", out[0])
	}
	if string(out[2:]) != "hi" {
		t.Fatalf("payload = %q", out[2:])
	}
}

func TestEncodeDecodeRoundTripUnmaskedFromServer(t *testing.T) {
	// A server frame has no mask, so it can't be fed back through
	// Decode (which requires client frames to be masked) — round trip
	// instead by re-masking with a key as a client would.
	encoded := wsframe.Encode(wsframe.OpBinary, []byte("round trip"))
	key := [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	reMasked := append([]byte{}, encoded...)
	reMasked[1] |= 0x80
	payloadStart := 2
	payload := append([]byte{}, encoded[payloadStart:]...)
	for i := range payload {
		payload[i] ^= key[i%4]
	}
	reMasked = append(reMasked[:payloadStart], key[:]...)
	reMasked = append(reMasked, payload...)

	f, _, err := wsframe.Decode(reMasked)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(f.Payload) != "round trip" {
		t.Fatalf("payload = %q", f.Payload)
	}
}

func TestIsControl(t *testing.T) {
	cases := []struct {
		op   byte
		want bool
	}{
		{wsframe.OpText, false},
		{wsframe.OpBinary, false},
		{wsframe.OpClose, true},
		{wsframe.OpPing, true},
		{wsframe.OpPong, true},
	}
	for _, c := range cases {
		f := &wsframe.Frame{Opcode: c.op}
		if f.IsControl() != c.want {
			t.Fatalf("opcode %x IsControl = %v, want %v", c.op, f.IsControl(), c.want)
		}
	}
}
