package coap

import (
	"bytes"
	"testing"
)

// S2 — CoAP round trip, spec.md §8.
func TestEncodeDecodeRoundTrip_Petition(t *testing.T) {
	payload := []byte{
		0x01, 0x0F, 0x69, 0x4F, 0x53, 0x43, 0x6F, 0x6D,
		0x6D, 0x69, 0x73, 0x73, 0x69, 0x6F, 0x6E, 0x65, 0x72,
	}
	m := Message{
		Type:      TypeConfirmable,
		Code:      CodePOST,
		MessageID: 0x0001,
		Token:     []byte{0x01, 0x02, 0x03, 0x04},
		Options: []Option{
			{Number: OptionURIPath, Value: []byte("c")},
			{Number: OptionURIPath, Value: []byte("cp")},
		},
		Payload: payload,
	}

	encoded, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded.Type != m.Type || decoded.Code != m.Code || decoded.MessageID != m.MessageID {
		t.Fatalf("decoded header mismatch: %+v", decoded)
	}
	if !bytes.Equal(decoded.Token, m.Token) {
		t.Fatalf("decoded token = % x, want % x", decoded.Token, m.Token)
	}
	paths := decoded.URIPathOptions()
	if len(paths) != 2 || paths[0] != "c" || paths[1] != "cp" {
		t.Fatalf("decoded Uri-Path options = %v, want [c cp]", paths)
	}
	if !bytes.Equal(decoded.Payload, payload) {
		t.Fatalf("decoded payload = % x, want % x", decoded.Payload, payload)
	}
}

func TestDecode_RejectsWrongVersion(t *testing.T) {
	raw := []byte{0x00, byte(CodePOST), 0x00, 0x01}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected error for version 0")
	}
}

func TestDecode_RejectsTruncatedToken(t *testing.T) {
	// token length nibble says 4 bytes but only 1 is present
	raw := []byte{0x44, byte(CodePOST), 0x00, 0x01, 0xAA}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected error for truncated token")
	}
}

func TestDecode_UnknownOptionDropped(t *testing.T) {
	// option number 99 (unknown), length 2, value AA BB, then payload marker + "hi"
	raw, err := Encode(Message{Type: TypeConfirmable, Code: CodePOST, MessageID: 7})
	if err != nil {
		t.Fatal(err)
	}
	// manually append an unknown option (delta 99 needs 13-escape: 99-13=86)
	raw = append(raw, 0xD2, 86, 0xAA, 0xBB)
	raw = append(raw, payloadMarker)
	raw = append(raw, []byte("hi")...)

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Options) != 0 {
		t.Fatalf("expected unknown option dropped, got %+v", decoded.Options)
	}
	if string(decoded.Payload) != "hi" {
		t.Fatalf("payload = %q, want %q", decoded.Payload, "hi")
	}
}

func TestEmptyACK(t *testing.T) {
	raw := []byte{0x60, 0x00, 0x00, 0x07}
	m, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !m.IsEmptyACK() {
		t.Fatalf("expected empty ACK, got type=%v code=%v", m.Type, m.Code)
	}
}
