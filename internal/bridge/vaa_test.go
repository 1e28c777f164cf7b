package bridge

import (
	"bytes"
	"errors"
	"testing"
)

// testVAA builds a vaa with a recognizable signature and payload.
func testVAA() *VAA {
	v := &VAA{
		GuardianSetIndex: 9,
		Payload:          EncodeBodyTransfer(&BodyTransfer{Amount: 42, ChainID: ChainIDLocal}),
	}
	for i := range v.Signature {
		v.Signature[i] = byte(i)
	}
	return v
}

// TestVAARoundTrip tests vaa encoding and parsing.
func TestVAARoundTrip(t *testing.T) {
	in := testVAA()

	data, err := EncodeVAA(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if int(data[0]) != len(data) {
		t.Errorf("length byte: got %d, want %d", data[0], len(data))
	}

	out, err := ParseVAA(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if out.GuardianSetIndex != in.GuardianSetIndex {
		t.Errorf("set index: got %d, want %d", out.GuardianSetIndex, in.GuardianSetIndex)
	}
	if out.Signature != in.Signature {
		t.Error("signature mismatch after round trip")
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Error("payload mismatch after round trip")
	}
}

// TestParseVAAIgnoresTrailing tests that bytes past the declared length
// are ignored.
func TestParseVAAIgnoresTrailing(t *testing.T) {
	in := testVAA()
	data, err := EncodeVAA(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	padded := append(data, 0xFF, 0xFF, 0xFF)
	out, err := ParseVAA(padded)
	if err != nil {
		t.Fatalf("parse padded: %v", err)
	}
	if !bytes.Equal(out.Payload, in.Payload) {
		t.Error("trailing bytes should not reach the payload")
	}
}

// TestParseVAARejectsMalformed tests the parse failure paths.
func TestParseVAARejectsMalformed(t *testing.T) {
	if _, err := ParseVAA(nil); !errors.Is(err, ErrParseFailed) {
		t.Errorf("empty input: got %v, want ErrParseFailed", err)
	}

	// Declared length below the minimum
	short := make([]byte, MinVAASize)
	short[0] = MinVAASize - 1
	if _, err := ParseVAA(short); !errors.Is(err, ErrParseFailed) {
		t.Errorf("undersized declaration: got %v, want ErrParseFailed", err)
	}

	// Declared length past the available bytes
	data, err := EncodeVAA(testVAA())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := ParseVAA(data[:len(data)-1]); !errors.Is(err, ErrParseFailed) {
		t.Errorf("truncated input: got %v, want ErrParseFailed", err)
	}
}

// TestEncodeVAABounds tests the encoding size bounds.
func TestEncodeVAABounds(t *testing.T) {
	if _, err := EncodeVAA(&VAA{}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("empty payload: got %v, want ErrParseFailed", err)
	}

	oversized := &VAA{Payload: make([]byte, MaxVAASize)}
	if _, err := EncodeVAA(oversized); !errors.Is(err, ErrParseFailed) {
		t.Errorf("oversized payload: got %v, want ErrParseFailed", err)
	}

	// Largest payload that still fits
	maximal := &VAA{Payload: make([]byte, MaxVAASize-vaaHeaderSize)}
	maximal.Payload[0] = 0x01
	data, err := EncodeVAA(maximal)
	if err != nil {
		t.Fatalf("maximal payload: %v", err)
	}
	if len(data) != MaxVAASize {
		t.Errorf("maximal vaa size: got %d, want %d", len(data), MaxVAASize)
	}
}

// TestPayloadDigest tests that the digest covers exactly the payload.
func TestPayloadDigest(t *testing.T) {
	payload := EncodeBodyTransfer(&BodyTransfer{Amount: 1, ChainID: ChainIDLocal})

	a := PayloadDigest(payload)
	b := PayloadDigest(payload)
	if a != b {
		t.Error("digest should be deterministic")
	}

	other := EncodeBodyTransfer(&BodyTransfer{Amount: 2, ChainID: ChainIDLocal})
	if a == PayloadDigest(other) {
		t.Error("different payloads should digest differently")
	}

	// The signature does not feed the digest: two vaas with the same
	// payload share one digest regardless of signer.
	v1 := testVAA()
	v2 := testVAA()
	v2.Signature[0] ^= 0xFF
	v2.GuardianSetIndex++
	if v1.Digest() != v2.Digest() {
		t.Error("digest should depend only on the payload")
	}
}

// TestBodyUpdateGuardianSetRoundTrip tests the rotation payload codec.
func TestBodyUpdateGuardianSetRoundTrip(t *testing.T) {
	in := &BodyUpdateGuardianSet{NewIndex: 5}
	for i := range in.NewKey {
		in.NewKey[i] = byte(0x80 + i)
	}

	payload := EncodeBodyUpdateGuardianSet(in)
	body, err := ParseBody(payload)
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}

	out, ok := body.(*BodyUpdateGuardianSet)
	if !ok {
		t.Fatalf("parsed body type: got %T, want *BodyUpdateGuardianSet", body)
	}
	if *out != *in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
	if out.Action() != ActionUpdateGuardianSet {
		t.Errorf("action: got 0x%02x, want 0x%02x", out.Action(), ActionUpdateGuardianSet)
	}
}

// TestBodyTransferRoundTrip tests the transfer payload codec.
func TestBodyTransferRoundTrip(t *testing.T) {
	in := &BodyTransfer{
		Amount:        999,
		ChainID:       ChainIDLocal,
		TargetAddress: Address{0x11},
		Asset:         AssetMeta{Chain: 2, Address: Address{0x22}},
	}

	payload := EncodeBodyTransfer(in)
	body, err := ParseBody(payload)
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}

	out, ok := body.(*BodyTransfer)
	if !ok {
		t.Fatalf("parsed body type: got %T, want *BodyTransfer", body)
	}
	if *out != *in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

// TestParseBodyRejectsMalformed tests payload dispatch failures.
func TestParseBodyRejectsMalformed(t *testing.T) {
	if _, err := ParseBody(nil); !errors.Is(err, ErrParseFailed) {
		t.Errorf("empty payload: got %v, want ErrParseFailed", err)
	}

	if _, err := ParseBody([]byte{0x7F}); !errors.Is(err, ErrInvalidVAAAction) {
		t.Errorf("unknown action: got %v, want ErrInvalidVAAAction", err)
	}

	// Known action, wrong size
	if _, err := ParseBody([]byte{ActionUpdateGuardianSet, 0x00}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("short rotation payload: got %v, want ErrParseFailed", err)
	}
	if _, err := ParseBody([]byte{ActionTransfer, 0x00}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("short transfer payload: got %v, want ErrParseFailed", err)
	}
}
