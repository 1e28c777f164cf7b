package bridge

import (
	"bytes"
	"errors"
	"testing"
)

// TestInitializeInstructionRoundTrip tests the initialize codec through
// the opcode dispatcher.
func TestInitializeInstructionRoundTrip(t *testing.T) {
	in := &InitializeInstruction{
		VAAExpirationWindow: 3600,
		TokenLedger:         Address{0x01},
	}
	for i := range in.GuardianKey {
		in.GuardianKey[i] = byte(i)
	}

	ix, err := DecodeInstruction(EncodeInitialize(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, ok := ix.(*InitializeInstruction)
	if !ok {
		t.Fatalf("decoded type: got %T, want *InitializeInstruction", ix)
	}
	if *out != *in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
	if out.Op() != OpInitialize {
		t.Errorf("opcode: got 0x%02x, want 0x%02x", out.Op(), OpInitialize)
	}
}

// TestTransferOutInstructionRoundTrip tests the transfer-out codec
// through the opcode dispatcher.
func TestTransferOutInstructionRoundTrip(t *testing.T) {
	in := &TransferOutInstruction{
		Amount:             1_000_000,
		DestinationChain:   2,
		DestinationAddress: Address{0xAA},
		Asset:              AssetMeta{Chain: ChainIDLocal, Address: Address{0xBB}},
		Sender:             Address{0xCC},
		Mint:               Address{0xBB},
	}

	ix, err := DecodeInstruction(EncodeTransferOut(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, ok := ix.(*TransferOutInstruction)
	if !ok {
		t.Fatalf("decoded type: got %T, want *TransferOutInstruction", ix)
	}
	if *out != *in {
		t.Errorf("round trip: got %+v, want %+v", out, in)
	}
}

// TestPostVAAInstructionRoundTrip tests the post-vaa codec through the
// opcode dispatcher.
func TestPostVAAInstructionRoundTrip(t *testing.T) {
	vaaBytes, err := EncodeVAA(testVAA())
	if err != nil {
		t.Fatalf("encode vaa: %v", err)
	}

	ix, err := DecodeInstruction(EncodePostVAA(&PostVAAInstruction{VAA: vaaBytes}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	out, ok := ix.(*PostVAAInstruction)
	if !ok {
		t.Fatalf("decoded type: got %T, want *PostVAAInstruction", ix)
	}
	if !bytes.Equal(out.VAA, vaaBytes) {
		t.Error("vaa bytes mismatch after round trip")
	}
}

// TestDecodeInstructionRejectsMalformed tests dispatcher failure paths.
func TestDecodeInstructionRejectsMalformed(t *testing.T) {
	if _, err := DecodeInstruction(nil); !errors.Is(err, ErrParseFailed) {
		t.Errorf("empty instruction: got %v, want ErrParseFailed", err)
	}

	if _, err := DecodeInstruction([]byte{0x7F}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("unknown opcode: got %v, want ErrParseFailed", err)
	}

	if _, err := DecodeInstruction([]byte{OpInitialize, 0x00}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("short initialize: got %v, want ErrParseFailed", err)
	}

	if _, err := DecodeInstruction([]byte{OpTransferOut}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("short transfer out: got %v, want ErrParseFailed", err)
	}

	if _, err := DecodeInstruction([]byte{OpPostVAA, 0x01, 0x02}); !errors.Is(err, ErrParseFailed) {
		t.Errorf("short post-vaa: got %v, want ErrParseFailed", err)
	}
}

// TestOpName tests opcode naming.
func TestOpName(t *testing.T) {
	if got := OpName(OpInitialize); got != "initialize" {
		t.Errorf("OpName(OpInitialize): got %q", got)
	}
	if got := OpName(OpPostVAA); got != "post_vaa" {
		t.Errorf("OpName(OpPostVAA): got %q", got)
	}
	if got := OpName(0x7F); got != "op_0x7f" {
		t.Errorf("OpName(0x7f): got %q", got)
	}
}
