package bridge

import (
	"encoding/binary"
	"fmt"
)

// Account records use fixed little-endian layouts with a trailing
// initialized flag. Encode produces exactly the record size; the
// unchecked decoders verify only the size, the checked ones also require
// the initialized flag. Decoding reads in place and never allocates
// beyond the returned record.

// EncodeBridge encodes the bridge singleton.
// Format: [4B guardianSetIndex] [4B window] [32B tokenLedger] [1B init]
func EncodeBridge(b *Bridge) []byte {
	buf := make([]byte, BridgeSize)
	binary.LittleEndian.PutUint32(buf[0:4], b.GuardianSetIndex)
	binary.LittleEndian.PutUint32(buf[4:8], b.Config.VAAExpirationWindow)
	copy(buf[8:40], b.Config.TokenLedger[:])
	buf[40] = encodeBool(b.Initialized)
	return buf
}

// DecodeBridgeUnchecked decodes a bridge record, checking only the size.
func DecodeBridgeUnchecked(data []byte) (*Bridge, error) {
	if len(data) != BridgeSize {
		return nil, fmt.Errorf("bridge record size %d, want %d:\n%w", len(data), BridgeSize, ErrInvalidAccountData)
	}
	b := &Bridge{
		GuardianSetIndex: binary.LittleEndian.Uint32(data[0:4]),
		Initialized:      data[40] != 0,
	}
	b.Config.VAAExpirationWindow = binary.LittleEndian.Uint32(data[4:8])
	copy(b.Config.TokenLedger[:], data[8:40])
	return b, nil
}

// DecodeBridge decodes a bridge record and requires it to be initialized.
func DecodeBridge(data []byte) (*Bridge, error) {
	b, err := DecodeBridgeUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !b.Initialized {
		return nil, fmt.Errorf("bridge:\n%w", ErrUninitializedState)
	}
	return b, nil
}

// EncodeGuardianSet encodes a guardian set record.
// Format: [4B index] [48B key] [4B creation] [4B expiration] [1B init]
func EncodeGuardianSet(g *GuardianSet) []byte {
	buf := make([]byte, GuardianSetSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.Index)
	copy(buf[4:52], g.Key[:])
	binary.LittleEndian.PutUint32(buf[52:56], g.CreationTime)
	binary.LittleEndian.PutUint32(buf[56:60], g.ExpirationTime)
	buf[60] = encodeBool(g.Initialized)
	return buf
}

// DecodeGuardianSetUnchecked decodes a guardian set record, checking only the size.
func DecodeGuardianSetUnchecked(data []byte) (*GuardianSet, error) {
	if len(data) != GuardianSetSize {
		return nil, fmt.Errorf("guardian set record size %d, want %d:\n%w", len(data), GuardianSetSize, ErrInvalidAccountData)
	}
	g := &GuardianSet{
		Index:          binary.LittleEndian.Uint32(data[0:4]),
		CreationTime:   binary.LittleEndian.Uint32(data[52:56]),
		ExpirationTime: binary.LittleEndian.Uint32(data[56:60]),
		Initialized:    data[60] != 0,
	}
	copy(g.Key[:], data[4:52])
	return g, nil
}

// DecodeGuardianSet decodes a guardian set record and requires it to be
// initialized.
func DecodeGuardianSet(data []byte) (*GuardianSet, error) {
	g, err := DecodeGuardianSetUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !g.Initialized {
		return nil, fmt.Errorf("guardian set:\n%w", ErrUninitializedState)
	}
	return g, nil
}

// EncodeTransferOutProposal encodes a transfer proposal record.
// Format: [8B amount] [1B toChain] [32B foreign] [33B asset] [255B vaa] [4B vaaTime] [1B init]
func EncodeTransferOutProposal(p *TransferOutProposal) []byte {
	buf := make([]byte, TransferOutProposalSize)
	binary.LittleEndian.PutUint64(buf[0:8], p.Amount)
	buf[8] = p.ToChain
	copy(buf[9:41], p.ForeignAddress[:])
	copy(buf[41:73], p.Asset.Address[:])
	buf[73] = p.Asset.Chain
	copy(buf[74:329], p.VAA[:])
	binary.LittleEndian.PutUint32(buf[329:333], p.VAATime)
	buf[333] = encodeBool(p.Initialized)
	return buf
}

// DecodeTransferOutProposalUnchecked decodes a transfer proposal record,
// checking only the size.
func DecodeTransferOutProposalUnchecked(data []byte) (*TransferOutProposal, error) {
	if len(data) != TransferOutProposalSize {
		return nil, fmt.Errorf("transfer proposal record size %d, want %d:\n%w", len(data), TransferOutProposalSize, ErrInvalidAccountData)
	}
	p := &TransferOutProposal{
		Amount:      binary.LittleEndian.Uint64(data[0:8]),
		ToChain:     data[8],
		VAATime:     binary.LittleEndian.Uint32(data[329:333]),
		Initialized: data[333] != 0,
	}
	copy(p.ForeignAddress[:], data[9:41])
	copy(p.Asset.Address[:], data[41:73])
	p.Asset.Chain = data[73]
	copy(p.VAA[:], data[74:329])
	return p, nil
}

// DecodeTransferOutProposal decodes a transfer proposal record and
// requires it to be initialized.
func DecodeTransferOutProposal(data []byte) (*TransferOutProposal, error) {
	p, err := DecodeTransferOutProposalUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !p.Initialized {
		return nil, fmt.Errorf("transfer proposal:\n%w", ErrUninitializedState)
	}
	return p, nil
}

// EncodeClaimedVAA encodes a claim record.
// Format: [32B hash] [4B vaaTime] [1B init]
func EncodeClaimedVAA(c *ClaimedVAA) []byte {
	buf := make([]byte, ClaimedVAASize)
	copy(buf[0:32], c.Hash[:])
	binary.LittleEndian.PutUint32(buf[32:36], c.VAATime)
	buf[36] = encodeBool(c.Initialized)
	return buf
}

// DecodeClaimedVAAUnchecked decodes a claim record, checking only the size.
func DecodeClaimedVAAUnchecked(data []byte) (*ClaimedVAA, error) {
	if len(data) != ClaimedVAASize {
		return nil, fmt.Errorf("claim record size %d, want %d:\n%w", len(data), ClaimedVAASize, ErrInvalidAccountData)
	}
	c := &ClaimedVAA{
		VAATime:     binary.LittleEndian.Uint32(data[32:36]),
		Initialized: data[36] != 0,
	}
	copy(c.Hash[:], data[0:32])
	return c, nil
}

// DecodeClaimedVAA decodes a claim record and requires it to be initialized.
func DecodeClaimedVAA(data []byte) (*ClaimedVAA, error) {
	c, err := DecodeClaimedVAAUnchecked(data)
	if err != nil {
		return nil, err
	}
	if !c.Initialized {
		return nil, fmt.Errorf("claim:\n%w", ErrUninitializedState)
	}
	return c, nil
}

// encodeBool encodes an initialized flag.
func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}
