package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

// VAA wire layout constants. The serialized size is bounded by the
// leading length byte.
const (
	MaxVAASize       = 255
	VAASignatureSize = 96
	vaaHeaderSize    = 1 + 4 + VAASignatureSize // length byte, set index, signature
	MinVAASize       = vaaHeaderSize + 1        // smallest payload is one action byte
)

// VAA payload actions.
const (
	ActionUpdateGuardianSet = 0x01 // rotate the guardian committee
	ActionTransfer          = 0x10 // credit an inbound transfer
)

// VAA is a Verifiable Action Approval: a guardian-signed statement that
// a given action may be applied.
// Format: [1B total length] [4B guardian set index] [96B signature] [payload]
// The total length includes the length byte itself.
type VAA struct {
	GuardianSetIndex uint32 // GuardianSetIndex names the signing set
	Signature        [VAASignatureSize]byte
	Payload          []byte
}

// ParseVAA decodes a vaa from posted bytes. Bytes past the declared
// length are ignored.
func ParseVAA(data []byte) (*VAA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty vaa:\n%w", ErrParseFailed)
	}

	total := int(data[0])
	if total < MinVAASize {
		return nil, fmt.Errorf("vaa length %d below minimum %d:\n%w", total, MinVAASize, ErrParseFailed)
	}
	if len(data) < total {
		return nil, fmt.Errorf("vaa truncated: declared %d, have %d:\n%w", total, len(data), ErrParseFailed)
	}

	v := &VAA{
		GuardianSetIndex: binary.BigEndian.Uint32(data[1:5]),
		Payload:          make([]byte, total-vaaHeaderSize),
	}
	copy(v.Signature[:], data[5:vaaHeaderSize])
	copy(v.Payload, data[vaaHeaderSize:total])

	return v, nil
}

// EncodeVAA serializes the vaa. Fails if the payload is empty or pushes
// the total size past MaxVAASize.
func EncodeVAA(v *VAA) ([]byte, error) {
	if len(v.Payload) == 0 {
		return nil, fmt.Errorf("empty vaa payload:\n%w", ErrParseFailed)
	}

	total := vaaHeaderSize + len(v.Payload)
	if total > MaxVAASize {
		return nil, fmt.Errorf("vaa size %d exceeds %d:\n%w", total, MaxVAASize, ErrParseFailed)
	}

	buf := make([]byte, total)
	buf[0] = byte(total)
	binary.BigEndian.PutUint32(buf[1:5], v.GuardianSetIndex)
	copy(buf[5:vaaHeaderSize], v.Signature[:])
	copy(buf[vaaHeaderSize:], v.Payload)

	return buf, nil
}

// PayloadDigest returns the digest guardians sign and the replay guard
// is keyed by: BLAKE3 over the payload bytes.
func PayloadDigest(payload []byte) [32]byte {
	return blake3.Sum256(payload)
}

// Digest returns the vaa's payload digest.
func (v *VAA) Digest() [32]byte {
	return PayloadDigest(v.Payload)
}

// Body is a decoded vaa payload.
type Body interface {
	Action() byte
}

// Payload body sizes.
const (
	bodyUpdateGuardianSetSize = 1 + 4 + GuardianKeySize
	bodyTransferSize          = 1 + 8 + 1 + 32 + 32 + 1
)

// BodyUpdateGuardianSet rotates the guardian committee to a new set.
type BodyUpdateGuardianSet struct {
	NewIndex uint32                // NewIndex must extend the rotation chain by one
	NewKey   [GuardianKeySize]byte // NewKey is the new set's aggregate verification key
}

// Action returns the payload action byte.
func (*BodyUpdateGuardianSet) Action() byte {
	return ActionUpdateGuardianSet
}

// EncodeBodyUpdateGuardianSet encodes a rotation payload.
// Format: [1B action] [4B newIndex] [48B key]
func EncodeBodyUpdateGuardianSet(b *BodyUpdateGuardianSet) []byte {
	buf := make([]byte, bodyUpdateGuardianSetSize)
	buf[0] = ActionUpdateGuardianSet
	binary.BigEndian.PutUint32(buf[1:5], b.NewIndex)
	copy(buf[5:53], b.NewKey[:])
	return buf
}

// ParseBodyUpdateGuardianSet decodes a rotation payload.
func ParseBodyUpdateGuardianSet(payload []byte) (*BodyUpdateGuardianSet, error) {
	if len(payload) != bodyUpdateGuardianSetSize {
		return nil, fmt.Errorf("guardian set update payload size %d, want %d:\n%w",
			len(payload), bodyUpdateGuardianSetSize, ErrParseFailed)
	}

	b := &BodyUpdateGuardianSet{
		NewIndex: binary.BigEndian.Uint32(payload[1:5]),
	}
	copy(b.NewKey[:], payload[5:53])

	return b, nil
}

// BodyTransfer credits tokens to a target account on the destination
// chain.
type BodyTransfer struct {
	Amount        uint64
	ChainID       uint8     // ChainID is the destination chain
	TargetAddress Address   // TargetAddress is the recipient token account
	Asset         AssetMeta // Asset is the transferred asset
}

// Action returns the payload action byte.
func (*BodyTransfer) Action() byte {
	return ActionTransfer
}

// EncodeBodyTransfer encodes a transfer payload.
// Format: [1B action] [8B amount] [1B chainID] [32B target] [32B assetAddr] [1B assetChain]
func EncodeBodyTransfer(b *BodyTransfer) []byte {
	buf := make([]byte, bodyTransferSize)
	buf[0] = ActionTransfer
	binary.BigEndian.PutUint64(buf[1:9], b.Amount)
	buf[9] = b.ChainID
	copy(buf[10:42], b.TargetAddress[:])
	copy(buf[42:74], b.Asset.Address[:])
	buf[74] = b.Asset.Chain
	return buf
}

// ParseBodyTransfer decodes a transfer payload.
func ParseBodyTransfer(payload []byte) (*BodyTransfer, error) {
	if len(payload) != bodyTransferSize {
		return nil, fmt.Errorf("transfer payload size %d, want %d:\n%w",
			len(payload), bodyTransferSize, ErrParseFailed)
	}

	b := &BodyTransfer{
		Amount:  binary.BigEndian.Uint64(payload[1:9]),
		ChainID: payload[9],
	}
	copy(b.TargetAddress[:], payload[10:42])
	copy(b.Asset.Address[:], payload[42:74])
	b.Asset.Chain = payload[74]

	return b, nil
}

// ParseBody decodes a vaa payload by its action byte. An empty payload
// is malformed; an unknown action is unsupported.
func ParseBody(payload []byte) (Body, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty vaa payload:\n%w", ErrParseFailed)
	}

	switch payload[0] {
	case ActionUpdateGuardianSet:
		return ParseBodyUpdateGuardianSet(payload)
	case ActionTransfer:
		return ParseBodyTransfer(payload)
	default:
		return nil, fmt.Errorf("action 0x%02x:\n%w", payload[0], ErrInvalidVAAAction)
	}
}
