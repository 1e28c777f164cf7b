package bridge

import (
	"encoding/binary"
	"fmt"
)

// Instruction opcodes.
const (
	OpInitialize  = 0x00
	OpTransferOut = 0x01
	OpPostVAA     = 0x02
)

// Instruction sizes.
const (
	initializeInstructionSize  = 1 + 4 + 32 + GuardianKeySize
	transferOutInstructionSize = 1 + 8 + 1 + 32 + AssetMetaSize + 32 + 32
)

// Instruction is a decoded bridge instruction.
type Instruction interface {
	Op() byte
}

// InitializeInstruction creates the bridge singleton and guardian set 0.
type InitializeInstruction struct {
	VAAExpirationWindow uint32                // VAAExpirationWindow is the grace window in seconds
	TokenLedger         Address               // TokenLedger identifies the token ledger collaborator
	GuardianKey         [GuardianKeySize]byte // GuardianKey is guardian set 0's verification key
}

// Op returns the instruction opcode.
func (*InitializeInstruction) Op() byte {
	return OpInitialize
}

// EncodeInitialize encodes an initialize instruction.
// Format: [1B op] [4B window] [32B tokenLedger] [48B guardianKey]
func EncodeInitialize(ix *InitializeInstruction) []byte {
	buf := make([]byte, initializeInstructionSize)
	buf[0] = OpInitialize
	binary.BigEndian.PutUint32(buf[1:5], ix.VAAExpirationWindow)
	copy(buf[5:37], ix.TokenLedger[:])
	copy(buf[37:85], ix.GuardianKey[:])
	return buf
}

// DecodeInitialize decodes an initialize instruction.
func DecodeInitialize(data []byte) (*InitializeInstruction, error) {
	if len(data) != initializeInstructionSize {
		return nil, fmt.Errorf("initialize instruction size %d, want %d:\n%w",
			len(data), initializeInstructionSize, ErrParseFailed)
	}

	ix := &InitializeInstruction{
		VAAExpirationWindow: binary.BigEndian.Uint32(data[1:5]),
	}
	copy(ix.TokenLedger[:], data[5:37])
	copy(ix.GuardianKey[:], data[37:85])

	return ix, nil
}

// TransferOutInstruction starts an outbound transfer: native assets are
// locked in custody, foreign assets burned from their wrapped mint.
type TransferOutInstruction struct {
	Amount             uint64
	DestinationChain   uint8     // DestinationChain is the chain the tokens move to
	DestinationAddress Address   // DestinationAddress is the recipient on that chain
	Asset              AssetMeta // Asset is the asset being transferred
	Sender             Address   // Sender is the sender's token account
	Mint               Address   // Mint is the token mint being transferred
}

// Op returns the instruction opcode.
func (*TransferOutInstruction) Op() byte {
	return OpTransferOut
}

// EncodeTransferOut encodes a transfer-out instruction.
// Format: [1B op] [8B amount] [1B destChain] [32B destAddr] [32B assetAddr] [1B assetChain] [32B sender] [32B mint]
func EncodeTransferOut(ix *TransferOutInstruction) []byte {
	buf := make([]byte, transferOutInstructionSize)
	buf[0] = OpTransferOut
	binary.BigEndian.PutUint64(buf[1:9], ix.Amount)
	buf[9] = ix.DestinationChain
	copy(buf[10:42], ix.DestinationAddress[:])
	copy(buf[42:74], ix.Asset.Address[:])
	buf[74] = ix.Asset.Chain
	copy(buf[75:107], ix.Sender[:])
	copy(buf[107:139], ix.Mint[:])
	return buf
}

// DecodeTransferOut decodes a transfer-out instruction.
func DecodeTransferOut(data []byte) (*TransferOutInstruction, error) {
	if len(data) != transferOutInstructionSize {
		return nil, fmt.Errorf("transfer instruction size %d, want %d:\n%w",
			len(data), transferOutInstructionSize, ErrParseFailed)
	}

	ix := &TransferOutInstruction{
		Amount:           binary.BigEndian.Uint64(data[1:9]),
		DestinationChain: data[9],
	}
	copy(ix.DestinationAddress[:], data[10:42])
	copy(ix.Asset.Address[:], data[42:74])
	ix.Asset.Chain = data[74]
	copy(ix.Sender[:], data[75:107])
	copy(ix.Mint[:], data[107:139])

	return ix, nil
}

// PostVAAInstruction submits a guardian-signed vaa for verification and
// application.
type PostVAAInstruction struct {
	VAA []byte // VAA is the serialized vaa, self-delimiting
}

// Op returns the instruction opcode.
func (*PostVAAInstruction) Op() byte {
	return OpPostVAA
}

// EncodePostVAA encodes a post-vaa instruction.
// Format: [1B op] [vaa bytes]
func EncodePostVAA(ix *PostVAAInstruction) []byte {
	buf := make([]byte, 1+len(ix.VAA))
	buf[0] = OpPostVAA
	copy(buf[1:], ix.VAA)
	return buf
}

// DecodePostVAA decodes a post-vaa instruction. The vaa itself is
// validated later by ParseVAA.
func DecodePostVAA(data []byte) (*PostVAAInstruction, error) {
	if len(data) < 1+MinVAASize {
		return nil, fmt.Errorf("post-vaa instruction size %d, want at least %d:\n%w",
			len(data), 1+MinVAASize, ErrParseFailed)
	}

	ix := &PostVAAInstruction{
		VAA: make([]byte, len(data)-1),
	}
	copy(ix.VAA, data[1:])

	return ix, nil
}

// DecodeInstruction decodes any bridge instruction by its opcode.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty instruction:\n%w", ErrParseFailed)
	}

	switch data[0] {
	case OpInitialize:
		return DecodeInitialize(data)
	case OpTransferOut:
		return DecodeTransferOut(data)
	case OpPostVAA:
		return DecodePostVAA(data)
	default:
		return nil, fmt.Errorf("unknown opcode 0x%02x:\n%w", data[0], ErrParseFailed)
	}
}
