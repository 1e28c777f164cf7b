package bridge

// GuardianKeySize is the size of a guardian set's aggregate verification
// key (BLS12-381 G1, compressed).
const GuardianKeySize = 48

// Record sizes in bytes. Account data must match its record size exactly.
const (
	AssetMetaSize           = 32 + 1
	BridgeConfigSize        = 4 + 32
	BridgeSize              = 4 + BridgeConfigSize + 1
	GuardianSetSize         = 4 + GuardianKeySize + 4 + 4 + 1
	TransferOutProposalSize = 8 + 1 + 32 + AssetMetaSize + MaxVAASize + 4 + 1
	ClaimedVAASize          = 32 + 4 + 1
)

// AssetMeta identifies an asset by its home chain and its 32-byte
// address on that chain. For local assets the address is the mint.
type AssetMeta struct {
	Address Address // Address is the asset address on its home chain
	Chain   uint8   // Chain is the asset's home chain id
}

// BridgeConfig is the operator-chosen configuration, fixed at
// initialization and never changed afterwards.
type BridgeConfig struct {
	VAAExpirationWindow uint32  // VAAExpirationWindow is the grace window in seconds
	TokenLedger         Address // TokenLedger identifies the token ledger collaborator
}

// Bridge is the singleton root account.
type Bridge struct {
	GuardianSetIndex uint32       // GuardianSetIndex names the active guardian set
	Config           BridgeConfig // Config is fixed at initialization
	Initialized      bool
}

// GuardianSet is one generation of the guardian committee. Indices are
// contiguous from 0; exactly one set is active at a time.
type GuardianSet struct {
	Index          uint32                // Index is the set's position in the rotation chain
	Key            [GuardianKeySize]byte // Key is the aggregate verification key
	CreationTime   uint32                // CreationTime is the unix time the set was created
	ExpirationTime uint32                // ExpirationTime is 0 until the set is superseded
	Initialized    bool
}

// TransferOutProposal records one outbound transfer awaiting guardian
// attestation on the destination chain. Proposals are never mutated
// after creation.
type TransferOutProposal struct {
	Amount         uint64
	ToChain        uint8            // ToChain is the destination chain id
	ForeignAddress Address          // ForeignAddress is the recipient on the destination chain
	Asset          AssetMeta        // Asset is the transferred asset; always the local mint on the native path
	VAA            [MaxVAASize]byte // VAA is reserved for the attested approval, zero at creation
	VAATime        uint32
	Initialized    bool
}

// ClaimedVAA marks a vaa digest as consumed. One claim record exists per
// applied vaa; its presence rejects every replay.
type ClaimedVAA struct {
	Hash        [32]byte // Hash is the vaa digest
	VAATime     uint32   // VAATime is the unix time the claim was recorded
	Initialized bool
}
