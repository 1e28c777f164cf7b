package bridge

import (
	"fmt"

	"BlueBridge/internal/logger"
)

// Program hosts the transition logic: it decodes instructions, applies
// them against the account store through an overlay view, and commits
// all writes of a successful application as one atomic batch. A failed
// instruction leaves the store untouched.
//
// Execute is not safe for concurrent use; the caller serializes.
type Program struct {
	id         Address // program identity, prefix of every derivation
	bridgeAddr Address // derived bridge singleton address
	store      *Store
	ledger     TokenLedger
	clock      Clock
	verifier   SignatureVerifier
}

// NewProgram wires the transition core to its collaborators.
func NewProgram(id Address, store *Store, ledger TokenLedger, clock Clock, verifier SignatureVerifier) (*Program, error) {
	bridgeAddr, err := DeriveBridge(id)
	if err != nil {
		return nil, fmt.Errorf("derive bridge address:\n%w", err)
	}

	return &Program{
		id:         id,
		bridgeAddr: bridgeAddr,
		store:      store,
		ledger:     ledger,
		clock:      clock,
		verifier:   verifier,
	}, nil
}

// ID returns the program identity.
func (p *Program) ID() Address {
	return p.id
}

// BridgeAddress returns the derived bridge singleton address.
func (p *Program) BridgeAddress() Address {
	return p.bridgeAddr
}

// Store returns the underlying account store.
func (p *Program) Store() *Store {
	return p.store
}

// Execute applies one encoded instruction atomically.
func (p *Program) Execute(data []byte) error {
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}

	view := p.store.NewView()

	switch ix := ix.(type) {
	case *InitializeInstruction:
		err = p.initialize(view, ix)
	case *TransferOutInstruction:
		err = p.transferOut(view, ix)
	case *PostVAAInstruction:
		err = p.postVAA(view, ix)
	default:
		err = fmt.Errorf("unhandled opcode 0x%02x:\n%w", ix.Op(), ErrParseFailed)
	}
	if err != nil {
		return err
	}

	if err := view.Commit(); err != nil {
		return err
	}

	logger.Debug("instruction applied", "op", OpName(ix.Op()), "writes", view.Dirty())
	return nil
}

// OpName returns a readable name for an instruction opcode.
func OpName(op byte) string {
	switch op {
	case OpInitialize:
		return "initialize"
	case OpTransferOut:
		return "transfer_out"
	case OpPostVAA:
		return "post_vaa"
	default:
		return fmt.Sprintf("op_0x%02x", op)
	}
}

// Status summarizes the bridge state for inspection.
type Status struct {
	ProgramID           Address
	BridgeAddress       Address
	Initialized         bool
	GuardianSetIndex    uint32
	VAAExpirationWindow uint32
	TokenLedger         Address
}

// Status reads the bridge singleton. An uninitialized bridge reports
// Initialized false with zero values.
func (p *Program) Status() (*Status, error) {
	status := &Status{
		ProgramID:     p.id,
		BridgeAddress: p.bridgeAddr,
	}

	data, err := p.store.Account(p.bridgeAddr)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return status, nil
	}

	bridge, err := DecodeBridgeUnchecked(data)
	if err != nil {
		return nil, fmt.Errorf("bridge account:\n%w", err)
	}

	status.Initialized = bridge.Initialized
	status.GuardianSetIndex = bridge.GuardianSetIndex
	status.VAAExpirationWindow = bridge.Config.VAAExpirationWindow
	status.TokenLedger = bridge.Config.TokenLedger

	return status, nil
}

// GuardianSet reads the guardian set with the given index together with
// its derived address.
func (p *Program) GuardianSet(index uint32) (*GuardianSet, Address, error) {
	addr, err := DeriveGuardianSet(p.id, p.bridgeAddr, index)
	if err != nil {
		return nil, Address{}, err
	}

	data, err := accountData(p.store, addr, GuardianSetSize)
	if err != nil {
		return nil, addr, err
	}

	set, err := DecodeGuardianSet(data)
	if err != nil {
		return nil, addr, fmt.Errorf("guardian set %d:\n%w", index, err)
	}
	return set, addr, nil
}

// Proposal reads the transfer proposal at the given address.
func (p *Program) Proposal(addr Address) (*TransferOutProposal, error) {
	data, err := accountData(p.store, addr, TransferOutProposalSize)
	if err != nil {
		return nil, err
	}

	proposal, err := DecodeTransferOutProposal(data)
	if err != nil {
		return nil, fmt.Errorf("proposal %s:\n%w", addr.Short(), err)
	}
	return proposal, nil
}

// Claimed reports whether a vaa digest has been claimed.
func (p *Program) Claimed(digest [32]byte) (bool, error) {
	addr, err := DeriveClaim(p.id, p.bridgeAddr, digest)
	if err != nil {
		return false, err
	}

	data, err := p.store.Account(addr)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	claim, err := DecodeClaimedVAAUnchecked(data)
	if err != nil {
		return false, fmt.Errorf("claim account:\n%w", err)
	}
	return claim.Initialized, nil
}
