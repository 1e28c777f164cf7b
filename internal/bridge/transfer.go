package bridge

import (
	"fmt"

	"BlueBridge/internal/logger"
)

// transferOut starts an outbound transfer. The asset's home chain picks
// the variant: local assets are locked in custody, foreign assets are
// burned from their wrapped mint. Each variant then cross-checks the
// mint's authority and rejects a contradiction.
func (p *Program) transferOut(view AccountView, ix *TransferOutInstruction) error {
	// 1. The sender account must exist and hold the mint being moved
	sender, err := p.ledger.Account(view, ix.Sender)
	if err != nil {
		return fmt.Errorf("sender account:\n%w", err)
	}
	if sender == nil {
		return fmt.Errorf("sender account %s:\n%w", ix.Sender.Short(), ErrUninitializedState)
	}
	if sender.Mint != ix.Mint {
		return fmt.Errorf("sender holds %s, transferring %s:\n%w",
			sender.Mint.Short(), ix.Mint.Short(), ErrTokenMintMismatch)
	}

	// 2. The mint must exist
	mint, err := p.ledger.Mint(view, ix.Mint)
	if err != nil {
		return fmt.Errorf("mint account:\n%w", err)
	}
	if mint == nil {
		return fmt.Errorf("mint %s:\n%w", ix.Mint.Short(), ErrUninitializedState)
	}

	if ix.Asset.Chain == ChainIDLocal {
		return p.transferNativeOut(view, ix, sender, mint)
	}
	return p.transferWrappedOut(view, ix, sender, mint)
}

// transferWrappedOut burns wrapped tokens so the original asset can be
// released on its home chain.
func (p *Program) transferWrappedOut(view AccountView, ix *TransferOutInstruction, sender *TokenAccount, mint *TokenMint) error {
	// 1. Wrapped mints are issued by the bridge
	if mint.Authority != p.bridgeAddr {
		return fmt.Errorf("mint authority %s:\n%w", mint.Authority.Short(), ErrWrongMintOwner)
	}

	// 2. The mint must be the derived wrapped mint for the asset
	wrappedAddr, err := DeriveWrappedMint(p.id, p.bridgeAddr, ix.Asset)
	if err != nil {
		return err
	}
	if wrappedAddr != ix.Mint {
		return fmt.Errorf("mint %s, derived wrapped mint %s:\n%w",
			ix.Mint.Short(), wrappedAddr.Short(), ErrInvalidDerivedAccount)
	}

	// 3. New proposal at the derived transfer address
	proposalAddr, proposal, err := p.newProposal(view, ix, sender)
	if err != nil {
		return err
	}

	// 4. Burn the amount from the sender
	if err := p.ledger.Burn(view, ix.Sender, sender.Owner, ix.Amount); err != nil {
		return fmt.Errorf("burn %d from %s:\n%w", ix.Amount, ix.Sender.Short(), err)
	}

	// 5. Record the proposal with the asset exactly as supplied
	view.SetAccount(proposalAddr, EncodeTransferOutProposal(proposal))

	logger.Debug("wrapped transfer out",
		"proposal", proposalAddr.Short(),
		"amount", ix.Amount,
		"toChain", ix.DestinationChain,
	)
	return nil
}

// transferNativeOut locks local tokens in the bridge's custody account
// for the mint, creating the custody account on first use.
func (p *Program) transferNativeOut(view AccountView, ix *TransferOutInstruction, sender *TokenAccount, mint *TokenMint) error {
	// 1. A native asset's mint cannot be bridge-issued
	if mint.Authority == p.bridgeAddr {
		return fmt.Errorf("mint %s is bridge-issued:\n%w", ix.Mint.Short(), ErrWrongMintOwner)
	}

	// 2. New proposal at the derived transfer address
	proposalAddr, proposal, err := p.newProposal(view, ix, sender)
	if err != nil {
		return err
	}

	// 3. Custody account for the mint, created on first use. The custody
	// account owns itself: the derivation is the release capability.
	custodyAddr, err := DeriveCustody(p.id, p.bridgeAddr, ix.Mint)
	if err != nil {
		return err
	}

	custody, err := p.ledger.Account(view, custodyAddr)
	if err != nil {
		return fmt.Errorf("custody account:\n%w", err)
	}
	if custody == nil {
		if err := p.ledger.CreateAccount(view, custodyAddr, ix.Mint, custodyAddr); err != nil {
			return fmt.Errorf("create custody %s:\n%w", custodyAddr.Short(), err)
		}
		logger.Debug("custody account created", "custody", custodyAddr.Short(), "mint", ix.Mint.Short())
	} else if custody.Owner != custodyAddr {
		return fmt.Errorf("custody owner %s:\n%w", custody.Owner.Short(), ErrWrongTokenAccountOwner)
	}

	// 4. Move the amount into custody
	if err := p.ledger.Transfer(view, ix.Sender, custodyAddr, sender.Owner, ix.Amount); err != nil {
		return fmt.Errorf("transfer %d to custody:\n%w", ix.Amount, err)
	}

	// 5. The proposal records the local mint as the asset, whatever the
	// instruction claimed
	proposal.Asset = AssetMeta{Chain: ChainIDLocal, Address: ix.Mint}
	view.SetAccount(proposalAddr, EncodeTransferOutProposal(proposal))

	logger.Debug("native transfer out",
		"proposal", proposalAddr.Short(),
		"amount", ix.Amount,
		"custody", custodyAddr.Short(),
	)
	return nil
}

// newProposal derives the proposal address for this transfer's
// parameters at the current slot and builds the unrecorded proposal.
// An existing proposal at that address rejects the transfer.
func (p *Program) newProposal(view AccountView, ix *TransferOutInstruction, sender *TokenAccount) (Address, *TransferOutProposal, error) {
	slot := p.clock.Slot()

	addr, err := DeriveTransferProposal(p.id, p.bridgeAddr, ix.Asset,
		ix.DestinationChain, ix.DestinationAddress, sender.Owner, slot)
	if err != nil {
		return Address{}, nil, err
	}

	data, err := accountData(view, addr, TransferOutProposalSize)
	if err != nil {
		return Address{}, nil, err
	}
	existing, err := DecodeTransferOutProposalUnchecked(data)
	if err != nil {
		return Address{}, nil, fmt.Errorf("proposal account:\n%w", err)
	}
	if existing.Initialized {
		return Address{}, nil, fmt.Errorf("transfer proposal %s:\n%w", addr.Short(), ErrAlreadyExists)
	}

	proposal := &TransferOutProposal{
		Amount:         ix.Amount,
		ToChain:        ix.DestinationChain,
		ForeignAddress: ix.DestinationAddress,
		Asset:          ix.Asset,
		Initialized:    true,
	}
	return addr, proposal, nil
}
