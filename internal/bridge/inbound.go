package bridge

import (
	"fmt"

	"BlueBridge/internal/logger"
)

// WrappedDecimals is the precision of bridge-issued wrapped mints. The
// transfer payload carries no decimals, so every wrapped mint uses the
// bridge's canonical precision.
const WrappedDecimals = 8

// applyTransfer credits a verified inbound transfer: foreign assets are
// minted on their wrapped mint, local assets released from custody. The
// target token account must already exist; the bridge does not know who
// should own it.
func (p *Program) applyTransfer(view AccountView, body *BodyTransfer) error {
	// Only transfers destined for this chain can be applied here
	if body.ChainID != ChainIDLocal {
		return fmt.Errorf("transfer destined for chain %d:\n%w", body.ChainID, ErrInvalidVAAAction)
	}

	if body.Asset.Chain == ChainIDLocal {
		return p.releaseNative(view, body)
	}
	return p.mintWrapped(view, body)
}

// mintWrapped issues wrapped tokens for a foreign asset, creating the
// wrapped mint on first use with the bridge as its authority.
func (p *Program) mintWrapped(view AccountView, body *BodyTransfer) error {
	// 1. The wrapped mint lives at its derived address
	wrappedAddr, err := DeriveWrappedMint(p.id, p.bridgeAddr, body.Asset)
	if err != nil {
		return err
	}

	mint, err := p.ledger.Mint(view, wrappedAddr)
	if err != nil {
		return fmt.Errorf("wrapped mint:\n%w", err)
	}
	if mint == nil {
		if err := p.ledger.CreateMint(view, wrappedAddr, p.bridgeAddr, WrappedDecimals); err != nil {
			return fmt.Errorf("create wrapped mint %s:\n%w", wrappedAddr.Short(), err)
		}
		logger.Debug("wrapped mint created",
			"mint", wrappedAddr.Short(),
			"assetChain", body.Asset.Chain,
			"asset", body.Asset.Address.Short(),
		)
	} else if mint.Authority != p.bridgeAddr {
		return fmt.Errorf("wrapped mint authority %s:\n%w", mint.Authority.Short(), ErrWrongMintOwner)
	}

	// 2. The recipient must exist and hold the wrapped mint
	target, err := p.ledger.Account(view, body.TargetAddress)
	if err != nil {
		return fmt.Errorf("target account:\n%w", err)
	}
	if target == nil {
		return fmt.Errorf("target account %s:\n%w", body.TargetAddress.Short(), ErrUninitializedState)
	}
	if target.Mint != wrappedAddr {
		return fmt.Errorf("target holds %s, want %s:\n%w",
			target.Mint.Short(), wrappedAddr.Short(), ErrTokenMintMismatch)
	}

	// 3. Issue the amount
	if err := p.ledger.MintTo(view, wrappedAddr, body.TargetAddress, p.bridgeAddr, body.Amount); err != nil {
		return fmt.Errorf("mint %d to %s:\n%w", body.Amount, body.TargetAddress.Short(), err)
	}

	logger.Debug("wrapped transfer in",
		"target", body.TargetAddress.Short(),
		"amount", body.Amount,
	)
	return nil
}

// releaseNative pays a previously locked local asset out of custody.
func (p *Program) releaseNative(view AccountView, body *BodyTransfer) error {
	mintAddr := body.Asset.Address

	// 1. The custody account must exist and own itself
	custodyAddr, err := DeriveCustody(p.id, p.bridgeAddr, mintAddr)
	if err != nil {
		return err
	}

	custody, err := p.ledger.Account(view, custodyAddr)
	if err != nil {
		return fmt.Errorf("custody account:\n%w", err)
	}
	if custody == nil {
		return fmt.Errorf("custody %s:\n%w", custodyAddr.Short(), ErrUninitializedState)
	}
	if custody.Owner != custodyAddr {
		return fmt.Errorf("custody owner %s:\n%w", custody.Owner.Short(), ErrWrongTokenAccountOwner)
	}

	// 2. The recipient must exist and hold the released mint
	target, err := p.ledger.Account(view, body.TargetAddress)
	if err != nil {
		return fmt.Errorf("target account:\n%w", err)
	}
	if target == nil {
		return fmt.Errorf("target account %s:\n%w", body.TargetAddress.Short(), ErrUninitializedState)
	}
	if target.Mint != mintAddr {
		return fmt.Errorf("target holds %s, want %s:\n%w",
			target.Mint.Short(), mintAddr.Short(), ErrTokenMintMismatch)
	}

	// 3. Release from custody; the custody address authorizes itself
	if err := p.ledger.Transfer(view, custodyAddr, body.TargetAddress, custodyAddr, body.Amount); err != nil {
		return fmt.Errorf("release %d from custody:\n%w", body.Amount, err)
	}

	logger.Debug("native transfer in",
		"target", body.TargetAddress.Short(),
		"amount", body.Amount,
		"custody", custodyAddr.Short(),
	)
	return nil
}
