package bridge

import (
	"fmt"

	"BlueBridge/internal/logger"
)

// initialize creates the bridge singleton and guardian set 0. The host
// executes against derived addresses, so the derivation checks of the
// account model hold structurally here; what remains is rejecting a
// second initialization.
func (p *Program) initialize(view AccountView, ix *InitializeInstruction) error {
	now := uint32(p.clock.Now().Unix())

	// 1. The bridge must not exist yet
	bridgeData, err := accountData(view, p.bridgeAddr, BridgeSize)
	if err != nil {
		return err
	}
	existing, err := DecodeBridgeUnchecked(bridgeData)
	if err != nil {
		return fmt.Errorf("bridge account:\n%w", err)
	}
	if existing.Initialized {
		return fmt.Errorf("bridge:\n%w", ErrAlreadyExists)
	}

	// 2. Guardian set 0 must not exist yet
	setAddr, err := DeriveGuardianSet(p.id, p.bridgeAddr, 0)
	if err != nil {
		return err
	}
	setData, err := accountData(view, setAddr, GuardianSetSize)
	if err != nil {
		return err
	}
	existingSet, err := DecodeGuardianSetUnchecked(setData)
	if err != nil {
		return fmt.Errorf("guardian set account:\n%w", err)
	}
	if existingSet.Initialized {
		return fmt.Errorf("guardian set 0:\n%w", ErrAlreadyExists)
	}

	// 3. Create guardian set 0. The active set carries no expiration;
	// it only expires when superseded.
	set := &GuardianSet{
		Index:        0,
		Key:          ix.GuardianKey,
		CreationTime: now,
		Initialized:  true,
	}
	view.SetAccount(setAddr, EncodeGuardianSet(set))

	// 4. Create the bridge singleton
	bridge := &Bridge{
		GuardianSetIndex: 0,
		Config: BridgeConfig{
			VAAExpirationWindow: ix.VAAExpirationWindow,
			TokenLedger:         ix.TokenLedger,
		},
		Initialized: true,
	}
	view.SetAccount(p.bridgeAddr, EncodeBridge(bridge))

	logger.Info("bridge initialized",
		"bridge", p.bridgeAddr.Short(),
		"guardianSet", setAddr.Short(),
		"window", ix.VAAExpirationWindow,
	)
	return nil
}

// applyGuardianSetUpdate rotates the committee. The signing set must be
// the active set and the new index must extend the chain by exactly one,
// keeping the set indices contiguous and gap-free.
func (p *Program) applyGuardianSetUpdate(view AccountView, bridge *Bridge, signingSet *GuardianSet, body *BodyUpdateGuardianSet, now uint32) error {
	// 1. Only the active set may authorize a rotation. Between two
	// competing rotations, the first to land wins; the second sees a
	// stale signing index.
	if bridge.GuardianSetIndex != signingSet.Index {
		return fmt.Errorf("signing set %d, active set %d:\n%w",
			signingSet.Index, bridge.GuardianSetIndex, ErrOldGuardianSet)
	}

	// 2. The new set extends the chain by one
	if body.NewIndex != bridge.GuardianSetIndex+1 {
		return fmt.Errorf("new index %d after active %d:\n%w",
			body.NewIndex, bridge.GuardianSetIndex, ErrGuardianIndexNotIncreasing)
	}

	// 3. The superseded set expires exactly one grace window from now
	signingSet.ExpirationTime = now + bridge.Config.VAAExpirationWindow
	signingSetAddr, err := DeriveGuardianSet(p.id, p.bridgeAddr, signingSet.Index)
	if err != nil {
		return err
	}
	view.SetAccount(signingSetAddr, EncodeGuardianSet(signingSet))

	// 4. The new set must not exist yet
	newAddr, err := DeriveGuardianSet(p.id, p.bridgeAddr, body.NewIndex)
	if err != nil {
		return err
	}
	newData, err := accountData(view, newAddr, GuardianSetSize)
	if err != nil {
		return err
	}
	existing, err := DecodeGuardianSetUnchecked(newData)
	if err != nil {
		return fmt.Errorf("new guardian set account:\n%w", err)
	}
	if existing.Initialized {
		return fmt.Errorf("guardian set %d:\n%w", body.NewIndex, ErrAlreadyExists)
	}

	// 5. Create the new set and hand over the active index
	newSet := &GuardianSet{
		Index:        body.NewIndex,
		Key:          body.NewKey,
		CreationTime: now,
		Initialized:  true,
	}
	view.SetAccount(newAddr, EncodeGuardianSet(newSet))

	bridge.GuardianSetIndex = body.NewIndex
	view.SetAccount(p.bridgeAddr, EncodeBridge(bridge))

	logger.Info("guardian set rotated",
		"from", signingSet.Index,
		"to", body.NewIndex,
		"graceUntil", signingSet.ExpirationTime,
	)
	return nil
}
