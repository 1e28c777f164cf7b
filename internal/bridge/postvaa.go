package bridge

import "fmt"

// postVAA runs the verification pipeline over a posted vaa and applies
// its payload: parse, load the signing set, temporal checks, signature
// check, dispatch, claim.
func (p *Program) postVAA(view AccountView, ix *PostVAAInstruction) error {
	vaa, err := ParseVAA(ix.VAA)
	if err != nil {
		return err
	}

	now := uint32(p.clock.Now().Unix())

	// 1. The bridge must be initialized
	bridgeData, err := accountData(view, p.bridgeAddr, BridgeSize)
	if err != nil {
		return err
	}
	bridge, err := DecodeBridge(bridgeData)
	if err != nil {
		return fmt.Errorf("bridge account:\n%w", err)
	}

	// 2. Load the signing guardian set. The stored index must match the
	// index the address was derived for; a disagreement means the account
	// does not belong where it sits.
	setAddr, err := DeriveGuardianSet(p.id, p.bridgeAddr, vaa.GuardianSetIndex)
	if err != nil {
		return err
	}
	setData, err := accountData(view, setAddr, GuardianSetSize)
	if err != nil {
		return err
	}
	guardianSet, err := DecodeGuardianSet(setData)
	if err != nil {
		return fmt.Errorf("guardian set %d:\n%w", vaa.GuardianSetIndex, err)
	}
	if guardianSet.Index != vaa.GuardianSetIndex {
		return fmt.Errorf("guardian set account holds index %d, derived for %d:\n%w",
			guardianSet.Index, vaa.GuardianSetIndex, ErrInvalidDerivedAccount)
	}

	// 3. A superseded set is only usable until its expiration
	if guardianSet.ExpirationTime != 0 && guardianSet.ExpirationTime < now {
		return fmt.Errorf("guardian set %d expired at %d, now %d:\n%w",
			guardianSet.Index, guardianSet.ExpirationTime, now, ErrGuardianSetExpired)
	}

	// 4. The vaa must not have outlived the grace window either
	if guardianSet.ExpirationTime != 0 && guardianSet.ExpirationTime+bridge.Config.VAAExpirationWindow < now {
		return fmt.Errorf("vaa past grace window of set %d:\n%w", guardianSet.Index, ErrVAAExpired)
	}

	// 5. The signature must verify against the set's key
	digest := vaa.Digest()
	if !p.verifier.Verify(vaa.Signature[:], digest[:], guardianSet.Key[:]) {
		return fmt.Errorf("guardian set %d:\n%w", guardianSet.Index, ErrInvalidVAASignature)
	}

	// 6. Apply the payload
	body, err := ParseBody(vaa.Payload)
	if err != nil {
		return err
	}

	switch body := body.(type) {
	case *BodyUpdateGuardianSet:
		err = p.applyGuardianSetUpdate(view, bridge, guardianSet, body, now)
	case *BodyTransfer:
		err = p.applyTransfer(view, body)
	default:
		err = fmt.Errorf("action 0x%02x:\n%w", body.Action(), ErrInvalidVAAAction)
	}
	if err != nil {
		return err
	}

	// 7. Record the claim. The check sits after payload application, but
	// the instruction commits as one batch, so a replay discards the
	// payload's effects along with everything else.
	claimAddr, err := DeriveClaim(p.id, p.bridgeAddr, digest)
	if err != nil {
		return err
	}
	claimData, err := accountData(view, claimAddr, ClaimedVAASize)
	if err != nil {
		return err
	}
	claim, err := DecodeClaimedVAAUnchecked(claimData)
	if err != nil {
		return fmt.Errorf("claim account:\n%w", err)
	}
	if claim.Initialized {
		return fmt.Errorf("digest %x:\n%w", digest[:8], ErrVAAClaimed)
	}

	claim.Hash = digest
	claim.VAATime = now
	claim.Initialized = true
	view.SetAccount(claimAddr, EncodeClaimedVAA(claim))

	return nil
}
