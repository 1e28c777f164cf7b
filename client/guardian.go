package client

import (
	"fmt"

	"BlueBridge/internal/bridge"
	"BlueBridge/internal/threshold"
)

// Guardian holds one committee member's signing key.
type Guardian struct {
	key *threshold.KeyPair
}

// NewGuardian creates a guardian with a fresh random key.
func NewGuardian() (*Guardian, error) {
	key, err := threshold.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate guardian key:\n%w", err)
	}

	return &Guardian{key: key}, nil
}

// NewGuardianFromSeed derives a guardian deterministically from a seed.
func NewGuardianFromSeed(seed []byte) (*Guardian, error) {
	key, err := threshold.GenerateKeyFromSeed(seed)
	if err != nil {
		return nil, fmt.Errorf("derive guardian key:\n%w", err)
	}

	return &Guardian{key: key}, nil
}

// PublicKey returns the guardian's public key.
func (g *Guardian) PublicKey() []byte {
	return g.key.PublicKeyBytes()
}

// CommitteeKey aggregates the guardians' public keys into the committee
// verification key recorded in a guardian set.
func CommitteeKey(guardians []*Guardian) ([bridge.GuardianKeySize]byte, error) {
	var key [bridge.GuardianKeySize]byte

	if len(guardians) == 0 {
		return key, fmt.Errorf("empty committee")
	}

	pks := make([][]byte, len(guardians))
	for i, g := range guardians {
		pks[i] = g.PublicKey()
	}

	agg, err := threshold.AggregatePublicKeys(pks)
	if err != nil {
		return key, fmt.Errorf("aggregate committee key:\n%w", err)
	}

	copy(key[:], agg)

	return key, nil
}

// BuildGuardianSetUpdate builds an unsigned vaa rotating the committee
// to newIndex under newKey. setIndex names the currently signing set.
func BuildGuardianSetUpdate(setIndex, newIndex uint32, newKey [bridge.GuardianKeySize]byte) *bridge.VAA {
	return &bridge.VAA{
		GuardianSetIndex: setIndex,
		Payload: bridge.EncodeBodyUpdateGuardianSet(&bridge.BodyUpdateGuardianSet{
			NewIndex: newIndex,
			NewKey:   newKey,
		}),
	}
}

// BuildTransfer builds an unsigned vaa crediting amount of asset to a
// local target token account.
func BuildTransfer(setIndex uint32, amount uint64, target bridge.Address, asset bridge.AssetMeta) *bridge.VAA {
	return &bridge.VAA{
		GuardianSetIndex: setIndex,
		Payload: bridge.EncodeBodyTransfer(&bridge.BodyTransfer{
			Amount:        amount,
			ChainID:       bridge.ChainIDLocal,
			TargetAddress: target,
			Asset:         asset,
		}),
	}
}

// SignVAA signs the vaa's payload digest with every guardian and stores
// the aggregate signature in place. The bridge verifies it against the
// committee key of the set the vaa names.
func SignVAA(vaa *bridge.VAA, guardians []*Guardian) error {
	if len(guardians) == 0 {
		return fmt.Errorf("empty committee")
	}

	digest := bridge.PayloadDigest(vaa.Payload)

	sigs := make([][]byte, len(guardians))
	for i, g := range guardians {
		sigs[i] = g.key.Sign(digest[:])
	}

	agg, err := threshold.AggregateSignatures(sigs)
	if err != nil {
		return fmt.Errorf("aggregate signatures:\n%w", err)
	}

	copy(vaa.Signature[:], agg)

	return nil
}
