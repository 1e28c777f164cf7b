package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"
)

// Seed domain tags. Each derived address family carries its own literal
// tag so addresses from different families can never collide. Guardian
// sets are the exception: they are keyed by bridge address and index
// alone, matching the account layout the rest of the system expects.
const (
	seedBridge   = "bridge"
	seedCustody  = "custody"
	seedClaim    = "claim"
	seedWrapped  = "wrapped"
	seedTransfer = "transfer"
)

// maxSeedLen bounds a single seed component; the length prefix is one byte.
const maxSeedLen = 255

// deriveAddress hashes the program id and the seed components into an
// account address.
// Preimage: [32B programID] [1B count] ([1B len] [NB component])*
func deriveAddress(programID Address, seeds ...[]byte) (Address, error) {
	if len(seeds) > maxSeedLen {
		return Address{}, fmt.Errorf("%d seed components:\n%w", len(seeds), ErrInvalidProgramAddress)
	}

	buf := make([]byte, 0, 128)
	buf = append(buf, programID[:]...)
	buf = append(buf, byte(len(seeds)))

	for _, seed := range seeds {
		if len(seed) > maxSeedLen {
			return Address{}, fmt.Errorf("seed component of %d bytes:\n%w", len(seed), ErrInvalidProgramAddress)
		}
		buf = append(buf, byte(len(seed)))
		buf = append(buf, seed...)
	}

	return Address(blake3.Sum256(buf)), nil
}

// DeriveBridge derives the bridge singleton address.
func DeriveBridge(programID Address) (Address, error) {
	return deriveAddress(programID, []byte(seedBridge))
}

// DeriveGuardianSet derives the address of the guardian set with the
// given index.
func DeriveGuardianSet(programID, bridge Address, index uint32) (Address, error) {
	idx := make([]byte, 4)
	binary.BigEndian.PutUint32(idx, index)
	return deriveAddress(programID, bridge[:], idx)
}

// DeriveCustody derives the custody token account address holding the
// locked balance of a native mint.
func DeriveCustody(programID, bridge, mint Address) (Address, error) {
	return deriveAddress(programID, []byte(seedCustody), bridge[:], mint[:])
}

// DeriveClaim derives the claim record address for a vaa digest.
func DeriveClaim(programID, bridge Address, digest [32]byte) (Address, error) {
	return deriveAddress(programID, []byte(seedClaim), bridge[:], digest[:])
}

// DeriveWrappedMint derives the wrapped mint address for a foreign asset.
func DeriveWrappedMint(programID, bridge Address, asset AssetMeta) (Address, error) {
	return deriveAddress(programID, []byte(seedWrapped), bridge[:], []byte{asset.Chain}, asset.Address[:])
}

// DeriveTransferProposal derives the outbound transfer proposal address.
// The sender and slot components keep concurrent transfers with the same
// parameters apart across slots; within one slot they collide.
func DeriveTransferProposal(programID, bridge Address, asset AssetMeta, targetChain uint8, target, sender Address, slot uint64) (Address, error) {
	slotBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(slotBuf, slot)
	return deriveAddress(programID,
		[]byte(seedTransfer),
		bridge[:],
		[]byte{asset.Chain},
		asset.Address[:],
		[]byte{targetChain},
		target[:],
		sender[:],
		slotBuf,
	)
}
