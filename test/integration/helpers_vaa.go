package integration

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"BlueBridge/client"
	"BlueBridge/internal/bridge"
)

// newCommittee derives size guardians from fixed seeds. generation keys
// the seed range so tests can build distinct committees deterministically.
func newCommittee(t *testing.T, size int, generation byte) []*client.Guardian {
	t.Helper()

	guardians := make([]*client.Guardian, size)

	for i := range guardians {
		seed := bytes.Repeat([]byte{generation + byte(i)}, 32)

		g, err := client.NewGuardianFromSeed(seed)
		if err != nil {
			t.Fatalf("guardian %d: %v", i, err)
		}

		guardians[i] = g
	}

	return guardians
}

// committeeKey aggregates a committee's verification key.
func committeeKey(t *testing.T, guardians []*client.Guardian) [bridge.GuardianKeySize]byte {
	t.Helper()

	key, err := client.CommitteeKey(guardians)
	if err != nil {
		t.Fatalf("committee key: %v", err)
	}

	return key
}

// initializeBridge initializes the node's bridge under the committee's
// key and verifies the reported status.
func initializeBridge(t *testing.T, cli *client.Client, guardians []*client.Guardian, window uint32) {
	t.Helper()

	if err := cli.Initialize(window, testTokenLedger, committeeKey(t, guardians)); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	status, err := cli.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	if !status.Initialized {
		t.Fatal("bridge not initialized after initialize")
	}
	if status.GuardianSetIndex != 0 {
		t.Fatalf("guardian set index: got %d, want 0", status.GuardianSetIndex)
	}
	if status.VAAExpirationWindow != window {
		t.Fatalf("vaa window: got %d, want %d", status.VAAExpirationWindow, window)
	}
}

// verifyGuardianSet checks that the stored set at index carries the
// committee's aggregate key.
func verifyGuardianSet(t *testing.T, cli *client.Client, index uint32, guardians []*client.Guardian) {
	t.Helper()

	set, err := cli.GuardianSet(index)
	if err != nil {
		t.Fatalf("guardian set %d: %v", index, err)
	}

	if set.Key != committeeKey(t, guardians) {
		t.Fatalf("guardian set %d does not carry the committee key", index)
	}
	if set.CreationTime == 0 {
		t.Fatalf("guardian set %d has no creation time", index)
	}
}

// signAndPost signs the vaa with the committee and posts it.
func signAndPost(t *testing.T, cli *client.Client, vaa *bridge.VAA, guardians []*client.Guardian) {
	t.Helper()

	if err := client.SignVAA(vaa, guardians); err != nil {
		t.Fatalf("sign vaa: %v", err)
	}

	if err := cli.PostVAA(vaa); err != nil {
		t.Fatalf("post vaa: %v", err)
	}
}

// postExpectReject signs and posts a vaa the bridge must refuse, and
// returns the rejection.
func postExpectReject(t *testing.T, cli *client.Client, vaa *bridge.VAA, guardians []*client.Guardian) error {
	t.Helper()

	if err := client.SignVAA(vaa, guardians); err != nil {
		t.Fatalf("sign vaa: %v", err)
	}

	err := cli.PostVAA(vaa)
	if err == nil {
		t.Fatal("vaa accepted, expected rejection")
	}

	return err
}

// assertRejection checks that a rejection carried the expected HTTP status.
func assertRejection(t *testing.T, err error, status int) {
	t.Helper()

	if !strings.Contains(err.Error(), fmt.Sprintf("status %d", status)) {
		t.Fatalf("expected status %d rejection, got: %v", status, err)
	}
}

// assertBalance verifies a token account's balance through the API.
func assertBalance(t *testing.T, cli *client.Client, addr bridge.Address, want uint64) {
	t.Helper()

	account, err := cli.TokenAccount(addr)
	if err != nil {
		t.Fatalf("token account %s: %v", addr.Short(), err)
	}

	if account.Balance != want {
		t.Fatalf("balance of %s: got %d, want %d", addr.Short(), account.Balance, want)
	}
}

// provisionFunded creates a mint and a funded token account through the
// operator endpoints.
func provisionFunded(t *testing.T, cli *client.Client, mint, authority, account, owner bridge.Address, amount uint64) {
	t.Helper()

	if err := cli.CreateMint(mint, authority, 6); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	if err := cli.CreateTokenAccount(account, mint, owner); err != nil {
		t.Fatalf("create token account: %v", err)
	}
	if err := cli.MintTo(mint, account, authority, amount); err != nil {
		t.Fatalf("mint to: %v", err)
	}

	assertBalance(t, cli, account, amount)
}

// provisionWrapped provisions the derived wrapped mint for a foreign
// asset plus a target account holding it, and returns the mint address.
func provisionWrapped(t *testing.T, cli *client.Client, asset bridge.AssetMeta, target, owner bridge.Address) bridge.Address {
	t.Helper()

	wrapped, err := cli.WrappedMint(asset)
	if err != nil {
		t.Fatalf("derive wrapped mint: %v", err)
	}

	if err := cli.CreateMint(wrapped, cli.BridgeAddress(), bridge.WrappedDecimals); err != nil {
		t.Fatalf("create wrapped mint: %v", err)
	}
	if err := cli.CreateTokenAccount(target, wrapped, owner); err != nil {
		t.Fatalf("create target account: %v", err)
	}

	return wrapped
}

// findProposal locates the proposal a transfer created. The address is
// derived from the slot the node stamped at execution, so the helper
// scans a few slots around the submission time.
func findProposal(t *testing.T, cli *client.Client, ix *bridge.TransferOutInstruction, senderOwner bridge.Address, around int64) (*client.ProposalInfo, bridge.Address) {
	t.Helper()

	for slot := around - 1; slot <= around+2; slot++ {
		addr, err := cli.ProposalAddress(ix, senderOwner, uint64(slot))
		if err != nil {
			t.Fatalf("derive proposal address: %v", err)
		}

		info, err := cli.Proposal(addr)
		if err == nil {
			return info, addr
		}
	}

	t.Fatalf("no proposal found within slots [%d, %d]", around-1, around+2)

	return nil, bridge.Address{}
}
