package integration

import (
	"net/http"
	"testing"
	"time"

	"BlueBridge/client"
	"BlueBridge/internal/bridge"
)

const (
	// wrappedHTTPPort is the loopback port for the wrapped-asset test node.
	wrappedHTTPPort = 18602

	// wrappedNumGuardians is the committee size.
	wrappedNumGuardians = 5

	// wrappedVAAWindow is the grace window in seconds.
	wrappedVAAWindow = 3600

	// wrappedInAmount is the amount minted by the inbound transfer.
	wrappedInAmount = 750_000

	// wrappedBurnAmount is the amount burned when bridging back out.
	wrappedBurnAmount = 300_000

	// foreignChain is the asset's home chain id.
	foreignChain = 2
)

// TestE2EWrappedRoundTrip bridges a foreign asset in and back out: the
// inbound vaa mints on the wrapped mint, the outbound transfer burns and
// records a proposal naming the original asset.
func TestE2EWrappedRoundTrip(t *testing.T) {
	// Phase 1: Start node, initialize
	node := startBridgeNode(t, wrappedHTTPPort)
	cli := node.Client(t)

	guardians := newCommittee(t, wrappedNumGuardians, 0x50)
	initializeBridge(t, cli, guardians, wrappedVAAWindow)

	// Phase 2: Provision the wrapped mint and a holder
	asset := bridge.AssetMeta{Chain: foreignChain, Address: bridge.Address{0xEE, 0x01}}
	holder := bridge.Address{0xD0, 0x01}
	holderOwner := bridge.Address{0xD0, 0x02}

	wrapped := provisionWrapped(t, cli, asset, holder, holderOwner)
	t.Logf("Wrapped mint %s for asset %s on chain %d",
		wrapped.Short(), asset.Address.Short(), asset.Chain)

	// Phase 3: Inbound transfer mints on the wrapped mint
	vaa := client.BuildTransfer(0, wrappedInAmount, holder, asset)
	signAndPost(t, cli, vaa, guardians)

	assertBalance(t, cli, holder, wrappedInAmount)

	// Phase 4: Bridging back out burns from the holder
	ix := &bridge.TransferOutInstruction{
		Amount:             wrappedBurnAmount,
		DestinationChain:   foreignChain,
		DestinationAddress: bridge.Address{0xF0, 0x02},
		Asset:              asset,
		Sender:             holder,
		Mint:               wrapped,
	}

	before := time.Now().Unix()
	if err := cli.TransferOut(ix); err != nil {
		t.Fatalf("transfer out: %v", err)
	}

	assertBalance(t, cli, holder, wrappedInAmount-wrappedBurnAmount)

	// Phase 5: The proposal names the original asset
	proposal, proposalAddr := findProposal(t, cli, ix, holderOwner, before)

	if proposal.Amount != wrappedBurnAmount {
		t.Errorf("proposal amount: got %d, want %d", proposal.Amount, wrappedBurnAmount)
	}
	if proposal.ToChain != foreignChain {
		t.Errorf("proposal chain: got %d, want %d", proposal.ToChain, foreignChain)
	}
	if proposal.Asset.Chain != foreignChain || proposal.Asset.Address != asset.Address {
		t.Errorf("proposal asset: got chain %d address %s, want the foreign asset",
			proposal.Asset.Chain, proposal.Asset.Address.Short())
	}

	t.Logf("Burn proposal recorded at %s", proposalAddr.Short())

	// Phase 6: A tampered amount under the original signature must not verify
	forged := client.BuildTransfer(0, wrappedInAmount*10, holder, asset)
	forged.Signature = vaa.Signature

	err := cli.PostVAA(forged)
	if err == nil {
		t.Fatal("forged vaa accepted")
	}
	assertRejection(t, err, http.StatusUnprocessableEntity)

	assertBalance(t, cli, holder, wrappedInAmount-wrappedBurnAmount)

	// Phase 7: The burned remainder survives another inbound mint
	vaa = client.BuildTransfer(0, wrappedBurnAmount, holder, asset)
	signAndPost(t, cli, vaa, guardians)

	assertBalance(t, cli, holder, wrappedInAmount)
}
