package integration

import (
	"testing"

	"BlueBridge/client"
	"BlueBridge/internal/bridge"
)

const (
	// restartHTTPPort is the loopback port for the first node incarnation.
	restartHTTPPort = 18603

	// restartHTTPPort2 is the loopback port after the restart. A fresh
	// port keeps the second listener clear of the first one's teardown.
	restartHTTPPort2 = 18604

	// restartNumGuardians is the committee size.
	restartNumGuardians = 3

	// restartVAAWindow is the grace window in seconds.
	restartVAAWindow = 3600

	// restartFundAmount is the balance minted before the restart.
	restartFundAmount = 88_000
)

// TestE2ERestartPersistence restarts the node over the same data
// directory and checks that the bridge state survives and the revived
// node still executes.
func TestE2ERestartPersistence(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dataDir := t.TempDir()

	guardians := newCommittee(t, restartNumGuardians, 0x60)
	nextCommittee := newCommittee(t, restartNumGuardians, 0x70)

	mint := bridge.Address{0xC1, 0x01}
	authority := bridge.Address{0xC1, 0x02}
	holder := bridge.Address{0xC1, 0x03}
	holderOwner := bridge.Address{0xC1, 0x04}

	// Phase 1: First incarnation: initialize and fund
	node := startBridgeNodeAt(t, restartHTTPPort, dataDir)
	cli := node.Client(t)

	initializeBridge(t, cli, guardians, restartVAAWindow)
	provisionFunded(t, cli, mint, authority, holder, holderOwner, restartFundAmount)

	// Phase 2: Stop the node
	node.Stop(t)
	t.Log("Node stopped, restarting over the same directory")

	// Phase 3: Second incarnation over the same directory
	node = startBridgeNodeAt(t, restartHTTPPort2, dataDir)
	cli = node.Client(t)

	status, err := cli.Status()
	if err != nil {
		t.Fatalf("status after restart: %v", err)
	}
	if !status.Initialized {
		t.Fatal("bridge lost its initialization across the restart")
	}
	if status.VAAExpirationWindow != restartVAAWindow {
		t.Fatalf("vaa window after restart: got %d, want %d",
			status.VAAExpirationWindow, restartVAAWindow)
	}

	verifyGuardianSet(t, cli, 0, guardians)
	assertBalance(t, cli, holder, restartFundAmount)

	// Phase 4: The revived node still executes instructions
	signAndPost(t, cli,
		client.BuildGuardianSetUpdate(0, 1, committeeKey(t, nextCommittee)), guardians)

	status, err = cli.Status()
	if err != nil {
		t.Fatalf("status after rotation: %v", err)
	}
	if status.GuardianSetIndex != 1 {
		t.Fatalf("active set after rotation: got %d, want 1", status.GuardianSetIndex)
	}
}
