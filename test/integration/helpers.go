package integration

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"BlueBridge/client"
	"BlueBridge/internal/api"
	"BlueBridge/internal/bridge"
	"BlueBridge/internal/logger"
	"BlueBridge/internal/storage"
	"BlueBridge/internal/threshold"
	"BlueBridge/internal/token"
)

// testProgramID is the program identity every integration node runs under.
var testProgramID = bridge.Address{0xB7, 0x01}

// testTokenLedger is the token ledger identity recorded at initialization.
var testTokenLedger = bridge.Address{0x7E}

// httpClient is a shared HTTP client with timeout.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// BridgeNode is one in-process bridge node: pebble storage, the program,
// and its HTTP API on a loopback port.
type BridgeNode struct {
	httpAddr string           // httpAddr is the HTTP API address
	dataDir  string           // dataDir is the storage directory
	db       *storage.Storage // db is the node's persistent store
	program  *bridge.Program  // program is the transition engine
	server   *api.Server      // server is the running HTTP API
	stopped  bool             // stopped marks the node as shut down
}

// HTTPAddr returns the node's HTTP address.
func (n *BridgeNode) HTTPAddr() string { return n.httpAddr }

// Client creates a client connected to the node.
func (n *BridgeNode) Client(t *testing.T) *client.Client {
	t.Helper()

	cli, err := client.NewClient(n.httpAddr)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	return cli
}

// Stop shuts the node down and releases its storage. Safe to call twice;
// the cleanup registered at start would otherwise collide with restart
// tests stopping nodes themselves.
func (n *BridgeNode) Stop(t *testing.T) {
	t.Helper()

	if n.stopped {
		return
	}
	n.stopped = true

	if err := n.server.Stop(); err != nil {
		t.Logf("stop api: %v", err)
	}
	if err := n.db.Close(); err != nil {
		t.Logf("close storage: %v", err)
	}
}

// startBridgeNode starts a node on the given loopback port with a fresh
// data directory. Each test uses its own port so a listener still
// draining from the previous test cannot collide with the next one.
func startBridgeNode(t *testing.T, port int) *BridgeNode {
	t.Helper()
	return startBridgeNodeAt(t, port, t.TempDir())
}

// startBridgeNodeAt starts a node over an existing data directory and
// registers cleanup.
func startBridgeNodeAt(t *testing.T, port int, dataDir string) *BridgeNode {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	logger.Init()

	db, err := storage.New(dataDir)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}

	store := bridge.NewStore(db)
	ledger := token.NewLedger()
	clock := bridge.SystemClock{}

	program, err := bridge.NewProgram(testProgramID, store, ledger, clock, threshold.NewVerifier())
	if err != nil {
		db.Close()
		t.Fatalf("create program: %v", err)
	}

	node := &BridgeNode{
		httpAddr: fmt.Sprintf("127.0.0.1:%d", port),
		dataDir:  dataDir,
		db:       db,
		program:  program,
		server:   api.New(fmt.Sprintf("127.0.0.1:%d", port), program, program, ledger, clock),
	}

	if err := node.server.Start(); err != nil {
		db.Close()
		t.Fatalf("start api: %v", err)
	}
	t.Cleanup(func() { node.Stop(t) })

	waitForNode(t, node.httpAddr, 5*time.Second)

	return node
}

// waitForNode polls /health until the HTTP API answers.
func waitForNode(t *testing.T, addr string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := httpClient.Get("http://" + addr + "/health")
		if err == nil {
			drainClose(resp.Body)

			if resp.StatusCode == http.StatusOK {
				return
			}
		}

		time.Sleep(50 * time.Millisecond)
	}

	t.Fatalf("node %s did not become ready within %v", addr, timeout)
}

// drainClose fully reads and closes a response body so the underlying
// connection can be reused.
func drainClose(body io.ReadCloser) {
	io.Copy(io.Discard, body)
	body.Close()
}
