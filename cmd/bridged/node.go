package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"BlueBridge/internal/api"
	"BlueBridge/internal/bridge"
	"BlueBridge/internal/logger"
	"BlueBridge/internal/metrics"
	"BlueBridge/internal/storage"
	"BlueBridge/internal/threshold"
	"BlueBridge/internal/token"
)

// Node wires storage, the bridge program, and the HTTP API.
type Node struct {
	cfg     *Config
	db      *storage.Storage
	program *bridge.Program
	exec    *meteredExecutor
	api     *api.Server
}

// NewNode builds a node from config.
func NewNode(cfg *Config) (*Node, error) {
	db, err := storage.New(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open storage:\n%w", err)
	}

	store := bridge.NewStore(db)
	ledger := token.NewLedger()
	clock := bridge.SystemClock{}

	program, err := bridge.NewProgram(cfg.ProgramID, store, ledger, clock, threshold.NewVerifier())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create program:\n%w", err)
	}

	exec := &meteredExecutor{
		program: program,
		metrics: metrics.New("bridge"),
	}

	return &Node{
		cfg:     cfg,
		db:      db,
		program: program,
		exec:    exec,
		api:     api.New(cfg.HTTPAddress, exec, program, ledger, clock),
	}, nil
}

// Run starts the node and blocks until SIGINT or SIGTERM.
func (n *Node) Run() error {
	if n.cfg.Bootstrap {
		if err := n.bootstrap(); err != nil {
			return fmt.Errorf("bootstrap:\n%w", err)
		}
	}

	if err := n.api.Start(); err != nil {
		return fmt.Errorf("start api:\n%w", err)
	}

	logger.Info("bridge node running",
		"programId", n.program.ID().Short(),
		"bridge", n.program.BridgeAddress().Short(),
		"http", n.cfg.HTTPAddress,
		"data", n.cfg.DataPath,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")

	return n.Stop()
}

// bootstrap initializes the bridge unless it already exists.
func (n *Node) bootstrap() error {
	status, err := n.program.Status()
	if err != nil {
		return err
	}

	if status.Initialized {
		logger.Info("bridge already initialized", "guardianSetIndex", status.GuardianSetIndex)
		return nil
	}

	ix := bridge.EncodeInitialize(&bridge.InitializeInstruction{
		VAAExpirationWindow: n.cfg.VAAWindow,
		TokenLedger:         n.cfg.TokenLedger,
		GuardianKey:         n.cfg.GuardianKey,
	})

	if err := n.exec.Execute(ix); err != nil {
		return err
	}

	logger.Info("bridge initialized", "window", n.cfg.VAAWindow)

	return nil
}

// Stop shuts down the API and closes storage.
func (n *Node) Stop() error {
	if err := n.api.Stop(); err != nil {
		logger.Error("stop api", "error", err)
	}

	if err := n.db.Close(); err != nil {
		return fmt.Errorf("close storage:\n%w", err)
	}

	logger.Sync()

	return nil
}

// slowInstruction is the application latency above which an instruction
// is logged. Normal applications finish within a few milliseconds.
const slowInstruction = 500 * time.Millisecond

// meteredExecutor decorates program execution with metrics.
type meteredExecutor struct {
	program *bridge.Program
	metrics *metrics.Metrics
}

// Execute applies one instruction and records its outcome.
func (e *meteredExecutor) Execute(data []byte) error {
	start := time.Now()

	op := "unknown"
	if len(data) > 0 {
		op = bridge.OpName(data[0])
	}

	if err := e.program.Execute(data); err != nil {
		e.metrics.Failed(op)
		return err
	}

	e.metrics.Applied(op, float64(time.Since(start).Microseconds())/1000)
	if time.Since(start) > slowInstruction {
		logger.Warn("slow instruction", "op", op, logger.Timed(start))
	}

	if status, err := e.program.Status(); err == nil {
		e.metrics.SetGuardianSetIndex(status.GuardianSetIndex)
	}

	return nil
}
