package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"

	"BlueBridge/internal/bridge"
)

// runCmd starts a bridge node.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a bridge node",
	Long: `Opens the account store, wires the bridge program, and serves the
HTTP API until interrupted.

With --bootstrap the node initializes the bridge singleton and guardian
set 0 on first start; --guardian-key must carry the committee key.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd, args)
	},
	RunE: runNode,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String(
		"data",
		"./data",
		"Data directory path")

	runCmd.Flags().String(
		"http",
		":8080",
		"HTTP API listen address")

	runCmd.Flags().String(
		"program-id",
		"",
		"Program identity as 64 hex chars (empty derives it from the module name)")

	runCmd.Flags().Bool(
		"bootstrap",
		false,
		"Initialize the bridge singleton if the store is empty")

	runCmd.Flags().String(
		"guardian-key",
		"",
		"Guardian set 0 committee key as 96 hex chars (required with --bootstrap)")

	runCmd.Flags().Uint32(
		"vaa-window",
		86400,
		"Grace window in seconds during which a superseded guardian set stays valid")

	runCmd.Flags().String(
		"token-ledger",
		"",
		"Token ledger identity recorded in the bridge config (64 hex chars)")

	viper.BindPFlag("data", runCmd.Flags().Lookup("data"))
	viper.BindPFlag("http", runCmd.Flags().Lookup("http"))
	viper.BindPFlag("program_id", runCmd.Flags().Lookup("program-id"))
	viper.BindPFlag("bootstrap", runCmd.Flags().Lookup("bootstrap"))
	viper.BindPFlag("guardian_key", runCmd.Flags().Lookup("guardian-key"))
	viper.BindPFlag("vaa_window", runCmd.Flags().Lookup("vaa-window"))
	viper.BindPFlag("token_ledger", runCmd.Flags().Lookup("token-ledger"))
}

// Config holds the node configuration.
type Config struct {
	// DataPath is the directory for persistent storage.
	DataPath string

	// HTTPAddress is the HTTP API listen address.
	HTTPAddress string

	// ProgramID is the program identity prefixing every derived address.
	ProgramID bridge.Address

	// Bootstrap initializes the bridge singleton on first start.
	Bootstrap bool

	// GuardianKey is guardian set 0's committee key, used at bootstrap.
	GuardianKey [bridge.GuardianKeySize]byte

	// VAAWindow is the grace window in seconds for superseded guardian sets.
	VAAWindow uint32

	// TokenLedger is the ledger identity recorded in the bridge config.
	TokenLedger bridge.Address
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	node, err := NewNode(cfg)
	if err != nil {
		return fmt.Errorf("create node:\n%w", err)
	}

	return node.Run()
}

// loadConfig reads the node configuration from viper.
func loadConfig() (*Config, error) {
	cfg := &Config{
		DataPath:    viper.GetString("data"),
		HTTPAddress: viper.GetString("http"),
		Bootstrap:   viper.GetBool("bootstrap"),
		VAAWindow:   viper.GetUint32("vaa_window"),
	}

	programID, err := parseProgramID(viper.GetString("program_id"))
	if err != nil {
		return nil, fmt.Errorf("invalid program id:\n%w", err)
	}
	cfg.ProgramID = programID

	if s := viper.GetString("token_ledger"); s != "" {
		cfg.TokenLedger, err = bridge.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("invalid token ledger:\n%w", err)
		}
	}

	if cfg.Bootstrap {
		keyHex := viper.GetString("guardian_key")
		if keyHex == "" {
			return nil, fmt.Errorf("bootstrap requires --guardian-key")
		}

		keyBytes, err := hex.DecodeString(keyHex)
		if err != nil || len(keyBytes) != bridge.GuardianKeySize {
			return nil, fmt.Errorf("invalid guardian key: %q", keyHex)
		}
		copy(cfg.GuardianKey[:], keyBytes)
	}

	return cfg, nil
}

// parseProgramID parses the program identity flag. An empty value derives
// a stable identity from the module name, so single-node deployments need
// no flag at all.
func parseProgramID(s string) (bridge.Address, error) {
	if s == "" {
		return bridge.Address(blake3.Sum256([]byte("BlueBridge"))), nil
	}

	return bridge.ParseAddress(s)
}
