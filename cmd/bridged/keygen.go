package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"BlueBridge/internal/bridge"
	"BlueBridge/internal/threshold"
)

// keygenCmd generates a guardian signing key.
var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a guardian signing key",
	Long: `Generates a BLS signing key for a guardian and prints its public key.
With --out the 32-byte seed is written to a file; the same seed always
derives the same key.`,
	RunE: runKeygen,
}

// committeeCmd aggregates guardian public keys into a committee key.
var committeeCmd = &cobra.Command{
	Use:   "committee <pubkey>...",
	Short: "Aggregate guardian public keys into a committee key",
	Long: `Aggregates hex-encoded guardian public keys into the committee key
that initialize and guardian set rotations record on the bridge.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommittee,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(committeeCmd)

	keygenCmd.Flags().String(
		"out",
		"",
		"Write the key seed to this file")

	keygenCmd.Flags().String(
		"seed",
		"",
		"Derive the key from a 64-hex-char seed instead of random")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	seedHex, _ := cmd.Flags().GetString("seed")

	var seed []byte
	if seedHex != "" {
		var err error
		seed, err = hex.DecodeString(seedHex)
		if err != nil {
			return fmt.Errorf("invalid seed:\n%w", err)
		}
	} else {
		seed = make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return fmt.Errorf("generate seed:\n%w", err)
		}
	}

	key, err := threshold.GenerateKeyFromSeed(seed)
	if err != nil {
		return fmt.Errorf("derive key:\n%w", err)
	}

	if out != "" {
		if err := os.WriteFile(out, seed, 0600); err != nil {
			return fmt.Errorf("save seed to %s:\n%w", out, err)
		}
	}

	fmt.Printf("public key: %s\n", hex.EncodeToString(key.PublicKeyBytes()))

	if out != "" {
		fmt.Printf("seed saved to %s\n", out)
	}

	return nil
}

func runCommittee(cmd *cobra.Command, args []string) error {
	pks := make([][]byte, len(args))

	for i, arg := range args {
		pk, err := hex.DecodeString(arg)
		if err != nil || len(pk) != bridge.GuardianKeySize {
			return fmt.Errorf("invalid public key %q", arg)
		}
		pks[i] = pk
	}

	key, err := threshold.AggregatePublicKeys(pks)
	if err != nil {
		return fmt.Errorf("aggregate:\n%w", err)
	}

	fmt.Printf("committee key: %s\n", hex.EncodeToString(key))

	return nil
}
