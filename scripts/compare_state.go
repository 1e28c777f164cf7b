//go:build ignore

package main

import (
	"bytes"
	"fmt"
	"os"

	"BlueBridge/internal/bridge"
	"BlueBridge/internal/storage"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <db1_path> <db2_path>\n", os.Args[0])
		os.Exit(1)
	}

	db1Path := os.Args[1]
	db2Path := os.Args[2]

	db1, err := storage.New(db1Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db1: %v\n", err)
		os.Exit(1)
	}
	defer db1.Close()

	db2, err := storage.New(db2Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db2: %v\n", err)
		os.Exit(1)
	}
	defer db2.Close()

	accounts1 := collectAccounts(db1)
	accounts2 := collectAccounts(db2)

	fmt.Printf("DB1 (%s): %d accounts\n", db1Path, len(accounts1))
	fmt.Printf("DB2 (%s): %d accounts\n", db2Path, len(accounts2))

	missing1, missing2, different := compare(accounts1, accounts2)

	if len(missing1) == 0 && len(missing2) == 0 && len(different) == 0 {
		fmt.Println("\n✓ States are identical!")
		os.Exit(0)
	}

	fmt.Println("\n✗ States differ:")

	if len(missing1) > 0 {
		fmt.Printf("  - Accounts in DB1 but not in DB2: %d\n", len(missing1))
		for _, addr := range missing1 {
			fmt.Printf("      %s\n", addr.Short())
		}
	}

	if len(missing2) > 0 {
		fmt.Printf("  - Accounts in DB2 but not in DB1: %d\n", len(missing2))
		for _, addr := range missing2 {
			fmt.Printf("      %s\n", addr.Short())
		}
	}

	if len(different) > 0 {
		fmt.Printf("  - Accounts with different content: %d\n", len(different))
		for _, addr := range different {
			fmt.Printf("      %s\n", addr.Short())
		}
	}

	os.Exit(1)
}

func collectAccounts(db *storage.Storage) map[bridge.Address][]byte {
	accounts := make(map[bridge.Address][]byte)

	db.IteratePrefix([]byte(bridge.AccountKeyPrefix), func(key, value []byte) error {
		addr, ok := bridge.AddressFromKey(key)
		if !ok {
			return nil
		}

		valueCopy := make([]byte, len(value))
		copy(valueCopy, value)
		accounts[addr] = valueCopy

		return nil
	})

	return accounts
}

func compare(acc1, acc2 map[bridge.Address][]byte) (missing1, missing2, different []bridge.Address) {
	for addr := range acc1 {
		if _, ok := acc2[addr]; !ok {
			missing1 = append(missing1, addr)
		}
	}

	for addr := range acc2 {
		if _, ok := acc1[addr]; !ok {
			missing2 = append(missing2, addr)
		}
	}

	for addr, data1 := range acc1 {
		if data2, ok := acc2[addr]; ok {
			if !bytes.Equal(data1, data2) {
				different = append(different, addr)
			}
		}
	}

	return
}
