package token

import (
	"encoding/binary"
	"fmt"

	"BlueBridge/internal/bridge"
)

// Record sizes in bytes. Ledger records follow the same fixed-layout
// contract as the bridge's own accounts.
const (
	MintSize    = 32 + 8 + 1 + 1
	AccountSize = 32 + 32 + 8 + 1
)

// Mint is a token mint record.
type Mint struct {
	Authority   bridge.Address // Authority may issue new supply
	Supply      uint64
	Decimals    uint8
	Initialized bool
}

// Account is a token holding record.
type Account struct {
	Mint        bridge.Address // Mint is the token mint this account holds
	Owner       bridge.Address // Owner authorizes debits
	Balance     uint64
	Initialized bool
}

// EncodeMint encodes a mint record.
// Format: [32B authority] [8B supply] [1B decimals] [1B init]
func EncodeMint(m *Mint) []byte {
	buf := make([]byte, MintSize)
	copy(buf[0:32], m.Authority[:])
	binary.LittleEndian.PutUint64(buf[32:40], m.Supply)
	buf[40] = m.Decimals
	if m.Initialized {
		buf[41] = 1
	}
	return buf
}

// DecodeMint decodes a mint record, checking only the size.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, fmt.Errorf("mint record size %d, want %d:\n%w", len(data), MintSize, bridge.ErrInvalidAccountData)
	}
	m := &Mint{
		Supply:      binary.LittleEndian.Uint64(data[32:40]),
		Decimals:    data[40],
		Initialized: data[41] != 0,
	}
	copy(m.Authority[:], data[0:32])
	return m, nil
}

// EncodeAccount encodes a token account record.
// Format: [32B mint] [32B owner] [8B balance] [1B init]
func EncodeAccount(a *Account) []byte {
	buf := make([]byte, AccountSize)
	copy(buf[0:32], a.Mint[:])
	copy(buf[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(buf[64:72], a.Balance)
	if a.Initialized {
		buf[72] = 1
	}
	return buf
}

// DecodeAccount decodes a token account record, checking only the size.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf("token account record size %d, want %d:\n%w", len(data), AccountSize, bridge.ErrInvalidAccountData)
	}
	a := &Account{
		Balance:     binary.LittleEndian.Uint64(data[64:72]),
		Initialized: data[72] != 0,
	}
	copy(a.Mint[:], data[0:32])
	copy(a.Owner[:], data[32:64])
	return a, nil
}
