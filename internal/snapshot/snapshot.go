package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"BlueBridge/internal/bridge"
)

// snapshotVersion is the current snapshot format version.
const snapshotVersion = 1

// Layout sizes.
// Format: [4B version] [8B slot] [4B count] then per account
// [32B address] [4B length] [data], all big-endian, a 32-byte BLAKE3
// checksum over everything before it at the end. Accounts are sorted by
// address, so equal state encodes to equal bytes.
const (
	checksumSize    = 32
	headerSize      = 4 + 8 + 4
	entryHeaderSize = 32 + 4
)

var (
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
	ErrVersionMismatch  = errors.New("unsupported snapshot version")
)

// Account is one captured account.
type Account struct {
	Address bridge.Address
	Data    []byte
}

// Snapshot is a decoded state capture.
type Snapshot struct {
	Version  uint32
	Slot     uint64 // Slot is the slot the capture was taken at
	Accounts []Account
}

// Create captures every account in the store into a checksummed
// snapshot.
func Create(store *bridge.Store, slot uint64) ([]byte, error) {
	accounts, err := collectAccounts(store)
	if err != nil {
		return nil, fmt.Errorf("collect accounts:\n%w", err)
	}
	return encode(slot, accounts), nil
}

// collectAccounts reads all accounts and sorts them by address.
func collectAccounts(store *bridge.Store) ([]Account, error) {
	var accounts []Account

	err := store.ForEach(func(addr bridge.Address, data []byte) error {
		// Copy out of the iterator's buffer
		buf := make([]byte, len(data))
		copy(buf, data)
		accounts = append(accounts, Account{Address: addr, Data: buf})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortAccounts(accounts)
	return accounts, nil
}

// sortAccounts sorts accounts by address for deterministic encoding.
func sortAccounts(accounts []Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i].Address[:], accounts[j].Address[:]) < 0
	})
}

// encode serializes the sorted accounts and appends the checksum.
func encode(slot uint64, accounts []Account) []byte {
	size := headerSize
	for _, a := range accounts {
		size += entryHeaderSize + len(a.Data)
	}

	buf := make([]byte, 0, size+checksumSize)
	var scratch [8]byte

	binary.BigEndian.PutUint32(scratch[:4], snapshotVersion)
	buf = append(buf, scratch[:4]...)
	binary.BigEndian.PutUint64(scratch[:], slot)
	buf = append(buf, scratch[:]...)
	binary.BigEndian.PutUint32(scratch[:4], uint32(len(accounts)))
	buf = append(buf, scratch[:4]...)

	for _, a := range accounts {
		buf = append(buf, a.Address[:]...)
		binary.BigEndian.PutUint32(scratch[:4], uint32(len(a.Data)))
		buf = append(buf, scratch[:4]...)
		buf = append(buf, a.Data...)
	}

	checksum := blake3.Sum256(buf)
	return append(buf, checksum[:]...)
}

// Parse verifies and decodes a snapshot.
func Parse(data []byte) (*Snapshot, error) {
	if len(data) < headerSize+checksumSize {
		return nil, fmt.Errorf("snapshot of %d bytes:\n%w", len(data), ErrInvalidSnapshot)
	}

	body := data[:len(data)-checksumSize]
	var stored [checksumSize]byte
	copy(stored[:], data[len(body):])
	if blake3.Sum256(body) != stored {
		return nil, ErrChecksumMismatch
	}

	s := &Snapshot{
		Version: binary.BigEndian.Uint32(body[0:4]),
		Slot:    binary.BigEndian.Uint64(body[4:12]),
	}
	if s.Version != snapshotVersion {
		return nil, fmt.Errorf("version %d:\n%w", s.Version, ErrVersionMismatch)
	}

	count := binary.BigEndian.Uint32(body[12:16])
	rest := body[headerSize:]

	// The declared count cannot exceed what the body can hold
	if uint64(count)*entryHeaderSize > uint64(len(rest)) {
		return nil, fmt.Errorf("%d accounts in %d bytes:\n%w", count, len(rest), ErrInvalidSnapshot)
	}

	s.Accounts = make([]Account, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(rest) < entryHeaderSize {
			return nil, fmt.Errorf("truncated at account %d:\n%w", i, ErrInvalidSnapshot)
		}

		var a Account
		copy(a.Address[:], rest[:32])
		length := binary.BigEndian.Uint32(rest[32:entryHeaderSize])
		rest = rest[entryHeaderSize:]

		if uint64(len(rest)) < uint64(length) {
			return nil, fmt.Errorf("truncated at account %d:\n%w", i, ErrInvalidSnapshot)
		}
		a.Data = make([]byte, length)
		copy(a.Data, rest[:length])
		rest = rest[length:]

		s.Accounts = append(s.Accounts, a)
	}

	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes:\n%w", len(rest), ErrInvalidSnapshot)
	}
	return s, nil
}

// Restore verifies a snapshot and writes its accounts into the store as
// one atomic batch. Existing accounts at the captured addresses are
// overwritten.
func Restore(store *bridge.Store, data []byte) (*Snapshot, error) {
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}

	view := store.NewView()
	for _, a := range s.Accounts {
		view.SetAccount(a.Address, a.Data)
	}
	if err := view.Commit(); err != nil {
		return nil, fmt.Errorf("restore %d accounts:\n%w", len(s.Accounts), err)
	}
	return s, nil
}

// Compress compresses snapshot data using zstd.
func Compress(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create encoder:\n%w", err)
	}
	defer encoder.Close()

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses zstd-compressed snapshot data.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create decoder:\n%w", err)
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}
