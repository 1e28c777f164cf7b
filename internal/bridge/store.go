package bridge

import (
	"fmt"

	"BlueBridge/internal/storage"
)

// AccountKeyPrefix namespaces account records in the underlying store.
const AccountKeyPrefix = "a:"

// AccountKey returns the storage key for an account address.
func AccountKey(addr Address) []byte {
	key := make([]byte, len(AccountKeyPrefix)+len(addr))
	copy(key, AccountKeyPrefix)
	copy(key[len(AccountKeyPrefix):], addr[:])
	return key
}

// AddressFromKey recovers the account address from a storage key.
// Returns false for keys outside the account namespace.
func AddressFromKey(key []byte) (Address, bool) {
	var addr Address
	if len(key) != len(AccountKeyPrefix)+len(addr) || string(key[:len(AccountKeyPrefix)]) != AccountKeyPrefix {
		return addr, false
	}
	copy(addr[:], key[len(AccountKeyPrefix):])
	return addr, true
}

// Store is the persistent account store.
type Store struct {
	db *storage.Storage
}

// NewStore wraps the storage host as an account store.
func NewStore(db *storage.Storage) *Store {
	return &Store{db: db}
}

// Account reads an account's record bytes. Returns nil if the account
// does not exist.
func (s *Store) Account(addr Address) ([]byte, error) {
	data, err := s.db.Get(AccountKey(addr))
	if err != nil {
		return nil, fmt.Errorf("read account %s:\n%w", addr.Short(), err)
	}
	return data, nil
}

// ForEach calls fn for every stored account in address order.
func (s *Store) ForEach(fn func(addr Address, data []byte) error) error {
	return s.db.IteratePrefix([]byte(AccountKeyPrefix), func(key, value []byte) error {
		addr, ok := AddressFromKey(key)
		if !ok {
			return nil
		}
		return fn(addr, value)
	})
}

// NewView opens an overlay for one instruction application.
func (s *Store) NewView() *View {
	return &View{
		store:  s,
		writes: make(map[Address][]byte),
	}
}

// View is the overlay a single instruction runs against: reads fall
// through to the store, writes stage in memory until Commit.
type View struct {
	store  *Store
	writes map[Address][]byte
	order  []Address // first-write order, fixed for the commit batch
}

// Account returns the staged data if the account was written in this
// view, otherwise the stored data.
func (v *View) Account(addr Address) ([]byte, error) {
	if data, ok := v.writes[addr]; ok {
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}
	return v.store.Account(addr)
}

// SetAccount stages new data for the account.
func (v *View) SetAccount(addr Address, data []byte) {
	if _, ok := v.writes[addr]; !ok {
		v.order = append(v.order, addr)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	v.writes[addr] = buf
}

// Dirty returns the number of staged account writes.
func (v *View) Dirty() int {
	return len(v.order)
}

// Commit writes all staged accounts as one atomic batch. A view with no
// writes commits nothing.
func (v *View) Commit() error {
	if len(v.order) == 0 {
		return nil
	}

	pairs := make([]storage.KeyValue, 0, len(v.order))
	for _, addr := range v.order {
		pairs = append(pairs, storage.KeyValue{
			Key:   AccountKey(addr),
			Value: v.writes[addr],
		})
	}

	if err := v.store.db.SetBatch(pairs); err != nil {
		return fmt.Errorf("commit %d accounts:\n%w", len(pairs), err)
	}
	return nil
}

// accountReader is the read half of AccountView, satisfied by both the
// store and its views.
type accountReader interface {
	Account(addr Address) ([]byte, error)
}

// accountData returns the account's current bytes, or a zero-filled
// record of the given size when the account does not exist. Absent
// accounts decode as uninitialized records.
func accountData(r accountReader, addr Address, size int) ([]byte, error) {
	data, err := r.Account(addr)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return make([]byte, size), nil
	}
	return data, nil
}
