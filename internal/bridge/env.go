package bridge

import "time"

// AccountView is invocation-scoped account access. Writes through a view
// are visible to later reads within the same instruction and are
// committed or discarded as a unit with it.
type AccountView interface {
	// Account returns the account's data, or nil if it does not exist.
	Account(addr Address) ([]byte, error)
	// SetAccount stages new data for the account.
	SetAccount(addr Address, data []byte)
}

// TokenAccount is the ledger's view of a token holding.
type TokenAccount struct {
	Mint    Address // Mint is the token mint this account holds
	Owner   Address // Owner authorizes debits from the account
	Balance uint64
}

// TokenMint is the ledger's view of a token mint.
type TokenMint struct {
	Authority Address // Authority may issue new supply
	Supply    uint64
	Decimals  uint8
}

// TokenLedger is the token collaborator the bridge locks, burns, mints
// and releases through. Every operation goes through the instruction's
// AccountView, so ledger effects share the instruction's atomicity.
// Account and Mint return nil when no initialized record exists at the
// address.
type TokenLedger interface {
	Account(view AccountView, addr Address) (*TokenAccount, error)
	Mint(view AccountView, addr Address) (*TokenMint, error)
	CreateAccount(view AccountView, addr, mint, owner Address) error
	CreateMint(view AccountView, addr, authority Address, decimals uint8) error
	MintTo(view AccountView, mint, dest, authority Address, amount uint64) error
	Burn(view AccountView, account, authority Address, amount uint64) error
	Transfer(view AccountView, source, dest, authority Address, amount uint64) error
}

// Clock supplies time to the core. Slot is a monotonic sequence used for
// transfer freshness: transfers with identical parameters in the same
// slot derive the same proposal address and collide.
type Clock interface {
	Now() time.Time
	Slot() uint64
}

// SystemClock is the production clock: wall time, slots at one-second
// granularity.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) Slot() uint64 {
	return uint64(time.Now().Unix())
}

// SignatureVerifier checks a guardian signature over a vaa digest.
type SignatureVerifier interface {
	Verify(signature, message, key []byte) bool
}
