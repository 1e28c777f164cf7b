package token

import (
	"errors"
	"fmt"

	"BlueBridge/internal/bridge"
)

// Ledger errors. Like the bridge's own taxonomy these are terminal;
// the bridge surfaces them wrapped.
var (
	ErrMintExists        = errors.New("mint already exists")
	ErrAccountExists     = errors.New("token account already exists")
	ErrUnknownMint       = errors.New("unknown mint")
	ErrUnknownAccount    = errors.New("unknown token account")
	ErrWrongAuthority    = errors.New("wrong authority")
	ErrMintMismatch      = errors.New("mint mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmountOverflow    = errors.New("amount overflow")
)

// Ledger is the production token ledger. It is stateless: every
// operation reads and writes records through the caller's view, so
// ledger effects commit or roll back with the enclosing instruction.
type Ledger struct{}

// NewLedger returns the production token ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Account returns the token account at addr, or nil when no initialized
// account exists there.
func (l *Ledger) Account(view bridge.AccountView, addr bridge.Address) (*bridge.TokenAccount, error) {
	rec, err := l.loadAccount(view, addr)
	if err != nil || rec == nil {
		return nil, err
	}
	return &bridge.TokenAccount{Mint: rec.Mint, Owner: rec.Owner, Balance: rec.Balance}, nil
}

// Mint returns the mint at addr, or nil when no initialized mint exists
// there.
func (l *Ledger) Mint(view bridge.AccountView, addr bridge.Address) (*bridge.TokenMint, error) {
	rec, err := l.loadMint(view, addr)
	if err != nil || rec == nil {
		return nil, err
	}
	return &bridge.TokenMint{Authority: rec.Authority, Supply: rec.Supply, Decimals: rec.Decimals}, nil
}

// CreateMint creates a mint with zero supply under the given authority.
func (l *Ledger) CreateMint(view bridge.AccountView, addr, authority bridge.Address, decimals uint8) error {
	existing, err := l.loadMint(view, addr)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("mint %s:\n%w", addr.Short(), ErrMintExists)
	}

	view.SetAccount(addr, EncodeMint(&Mint{
		Authority:   authority,
		Decimals:    decimals,
		Initialized: true,
	}))
	return nil
}

// CreateAccount creates a token account with zero balance. The mint must
// already exist.
func (l *Ledger) CreateAccount(view bridge.AccountView, addr, mint, owner bridge.Address) error {
	existing, err := l.loadAccount(view, addr)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("token account %s:\n%w", addr.Short(), ErrAccountExists)
	}

	m, err := l.loadMint(view, mint)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("mint %s:\n%w", mint.Short(), ErrUnknownMint)
	}

	view.SetAccount(addr, EncodeAccount(&Account{
		Mint:        mint,
		Owner:       owner,
		Initialized: true,
	}))
	return nil
}

// MintTo issues amount to dest. The authority must be the mint's.
func (l *Ledger) MintTo(view bridge.AccountView, mint, dest, authority bridge.Address, amount uint64) error {
	m, err := l.loadMint(view, mint)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("mint %s:\n%w", mint.Short(), ErrUnknownMint)
	}
	if m.Authority != authority {
		return fmt.Errorf("mint authority is %s:\n%w", m.Authority.Short(), ErrWrongAuthority)
	}

	d, err := l.loadAccount(view, dest)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("token account %s:\n%w", dest.Short(), ErrUnknownAccount)
	}
	if d.Mint != mint {
		return fmt.Errorf("account holds %s:\n%w", d.Mint.Short(), ErrMintMismatch)
	}

	if d.Balance+amount < d.Balance || m.Supply+amount < m.Supply {
		return fmt.Errorf("minting %d:\n%w", amount, ErrAmountOverflow)
	}
	d.Balance += amount
	m.Supply += amount

	view.SetAccount(dest, EncodeAccount(d))
	view.SetAccount(mint, EncodeMint(m))
	return nil
}

// Burn destroys amount from the account, reducing the mint's supply.
// The authority must be the account owner.
func (l *Ledger) Burn(view bridge.AccountView, account, authority bridge.Address, amount uint64) error {
	a, err := l.loadAccount(view, account)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("token account %s:\n%w", account.Short(), ErrUnknownAccount)
	}
	if a.Owner != authority {
		return fmt.Errorf("account owner is %s:\n%w", a.Owner.Short(), ErrWrongAuthority)
	}
	if a.Balance < amount {
		return fmt.Errorf("balance %d, burning %d:\n%w", a.Balance, amount, ErrInsufficientFunds)
	}

	m, err := l.loadMint(view, a.Mint)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("mint %s:\n%w", a.Mint.Short(), ErrUnknownMint)
	}
	if m.Supply < amount {
		return fmt.Errorf("supply %d, burning %d:\n%w", m.Supply, amount, ErrInsufficientFunds)
	}

	a.Balance -= amount
	m.Supply -= amount

	view.SetAccount(account, EncodeAccount(a))
	view.SetAccount(a.Mint, EncodeMint(m))
	return nil
}

// Transfer moves amount between two accounts of the same mint. The
// authority must be the source owner.
func (l *Ledger) Transfer(view bridge.AccountView, source, dest, authority bridge.Address, amount uint64) error {
	src, err := l.loadAccount(view, source)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("token account %s:\n%w", source.Short(), ErrUnknownAccount)
	}
	if src.Owner != authority {
		return fmt.Errorf("account owner is %s:\n%w", src.Owner.Short(), ErrWrongAuthority)
	}
	if src.Balance < amount {
		return fmt.Errorf("balance %d, moving %d:\n%w", src.Balance, amount, ErrInsufficientFunds)
	}

	if source == dest {
		return nil
	}

	dst, err := l.loadAccount(view, dest)
	if err != nil {
		return err
	}
	if dst == nil {
		return fmt.Errorf("token account %s:\n%w", dest.Short(), ErrUnknownAccount)
	}
	if dst.Mint != src.Mint {
		return fmt.Errorf("accounts hold %s and %s:\n%w", src.Mint.Short(), dst.Mint.Short(), ErrMintMismatch)
	}
	if dst.Balance+amount < dst.Balance {
		return fmt.Errorf("moving %d:\n%w", amount, ErrAmountOverflow)
	}

	src.Balance -= amount
	dst.Balance += amount

	view.SetAccount(source, EncodeAccount(src))
	view.SetAccount(dest, EncodeAccount(dst))
	return nil
}

// loadAccount reads an account record, mapping absent or blank records
// to nil.
func (l *Ledger) loadAccount(view bridge.AccountView, addr bridge.Address) (*Account, error) {
	data, err := view.Account(addr)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	rec, err := DecodeAccount(data)
	if err != nil {
		return nil, fmt.Errorf("account %s:\n%w", addr.Short(), err)
	}
	if !rec.Initialized {
		return nil, nil
	}
	return rec, nil
}

// loadMint reads a mint record, mapping absent or blank records to nil.
func (l *Ledger) loadMint(view bridge.AccountView, addr bridge.Address) (*Mint, error) {
	data, err := view.Account(addr)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	rec, err := DecodeMint(data)
	if err != nil {
		return nil, fmt.Errorf("mint %s:\n%w", addr.Short(), err)
	}
	if !rec.Initialized {
		return nil, nil
	}
	return rec, nil
}
