package token

import (
	"errors"
	"testing"

	"BlueBridge/internal/bridge"
)

// memView is an in-memory account view for exercising the ledger without
// a database.
type memView struct {
	accounts map[bridge.Address][]byte
}

func newMemView() *memView {
	return &memView{accounts: make(map[bridge.Address][]byte)}
}

func (v *memView) Account(addr bridge.Address) ([]byte, error) {
	data, ok := v.accounts[addr]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (v *memView) SetAccount(addr bridge.Address, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	v.accounts[addr] = buf
}

var (
	mintAddr  = bridge.Address{0x01}
	authority = bridge.Address{0x02}
	alice     = bridge.Address{0x03}
	aliceAcct = bridge.Address{0x04}
	bob       = bridge.Address{0x05}
	bobAcct   = bridge.Address{0x06}
)

// newFundedView builds a view holding one mint and two accounts, with
// alice funded.
func newFundedView(t *testing.T, ledger *Ledger, funded uint64) *memView {
	t.Helper()
	view := newMemView()

	if err := ledger.CreateMint(view, mintAddr, authority, 6); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	if err := ledger.CreateAccount(view, aliceAcct, mintAddr, alice); err != nil {
		t.Fatalf("create alice account: %v", err)
	}
	if err := ledger.CreateAccount(view, bobAcct, mintAddr, bob); err != nil {
		t.Fatalf("create bob account: %v", err)
	}
	if err := ledger.MintTo(view, mintAddr, aliceAcct, authority, funded); err != nil {
		t.Fatalf("fund alice: %v", err)
	}
	return view
}

func balanceOf(t *testing.T, ledger *Ledger, view bridge.AccountView, addr bridge.Address) uint64 {
	t.Helper()
	acct, err := ledger.Account(view, addr)
	if err != nil {
		t.Fatalf("read account: %v", err)
	}
	if acct == nil {
		t.Fatalf("account %s does not exist", addr.Short())
	}
	return acct.Balance
}

// TestCreateMint tests mint creation and duplicate rejection.
func TestCreateMint(t *testing.T) {
	ledger := NewLedger()
	view := newMemView()

	if err := ledger.CreateMint(view, mintAddr, authority, 6); err != nil {
		t.Fatalf("create mint: %v", err)
	}

	mint, err := ledger.Mint(view, mintAddr)
	if err != nil {
		t.Fatalf("read mint: %v", err)
	}
	if mint == nil {
		t.Fatal("mint should exist")
	}
	if mint.Authority != authority || mint.Decimals != 6 || mint.Supply != 0 {
		t.Errorf("mint fields: got %+v", mint)
	}

	if err := ledger.CreateMint(view, mintAddr, authority, 6); !errors.Is(err, ErrMintExists) {
		t.Errorf("duplicate mint: got %v, want ErrMintExists", err)
	}
}

// TestCreateAccount tests account creation, the mint requirement and
// duplicate rejection.
func TestCreateAccount(t *testing.T) {
	ledger := NewLedger()
	view := newMemView()

	if err := ledger.CreateAccount(view, aliceAcct, mintAddr, alice); !errors.Is(err, ErrUnknownMint) {
		t.Fatalf("account without mint: got %v, want ErrUnknownMint", err)
	}

	if err := ledger.CreateMint(view, mintAddr, authority, 6); err != nil {
		t.Fatalf("create mint: %v", err)
	}
	if err := ledger.CreateAccount(view, aliceAcct, mintAddr, alice); err != nil {
		t.Fatalf("create account: %v", err)
	}

	acct, err := ledger.Account(view, aliceAcct)
	if err != nil {
		t.Fatalf("read account: %v", err)
	}
	if acct == nil {
		t.Fatal("account should exist")
	}
	if acct.Mint != mintAddr || acct.Owner != alice || acct.Balance != 0 {
		t.Errorf("account fields: got %+v", acct)
	}

	if err := ledger.CreateAccount(view, aliceAcct, mintAddr, alice); !errors.Is(err, ErrAccountExists) {
		t.Errorf("duplicate account: got %v, want ErrAccountExists", err)
	}
}

// TestMintTo tests issuance and its authority, destination and overflow
// checks.
func TestMintTo(t *testing.T) {
	ledger := NewLedger()
	view := newFundedView(t, ledger, 1000)

	if got := balanceOf(t, ledger, view, aliceAcct); got != 1000 {
		t.Errorf("alice balance: got %d, want 1000", got)
	}
	mint, _ := ledger.Mint(view, mintAddr)
	if mint.Supply != 1000 {
		t.Errorf("supply: got %d, want 1000", mint.Supply)
	}

	if err := ledger.MintTo(view, mintAddr, aliceAcct, alice, 1); !errors.Is(err, ErrWrongAuthority) {
		t.Errorf("non-authority issuance: got %v, want ErrWrongAuthority", err)
	}
	if err := ledger.MintTo(view, mintAddr, bridge.Address{0x99}, authority, 1); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("unknown destination: got %v, want ErrUnknownAccount", err)
	}
	if err := ledger.MintTo(view, bridge.Address{0x98}, aliceAcct, authority, 1); !errors.Is(err, ErrUnknownMint) {
		t.Errorf("unknown mint: got %v, want ErrUnknownMint", err)
	}

	// A second mint cannot issue into an account of the first
	otherMint := bridge.Address{0x31}
	otherAcct := bridge.Address{0x32}
	if err := ledger.CreateMint(view, otherMint, authority, 6); err != nil {
		t.Fatalf("create other mint: %v", err)
	}
	if err := ledger.CreateAccount(view, otherAcct, otherMint, alice); err != nil {
		t.Fatalf("create other account: %v", err)
	}
	if err := ledger.MintTo(view, otherMint, aliceAcct, authority, 1); !errors.Is(err, ErrMintMismatch) {
		t.Errorf("cross-mint issuance: got %v, want ErrMintMismatch", err)
	}

	if err := ledger.MintTo(view, mintAddr, aliceAcct, authority, ^uint64(0)); !errors.Is(err, ErrAmountOverflow) {
		t.Errorf("overflowing issuance: got %v, want ErrAmountOverflow", err)
	}
}

// TestBurn tests destruction and its authority and balance checks.
func TestBurn(t *testing.T) {
	ledger := NewLedger()
	view := newFundedView(t, ledger, 1000)

	if err := ledger.Burn(view, aliceAcct, bob, 100); !errors.Is(err, ErrWrongAuthority) {
		t.Errorf("burn by non-owner: got %v, want ErrWrongAuthority", err)
	}
	if err := ledger.Burn(view, aliceAcct, alice, 1001); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overdrawn burn: got %v, want ErrInsufficientFunds", err)
	}
	if err := ledger.Burn(view, bridge.Address{0x99}, alice, 1); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("burn from unknown account: got %v, want ErrUnknownAccount", err)
	}

	if err := ledger.Burn(view, aliceAcct, alice, 400); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := balanceOf(t, ledger, view, aliceAcct); got != 600 {
		t.Errorf("balance after burn: got %d, want 600", got)
	}
	mint, _ := ledger.Mint(view, mintAddr)
	if mint.Supply != 600 {
		t.Errorf("supply after burn: got %d, want 600", mint.Supply)
	}
}

// TestTransfer tests moves between accounts and their checks.
func TestTransfer(t *testing.T) {
	ledger := NewLedger()
	view := newFundedView(t, ledger, 1000)

	if err := ledger.Transfer(view, aliceAcct, bobAcct, bob, 100); !errors.Is(err, ErrWrongAuthority) {
		t.Errorf("transfer by non-owner: got %v, want ErrWrongAuthority", err)
	}
	if err := ledger.Transfer(view, aliceAcct, bobAcct, alice, 1001); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("overdrawn transfer: got %v, want ErrInsufficientFunds", err)
	}
	if err := ledger.Transfer(view, aliceAcct, bridge.Address{0x99}, alice, 1); !errors.Is(err, ErrUnknownAccount) {
		t.Errorf("transfer to unknown account: got %v, want ErrUnknownAccount", err)
	}

	if err := ledger.Transfer(view, aliceAcct, bobAcct, alice, 300); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balanceOf(t, ledger, view, aliceAcct); got != 700 {
		t.Errorf("alice balance: got %d, want 700", got)
	}
	if got := balanceOf(t, ledger, view, bobAcct); got != 300 {
		t.Errorf("bob balance: got %d, want 300", got)
	}

	// Supply does not change on transfer
	mint, _ := ledger.Mint(view, mintAddr)
	if mint.Supply != 1000 {
		t.Errorf("supply after transfer: got %d, want 1000", mint.Supply)
	}
}

// TestTransferSelf tests that a self-transfer changes nothing.
func TestTransferSelf(t *testing.T) {
	ledger := NewLedger()
	view := newFundedView(t, ledger, 1000)

	if err := ledger.Transfer(view, aliceAcct, aliceAcct, alice, 500); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if got := balanceOf(t, ledger, view, aliceAcct); got != 1000 {
		t.Errorf("balance after self transfer: got %d, want 1000", got)
	}
}

// TestTransferMintMismatch tests that transfers cannot cross mints.
func TestTransferMintMismatch(t *testing.T) {
	ledger := NewLedger()
	view := newFundedView(t, ledger, 1000)

	otherMint := bridge.Address{0x31}
	otherAcct := bridge.Address{0x32}
	if err := ledger.CreateMint(view, otherMint, authority, 6); err != nil {
		t.Fatalf("create other mint: %v", err)
	}
	if err := ledger.CreateAccount(view, otherAcct, otherMint, bob); err != nil {
		t.Fatalf("create other account: %v", err)
	}

	if err := ledger.Transfer(view, aliceAcct, otherAcct, alice, 100); !errors.Is(err, ErrMintMismatch) {
		t.Errorf("cross-mint transfer: got %v, want ErrMintMismatch", err)
	}
}

// TestRecordCodec tests the record codecs' size checks and blank
// handling.
func TestRecordCodec(t *testing.T) {
	mint := &Mint{Authority: authority, Supply: 42, Decimals: 8, Initialized: true}
	decodedMint, err := DecodeMint(EncodeMint(mint))
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	if *decodedMint != *mint {
		t.Errorf("mint round trip: got %+v, want %+v", decodedMint, mint)
	}

	acct := &Account{Mint: mintAddr, Owner: alice, Balance: 7, Initialized: true}
	decodedAcct, err := DecodeAccount(EncodeAccount(acct))
	if err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if *decodedAcct != *acct {
		t.Errorf("account round trip: got %+v, want %+v", decodedAcct, acct)
	}

	if _, err := DecodeMint([]byte{1, 2, 3}); !errors.Is(err, bridge.ErrInvalidAccountData) {
		t.Errorf("short mint record: got %v, want ErrInvalidAccountData", err)
	}
	if _, err := DecodeAccount([]byte{1, 2, 3}); !errors.Is(err, bridge.ErrInvalidAccountData) {
		t.Errorf("short account record: got %v, want ErrInvalidAccountData", err)
	}

	// Blank records decode but read back as absent through the ledger
	ledger := NewLedger()
	view := newMemView()
	view.SetAccount(mintAddr, make([]byte, MintSize))
	got, err := ledger.Mint(view, mintAddr)
	if err != nil {
		t.Fatalf("read blank mint: %v", err)
	}
	if got != nil {
		t.Error("blank mint record should read as absent")
	}
}
