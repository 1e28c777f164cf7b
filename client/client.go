package client

import (
	"encoding/hex"
	"fmt"

	"BlueBridge/internal/bridge"
	"BlueBridge/internal/snapshot"
)

// Client talks to a bridge node over HTTP.
type Client struct {
	nodeAddr   string         // nodeAddr is the HTTP address (e.g. "127.0.0.1:8080")
	programID  bridge.Address // programID prefixes every derived address
	bridgeAddr bridge.Address // bridgeAddr is the derived bridge singleton address
}

// Status holds bridge singleton state reported by the node.
type Status struct {
	ProgramID           bridge.Address
	BridgeAddress       bridge.Address
	Initialized         bool
	GuardianSetIndex    uint32
	VAAExpirationWindow uint32
	TokenLedger         bridge.Address
}

// GuardianSetInfo holds a guardian set record reported by the node.
type GuardianSetInfo struct {
	Index          uint32
	Address        bridge.Address
	Key            [bridge.GuardianKeySize]byte
	CreationTime   uint32
	ExpirationTime uint32
}

// ProposalInfo holds a transfer proposal record reported by the node.
type ProposalInfo struct {
	Address        bridge.Address
	Amount         uint64
	ToChain        uint8
	ForeignAddress bridge.Address
	Asset          bridge.AssetMeta
	VAATime        uint32
}

// TokenAccountInfo holds a token account reported by the node.
type TokenAccountInfo struct {
	Address bridge.Address
	Mint    bridge.Address
	Owner   bridge.Address
	Balance uint64
}

// NewClient creates a client for the node at nodeAddr. It fetches the
// program identity from the node's /status endpoint so addresses can be
// derived locally.
func NewClient(nodeAddr string) (*Client, error) {
	var status struct {
		ProgramID     string `json:"programId"`
		BridgeAddress string `json:"bridgeAddress"`
	}

	if err := httpGet("http://"+nodeAddr+"/status", &status); err != nil {
		return nil, fmt.Errorf("get status:\n%w", err)
	}

	programID, err := bridge.ParseAddress(status.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program id %q:\n%w", status.ProgramID, err)
	}

	bridgeAddr, err := bridge.ParseAddress(status.BridgeAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge address %q:\n%w", status.BridgeAddress, err)
	}

	return &Client{
		nodeAddr:   nodeAddr,
		programID:  programID,
		bridgeAddr: bridgeAddr,
	}, nil
}

// ProgramID returns the node's program identity.
func (c *Client) ProgramID() bridge.Address {
	return c.programID
}

// BridgeAddress returns the bridge singleton address.
func (c *Client) BridgeAddress() bridge.Address {
	return c.bridgeAddr
}

// Health checks the node's health endpoint.
func (c *Client) Health() error {
	var resp struct {
		Status string `json:"status"`
	}

	if err := httpGet("http://"+c.nodeAddr+"/health", &resp); err != nil {
		return err
	}

	if resp.Status != "ok" {
		return fmt.Errorf("node unhealthy: %q", resp.Status)
	}

	return nil
}

// Status fetches the bridge singleton state.
func (c *Client) Status() (*Status, error) {
	var resp struct {
		ProgramID           string `json:"programId"`
		BridgeAddress       string `json:"bridgeAddress"`
		Initialized         bool   `json:"initialized"`
		GuardianSetIndex    uint32 `json:"guardianSetIndex"`
		VAAExpirationWindow uint32 `json:"vaaExpirationWindow"`
		TokenLedger         string `json:"tokenLedger"`
	}

	if err := httpGet("http://"+c.nodeAddr+"/status", &resp); err != nil {
		return nil, fmt.Errorf("get status:\n%w", err)
	}

	status := &Status{
		Initialized:         resp.Initialized,
		GuardianSetIndex:    resp.GuardianSetIndex,
		VAAExpirationWindow: resp.VAAExpirationWindow,
	}

	var err error
	if status.ProgramID, err = bridge.ParseAddress(resp.ProgramID); err != nil {
		return nil, fmt.Errorf("invalid program id:\n%w", err)
	}
	if status.BridgeAddress, err = bridge.ParseAddress(resp.BridgeAddress); err != nil {
		return nil, fmt.Errorf("invalid bridge address:\n%w", err)
	}
	if status.TokenLedger, err = bridge.ParseAddress(resp.TokenLedger); err != nil {
		return nil, fmt.Errorf("invalid token ledger:\n%w", err)
	}

	return status, nil
}

// GuardianSet fetches the guardian set with the given index.
func (c *Client) GuardianSet(index uint32) (*GuardianSetInfo, error) {
	var resp struct {
		Index          uint32 `json:"index"`
		Address        string `json:"address"`
		Key            string `json:"key"`
		CreationTime   uint32 `json:"creationTime"`
		ExpirationTime uint32 `json:"expirationTime"`
	}

	url := fmt.Sprintf("http://%s/guardians/%d", c.nodeAddr, index)
	if err := httpGet(url, &resp); err != nil {
		return nil, fmt.Errorf("get guardian set %d:\n%w", index, err)
	}

	info := &GuardianSetInfo{
		Index:          resp.Index,
		CreationTime:   resp.CreationTime,
		ExpirationTime: resp.ExpirationTime,
	}

	addr, err := bridge.ParseAddress(resp.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid guardian set address:\n%w", err)
	}
	info.Address = addr

	keyBytes, err := hex.DecodeString(resp.Key)
	if err != nil || len(keyBytes) != bridge.GuardianKeySize {
		return nil, fmt.Errorf("invalid guardian key: %q", resp.Key)
	}
	copy(info.Key[:], keyBytes)

	return info, nil
}

// Proposal fetches the transfer proposal at addr.
func (c *Client) Proposal(addr bridge.Address) (*ProposalInfo, error) {
	var resp struct {
		Amount         uint64 `json:"amount"`
		ToChain        uint8  `json:"toChain"`
		ForeignAddress string `json:"foreignAddress"`
		AssetChain     uint8  `json:"assetChain"`
		AssetAddress   string `json:"assetAddress"`
		VAATime        uint32 `json:"vaaTime"`
	}

	url := "http://" + c.nodeAddr + "/proposal/" + addr.String()
	if err := httpGet(url, &resp); err != nil {
		return nil, fmt.Errorf("get proposal:\n%w", err)
	}

	info := &ProposalInfo{
		Address: addr,
		Amount:  resp.Amount,
		ToChain: resp.ToChain,
		VAATime: resp.VAATime,
	}
	info.Asset.Chain = resp.AssetChain

	var err error
	if info.ForeignAddress, err = bridge.ParseAddress(resp.ForeignAddress); err != nil {
		return nil, fmt.Errorf("invalid foreign address:\n%w", err)
	}
	if info.Asset.Address, err = bridge.ParseAddress(resp.AssetAddress); err != nil {
		return nil, fmt.Errorf("invalid asset address:\n%w", err)
	}

	return info, nil
}

// TokenAccount fetches the token account at addr.
func (c *Client) TokenAccount(addr bridge.Address) (*TokenAccountInfo, error) {
	var resp struct {
		Mint    string `json:"mint"`
		Owner   string `json:"owner"`
		Balance uint64 `json:"balance"`
	}

	url := "http://" + c.nodeAddr + "/token/account/" + addr.String()
	if err := httpGet(url, &resp); err != nil {
		return nil, fmt.Errorf("get token account:\n%w", err)
	}

	info := &TokenAccountInfo{
		Address: addr,
		Balance: resp.Balance,
	}

	var err error
	if info.Mint, err = bridge.ParseAddress(resp.Mint); err != nil {
		return nil, fmt.Errorf("invalid mint:\n%w", err)
	}
	if info.Owner, err = bridge.ParseAddress(resp.Owner); err != nil {
		return nil, fmt.Errorf("invalid owner:\n%w", err)
	}

	return info, nil
}

// Initialize creates the bridge singleton with guardian set 0.
func (c *Client) Initialize(window uint32, tokenLedger bridge.Address, guardianKey [bridge.GuardianKeySize]byte) error {
	ix := bridge.EncodeInitialize(&bridge.InitializeInstruction{
		VAAExpirationWindow: window,
		TokenLedger:         tokenLedger,
		GuardianKey:         guardianKey,
	})

	if err := submitInstruction(c.nodeAddr, ix); err != nil {
		return fmt.Errorf("initialize:\n%w", err)
	}

	return nil
}

// TransferOut submits an outbound transfer instruction.
func (c *Client) TransferOut(ix *bridge.TransferOutInstruction) error {
	if err := submitInstruction(c.nodeAddr, bridge.EncodeTransferOut(ix)); err != nil {
		return fmt.Errorf("transfer out:\n%w", err)
	}

	return nil
}

// PostVAA submits a signed vaa for verification and application.
func (c *Client) PostVAA(vaa *bridge.VAA) error {
	data, err := bridge.EncodeVAA(vaa)
	if err != nil {
		return fmt.Errorf("encode vaa:\n%w", err)
	}

	ix := bridge.EncodePostVAA(&bridge.PostVAAInstruction{VAA: data})
	if err := submitInstruction(c.nodeAddr, ix); err != nil {
		return fmt.Errorf("post vaa:\n%w", err)
	}

	return nil
}

// CreateMint provisions a token mint on the node's ledger.
func (c *Client) CreateMint(addr, authority bridge.Address, decimals uint8) error {
	body := map[string]any{
		"address":   addr.String(),
		"authority": authority.String(),
		"decimals":  decimals,
	}

	var resp struct {
		Address string `json:"address"`
	}

	if err := httpPostJSON("http://"+c.nodeAddr+"/token/mint", body, &resp); err != nil {
		return fmt.Errorf("create mint:\n%w", err)
	}

	return nil
}

// CreateTokenAccount provisions a token account on the node's ledger.
func (c *Client) CreateTokenAccount(addr, mint, owner bridge.Address) error {
	body := map[string]any{
		"address": addr.String(),
		"mint":    mint.String(),
		"owner":   owner.String(),
	}

	var resp struct {
		Address string `json:"address"`
	}

	if err := httpPostJSON("http://"+c.nodeAddr+"/token/account", body, &resp); err != nil {
		return fmt.Errorf("create token account:\n%w", err)
	}

	return nil
}

// MintTo issues tokens to a token account. The authority must be the
// mint's recorded authority.
func (c *Client) MintTo(mint, dest, authority bridge.Address, amount uint64) error {
	body := map[string]any{
		"mint":        mint.String(),
		"destination": dest.String(),
		"authority":   authority.String(),
		"amount":      amount,
	}

	var resp struct {
		Destination string `json:"destination"`
		Balance     uint64 `json:"balance"`
	}

	if err := httpPostJSON("http://"+c.nodeAddr+"/token/mint-to", body, &resp); err != nil {
		return fmt.Errorf("mint to:\n%w", err)
	}

	return nil
}

// Snapshot downloads and decodes the node's state snapshot.
func (c *Client) Snapshot() (*snapshot.Snapshot, error) {
	compressed, err := httpGetBytes("http://" + c.nodeAddr + "/snapshot")
	if err != nil {
		return nil, fmt.Errorf("get snapshot:\n%w", err)
	}

	data, err := snapshot.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot:\n%w", err)
	}

	return snapshot.Parse(data)
}

// Custody derives the custody account address for a native mint.
func (c *Client) Custody(mint bridge.Address) (bridge.Address, error) {
	return bridge.DeriveCustody(c.programID, c.bridgeAddr, mint)
}

// WrappedMint derives the wrapped mint address for a foreign asset.
func (c *Client) WrappedMint(asset bridge.AssetMeta) (bridge.Address, error) {
	return bridge.DeriveWrappedMint(c.programID, c.bridgeAddr, asset)
}

// ProposalAddress derives the transfer proposal address for an outbound
// transfer applied at slot. senderOwner is the owner of the sending
// token account, which seeds the derivation rather than the account
// address itself.
func (c *Client) ProposalAddress(ix *bridge.TransferOutInstruction, senderOwner bridge.Address, slot uint64) (bridge.Address, error) {
	return bridge.DeriveTransferProposal(c.programID, c.bridgeAddr, ix.Asset,
		ix.DestinationChain, ix.DestinationAddress, senderOwner, slot)
}
