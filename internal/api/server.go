package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"BlueBridge/internal/bridge"
	"BlueBridge/internal/logger"
	"BlueBridge/internal/snapshot"
	"BlueBridge/internal/token"
)

const (
	// maxBodySize is the maximum request body size in bytes. Encoded
	// instructions top out at a few hundred bytes.
	maxBodySize = 4096
)

// Executor applies encoded bridge instructions against persistent state.
type Executor interface {
	Execute(data []byte) error
}

// StateReader exposes bridge accounts for inspection.
type StateReader interface {
	Status() (*bridge.Status, error)
	GuardianSet(index uint32) (*bridge.GuardianSet, bridge.Address, error)
	Proposal(addr bridge.Address) (*bridge.TransferOutProposal, error)
	Store() *bridge.Store
}

// Server is the HTTP API server.
type Server struct {
	addr   string        // addr is the HTTP listen address
	exec   Executor      // exec applies submitted instructions
	state  StateReader   // state reads bridge accounts
	ledger *token.Ledger // ledger provisions token mints and accounts
	clock  bridge.Clock  // clock stamps snapshots with the current slot
	server *http.Server  // server is the underlying HTTP server

	mu sync.Mutex // mu serializes mutating handlers; the program requires a single writer
}

// New creates a new HTTP API server.
func New(addr string, exec Executor, state StateReader, ledger *token.Ledger, clock bridge.Clock) *Server {
	return &Server{
		addr:   addr,
		exec:   exec,
		state:  state,
		ledger: ledger,
		clock:  clock,
	}
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /instruction", s.handleInstruction)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /account/{addr}", s.handleAccount)
	mux.HandleFunc("GET /guardians/{index}", s.handleGuardianSet)
	mux.HandleFunc("GET /proposal/{addr}", s.handleProposal)
	mux.HandleFunc("POST /token/mint", s.handleCreateMint)
	mux.HandleFunc("POST /token/account", s.handleCreateAccount)
	mux.HandleFunc("POST /token/mint-to", s.handleMintTo)
	mux.HandleFunc("GET /token/account/{addr}", s.handleTokenAccount)
	mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http api started", "addr", s.addr)

		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleInstruction handles POST /instruction requests.
func (s *Server) handleInstruction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty instruction")
		return
	}

	op := bridge.OpName(body[0])

	s.mu.Lock()
	err = s.exec.Execute(body)
	s.mu.Unlock()

	if err != nil {
		logger.Debug("instruction rejected", "op", op, "error", err)
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"op": op,
	})
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleStatus handles GET /status requests.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.state.Status()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"programId":           status.ProgramID.String(),
		"bridgeAddress":       status.BridgeAddress.String(),
		"initialized":         status.Initialized,
		"guardianSetIndex":    status.GuardianSetIndex,
		"vaaExpirationWindow": status.VAAExpirationWindow,
		"tokenLedger":         status.TokenLedger.String(),
	})
}

// handleAccount handles GET /account/{addr} requests. It returns the raw
// record bytes of any bridge account.
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := bridge.ParseAddress(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	data, err := s.state.Store().Account(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if data == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"address": addr.String(),
		"data":    hex.EncodeToString(data),
	})
}

// handleGuardianSet handles GET /guardians/{index} requests.
func (s *Server) handleGuardianSet(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseUint(r.PathValue("index"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid guardian set index")
		return
	}

	set, addr, err := s.state.GuardianSet(uint32(index))
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"index":          set.Index,
		"address":        addr.String(),
		"key":            hex.EncodeToString(set.Key[:]),
		"creationTime":   set.CreationTime,
		"expirationTime": set.ExpirationTime,
	})
}

// handleProposal handles GET /proposal/{addr} requests.
func (s *Server) handleProposal(w http.ResponseWriter, r *http.Request) {
	addr, err := bridge.ParseAddress(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	proposal, err := s.state.Proposal(addr)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address":        addr.String(),
		"amount":         proposal.Amount,
		"toChain":        proposal.ToChain,
		"foreignAddress": proposal.ForeignAddress.String(),
		"assetChain":     proposal.Asset.Chain,
		"assetAddress":   proposal.Asset.Address.String(),
		"vaaTime":        proposal.VAATime,
	})
}

// createMintRequest is the JSON body for POST /token/mint.
type createMintRequest struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Decimals  uint8  `json:"decimals"`
}

// handleCreateMint handles POST /token/mint requests.
func (s *Server) handleCreateMint(w http.ResponseWriter, r *http.Request) {
	var req createMintRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	addr, err := bridge.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	authority, err := bridge.ParseAddress(req.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid authority address")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.state.Store().NewView()
	if err := s.ledger.CreateMint(view, addr, authority, req.Decimals); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	if err := view.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Debug("token mint created", "mint", addr.Short())

	writeJSON(w, http.StatusCreated, map[string]string{
		"address": addr.String(),
	})
}

// createAccountRequest is the JSON body for POST /token/account.
type createAccountRequest struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
}

// handleCreateAccount handles POST /token/account requests.
func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	addr, err := bridge.ParseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}

	mint, err := bridge.ParseAddress(req.Mint)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	owner, err := bridge.ParseAddress(req.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid owner address")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.state.Store().NewView()
	if err := s.ledger.CreateAccount(view, addr, mint, owner); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	if err := view.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Debug("token account created", "account", addr.Short(), "mint", mint.Short())

	writeJSON(w, http.StatusCreated, map[string]string{
		"address": addr.String(),
	})
}

// mintToRequest is the JSON body for POST /token/mint-to.
type mintToRequest struct {
	Mint        string `json:"mint"`
	Destination string `json:"destination"`
	Authority   string `json:"authority"`
	Amount      uint64 `json:"amount"`
}

// handleMintTo handles POST /token/mint-to requests. It issues tokens on
// an operator-provisioned mint; the named authority must match the mint's.
func (s *Server) handleMintTo(w http.ResponseWriter, r *http.Request) {
	var req mintToRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	mint, err := bridge.ParseAddress(req.Mint)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mint address")
		return
	}

	dest, err := bridge.ParseAddress(req.Destination)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid destination address")
		return
	}

	authority, err := bridge.ParseAddress(req.Authority)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid authority address")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.state.Store().NewView()
	if err := s.ledger.MintTo(view, mint, dest, authority, req.Amount); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	account, err := s.ledger.Account(view, dest)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := view.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Debug("tokens minted", "mint", mint.Short(), "destination", dest.Short(), "amount", req.Amount)

	writeJSON(w, http.StatusOK, map[string]any{
		"destination": dest.String(),
		"balance":     account.Balance,
	})
}

// handleTokenAccount handles GET /token/account/{addr} requests.
func (s *Server) handleTokenAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := bridge.ParseAddress(r.PathValue("addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	account, err := s.ledger.Account(s.state.Store().NewView(), addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if account == nil {
		writeError(w, http.StatusNotFound, "token account not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address": addr.String(),
		"mint":    account.Mint.String(),
		"owner":   account.Owner.String(),
		"balance": account.Balance,
	})
}

// handleSnapshot handles GET /snapshot requests. The response body is a
// zstd-compressed snapshot of every bridge account.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	// Hold the writer lock so the stamped slot matches the captured state.
	s.mu.Lock()
	data, err := snapshot.Create(s.state.Store(), s.clock.Slot())
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	compressed, err := snapshot.Compress(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zstd")
	w.WriteHeader(http.StatusOK)
	w.Write(compressed)
}

// errorStatus maps bridge and token ledger errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, bridge.ErrParseFailed),
		errors.Is(err, bridge.ErrInvalidAccountData):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrAlreadyExists),
		errors.Is(err, bridge.ErrVAAClaimed),
		errors.Is(err, token.ErrMintExists),
		errors.Is(err, token.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, bridge.ErrUninitializedState),
		errors.Is(err, token.ErrUnknownMint),
		errors.Is(err, token.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, bridge.ErrInvalidVAASignature),
		errors.Is(err, bridge.ErrInvalidVAAAction),
		errors.Is(err, bridge.ErrOldGuardianSet),
		errors.Is(err, bridge.ErrGuardianIndexNotIncreasing),
		errors.Is(err, bridge.ErrGuardianSetExpired),
		errors.Is(err, bridge.ErrVAAExpired),
		errors.Is(err, bridge.ErrInvalidDerivedAccount),
		errors.Is(err, bridge.ErrTokenMintMismatch),
		errors.Is(err, bridge.ErrWrongMintOwner),
		errors.Is(err, bridge.ErrWrongTokenAccountOwner),
		errors.Is(err, token.ErrWrongAuthority),
		errors.Is(err, token.ErrMintMismatch),
		errors.Is(err, token.ErrInsufficientFunds),
		errors.Is(err, token.ErrAmountOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
