// internal/ledger/gateway.go
package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TxStatus is the settle state of a submitted transaction.
type TxStatus uint8

const (
	TxPending TxStatus = iota
	TxConfirmed
	TxReverted
	TxOutOfGas
)

func (s TxStatus) String() string {
	switch s {
	case TxPending:
		return "pending"
	case TxConfirmed:
		return "confirmed"
	case TxReverted:
		return "reverted"
	case TxOutOfGas:
		return "out_of_gas"
	default:
		return "unknown"
	}
}

// Receipt is the settle result of a transaction.
type Receipt struct {
	Hash   string   `json:"hash"`
	Status TxStatus `json:"status"`
	Reason string   `json:"reason,omitempty"` // revert reason when the ledger supplied one
}

// TxHandle tracks one submitted mutation from hand-off to settle. A handle
// resolves exactly once; Wait may be called from any number of goroutines.
// Transactions are not revocable, so there is no cancel and no timeout:
// Wait honors its context but the underlying tx keeps going regardless.
type TxHandle struct {
	ID   uuid.UUID // client-side correlation id
	Hash string    // ledger tx hash, set at hand-off

	once    sync.Once
	done    chan struct{}
	receipt *Receipt
	err     error
}

// NewTxHandle builds a pending handle for a submitted transaction.
func NewTxHandle(hash string) *TxHandle {
	return &TxHandle{
		ID:   uuid.New(),
		Hash: hash,
		done: make(chan struct{}),
	}
}

// Resolve settles the handle with a receipt. Later calls are no-ops.
func (h *TxHandle) Resolve(r *Receipt) {
	h.once.Do(func() {
		h.receipt = r
		close(h.done)
	})
}

// Fail settles the handle with a transport-level error (connection lost
// before any receipt was observed).
func (h *TxHandle) Fail(err error) {
	h.once.Do(func() {
		h.err = err
		close(h.done)
	})
}

// Wait blocks until the transaction settles or ctx ends. A non-confirmed
// receipt is returned as a receipt, not an error; use Confirm when the
// caller only cares about success.
func (h *TxHandle) Wait(ctx context.Context) (*Receipt, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		if h.err != nil {
			return nil, h.err
		}
		return h.receipt, nil
	}
}

// Confirm waits for settle and converts non-success outcomes into the error
// taxonomy: reverted transactions become KindRevert with the ledger reason,
// included-but-failed ones become KindMinedFailure.
func (h *TxHandle) Confirm(ctx context.Context, op string) (*Receipt, error) {
	r, err := h.Wait(ctx)
	if err != nil {
		return nil, WrapErr(KindConnection, op, err)
	}
	switch r.Status {
	case TxConfirmed:
		return r, nil
	case TxOutOfGas:
		return r, E(KindMinedFailure, op, "transaction ran out of gas")
	default:
		reason := r.Reason
		if reason == "" {
			reason = "transaction reverted"
		}
		return r, E(KindRevert, op, reason)
	}
}

// GameService is the typed surface of the blackjack game endpoint. Every
// remote method is a statically declared operation; amount scaling is done
// by the implementation, never by callers.
type GameService interface {
	PlaceBet(ctx context.Context, amount Amount) (*TxHandle, error)
	Hit(ctx context.Context) (*TxHandle, error)
	Stand(ctx context.Context) (*TxHandle, error)
	GetGameState(ctx context.Context, address string) (*GameSnapshot, error)

	// Owner-only operations. The ledger enforces authorization; clients gate
	// them up front only to avoid presenting doomed submissions.
	EditHand(ctx context.Context, address string, isPlayerHand bool, cards []CardRank) (*TxHandle, error)
	ForceEndGame(ctx context.Context, address string) (*TxHandle, error)
	Withdraw(ctx context.Context, amount Amount) (*TxHandle, error) // zero amount withdraws everything
}

// StatsService is the typed surface of the stats endpoint.
type StatsService interface {
	GetStats(ctx context.Context, address string) (*PlayerStats, error)
	GetTopPlayers(ctx context.Context) ([]LeaderboardEntry, error)
	SetName(ctx context.Context, name string) (*TxHandle, error)
	UpdateLeaderboard(ctx context.Context, address string) (*TxHandle, error) // owner-only
	GetNetProfit(ctx context.Context, address string) (Amount, error)
	GetPlayerName(ctx context.Context, address string) (string, error)
	GetAllPlayers(ctx context.Context) ([]string, error)
}

// TokenService is the typed surface of the fungible token the game is played
// with.
type TokenService interface {
	Approve(ctx context.Context, spender string, amount Amount) (*TxHandle, error)
	Allowance(ctx context.Context, owner, spender string) (Amount, error)
	BalanceOf(ctx context.Context, address string) (Amount, error)
}

// Gateway is the full typed surface of the ledger as the client sees it.
type Gateway interface {
	GameService
	StatsService
	TokenService

	// GameAddress is the identity of the game endpoint, used as the spender
	// for token approvals.
	GameAddress() string
}
