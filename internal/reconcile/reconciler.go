// internal/reconcile/reconciler.go

// Package reconcile refreshes local view-state from the ledger after each
// settled mutation. The ledger owns the truth; this package only derives a
// consistent, presentable projection of it.
package reconcile

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orangejack/orangejack/internal/ledger"
)

// ZeroIdentity is the ledger's null address; leaderboard slots holding it
// are unoccupied.
const ZeroIdentity = "0x0000000000000000000000000000000000000000"

// Reconciler is the sole writer of the view-model. Each reconciliation pass
// performs independent reads and applies each result atomically to its own
// slice of the view; one failed read never blocks or corrupts the others.
type Reconciler struct {
	gw  ledger.Gateway
	log *logrus.Logger

	mu       sync.RWMutex
	game     GameView
	stats    ledger.PlayerStats
	board    []ledger.LeaderboardEntry
	balances Balances
}

// New builds a Reconciler over a gateway.
func New(gw ledger.Gateway, log *logrus.Logger) *Reconciler {
	return &Reconciler{gw: gw, log: log}
}

// Reconcile pulls authoritative state for address and replaces each view
// slice wholesale. Reads are independent and unordered; a failure in one is
// logged and leaves only that slice at its previous value. Reconcile never
// returns an error; the worst outcome is a stale but consistent slice.
func (r *Reconciler) Reconcile(ctx context.Context, address string) {
	if snap, err := r.gw.GetGameState(ctx, address); err != nil {
		r.readFailed("game", err)
	} else {
		view := deriveView(snap)
		r.mu.Lock()
		r.game = view
		r.mu.Unlock()
	}

	if stats, err := r.gw.GetStats(ctx, address); err != nil {
		r.readFailed("stats", err)
	} else {
		r.mu.Lock()
		r.stats = *stats
		r.mu.Unlock()
	}

	if board, err := r.gw.GetTopPlayers(ctx); err != nil {
		r.readFailed("leaderboard", err)
	} else {
		occupied := make([]ledger.LeaderboardEntry, 0, len(board))
		for _, e := range board {
			if e.Address == "" || e.Address == ZeroIdentity {
				continue
			}
			occupied = append(occupied, e)
		}
		r.mu.Lock()
		r.board = occupied
		r.mu.Unlock()
	}

	r.reconcileBalances(ctx, address)
}

// reconcileBalances refreshes the token slice. Balance and allowance travel
// together so the approval hint in the UI can never contradict the balance
// it is rendered next to.
func (r *Reconciler) reconcileBalances(ctx context.Context, address string) {
	balance, err := r.gw.BalanceOf(ctx, address)
	if err != nil {
		r.readFailed("token", err)
		return
	}
	allowance, err := r.gw.Allowance(ctx, address, r.gw.GameAddress())
	if err != nil {
		r.readFailed("token", err)
		return
	}
	r.mu.Lock()
	r.balances = Balances{Balance: balance, Allowance: allowance}
	r.mu.Unlock()
}

func (r *Reconciler) readFailed(slice string, err error) {
	r.log.WithFields(logrus.Fields{
		"slice": slice,
		"error": ledger.WrapErr(ledger.KindReadFailure, slice, err),
	}).Warn("Reconciliation read failed; keeping previous value")
}

// ResetForNewRound clears the transient round slice locally so a fresh bet
// screen does not show the previous round's result. Stats, leaderboard and
// balances are left alone; the next reconcile replaces everything anyway.
func (r *Reconciler) ResetForNewRound() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.game = GameView{Phase: ledger.PhaseNotStarted}
}

// Game returns a copy of the current round view.
func (r *Reconciler) Game() GameView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.game.clone()
}

// Stats returns a copy of the player's stats projection.
func (r *Reconciler) Stats() ledger.PlayerStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Leaderboard returns a copy of the occupied leaderboard slots, best first.
func (r *Reconciler) Leaderboard() []ledger.LeaderboardEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ledger.LeaderboardEntry(nil), r.board...)
}

// Balances returns the token slice of the view.
func (r *Reconciler) Balances() Balances {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances
}
