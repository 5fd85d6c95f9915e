// internal/ledger/ledgertest/stub.go

// Package ledgertest provides test doubles for the gateway: a programmable
// Stub for unit tests and an in-memory Fake ledger with real blackjack
// semantics for end-to-end flows and offline play.
package ledgertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/orangejack/orangejack/internal/ledger"
)

// Stub is a programmable ledger.Gateway. Reads serve the configured values
// or errors; mutations record the call and settle immediately with the
// configured receipt. Zero value serves empty state and confirms everything.
type Stub struct {
	mu    sync.Mutex
	calls []string
	seq   int

	Snapshot    ledger.GameSnapshot
	SnapshotErr error

	// SnapshotQueue, when non-empty, serves GetGameState reads in order
	// before falling back to Snapshot. Lets a test show different state to
	// the pre-submit phase read and the post-settle reconcile read.
	SnapshotQueue []ledger.GameSnapshot

	Stats    ledger.PlayerStats
	StatsErr error

	Board    []ledger.LeaderboardEntry
	BoardErr error

	Balance      ledger.Amount
	BalanceErr   error
	AllowanceAmt ledger.Amount
	AllowanceErr error

	Names      map[string]string
	NetProfit  ledger.Amount
	AllPlayers []string

	// SubmitErr fails the hand-off itself; otherwise every mutation settles
	// with ReceiptStatus/ReceiptReason (zero value: TxConfirmed).
	SubmitErr     error
	ReceiptStatus ledger.TxStatus
	ReceiptReason string

	// Hold keeps submitted transactions pending until Release, for tests
	// that need an in-flight request.
	Hold    bool
	pending []*ledger.TxHandle
}

// Release settles every held transaction with the configured receipt.
func (s *Stub) Release() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	status := s.ReceiptStatus
	if status == ledger.TxPending {
		status = ledger.TxConfirmed
	}
	reason := s.ReceiptReason
	s.mu.Unlock()
	for _, h := range pending {
		h.Resolve(&ledger.Receipt{Hash: h.Hash, Status: status, Reason: reason})
	}
}

func (s *Stub) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op)
}

// Calls returns every operation name invoked so far, in order.
func (s *Stub) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount counts invocations of one operation.
func (s *Stub) CallCount(op string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

func (s *Stub) submit(op string) (*ledger.TxHandle, error) {
	s.record(op)
	if s.SubmitErr != nil {
		return nil, s.SubmitErr
	}
	s.mu.Lock()
	s.seq++
	hash := fmt.Sprintf("0xstub%04d", s.seq)
	hold := s.Hold
	h := ledger.NewTxHandle(hash)
	if hold {
		s.pending = append(s.pending, h)
	}
	s.mu.Unlock()
	if !hold {
		status := s.ReceiptStatus
		if status == ledger.TxPending {
			status = ledger.TxConfirmed
		}
		h.Resolve(&ledger.Receipt{Hash: hash, Status: status, Reason: s.ReceiptReason})
	}
	return h, nil
}

// --- game surface ---

func (s *Stub) PlaceBet(context.Context, ledger.Amount) (*ledger.TxHandle, error) {
	return s.submit("game.placeBet")
}

func (s *Stub) Hit(context.Context) (*ledger.TxHandle, error) { return s.submit("game.hit") }

func (s *Stub) Stand(context.Context) (*ledger.TxHandle, error) { return s.submit("game.stand") }

func (s *Stub) GetGameState(context.Context, string) (*ledger.GameSnapshot, error) {
	s.record("game.getGameState")
	if s.SnapshotErr != nil {
		return nil, s.SnapshotErr
	}
	s.mu.Lock()
	snap := s.Snapshot
	if len(s.SnapshotQueue) > 0 {
		snap = s.SnapshotQueue[0]
		s.SnapshotQueue = s.SnapshotQueue[1:]
	}
	s.mu.Unlock()
	snap.PlayerHand = append([]ledger.CardRank(nil), snap.PlayerHand...)
	snap.DealerHand = append([]ledger.CardRank(nil), snap.DealerHand...)
	return &snap, nil
}

func (s *Stub) EditHand(context.Context, string, bool, []ledger.CardRank) (*ledger.TxHandle, error) {
	return s.submit("game.editHand")
}

func (s *Stub) ForceEndGame(context.Context, string) (*ledger.TxHandle, error) {
	return s.submit("game.forceEndGame")
}

func (s *Stub) Withdraw(context.Context, ledger.Amount) (*ledger.TxHandle, error) {
	return s.submit("game.withdraw")
}

// --- stats surface ---

func (s *Stub) GetStats(context.Context, string) (*ledger.PlayerStats, error) {
	s.record("stats.getStats")
	if s.StatsErr != nil {
		return nil, s.StatsErr
	}
	stats := s.Stats
	return &stats, nil
}

func (s *Stub) GetTopPlayers(context.Context) ([]ledger.LeaderboardEntry, error) {
	s.record("stats.getTopPlayers")
	if s.BoardErr != nil {
		return nil, s.BoardErr
	}
	return append([]ledger.LeaderboardEntry(nil), s.Board...), nil
}

func (s *Stub) SetName(context.Context, string) (*ledger.TxHandle, error) {
	return s.submit("stats.setName")
}

func (s *Stub) UpdateLeaderboard(context.Context, string) (*ledger.TxHandle, error) {
	return s.submit("stats.updateLeaderboard")
}

func (s *Stub) GetNetProfit(context.Context, string) (ledger.Amount, error) {
	s.record("stats.getNetProfit")
	return s.NetProfit, nil
}

func (s *Stub) GetPlayerName(_ context.Context, address string) (string, error) {
	s.record("stats.getPlayerName")
	return s.Names[address], nil
}

func (s *Stub) GetAllPlayers(context.Context) ([]string, error) {
	s.record("stats.getAllPlayers")
	return append([]string(nil), s.AllPlayers...), nil
}

// --- token surface ---

func (s *Stub) Approve(context.Context, string, ledger.Amount) (*ledger.TxHandle, error) {
	return s.submit("token.approve")
}

func (s *Stub) Allowance(context.Context, string, string) (ledger.Amount, error) {
	s.record("token.allowance")
	if s.AllowanceErr != nil {
		return ledger.Amount{}, s.AllowanceErr
	}
	return s.AllowanceAmt, nil
}

func (s *Stub) BalanceOf(context.Context, string) (ledger.Amount, error) {
	s.record("token.balanceOf")
	if s.BalanceErr != nil {
		return ledger.Amount{}, s.BalanceErr
	}
	return s.Balance, nil
}

func (s *Stub) GameAddress() string { return "0xfacefacefacefacefacefacefacefacefaceface" }

var _ ledger.Gateway = (*Stub)(nil)
