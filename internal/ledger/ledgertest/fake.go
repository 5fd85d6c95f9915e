// internal/ledger/ledgertest/fake.go
package ledgertest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"

	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/scoring"
)

// FakeGameAddress is the identity of the fake game endpoint.
const FakeGameAddress = "0x00000000000000000000000000000000000000b1"

// Fake is an in-memory ledger with working blackjack semantics: dealing,
// dealer play to 17, payouts, stats and leaderboard upkeep, owner-only
// guards. It backs offline play and end-to-end tests. Unauthorized or
// illegal mutations settle as reverted receipts, the way the real ledger
// would reject them.
type Fake struct {
	mu     sync.Mutex
	rng    *rand.Rand
	owner  string
	caller string
	seq    int

	deck     []ledger.CardRank
	rounds   map[string]*fakeRound
	stats    map[string]*ledger.PlayerStats
	balances map[string]ledger.Amount
	allow    map[string]ledger.Amount
	players  []string
	board    []ledger.LeaderboardEntry
	house    ledger.Amount
}

type fakeRound struct {
	phase  ledger.Phase
	bet    ledger.Amount
	player []ledger.CardRank
	dealer []ledger.CardRank
	result string
	payout ledger.Amount
}

// NewFake builds a fake ledger owned by owner. The seed pins the deal order
// for reproducible tests.
func NewFake(owner string, seed int64) *Fake {
	return &Fake{
		rng:      rand.New(rand.NewSource(seed)),
		owner:    strings.ToLower(owner),
		rounds:   make(map[string]*fakeRound),
		stats:    make(map[string]*ledger.PlayerStats),
		balances: make(map[string]ledger.Amount),
		allow:    make(map[string]ledger.Amount),
		house:    ledger.NewAmount(1_000_000),
	}
}

// SetCaller sets the identity mutations are attributed to, standing in for
// the signing session the real gateway carries.
func (f *Fake) SetCaller(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caller = strings.ToLower(address)
}

// Fund credits a balance, the faucet of the fake world.
func (f *Fake) Fund(address string, amount ledger.Amount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(address)
	f.balances[key] = f.balances[key].Add(amount)
}

func (f *Fake) register(address string) *ledger.PlayerStats {
	if s, ok := f.stats[address]; ok {
		return s
	}
	s := &ledger.PlayerStats{}
	f.stats[address] = s
	f.players = append(f.players, address)
	return s
}

// StackDeck queues cards to be dealt before the rng takes over, so tests can
// script exact hands.
func (f *Fake) StackDeck(cards ...ledger.CardRank) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deck = append(f.deck, cards...)
}

func (f *Fake) deal() ledger.CardRank {
	if len(f.deck) > 0 {
		c := f.deck[0]
		f.deck = f.deck[1:]
		return c
	}
	return ledger.CardRank(1 + f.rng.Intn(13))
}

// confirm runs mutate under the lock and settles a transaction handle with
// its verdict: an empty reason confirms, anything else reverts.
func (f *Fake) confirm(mutate func() string) (*ledger.TxHandle, error) {
	f.mu.Lock()
	f.seq++
	hash := fmt.Sprintf("0xfake%06d", f.seq)
	reason := mutate()
	f.mu.Unlock()

	h := ledger.NewTxHandle(hash)
	if reason == "" {
		h.Resolve(&ledger.Receipt{Hash: hash, Status: ledger.TxConfirmed})
	} else {
		h.Resolve(&ledger.Receipt{Hash: hash, Status: ledger.TxReverted, Reason: reason})
	}
	return h, nil
}

// --- game surface ---

func (f *Fake) PlaceBet(_ context.Context, amount ledger.Amount) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		caller := f.caller
		if caller == "" {
			return "unknown caller"
		}
		if r, ok := f.rounds[caller]; ok && (r.phase == ledger.PhasePlayerTurn || r.phase == ledger.PhaseDealerTurn) {
			return "round already in progress"
		}
		if !amount.IsPositive() {
			return "bet must be positive"
		}
		if f.allow[caller].LT(amount) {
			return "insufficient allowance"
		}
		if f.balances[caller].LT(amount) {
			return "insufficient balance"
		}
		f.balances[caller] = f.balances[caller].Sub(amount)
		f.allow[caller] = f.allow[caller].Sub(amount)
		f.house = f.house.Add(amount)

		s := f.register(caller)
		s.TotalBets = s.TotalBets.Add(amount)

		r := &fakeRound{
			phase:  ledger.PhasePlayerTurn,
			bet:    amount,
			player: []ledger.CardRank{f.deal(), f.deal()},
			dealer: []ledger.CardRank{f.deal(), f.deal()},
		}
		f.rounds[caller] = r

		// A natural 21 settles immediately at blackjack odds.
		if total, ok := scoring.Total(r.player); ok && total == 21 {
			f.settle(caller, r, "Blackjack!", r.bet.MulRatio(5, 2))
		}
		return ""
	})
}

func (f *Fake) Hit(context.Context) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		r, ok := f.rounds[f.caller]
		if !ok || r.phase != ledger.PhasePlayerTurn {
			return "not your turn"
		}
		r.player = append(r.player, f.deal())
		if total, _ := scoring.Total(r.player); total > 21 {
			f.settle(f.caller, r, "Bust! Dealer wins.", ledger.ZeroAmount())
		}
		return ""
	})
}

func (f *Fake) Stand(context.Context) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		r, ok := f.rounds[f.caller]
		if !ok || r.phase != ledger.PhasePlayerTurn {
			return "not your turn"
		}
		r.phase = ledger.PhaseDealerTurn
		for {
			total, _ := scoring.Total(r.dealer)
			if total >= 17 {
				break
			}
			r.dealer = append(r.dealer, f.deal())
		}

		playerTotal, _ := scoring.Total(r.player)
		dealerTotal, _ := scoring.Total(r.dealer)
		switch {
		case dealerTotal > 21:
			f.settle(f.caller, r, "Dealer busts! Player wins!", r.bet.MulRatio(2, 1))
		case playerTotal > dealerTotal:
			f.settle(f.caller, r, "Player wins!", r.bet.MulRatio(2, 1))
		case playerTotal < dealerTotal:
			f.settle(f.caller, r, "Dealer wins.", ledger.ZeroAmount())
		default:
			f.settle(f.caller, r, "Push - bet returned.", r.bet)
		}
		return ""
	})
}

// settle finishes a round, pays out, and maintains the stats projection and
// leaderboard the way the stats service does on record calls.
func (f *Fake) settle(address string, r *fakeRound, result string, payout ledger.Amount) {
	r.phase = ledger.PhaseFinished
	r.result = result
	r.payout = payout

	if payout.IsPositive() {
		f.balances[address] = f.balances[address].Add(payout)
		f.house = f.house.Sub(payout)
	}

	s := f.register(address)
	s.GamesPlayed++
	s.LifetimeEarnings = s.LifetimeEarnings.Add(payout)

	kind := resultKind(result)
	switch kind {
	case "win", "blackjack":
		s.Wins++
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		if payout.Cmp(s.BiggestWin) > 0 {
			s.BiggestWin = payout
		}
		if kind == "blackjack" {
			s.Blackjacks++
		}
	case "tie":
		s.Ties++
	default:
		s.Losses++
		s.CurrentStreak = 0
	}
	f.rerank()
}

func resultKind(result string) string {
	r := strings.ToLower(result)
	switch {
	case strings.Contains(r, "blackjack"):
		return "blackjack"
	case strings.Contains(r, "push"), strings.Contains(r, "tie"):
		return "tie"
	case strings.Contains(r, "bust! dealer"), strings.Contains(r, "dealer wins"):
		return "loss"
	case strings.Contains(r, "win"):
		return "win"
	default:
		return "loss"
	}
}

func (f *Fake) netProfit(address string) ledger.Amount {
	s, ok := f.stats[address]
	if !ok {
		return ledger.ZeroAmount()
	}
	return s.LifetimeEarnings.Sub(s.TotalBets)
}

// rerank rebuilds the fixed-size leaderboard from every known player.
func (f *Fake) rerank() {
	entries := make([]ledger.LeaderboardEntry, 0, len(f.players))
	for _, p := range f.players {
		entries = append(entries, ledger.LeaderboardEntry{
			Address:     p,
			DisplayName: f.stats[p].DisplayName,
			NetProfit:   f.netProfit(p),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].NetProfit.Cmp(entries[j].NetProfit) > 0
	})
	if len(entries) > ledger.LeaderboardSize {
		entries = entries[:ledger.LeaderboardSize]
	}
	f.board = entries
}

func (f *Fake) GetGameState(_ context.Context, address string) (*ledger.GameSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[strings.ToLower(address)]
	if !ok {
		return &ledger.GameSnapshot{Phase: ledger.PhaseNotStarted}, nil
	}
	return &ledger.GameSnapshot{
		Phase:      r.phase,
		Bet:        r.bet,
		PlayerHand: append([]ledger.CardRank(nil), r.player...),
		DealerHand: append([]ledger.CardRank(nil), r.dealer...),
		Result:     r.result,
		Payout:     r.payout,
	}, nil
}

func (f *Fake) EditHand(_ context.Context, address string, isPlayerHand bool, cards []ledger.CardRank) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		if f.caller != f.owner {
			return "caller is not the owner"
		}
		if !ledger.ValidHand(cards) {
			return "card out of range"
		}
		r, ok := f.rounds[strings.ToLower(address)]
		if !ok || r.phase == ledger.PhaseFinished || r.phase == ledger.PhaseNotStarted {
			return "no active round for player"
		}
		hand := append([]ledger.CardRank(nil), cards...)
		if isPlayerHand {
			r.player = hand
		} else {
			r.dealer = hand
		}
		return ""
	})
}

func (f *Fake) ForceEndGame(_ context.Context, address string) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		if f.caller != f.owner {
			return "caller is not the owner"
		}
		r, ok := f.rounds[strings.ToLower(address)]
		if !ok || r.phase == ledger.PhaseFinished || r.phase == ledger.PhaseNotStarted {
			return "no active round for player"
		}
		// The bet stays with the house; the round just ends.
		f.settle(strings.ToLower(address), r, "Game force-ended by owner.", ledger.ZeroAmount())
		return ""
	})
}

func (f *Fake) Withdraw(_ context.Context, amount ledger.Amount) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		if f.caller != f.owner {
			return "caller is not the owner"
		}
		take := amount
		if take.IsZero() {
			take = f.house
		}
		if f.house.LT(take) {
			return "insufficient house balance"
		}
		f.house = f.house.Sub(take)
		f.balances[f.owner] = f.balances[f.owner].Add(take)
		return ""
	})
}

// --- stats surface ---

func (f *Fake) GetStats(_ context.Context, address string) (*ledger.PlayerStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stats[strings.ToLower(address)]; ok {
		out := *s
		return &out, nil
	}
	return &ledger.PlayerStats{}, nil
}

func (f *Fake) GetTopPlayers(context.Context) ([]ledger.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]ledger.LeaderboardEntry(nil), f.board...)
	// Pad to the fixed slot count with unoccupied entries, as the contract
	// returns a fixed-size array.
	for len(out) < ledger.LeaderboardSize {
		out = append(out, ledger.LeaderboardEntry{
			Address: "0x0000000000000000000000000000000000000000",
		})
	}
	return out, nil
}

func (f *Fake) SetName(_ context.Context, name string) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		if f.caller == "" {
			return "unknown caller"
		}
		if name == "" {
			return "name cannot be empty"
		}
		f.register(f.caller).DisplayName = name
		f.rerank()
		return ""
	})
}

func (f *Fake) UpdateLeaderboard(_ context.Context, address string) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		if f.caller != f.owner {
			return "caller is not the owner"
		}
		f.register(strings.ToLower(address))
		f.rerank()
		return ""
	})
}

func (f *Fake) GetNetProfit(_ context.Context, address string) (ledger.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.netProfit(strings.ToLower(address)), nil
}

func (f *Fake) GetPlayerName(_ context.Context, address string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stats[strings.ToLower(address)]; ok {
		return s.DisplayName, nil
	}
	return "", nil
}

func (f *Fake) GetAllPlayers(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.players...), nil
}

// --- token surface ---

func (f *Fake) Approve(_ context.Context, spender string, amount ledger.Amount) (*ledger.TxHandle, error) {
	return f.confirm(func() string {
		if f.caller == "" {
			return "unknown caller"
		}
		if !strings.EqualFold(spender, FakeGameAddress) {
			return "unknown spender"
		}
		if amount.IsNegative() {
			return "negative allowance"
		}
		f.allow[f.caller] = amount
		return ""
	})
}

func (f *Fake) Allowance(_ context.Context, owner, spender string) (ledger.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !strings.EqualFold(spender, FakeGameAddress) {
		return ledger.ZeroAmount(), nil
	}
	return f.allow[strings.ToLower(owner)], nil
}

func (f *Fake) BalanceOf(_ context.Context, address string) (ledger.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[strings.ToLower(address)], nil
}

func (f *Fake) GameAddress() string { return FakeGameAddress }

// HouseBalance exposes the house bank for assertions.
func (f *Fake) HouseBalance() ledger.Amount {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.house
}

var _ ledger.Gateway = (*Fake)(nil)
