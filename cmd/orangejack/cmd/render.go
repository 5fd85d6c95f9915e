// cmd/orangejack/cmd/render.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/notify"
	"github.com/orangejack/orangejack/internal/reconcile"
)

func renderHand(h reconcile.HandView, hidden bool) string {
	if len(h.Cards) == 0 {
		return "(no cards)"
	}
	names := make([]string, 0, len(h.Cards)+1)
	for _, c := range h.Cards {
		names = append(names, c.String())
	}
	if hidden {
		names = append(names, "??")
	}
	out := strings.Join(names, " ")
	if h.HasTotal {
		out += fmt.Sprintf("  (total %d)", h.Total)
	}
	return out
}

func renderGame(v reconcile.GameView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phase:  %s\n", v.Phase)
	if !v.Bet.IsZero() {
		fmt.Fprintf(&b, "Bet:    %s %s\n", v.Bet.Format(), ledger.Symbol)
	}
	fmt.Fprintf(&b, "You:    %s\n", renderHand(v.Player, false))
	fmt.Fprintf(&b, "Dealer: %s\n", renderHand(v.Dealer, v.DealerPartial))
	if v.Result != "" {
		fmt.Fprintf(&b, "Result: %s", v.Result)
		if v.Payout.IsPositive() {
			fmt.Fprintf(&b, " (paid %s %s)", v.Payout.Format(), ledger.Symbol)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderBalances(b reconcile.Balances) string {
	return fmt.Sprintf("Balance: %s %s   Allowance: %s %s",
		b.Balance.Format(), ledger.Symbol, b.Allowance.Format(), ledger.Symbol)
}

func renderStats(s ledger.PlayerStats) string {
	var b strings.Builder
	if s.DisplayName != "" {
		fmt.Fprintf(&b, "Name:          %s\n", s.DisplayName)
	}
	fmt.Fprintf(&b, "Games played:  %d\n", s.GamesPlayed)
	fmt.Fprintf(&b, "Record:        %d-%d-%d (W-L-T)\n", s.Wins, s.Losses, s.Ties)
	fmt.Fprintf(&b, "Blackjacks:    %d\n", s.Blackjacks)
	fmt.Fprintf(&b, "Streak:        %d (best %d)\n", s.CurrentStreak, s.LongestStreak)
	fmt.Fprintf(&b, "Biggest win:   %s %s\n", s.BiggestWin.Format(), ledger.Symbol)
	fmt.Fprintf(&b, "Earnings:      %s %s on %s %s wagered\n",
		s.LifetimeEarnings.Format(), ledger.Symbol, s.TotalBets.Format(), ledger.Symbol)
	return b.String()
}

func renderLeaderboard(board []ledger.LeaderboardEntry) string {
	var b strings.Builder
	rank := 0
	for _, e := range board {
		if e.Address == "" || strings.Trim(strings.TrimPrefix(e.Address, "0x"), "0") == "" {
			continue // unoccupied slot
		}
		rank++
		name := e.DisplayName
		if name == "" {
			name = shortAddress(e.Address)
		}
		fmt.Fprintf(&b, "%d. %-20s %s %s\n", rank, name, e.NetProfit.Format(), ledger.Symbol)
	}
	if rank == 0 {
		return "Leaderboard is empty.\n"
	}
	return b.String()
}

func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + "..." + addr[len(addr)-4:]
}

// drainNotifications prints and clears whatever the scheduler is showing.
func (a *app) drainNotifications() {
	if o, ok := a.sched.Overlay(); ok {
		fmt.Printf("\n=== %s ===\n\n", o.Message)
		a.sched.ClearOverlay()
	}
	if t, ok := a.sched.Toast(); ok && !notify.InFlight(t.Message) {
		fmt.Printf("[%s] %s\n", t.Severity, t.Message)
	}
}
