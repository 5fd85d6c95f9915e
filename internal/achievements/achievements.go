// internal/achievements/achievements.go

// Package achievements derives trophies from a player's ledger stats and
// leaderboard standing. Trophies are computed, never stored: the stats are
// the single source of truth.
package achievements

import (
	"strings"

	"github.com/orangejack/orangejack/internal/ledger"
)

// Trophy is one earnable achievement with its unlock state.
type Trophy struct {
	ID          string
	Name        string
	Description string
	Earned      bool
}

// thresholds for the stat-based trophies.
var (
	blackjackTarget   = uint64(25)
	streakTarget      = uint64(10)
	gamesTarget       = uint64(100)
	bigWinTarget      = ledger.NewAmount(10_000)
	trophyDefinitions = []struct {
		id, name, description string
	}{
		{"blackjack_master", "Blackjack Master", "Get 25 natural blackjacks"},
		{"high_roller", "High Roller", "Win big with a payout of 10,000 " + ledger.Symbol + " or more"},
		{"streak_king", "Streak King", "Achieve a winning streak of 10 or more"},
		{"profit_leader", "Profit Leader", "Reach #1 on the leaderboard"},
		{"blackjack_veteran", "Blackjack Veteran", "Play 100 or more games"},
	}
)

// Evaluate computes every trophy for a player. The leaderboard may be nil
// when it could not be read; the leaderboard trophy is then simply unearned.
func Evaluate(address string, stats ledger.PlayerStats, board []ledger.LeaderboardEntry) []Trophy {
	earned := map[string]bool{
		"blackjack_master":  stats.Blackjacks >= blackjackTarget,
		"high_roller":       stats.BiggestWin.GTE(bigWinTarget),
		"streak_king":       stats.LongestStreak >= streakTarget,
		"profit_leader":     topsLeaderboard(address, board),
		"blackjack_veteran": stats.GamesPlayed >= gamesTarget,
	}

	out := make([]Trophy, 0, len(trophyDefinitions))
	for _, def := range trophyDefinitions {
		out = append(out, Trophy{
			ID:          def.id,
			Name:        def.name,
			Description: def.description,
			Earned:      earned[def.id],
		})
	}
	return out
}

// EarnedCount reports how many trophies in ts are unlocked.
func EarnedCount(ts []Trophy) int {
	n := 0
	for _, t := range ts {
		if t.Earned {
			n++
		}
	}
	return n
}

func topsLeaderboard(address string, board []ledger.LeaderboardEntry) bool {
	if len(board) == 0 {
		return false
	}
	return strings.EqualFold(board[0].Address, address)
}
