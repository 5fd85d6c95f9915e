// internal/ledger/types.go
package ledger

import "fmt"

// Symbol is the display ticker of the token the game is played with.
const Symbol = "LUSD"

// CardRank is a card rank as stored by the ledger: 1 = Ace, 2..10 numerals,
// 11 = Jack, 12 = Queen, 13 = King. Suits are not tracked on chain.
type CardRank uint8

// Valid reports whether the rank lies in the ledger's accepted domain.
func (r CardRank) Valid() bool {
	return r >= 1 && r <= 13
}

// String renders the rank the way the table UI shows it (A, 2..10, J, Q, K).
func (r CardRank) String() string {
	switch r {
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return fmt.Sprintf("%d", uint8(r))
	}
}

// ValidHand reports whether every rank of a proposed hand is in domain.
// Used to reject doomed admin hand edits before any network call.
func ValidHand(cards []CardRank) bool {
	for _, c := range cards {
		if !c.Valid() {
			return false
		}
	}
	return true
}

// Phase is the four-state lifecycle of one round, mirroring the ledger's
// game state enum ordering.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhasePlayerTurn
	PhaseDealerTurn
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhasePlayerTurn:
		return "PlayerTurn"
	case PhaseDealerTurn:
		return "DealerTurn"
	case PhaseFinished:
		return "Finished"
	default:
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
}

// GameSnapshot is one self-consistent read of a player's round from the game
// service. DealerHand is the full hand as the ledger stores it; any hiding
// during the player's turn is a presentation decision made by the reconciler.
type GameSnapshot struct {
	Phase      Phase      `json:"phase"`
	Bet        Amount     `json:"bet"`
	PlayerHand []CardRank `json:"playerHand"`
	DealerHand []CardRank `json:"dealerHand"`
	Result     string     `json:"result"` // ledger-provided outcome text, empty until finished
	Payout     Amount     `json:"payout"`
}

// PlayerStats is the stats service projection for one player. Counters are
// owned by the ledger; the client never mutates them locally.
type PlayerStats struct {
	Wins             uint64 `json:"wins"`
	Losses           uint64 `json:"losses"`
	Ties             uint64 `json:"ties"`
	Blackjacks       uint64 `json:"blackjacks"`
	GamesPlayed      uint64 `json:"gamesPlayed"`
	CurrentStreak    uint64 `json:"streak"`
	LongestStreak    uint64 `json:"longestStreak"`
	BiggestWin       Amount `json:"biggestWin"`
	LifetimeEarnings Amount `json:"earnings"`
	TotalBets        Amount `json:"bets"`
	DisplayName      string `json:"name"`
}

// LeaderboardSize is the fixed number of ranked slots the stats service keeps.
const LeaderboardSize = 5

// LeaderboardEntry is one ranked slot. NetProfit is signed.
type LeaderboardEntry struct {
	Address     string `json:"address"`
	DisplayName string `json:"name"`
	NetProfit   Amount `json:"netProfit"`
}

// EventType identifies a ledger event pushed over the gateway connection.
type EventType string

const (
	EventCardDealt     EventType = "CardDealt"
	EventGameStarted   EventType = "GameStarted"
	EventGameEnded     EventType = "GameEnded"
	EventGameForceEnd  EventType = "GameForceEnded"
	EventHandEdited    EventType = "HandEdited"
	EventNameSet       EventType = "NameSet"
	EventLeaderboardUp EventType = "LeaderboardUpdated"
)

// Event carries the decoded fields of a ledger event. Only the fields
// meaningful for the event's type are populated.
type Event struct {
	Type     EventType  `json:"type"`
	Player   string     `json:"player"`
	Card     CardRank   `json:"card,omitempty"`
	Bet      Amount     `json:"bet,omitempty"`
	Result   string     `json:"result,omitempty"`
	Payout   Amount     `json:"payout,omitempty"`
	IsPlayer bool       `json:"isPlayer,omitempty"`
	Hand     []CardRank `json:"hand,omitempty"`
	Name     string     `json:"name,omitempty"`
}
