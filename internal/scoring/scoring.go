// internal/scoring/scoring.go

// Package scoring turns raw card ranks into hand totals under the same rules
// the ledger applies: aces count 11 and demote to 1 one at a time while the
// hand would bust, face cards count 10.
package scoring

import "github.com/orangejack/orangejack/internal/ledger"

// Class is the presentation classification of a total. Whether a 21 pays as
// a natural blackjack is the ledger's call; the client only flags the value.
type Class uint8

const (
	ClassNormal Class = iota
	ClassTwentyOne
	ClassBust
)

func (c Class) String() string {
	switch c {
	case ClassTwentyOne:
		return "twentyone"
	case ClassBust:
		return "bust"
	default:
		return "normal"
	}
}

// Total computes the hand total. The second return is false for an empty
// hand: "no cards yet" is absence, not a total of zero, and callers must
// keep the distinction.
func Total(hand []ledger.CardRank) (int, bool) {
	if len(hand) == 0 {
		return 0, false
	}
	total := 0
	aces := 0
	for _, c := range hand {
		switch {
		case c == 1:
			total += 11
			aces++
		case c >= 11:
			total += 10
		default:
			total += int(c)
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, true
}

// Classify flags a total for rendering: bust above 21, the 21 highlight at
// exactly 21, neutral otherwise.
func Classify(total int) Class {
	switch {
	case total > 21:
		return ClassBust
	case total == 21:
		return ClassTwentyOne
	default:
		return ClassNormal
	}
}
