// internal/reconcile/view.go
package reconcile

import (
	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/scoring"
)

// HandView is one participant's hand together with its derived total. The
// two are always produced together; a view never shows a hand update without
// its matching total.
type HandView struct {
	Cards    []ledger.CardRank
	Total    int
	HasTotal bool // false when no cards have been dealt
	Class    scoring.Class
}

// GameView is the derived view-model for the current round. Mutated only by
// the Reconciler; everything else reads copies.
type GameView struct {
	Phase  ledger.Phase
	Bet    ledger.Amount
	Player HandView
	Dealer HandView
	// DealerPartial is true while only the dealer's first card is exposed.
	DealerPartial bool
	Result        string
	Payout        ledger.Amount
}

// Balances is the token slice of the view.
type Balances struct {
	Balance   ledger.Amount
	Allowance ledger.Amount
}

func newHandView(cards []ledger.CardRank) HandView {
	v := HandView{Cards: append([]ledger.CardRank(nil), cards...)}
	v.Total, v.HasTotal = scoring.Total(cards)
	if v.HasTotal {
		v.Class = scoring.Classify(v.Total)
	}
	return v
}

// deriveView turns one self-consistent ledger snapshot into the view-model.
// While the player is still acting, only the dealer's first card is exposed
// even though the underlying read returns the full hand.
func deriveView(snap *ledger.GameSnapshot) GameView {
	view := GameView{
		Phase:  snap.Phase,
		Bet:    snap.Bet,
		Player: newHandView(snap.PlayerHand),
		Result: snap.Result,
		Payout: snap.Payout,
	}
	dealer := snap.DealerHand
	if snap.Phase == ledger.PhasePlayerTurn && len(dealer) > 1 {
		dealer = dealer[:1]
		view.DealerPartial = true
	}
	view.Dealer = newHandView(dealer)
	return view
}

func (v GameView) clone() GameView {
	out := v
	out.Player.Cards = append([]ledger.CardRank(nil), v.Player.Cards...)
	out.Dealer.Cards = append([]ledger.CardRank(nil), v.Dealer.Cards...)
	return out
}
