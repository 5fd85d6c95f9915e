// internal/ledger/ledgertest/fake_test.go
package ledgertest_test

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangejack/orangejack/internal/dispatch"
	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/ledger/ledgertest"
	"github.com/orangejack/orangejack/internal/notify"
	"github.com/orangejack/orangejack/internal/reconcile"
	"github.com/orangejack/orangejack/internal/session"
)

const (
	ownerAddr  = "0x9Cd80Cc680204Eb6b77602D0Db9E9BF982895F00"
	playerAddr = "0x435951b12825cfdcae394fcc2494a522d9a7011d"
)

type world struct {
	fake  *ledgertest.Fake
	rec   *reconcile.Reconciler
	sched *notify.Scheduler
	disp  *dispatch.Dispatcher
	sess  *session.Session
}

func newWorld(t *testing.T) *world {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	fake := ledgertest.NewFake(ownerAddr, 1)
	fake.Fund(playerAddr, ledger.NewAmount(1000))
	fake.SetCaller(playerAddr)

	rec := reconcile.New(fake, log)
	sched := notify.NewScheduler()
	return &world{
		fake:  fake,
		rec:   rec,
		sched: sched,
		disp:  dispatch.New(fake, rec, sched, log),
		sess:  &session.Session{Address: playerAddr},
	}
}

func (w *world) approve(t *testing.T, amount int64) {
	t.Helper()
	require.NoError(t, w.disp.Approve(context.Background(), w.sess, ledger.NewAmount(amount)))
}

func TestFullRoundHitThenStand(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)

	// Player draws A,7 against a dealer 9,10.
	w.fake.StackDeck(1, 7, 9, 10)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	game := w.rec.Game()
	require.Equal(t, ledger.PhasePlayerTurn, game.Phase)
	assert.Equal(t, 18, game.Player.Total) // soft eighteen
	assert.True(t, game.DealerPartial)
	require.Len(t, game.Dealer.Cards, 1)
	assert.Equal(t, ledger.CardRank(9), game.Dealer.Cards[0])
	assert.Equal(t, 9, game.Dealer.Total) // only the exposed card counts

	// Drawing a 6 forces the ace down to one.
	w.fake.StackDeck(6)
	require.NoError(t, w.disp.Hit(ctx, w.sess))
	game = w.rec.Game()
	require.Equal(t, ledger.PhasePlayerTurn, game.Phase)
	assert.Equal(t, 14, game.Player.Total)

	// Dealer already has 19 and stands pat.
	require.NoError(t, w.disp.Stand(ctx, w.sess))
	game = w.rec.Game()
	require.Equal(t, ledger.PhaseFinished, game.Phase)
	assert.False(t, game.DealerPartial)
	assert.Equal(t, 19, game.Dealer.Total)
	assert.Equal(t, "Dealer wins.", game.Result)
	assert.True(t, game.Payout.IsZero())

	overlay, ok := w.sched.Overlay()
	require.True(t, ok)
	assert.Equal(t, "Dealer wins.", overlay.Message)
	assert.Equal(t, notify.OverlayLongTTL, overlay.TTL)

	stats := w.rec.Stats()
	assert.Equal(t, uint64(1), stats.Losses)
	assert.Equal(t, uint64(1), stats.GamesPlayed)
	assert.True(t, w.rec.Balances().Balance.Equal(ledger.NewAmount(990)))
	assert.True(t, w.rec.Balances().Allowance.Equal(ledger.NewAmount(90)))
}

func TestNaturalBlackjackPaysFiveToTwo(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)

	w.fake.StackDeck(1, 13, 5, 9) // A,K settles on the deal
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	game := w.rec.Game()
	require.Equal(t, ledger.PhaseFinished, game.Phase)
	assert.Equal(t, "Blackjack!", game.Result)
	assert.True(t, game.Payout.Equal(ledger.NewAmount(25)))

	overlay, ok := w.sched.Overlay()
	require.True(t, ok)
	assert.Equal(t, notify.OverlayShortTTL, overlay.TTL)
	assert.Equal(t, notify.SeveritySuccess, overlay.Severity)

	stats := w.rec.Stats()
	assert.Equal(t, uint64(1), stats.Blackjacks)
	assert.Equal(t, uint64(1), stats.Wins)
	assert.Equal(t, uint64(1), stats.CurrentStreak)
	assert.True(t, w.rec.Balances().Balance.Equal(ledger.NewAmount(1015)))
}

func TestDealerBustPaysDouble(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)

	w.fake.StackDeck(10, 9, 10, 6) // dealer sits on 16 and must draw
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	w.fake.StackDeck(10) // dealer draws into 26
	require.NoError(t, w.disp.Stand(ctx, w.sess))

	game := w.rec.Game()
	assert.Equal(t, "Dealer busts! Player wins!", game.Result)
	assert.True(t, game.Payout.Equal(ledger.NewAmount(20)))
	assert.True(t, w.rec.Balances().Balance.Equal(ledger.NewAmount(1010)))

	// A dealer bust is a win for the player and gets the short win overlay.
	overlay, ok := w.sched.Overlay()
	require.True(t, ok)
	assert.Equal(t, notify.OverlayShortTTL, overlay.TTL)
	assert.Equal(t, notify.SeveritySuccess, overlay.Severity)
	assert.Equal(t, uint64(1), w.rec.Stats().Wins)
}

func TestPushReturnsBet(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)

	w.fake.StackDeck(10, 9, 10, 9)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))
	require.NoError(t, w.disp.Stand(ctx, w.sess))

	game := w.rec.Game()
	assert.Equal(t, "Push - bet returned.", game.Result)
	assert.True(t, game.Payout.Equal(ledger.NewAmount(10)))
	assert.Equal(t, uint64(1), w.rec.Stats().Ties)
	assert.True(t, w.rec.Balances().Balance.Equal(ledger.NewAmount(1000)))
}

func TestPlayerBustEndsRoundImmediately(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)

	w.fake.StackDeck(10, 9, 10, 7)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))
	w.fake.StackDeck(10)
	require.NoError(t, w.disp.Hit(ctx, w.sess))

	game := w.rec.Game()
	require.Equal(t, ledger.PhaseFinished, game.Phase)
	assert.Equal(t, "Bust! Dealer wins.", game.Result)
	assert.Equal(t, uint64(1), w.rec.Stats().Losses)
	assert.Equal(t, uint64(0), w.rec.Stats().CurrentStreak)
}

func TestOverdraftAndOverAllowanceRevert(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	// No allowance yet: the ledger refuses the pull.
	h, err := w.fake.PlaceBet(ctx, ledger.NewAmount(10))
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.placeBet")
	require.True(t, ledger.IsKind(err, ledger.KindRevert))
	assert.Contains(t, err.Error(), "insufficient allowance")

	w.approve(t, 5000)
	h, err = w.fake.PlaceBet(ctx, ledger.NewAmount(2000))
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.placeBet")
	require.True(t, ledger.IsKind(err, ledger.KindRevert))
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestOwnerOnlyOperationsRevertForPlayers(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)
	w.fake.StackDeck(10, 9, 10, 9)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	for name, submit := range map[string]func() (*ledger.TxHandle, error){
		"editHand": func() (*ledger.TxHandle, error) {
			return w.fake.EditHand(ctx, playerAddr, true, []ledger.CardRank{1, 13})
		},
		"forceEnd": func() (*ledger.TxHandle, error) { return w.fake.ForceEndGame(ctx, playerAddr) },
		"withdraw": func() (*ledger.TxHandle, error) { return w.fake.Withdraw(ctx, ledger.ZeroAmount()) },
	} {
		h, err := submit()
		require.NoError(t, err, name)
		_, err = h.Confirm(ctx, name)
		require.True(t, ledger.IsKind(err, ledger.KindRevert), name)
		assert.Contains(t, err.Error(), "caller is not the owner", name)
	}
}

func TestOwnerEditsActiveHand(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)
	w.fake.StackDeck(10, 9, 10, 9)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	owner := &session.Session{Address: ownerAddr, IsPrivileged: true}
	w.fake.SetCaller(ownerAddr)
	require.NoError(t, w.disp.EditHand(ctx, owner, playerAddr, true, []ledger.CardRank{1, 5}))

	snap, err := w.fake.GetGameState(ctx, playerAddr)
	require.NoError(t, err)
	assert.Equal(t, []ledger.CardRank{1, 5}, snap.PlayerHand)
	require.Equal(t, ledger.PhasePlayerTurn, snap.Phase)
}

func TestForceEndKeepsBetWithHouse(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)
	w.fake.StackDeck(10, 9, 10, 9)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	house := w.fake.HouseBalance()
	w.fake.SetCaller(ownerAddr)
	h, err := w.fake.ForceEndGame(ctx, playerAddr)
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.forceEndGame")
	require.NoError(t, err)

	snap, err := w.fake.GetGameState(ctx, playerAddr)
	require.NoError(t, err)
	assert.Equal(t, ledger.PhaseFinished, snap.Phase)
	assert.Equal(t, "Game force-ended by owner.", snap.Result)
	assert.True(t, snap.Payout.IsZero())
	assert.True(t, w.fake.HouseBalance().Equal(house))
}

func TestWithdrawZeroDrainsHouse(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	house := w.fake.HouseBalance()
	require.True(t, house.IsPositive())

	w.fake.SetCaller(ownerAddr)
	h, err := w.fake.Withdraw(ctx, ledger.ZeroAmount())
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.withdraw")
	require.NoError(t, err)

	assert.True(t, w.fake.HouseBalance().IsZero())
	bal, err := w.fake.BalanceOf(ctx, ownerAddr)
	require.NoError(t, err)
	assert.True(t, bal.Equal(house))
}

func TestLeaderboardRanksByNetProfitWithPadding(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)

	// Player one wins a round.
	w.fake.StackDeck(10, 9, 10, 6, 10)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))
	require.NoError(t, w.disp.Stand(ctx, w.sess))

	// Player two loses one.
	other := "0x1111111111111111111111111111111111111111"
	w.fake.Fund(other, ledger.NewAmount(100))
	w.fake.SetCaller(other)
	h, err := w.fake.Approve(ctx, w.fake.GameAddress(), ledger.NewAmount(50))
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "token.approve")
	require.NoError(t, err)
	w.fake.StackDeck(10, 5, 10, 9)
	h, err = w.fake.PlaceBet(ctx, ledger.NewAmount(10))
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.placeBet")
	require.NoError(t, err)
	h, err = w.fake.Stand(ctx)
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.stand")
	require.NoError(t, err)

	board, err := w.fake.GetTopPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, board, ledger.LeaderboardSize)
	assert.Equal(t, playerAddr, board[0].Address)
	assert.True(t, board[0].NetProfit.Equal(ledger.NewAmount(10)))
	assert.Equal(t, other, board[1].Address)
	assert.True(t, board[1].NetProfit.Equal(ledger.NewAmount(-10)))
	assert.Equal(t, "0x0000000000000000000000000000000000000000", board[2].Address)
}

func TestBetWhileRoundActiveReverts(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	w.approve(t, 100)
	w.fake.StackDeck(10, 9, 10, 9)
	require.NoError(t, w.disp.PlaceBet(ctx, w.sess, ledger.NewAmount(10)))

	h, err := w.fake.PlaceBet(ctx, ledger.NewAmount(10))
	require.NoError(t, err)
	_, err = h.Confirm(ctx, "game.placeBet")
	require.True(t, ledger.IsKind(err, ledger.KindRevert))
	assert.Contains(t, err.Error(), "round already in progress")
}
