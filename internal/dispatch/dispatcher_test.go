// internal/dispatch/dispatcher_test.go
package dispatch

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/ledger/ledgertest"
	"github.com/orangejack/orangejack/internal/notify"
	"github.com/orangejack/orangejack/internal/reconcile"
	"github.com/orangejack/orangejack/internal/session"
)

const playerAddr = "0x435951b12825cfdcae394fcc2494a522d9a7011d"

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newHarness(stub *ledgertest.Stub) (*Dispatcher, *reconcile.Reconciler, *notify.Scheduler) {
	log := testLogger()
	rec := reconcile.New(stub, log)
	sched := notify.NewScheduler()
	return New(stub, rec, sched, log), rec, sched
}

func player() *session.Session {
	return &session.Session{Address: playerAddr}
}

func owner() *session.Session {
	return &session.Session{Address: "0x9cd80cc680204eb6b77602d0db9e9bf982895f00", IsPrivileged: true}
}

func TestPlaceBetConfirmsAndReconciles(t *testing.T) {
	stub := &ledgertest.Stub{
		// First read answers the phase gate; the second is the post-settle
		// reconcile that sees the dealt round.
		SnapshotQueue: []ledger.GameSnapshot{
			{Phase: ledger.PhaseNotStarted},
		},
		Snapshot: ledger.GameSnapshot{
			Phase:      ledger.PhasePlayerTurn,
			Bet:        ledger.NewAmount(10),
			PlayerHand: []ledger.CardRank{1, 7},
			DealerHand: []ledger.CardRank{9, 13},
		},
	}
	d, rec, _ := newHarness(stub)

	err := d.PlaceBet(context.Background(), player(), ledger.NewAmount(10))
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, d.Status())
	assert.Equal(t, 1, stub.CallCount("game.placeBet"))
	assert.Equal(t, 2, stub.CallCount("game.getGameState"), "fresh phase read plus reconcile read")

	view := rec.Game()
	assert.Equal(t, ledger.PhasePlayerTurn, view.Phase)
	assert.Equal(t, 18, view.Player.Total)
}

func TestRejectsConcurrentActionWithoutNetworkCall(t *testing.T) {
	stub := &ledgertest.Stub{
		Snapshot: ledger.GameSnapshot{Phase: ledger.PhaseNotStarted},
		Hold:     true,
	}
	d, _, _ := newHarness(stub)

	betDone := make(chan error, 1)
	go func() { betDone <- d.PlaceBet(context.Background(), player(), ledger.NewAmount(10)) }()

	// Wait for the bet to reach AwaitingConfirmation.
	require.Eventually(t, func() bool {
		return d.Status() == StatusAwaitingConfirmation
	}, time.Second, 5*time.Millisecond)

	before := stub.CallCount("game.hit") + stub.CallCount("game.getGameState")
	err := d.Hit(context.Background(), player())
	assert.ErrorIs(t, err, ErrRequestInFlight)
	after := stub.CallCount("game.hit") + stub.CallCount("game.getGameState")
	assert.Equal(t, before, after, "rejected action must not touch the network")

	stub.Release()
	require.NoError(t, <-betDone)
	assert.Equal(t, StatusIdle, d.Status())
}

func TestHitOutsidePlayerTurnIsPhaseViolation(t *testing.T) {
	stub := &ledgertest.Stub{
		Snapshot: ledger.GameSnapshot{Phase: ledger.PhaseNotStarted},
	}
	d, _, _ := newHarness(stub)

	err := d.Hit(context.Background(), player())
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindPhaseViolation))
	assert.Equal(t, 0, stub.CallCount("game.hit"), "no mutation submitted")
	assert.Equal(t, StatusIdle, d.Status())
}

func TestPlaceBetDuringRoundIsPhaseViolation(t *testing.T) {
	stub := &ledgertest.Stub{
		Snapshot: ledger.GameSnapshot{
			Phase:      ledger.PhasePlayerTurn,
			PlayerHand: []ledger.CardRank{1, 7},
			DealerHand: []ledger.CardRank{9, 13},
		},
	}
	d, _, _ := newHarness(stub)

	err := d.PlaceBet(context.Background(), player(), ledger.NewAmount(10))
	assert.True(t, ledger.IsKind(err, ledger.KindPhaseViolation))
	assert.Equal(t, 0, stub.CallCount("game.placeBet"))
}

func TestPlaceBetValidatesAmountLocally(t *testing.T) {
	stub := &ledgertest.Stub{}
	d, _, _ := newHarness(stub)

	err := d.PlaceBet(context.Background(), player(), ledger.ZeroAmount())
	assert.True(t, ledger.IsKind(err, ledger.KindValidation))
	assert.Empty(t, stub.Calls(), "validation failures precede the fresh phase read")
}

func TestFailedBetHandOffKeepsPreviousRoundView(t *testing.T) {
	stub := &ledgertest.Stub{
		Snapshot: ledger.GameSnapshot{
			Phase:      ledger.PhaseFinished,
			Bet:        ledger.NewAmount(10),
			PlayerHand: []ledger.CardRank{13, 12},
			DealerHand: []ledger.CardRank{9, 8},
			Result:     "Player wins!",
			Payout:     ledger.NewAmount(20),
		},
	}
	d, rec, _ := newHarness(stub)
	rec.Reconcile(context.Background(), playerAddr)
	require.Equal(t, "Player wins!", rec.Game().Result)

	stub.SubmitErr = ledger.E(ledger.KindUserRejected, "game.placeBet", "signer declined the request")
	err := d.PlaceBet(context.Background(), player(), ledger.NewAmount(10))
	require.True(t, ledger.IsKind(err, ledger.KindUserRejected))
	assert.Equal(t, StatusIdle, d.Status())

	// Nothing reached the ledger, so the finished round stays on screen.
	view := rec.Game()
	assert.Equal(t, ledger.PhaseFinished, view.Phase)
	assert.Equal(t, "Player wins!", view.Result)
	assert.True(t, view.Payout.Equal(ledger.NewAmount(20)))
}

func TestAdminActionsInertForUnprivilegedSession(t *testing.T) {
	stub := &ledgertest.Stub{}
	d, _, _ := newHarness(stub)
	ctx := context.Background()
	unprivileged := player()

	errs := []error{
		d.EditHand(ctx, unprivileged, playerAddr, true, []ledger.CardRank{1, 13}),
		d.ForceEndGame(ctx, unprivileged, playerAddr),
		d.Withdraw(ctx, unprivileged, ledger.ZeroAmount()),
		d.UpdateLeaderboard(ctx, unprivileged, playerAddr),
	}
	for _, err := range errs {
		assert.True(t, ledger.IsKind(err, ledger.KindValidation))
	}
	assert.Empty(t, stub.Calls(), "inert means no network traffic at all")
	assert.Equal(t, StatusIdle, d.Status())
}

func TestEditHandValidatesRanksBeforeSubmission(t *testing.T) {
	stub := &ledgertest.Stub{}
	d, _, _ := newHarness(stub)

	err := d.EditHand(context.Background(), owner(), playerAddr, true, []ledger.CardRank{1, 14})
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindValidation))
	assert.Equal(t, 0, stub.CallCount("game.editHand"))

	err = d.EditHand(context.Background(), owner(), playerAddr, true, nil)
	assert.True(t, ledger.IsKind(err, ledger.KindValidation))

	err = d.EditHand(context.Background(), owner(), playerAddr, false, []ledger.CardRank{10, 6})
	require.NoError(t, err)
	assert.Equal(t, 1, stub.CallCount("game.editHand"))
}

func TestRevertedTransactionReturnsToIdleWithoutReconcile(t *testing.T) {
	stub := &ledgertest.Stub{
		Snapshot:      ledger.GameSnapshot{Phase: ledger.PhaseNotStarted},
		ReceiptStatus: ledger.TxReverted,
		ReceiptReason: "insufficient allowance",
	}
	d, _, sched := newHarness(stub)

	err := d.PlaceBet(context.Background(), player(), ledger.NewAmount(10))
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindRevert))
	assert.Equal(t, StatusIdle, d.Status())
	// One getGameState for the phase gate, none for reconciliation.
	assert.Equal(t, 1, stub.CallCount("game.getGameState"))

	n, ok := sched.Toast()
	require.True(t, ok)
	assert.Equal(t, notify.SeverityError, n.Severity)
	assert.Contains(t, n.Message, "insufficient allowance")
}

func TestNoSessionIsConnectionError(t *testing.T) {
	stub := &ledgertest.Stub{}
	d, _, _ := newHarness(stub)

	err := d.PlaceBet(context.Background(), nil, ledger.NewAmount(10))
	assert.True(t, ledger.IsKind(err, ledger.KindConnection))
	assert.Empty(t, stub.Calls())
}

func TestConfirmedStandShowsOutcomeOverlay(t *testing.T) {
	stub := &ledgertest.Stub{
		// Phase gate sees the live round; the reconcile read after settle
		// sees the finished round with full dealer hand and result.
		SnapshotQueue: []ledger.GameSnapshot{
			{
				Phase:      ledger.PhasePlayerTurn,
				Bet:        ledger.NewAmount(10),
				PlayerHand: []ledger.CardRank{13, 12},
				DealerHand: []ledger.CardRank{9, 13},
			},
		},
		Snapshot: ledger.GameSnapshot{
			Phase:      ledger.PhaseFinished,
			Bet:        ledger.NewAmount(10),
			PlayerHand: []ledger.CardRank{13, 12},
			DealerHand: []ledger.CardRank{9, 8},
			Result:     "Player wins!",
			Payout:     ledger.NewAmount(20),
		},
	}
	d, rec, sched := newHarness(stub)

	err := d.Stand(context.Background(), player())
	require.NoError(t, err)

	view := rec.Game()
	assert.Equal(t, ledger.PhaseFinished, view.Phase)
	assert.False(t, view.DealerPartial)
	assert.Equal(t, 17, view.Dealer.Total)
	assert.Equal(t, "20", view.Payout.Format())

	n, ok := sched.Overlay()
	require.True(t, ok, "finished round schedules a win overlay")
	assert.Equal(t, "Player wins!", n.Message)
	assert.Equal(t, notify.OverlayShortTTL, n.TTL)
	assert.Equal(t, notify.SeveritySuccess, n.Severity)
}

func TestOutcomeKindOf(t *testing.T) {
	assert.Equal(t, notify.OutcomeWin, OutcomeKindOf("Player wins!"))
	assert.Equal(t, notify.OutcomeWin, OutcomeKindOf("Blackjack!"))
	assert.Equal(t, notify.OutcomeWin, OutcomeKindOf("Dealer busts! Player wins!"))
	assert.Equal(t, notify.OutcomeWin, OutcomeKindOf("Win"))
	assert.Equal(t, notify.OutcomeLoss, OutcomeKindOf("Dealer wins."))
	assert.Equal(t, notify.OutcomeBust, OutcomeKindOf("Bust! Dealer wins."))
	assert.Equal(t, notify.OutcomeTie, OutcomeKindOf("Push - bet returned."))
	assert.Equal(t, notify.OutcomeTie, OutcomeKindOf("It's a tie."))
	assert.Equal(t, notify.OutcomeLoss, OutcomeKindOf("???"))
}
