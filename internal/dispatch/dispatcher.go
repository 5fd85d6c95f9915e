// internal/dispatch/dispatcher.go

// Package dispatch is the phase-gated state machine between user intents and
// the ledger. It enforces the client-side invariants the ledger may or may
// not enforce itself: one outstanding mutation per session, phase legality
// checked against a fresh read, privilege gating, and local input validation
// before anything reaches the wire.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/notify"
	"github.com/orangejack/orangejack/internal/reconcile"
	"github.com/orangejack/orangejack/internal/session"
)

// Status is the transaction lifecycle state of the dispatcher.
type Status uint8

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusAwaitingConfirmation
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSubmitting:
		return "submitting"
	case StatusAwaitingConfirmation:
		return "awaiting_confirmation"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrRequestInFlight rejects a new action while another is outstanding. No
// network call is made; the caller may simply try again after settle.
var ErrRequestInFlight = errors.New("another request is outstanding")

// Dispatcher accepts user intents, guards them, submits through the gateway
// and drives reconciliation and notifications on settle.
type Dispatcher struct {
	gw    ledger.Gateway
	rec   *reconcile.Reconciler
	sched *notify.Scheduler
	log   *logrus.Logger

	mu     sync.Mutex
	status Status
}

// New wires a Dispatcher to its collaborators.
func New(gw ledger.Gateway, rec *reconcile.Reconciler, sched *notify.Scheduler, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{gw: gw, rec: rec, sched: sched, log: log}
}

// Status returns the current lifecycle state.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Busy reports whether an action is outstanding. UI affordances that would
// start a new action must be disabled while Busy.
func (d *Dispatcher) Busy() bool { return d.Status() != StatusIdle }

// action describes one guarded mutation for run.
type action struct {
	op          string // remote operation name, also the error Op
	statusText  string // toast while submitting, drawn from the in-flight lexicon
	successText string
	privileged  bool
	validate    func() error             // local checks, before any network call
	phaseGate   func(ledger.Phase) error // nil when the action has no phase precondition
	submit      func(ctx context.Context) (*ledger.TxHandle, error)
	noReconcile bool // stats-only mutations do not re-pull the whole view
	newRound    bool // a confirmed submission starts a fresh round
}

// run executes the lifecycle Idle → Submitting → AwaitingConfirmation →
// {Confirmed | Failed} → Idle. Every exit path restores Idle; no failure may
// strand the machine or leave a partially-applied view.
func (d *Dispatcher) run(ctx context.Context, sess *session.Session, act action) error {
	d.mu.Lock()
	if d.status != StatusIdle {
		d.mu.Unlock()
		return ErrRequestInFlight
	}
	d.status = StatusSubmitting
	d.mu.Unlock()

	err := d.submitAndSettle(ctx, sess, act)
	d.setStatus(StatusIdle)
	return err
}

func (d *Dispatcher) submitAndSettle(ctx context.Context, sess *session.Session, act action) error {
	if sess == nil || sess.Address == "" {
		return d.failed(act, ledger.E(ledger.KindConnection, act.op, "no signing session"))
	}
	if act.privileged && !sess.IsPrivileged {
		// Inert, not merely hidden: rejected locally even when invoked directly.
		return d.failed(act, ledger.E(ledger.KindValidation, act.op, "owner-only action"))
	}
	if act.validate != nil {
		if err := act.validate(); err != nil {
			return d.failed(act, err)
		}
	}
	if act.phaseGate != nil {
		// Re-read the phase immediately before submission: another actor
		// (an owner force-end, a prior round settling) may have moved it.
		snap, err := d.gw.GetGameState(ctx, sess.Address)
		if err != nil {
			return d.failed(act, ledger.WrapErr(ledger.KindConnection, act.op, err))
		}
		if err := act.phaseGate(snap.Phase); err != nil {
			return d.failed(act, err)
		}
	}

	d.sched.SetStatus(act.statusText, notify.SeverityInfo)
	handle, err := act.submit(ctx)
	if err != nil {
		var le *ledger.Error
		if !errors.As(err, &le) {
			err = ledger.WrapErr(ledger.KindConnection, act.op, err)
		}
		return d.failed(act, err)
	}

	d.setStatus(StatusAwaitingConfirmation)
	d.sched.SetStatus("Waiting for confirmation...", notify.SeverityInfo)
	d.log.WithFields(logrus.Fields{
		"op":   act.op,
		"hash": handle.Hash,
	}).Info("Transaction submitted")

	// No timeout and no auto-retry: the ledger transaction is not revocable,
	// so we wait for a settle signal for as long as the caller lets us.
	if _, err := handle.Confirm(ctx, act.op); err != nil {
		return d.failed(act, err)
	}

	d.setStatus(StatusConfirmed)
	d.log.WithFields(logrus.Fields{
		"op":   act.op,
		"hash": handle.Hash,
	}).Info("Transaction confirmed")

	if act.newRound {
		// The previous round's result only becomes stale once the new bet
		// is actually on the ledger; a failed hand-off keeps the old view.
		d.rec.ResetForNewRound()
	}
	if !act.noReconcile {
		d.rec.Reconcile(ctx, sess.Address)
		d.maybeShowOutcome()
	}
	d.sched.SetStatus(act.successText, notify.SeveritySuccess)
	return nil
}

// failed converts any guard or settle error into user-facing status text and
// hands the machine back toward Idle. Failed submissions do not reconcile;
// the UI may still do so opportunistically to pick up out-of-band changes.
func (d *Dispatcher) failed(act action, err error) error {
	d.setStatus(StatusFailed)
	d.log.WithFields(logrus.Fields{
		"op":   act.op,
		"kind": ledger.KindOf(err),
	}).Warnf("Action failed: %v", err)
	d.sched.SetStatus(userMessage(err), notify.SeverityError)
	return err
}

func (d *Dispatcher) setStatus(s Status) {
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
}

// maybeShowOutcome schedules the outcome overlay when the freshly
// reconciled round has finished with a result.
func (d *Dispatcher) maybeShowOutcome() {
	view := d.rec.Game()
	if view.Phase != ledger.PhaseFinished || view.Result == "" {
		return
	}
	d.sched.ShowOutcome(view.Result, OutcomeKindOf(view.Result))
}

// OutcomeKindOf maps the ledger's free-text result onto an overlay kind.
// Player-win markers are checked first: a dealer bust is a win for the
// player, so "bust" alone must not decide the kind.
func OutcomeKindOf(result string) notify.OutcomeKind {
	r := strings.ToLower(result)
	switch {
	case strings.Contains(r, "blackjack"),
		strings.Contains(r, "player wins"),
		strings.Contains(r, "dealer busts"):
		return notify.OutcomeWin
	case strings.Contains(r, "tie"), strings.Contains(r, "push"), strings.Contains(r, "draw"):
		return notify.OutcomeTie
	case strings.Contains(r, "bust"):
		return notify.OutcomeBust
	case strings.Contains(r, "dealer"):
		return notify.OutcomeLoss
	case strings.Contains(r, "win"):
		return notify.OutcomeWin
	default:
		return notify.OutcomeLoss
	}
}

// userMessage renders an error as status text without leaking wrap chains.
func userMessage(err error) string {
	var le *ledger.Error
	if errors.As(err, &le) {
		switch le.Kind {
		case ledger.KindUserRejected:
			return "Transaction rejected in wallet."
		case ledger.KindPhaseViolation:
			return "That move isn't available right now: " + le.Reason
		case ledger.KindValidation:
			return "Invalid input: " + le.Reason
		case ledger.KindRevert:
			return "The ledger rejected the transaction: " + le.Reason
		case ledger.KindMinedFailure:
			return "Transaction failed on-chain (gas spent without effect)."
		case ledger.KindConnection:
			return "Connection problem: " + firstNonEmpty(le.Reason, "ledger unreachable")
		}
	}
	return "Something went wrong: " + err.Error()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// --- user intents ---

// PlaceBet starts a round. Legal only when no round is in progress.
func (d *Dispatcher) PlaceBet(ctx context.Context, sess *session.Session, amount ledger.Amount) error {
	return d.run(ctx, sess, action{
		op:          "game.placeBet",
		statusText:  fmt.Sprintf("Placing bet of %s %s...", amount.Format(), ledger.Symbol),
		successText: "Bet placed!",
		validate: func() error {
			if !amount.IsPositive() {
				return ledger.E(ledger.KindValidation, "game.placeBet", "bet must be a positive amount")
			}
			return nil
		},
		phaseGate: func(p ledger.Phase) error {
			if p == ledger.PhasePlayerTurn || p == ledger.PhaseDealerTurn {
				return ledger.E(ledger.KindPhaseViolation, "game.placeBet",
					fmt.Sprintf("a round is already in progress (phase %s)", p))
			}
			return nil
		},
		newRound: true,
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.PlaceBet(ctx, amount)
		},
	})
}

// Hit draws another card. Legal only during the player's turn.
func (d *Dispatcher) Hit(ctx context.Context, sess *session.Session) error {
	return d.run(ctx, sess, action{
		op:          "game.hit",
		statusText:  "Hitting...",
		successText: "Card dealt.",
		phaseGate:   requirePlayerTurn("game.hit"),
		submit:      func(ctx context.Context) (*ledger.TxHandle, error) { return d.gw.Hit(ctx) },
	})
}

// Stand ends the player's turn and lets the dealer play out.
func (d *Dispatcher) Stand(ctx context.Context, sess *session.Session) error {
	return d.run(ctx, sess, action{
		op:          "game.stand",
		statusText:  "Standing...",
		successText: "Standing - dealer plays.",
		phaseGate:   requirePlayerTurn("game.stand"),
		submit:      func(ctx context.Context) (*ledger.TxHandle, error) { return d.gw.Stand(ctx) },
	})
}

func requirePlayerTurn(op string) func(ledger.Phase) error {
	return func(p ledger.Phase) error {
		if p != ledger.PhasePlayerTurn {
			return ledger.E(ledger.KindPhaseViolation, op,
				fmt.Sprintf("requires your turn, current phase is %s", p))
		}
		return nil
	}
}

// Approve raises the game service's token allowance.
func (d *Dispatcher) Approve(ctx context.Context, sess *session.Session, amount ledger.Amount) error {
	return d.run(ctx, sess, action{
		op:          "token.approve",
		statusText:  fmt.Sprintf("Approving %s %s...", amount.Format(), ledger.Symbol),
		successText: "Allowance approved.",
		validate: func() error {
			if amount.IsNegative() {
				return ledger.E(ledger.KindValidation, "token.approve", "allowance cannot be negative")
			}
			return nil
		},
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.Approve(ctx, d.gw.GameAddress(), amount)
		},
	})
}

// SetDisplayName records a display name with the stats service. The caller
// persists the confirmed name into the session store afterwards.
func (d *Dispatcher) SetDisplayName(ctx context.Context, sess *session.Session, name string) error {
	return d.run(ctx, sess, action{
		op:          "stats.setName",
		statusText:  "Setting name...",
		successText: fmt.Sprintf("Name set to %q.", name),
		validate: func() error {
			if strings.TrimSpace(name) == "" {
				return ledger.E(ledger.KindValidation, "stats.setName", "name cannot be empty")
			}
			return nil
		},
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.SetName(ctx, name)
		},
		noReconcile: true,
	})
}

// --- owner-only intents ---

// EditHand replaces a player's or the dealer's hand for a given round. Every
// supplied rank is validated locally first; a doomed submission costs gas.
func (d *Dispatcher) EditHand(ctx context.Context, sess *session.Session, target string, isPlayerHand bool, cards []ledger.CardRank) error {
	return d.run(ctx, sess, action{
		op:          "game.editHand",
		statusText:  "Editing hand...",
		successText: "Hand edited.",
		privileged:  true,
		validate: func() error {
			if len(cards) == 0 {
				return ledger.E(ledger.KindValidation, "game.editHand", "replacement hand is empty")
			}
			if !ledger.ValidHand(cards) {
				return ledger.E(ledger.KindValidation, "game.editHand", "card ranks must be between 1 and 13")
			}
			return nil
		},
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.EditHand(ctx, target, isPlayerHand, cards)
		},
	})
}

// ForceEndGame terminates a player's round from the owner seat.
func (d *Dispatcher) ForceEndGame(ctx context.Context, sess *session.Session, target string) error {
	return d.run(ctx, sess, action{
		op:          "game.forceEndGame",
		statusText:  "Force ending game...",
		successText: "Game force-ended.",
		privileged:  true,
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.ForceEndGame(ctx, target)
		},
	})
}

// Withdraw moves house funds to the owner. A zero amount withdraws all.
func (d *Dispatcher) Withdraw(ctx context.Context, sess *session.Session, amount ledger.Amount) error {
	text := fmt.Sprintf("Withdrawing %s %s...", amount.Format(), ledger.Symbol)
	if amount.IsZero() {
		text = "Withdrawing entire house balance..."
	}
	return d.run(ctx, sess, action{
		op:          "game.withdraw",
		statusText:  text,
		successText: "Withdrawal complete.",
		privileged:  true,
		validate: func() error {
			if amount.IsNegative() {
				return ledger.E(ledger.KindValidation, "game.withdraw", "amount cannot be negative")
			}
			return nil
		},
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.Withdraw(ctx, amount)
		},
	})
}

// UpdateLeaderboard asks the stats service to re-rank a player.
func (d *Dispatcher) UpdateLeaderboard(ctx context.Context, sess *session.Session, target string) error {
	return d.run(ctx, sess, action{
		op:          "stats.updateLeaderboard",
		statusText:  "Updating leaderboard...",
		successText: "Leaderboard updated.",
		privileged:  true,
		submit: func(ctx context.Context) (*ledger.TxHandle, error) {
			return d.gw.UpdateLeaderboard(ctx, target)
		},
	})
}
