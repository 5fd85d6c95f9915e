// cmd/orangejack/cmd/root.go

// Package cmd wires the orangejack command tree: a blackjack table client
// that talks to a ledger-hosted game over websocket, or to a built-in
// in-memory table for offline play.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/orangejack/orangejack/internal/config"
	"github.com/orangejack/orangejack/internal/dispatch"
	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/ledger/ledgertest"
	"github.com/orangejack/orangejack/internal/ledger/ledgerws"
	"github.com/orangejack/orangejack/internal/notify"
	"github.com/orangejack/orangejack/internal/reconcile"
	"github.com/orangejack/orangejack/internal/session"
	"github.com/orangejack/orangejack/internal/wallet"
)

// app holds everything a command needs once setup has run.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	wallet *wallet.Wallet
	store  session.Store
	mgr    *session.Manager
	sess   *session.Session
	gw     ledger.Gateway
	ws     *ledgerws.Client // nil in fake mode
	rec    *reconcile.Reconciler
	sched  *notify.Scheduler
	disp   *dispatch.Dispatcher
}

var a = &app{}

func Execute() error {
	root := newRootCmd()
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	var fakeFlag bool

	root := &cobra.Command{
		Use:           "orangejack",
		Short:         "Play ledger-hosted blackjack from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if fakeFlag {
				a.cfg.Fake = true
			}
			return a.setup(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.teardown()
		},
	}

	cfg, err := config.Load()
	if err != nil {
		// Surface config problems on first run of any subcommand.
		root.PersistentPreRunE = func(*cobra.Command, []string) error { return err }
		cfg = &config.Config{}
	}
	a.cfg = cfg

	root.PersistentFlags().BoolVar(&fakeFlag, "fake", false, "play against the built-in in-memory table")

	root.AddCommand(
		newPlayCmd(),
		newStatsCmd(),
		newLeaderboardCmd(),
		newBalanceCmd(),
		newApproveCmd(),
		newSetNameCmd(),
		newAchievementsCmd(),
		newSignOutCmd(),
		newAdminCmd(),
	)
	return root
}

// setup builds the full client stack: identity, session, gateway, view.
func (a *app) setup(ctx context.Context) error {
	a.log = logrus.New()
	level, err := logrus.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.cfg.LogLevel, err)
	}
	a.log.SetLevel(level)

	a.wallet, err = wallet.LoadOrCreate(a.cfg.KeyFile)
	if err != nil {
		return err
	}

	if a.cfg.RedisAddr != "" {
		store, err := session.NewRedisStore(a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB, a.cfg.Profile)
		if err != nil {
			return err
		}
		a.store = store
	} else {
		a.store = session.NewMemoryStore()
	}

	owner := a.cfg.OwnerAddress
	if a.cfg.Fake && owner == "" {
		// Offline play unlocks the admin surface for the local identity.
		owner = a.wallet.Address()
	}

	a.mgr = session.NewManager(a.store, owner, a.log)
	sess, ok, err := a.mgr.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok || sess.Address != a.wallet.Address() {
		sess, err = a.mgr.SignIn(ctx, a.wallet.Address())
		if err != nil {
			return err
		}
	}
	a.sess = sess

	if a.cfg.Fake {
		fake := ledgertest.NewFake(owner, time.Now().UnixNano())
		fake.Fund(a.wallet.Address(), ledger.NewAmount(1000))
		fake.SetCaller(a.wallet.Address())
		a.gw = fake
	} else {
		ttl, err := time.ParseDuration(a.cfg.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session TTL %q: %w", a.cfg.SessionTTL, err)
		}
		token, err := a.wallet.SessionToken(ttl)
		if err != nil {
			return err
		}
		ws, err := ledgerws.Dial(ctx, ledgerws.Config{URL: a.cfg.LedgerURL, Token: token}, a.log)
		if err != nil {
			return err
		}
		ws.OnEvent(func(ev ledger.Event) {
			a.log.WithFields(logrus.Fields{
				"event":  ev.Type,
				"player": ev.Player,
			}).Debug("ledger event")
		})
		a.ws = ws
		a.gw = ws
	}

	a.rec = reconcile.New(a.gw, a.log)
	a.sched = notify.NewScheduler()
	a.disp = dispatch.New(a.gw, a.rec, a.sched, a.log)
	return nil
}

func (a *app) teardown() {
	if a.ws != nil {
		a.ws.Close()
	}
	if c, ok := a.store.(*session.RedisStore); ok {
		c.Close()
	}
}

// refresh pulls every view slice before rendering read-only output.
func (a *app) refresh(ctx context.Context) {
	a.rec.Reconcile(ctx, a.sess.Address)
}
