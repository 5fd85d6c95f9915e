// cmd/orangejack/cmd/play.go
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orangejack/orangejack/internal/ledger"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Sit at the table and play rounds interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.playLoop(cmd)
		},
	}
}

const playHelp = `Commands:
  bet <amount>   start a round with a wager
  hit            draw another card
  stand          end your turn, dealer plays
  table          show the table and balances
  stats          show your lifetime stats
  help           show this help
  quit           leave the table`

func (a *app) playLoop(cmd *cobra.Command) error {
	ctx := cmd.Context()
	a.refresh(ctx)
	fmt.Printf("Welcome to the table, %s.\n", a.displayName())
	fmt.Println(renderBalances(a.rec.Balances()))
	fmt.Println(playHelp)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "bet":
			if len(fields) != 2 {
				fmt.Println("usage: bet <amount>")
				continue
			}
			amount, err := ledger.ParseAmount(fields[1])
			if err != nil {
				fmt.Printf("bad amount: %v\n", err)
				continue
			}
			a.act(func() error { return a.disp.PlaceBet(ctx, a.sess, amount) })

		case "hit":
			a.act(func() error { return a.disp.Hit(ctx, a.sess) })

		case "stand":
			a.act(func() error { return a.disp.Stand(ctx, a.sess) })

		case "table":
			a.refresh(ctx)
			fmt.Print(renderGame(a.rec.Game()))
			fmt.Println(renderBalances(a.rec.Balances()))

		case "stats":
			a.refresh(ctx)
			fmt.Print(renderStats(a.rec.Stats()))

		case "help":
			fmt.Println(playHelp)

		case "quit", "exit":
			fmt.Println("Leaving the table.")
			return nil

		default:
			fmt.Printf("unknown command %q (try 'help')\n", fields[0])
		}
	}
}

// act runs one dispatcher intent and renders its outcome. Dispatcher errors
// are table talk, not command failures; the loop keeps going.
func (a *app) act(fn func() error) {
	if err := fn(); err != nil {
		a.drainNotifications()
		return
	}
	a.drainNotifications()
	fmt.Print(renderGame(a.rec.Game()))
}

func (a *app) displayName() string {
	if a.sess.DisplayName != "" {
		return a.sess.DisplayName
	}
	return shortAddress(a.sess.Address)
}
