// cmd/orangejack/cmd/info.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orangejack/orangejack/internal/achievements"
	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/wallet"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats [address]",
		Short: "Show lifetime stats for yourself or another player",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			address := a.sess.Address
			if len(args) == 1 {
				if !wallet.ValidAddress(args[0]) {
					return fmt.Errorf("invalid address %q", args[0])
				}
				address = args[0]
			}
			stats, err := a.gw.GetStats(ctx, address)
			if err != nil {
				return err
			}
			fmt.Printf("Stats for %s\n", shortAddress(address))
			fmt.Print(renderStats(*stats))
			return nil
		},
	}
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top players by net profit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			board, err := a.gw.GetTopPlayers(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(renderLeaderboard(board))
			return nil
		},
	}
}

func newBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your token balance and table allowance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.refresh(cmd.Context())
			fmt.Printf("Address: %s\n", a.sess.Address)
			fmt.Println(renderBalances(a.rec.Balances()))
			return nil
		},
	}
}

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <amount>",
		Short: "Allow the table to pull up to <amount> " + ledger.Symbol + " in bets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := ledger.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("bad amount: %w", err)
			}
			if err := a.disp.Approve(cmd.Context(), a.sess, amount); err != nil {
				return err
			}
			a.drainNotifications()
			fmt.Println(renderBalances(a.rec.Balances()))
			return nil
		},
	}
}

func newSetNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-name <name>",
		Short: "Set the display name shown on the leaderboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.disp.SetDisplayName(ctx, a.sess, args[0]); err != nil {
				return err
			}
			// Persist the confirmed name alongside the session slot.
			if err := a.mgr.SetDisplayName(ctx, a.sess, args[0]); err != nil {
				return err
			}
			a.drainNotifications()
			return nil
		},
	}
}

func newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements [address]",
		Short: "Show earned and unearned trophies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			address := a.sess.Address
			if len(args) == 1 {
				if !wallet.ValidAddress(args[0]) {
					return fmt.Errorf("invalid address %q", args[0])
				}
				address = args[0]
			}
			stats, err := a.gw.GetStats(ctx, address)
			if err != nil {
				return err
			}
			board, err := a.gw.GetTopPlayers(ctx)
			if err != nil {
				a.log.Warnf("Leaderboard unavailable for trophy check: %v", err)
				board = nil
			}
			trophies := achievements.Evaluate(address, *stats, board)
			for _, tr := range trophies {
				mark := "[ ]"
				if tr.Earned {
					mark = "[x]"
				}
				fmt.Printf("%s %-18s %s\n", mark, tr.Name, tr.Description)
			}
			fmt.Printf("%d of %d earned\n", achievements.EarnedCount(trophies), len(trophies))
			return nil
		},
	}
}

func newSignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Clear the persisted session for this profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.mgr.SignOut(cmd.Context(), a.sess); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}
