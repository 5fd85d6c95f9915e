// cmd/orangejack/cmd/admin.go
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/orangejack/orangejack/internal/ledger"
	"github.com/orangejack/orangejack/internal/wallet"
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Owner-only table management",
	}
	admin.AddCommand(
		newEditHandCmd(),
		newForceEndCmd(),
		newWithdrawCmd(),
		newUpdateLeaderboardCmd(),
	)
	return admin
}

func newEditHandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit-hand <address> player|dealer <rank>...",
		Short: "Replace a hand in a player's active round",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wallet.ValidAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}
			var isPlayerHand bool
			switch strings.ToLower(args[1]) {
			case "player":
				isPlayerHand = true
			case "dealer":
				isPlayerHand = false
			default:
				return fmt.Errorf("hand must be 'player' or 'dealer', got %q", args[1])
			}
			cards, err := parseRanks(args[2:])
			if err != nil {
				return err
			}
			if err := a.disp.EditHand(cmd.Context(), a.sess, args[0], isPlayerHand, cards); err != nil {
				return err
			}
			a.drainNotifications()
			return nil
		},
	}
}

func newForceEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force-end <address>",
		Short: "End a player's stuck round; the bet stays with the house",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wallet.ValidAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}
			if err := a.disp.ForceEndGame(cmd.Context(), a.sess, args[0]); err != nil {
				return err
			}
			a.drainNotifications()
			return nil
		},
	}
}

func newWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw [amount]",
		Short: "Move house funds to the owner; no amount withdraws everything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount := ledger.ZeroAmount()
			if len(args) == 1 {
				var err error
				amount, err = ledger.ParseAmount(args[0])
				if err != nil {
					return fmt.Errorf("bad amount: %w", err)
				}
			}
			if err := a.disp.Withdraw(cmd.Context(), a.sess, amount); err != nil {
				return err
			}
			a.drainNotifications()
			return nil
		},
	}
}

func newUpdateLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-leaderboard <address>",
		Short: "Re-rank the leaderboard for a player's latest results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !wallet.ValidAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}
			if err := a.disp.UpdateLeaderboard(cmd.Context(), a.sess, args[0]); err != nil {
				return err
			}
			a.drainNotifications()
			return nil
		},
	}
}

// parseRanks reads hand notation: A, 2..10, J, Q, K, or raw 1..13.
func parseRanks(args []string) ([]ledger.CardRank, error) {
	cards := make([]ledger.CardRank, 0, len(args))
	for _, s := range args {
		switch strings.ToUpper(s) {
		case "A":
			cards = append(cards, 1)
		case "J":
			cards = append(cards, 11)
		case "Q":
			cards = append(cards, 12)
		case "K":
			cards = append(cards, 13)
		default:
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 13 {
				return nil, fmt.Errorf("invalid card rank %q", s)
			}
			cards = append(cards, ledger.CardRank(n))
		}
	}
	return cards, nil
}
