package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newBalanceCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the wallet balance in SOL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			balance, err := s.Balance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s SOL\n", formatAmount(balance))
			return nil
		},
	}
}

func newStatusCmd(cc *CommandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show wallet, balance, SOL price and history summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := cc.openSession(ctx, nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			fmt.Fprintln(out, cc.Styles.Title.Render("Solana payment splitter"))
			fmt.Fprintf(out, "Cluster:  %s\n", cc.Config.Cluster)

			owner, connected := s.Address()
			if !connected {
				fmt.Fprintf(out, "Wallet:   %s\n", cc.Styles.Warning.Render("not connected"))
			} else {
				fmt.Fprintf(out, "Wallet:   %s\n", owner)
			}

			var balance, usd float64
			var balanceErr, priceErr error
			g, gctx := errgroup.WithContext(ctx)
			if connected {
				g.Go(func() error {
					balance, balanceErr = s.Balance(gctx)
					return nil
				})
			}
			g.Go(func() error {
				usd, priceErr = s.Price.Current(gctx)
				return nil
			})
			_ = g.Wait()

			switch {
			case !connected:
			case balanceErr != nil:
				cc.Logger.Warn("Balance unavailable", zap.Error(balanceErr))
				fmt.Fprintf(out, "Balance:  %s\n", cc.Styles.Error.Render("unavailable"))
			case priceErr == nil:
				fmt.Fprintf(out, "Balance:  %s SOL (~$%.2f)\n", formatAmount(balance), balance*usd)
			default:
				fmt.Fprintf(out, "Balance:  %s SOL\n", formatAmount(balance))
			}
			if priceErr != nil {
				cc.Logger.Warn("Price unavailable", zap.Error(priceErr))
				fmt.Fprintf(out, "SOL/USD:  %s\n", cc.Styles.Muted.Render("unavailable"))
			} else {
				fmt.Fprintf(out, "SOL/USD:  $%.2f\n", usd)
			}

			stats := s.Records.History.Statistics()
			fmt.Fprintf(out, "Payments: %d sent, %d failed, %s SOL total\n",
				stats.SuccessfulPayments, stats.FailedPayments, formatAmount(stats.TotalVolume))
			return nil
		},
	}
}
