package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sol-splitter/internal/blockchain"
	"github.com/rovshanmuradov/sol-splitter/internal/export"
	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
)

func newHistoryCmd(cc *CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, export or clear the payment history",
	}
	cmd.AddCommand(newHistoryListCmd(cc), newHistoryExportCmd(cc), newHistoryClearCmd(cc))
	return cmd
}

func newHistoryListCmd(cc *CommandContext) *cobra.Command {
	var limit int
	var links bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			recs := s.Records.History.List()
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cc.Styles.Muted.Render("No payments yet"))
				return nil
			}
			if limit > 0 && len(recs) > limit {
				recs = recs[:limit]
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tSTATUS\tAMOUNT (SOL)\tRECIPIENTS\tSIGNATURE")
			for _, r := range recs {
				status := cc.Styles.Success.Render("sent")
				if r.Status == models.StatusFailed {
					status = cc.Styles.Error.Render("failed")
				}
				sig := r.Signature
				if links && sig != "" {
					sig = blockchain.ExplorerURL(sig, cc.Config.ExplorerCluster())
				} else if sig != "" {
					sig = shortAddress(sig)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					r.Timestamp.Local().Format("2006-01-02 15:04"), status,
					formatAmount(r.Amount), len(r.Recipients), sig)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			stats := s.Records.History.Statistics()
			fmt.Fprintln(cmd.OutOrStdout(), cc.Styles.Muted.Render(fmt.Sprintf(
				"%d payments, %.0f%% successful, %s SOL sent",
				stats.TotalPayments, stats.SuccessRate, formatAmount(stats.TotalVolume))))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n payments")
	cmd.Flags().BoolVar(&links, "links", false, "print explorer links instead of signatures")
	return cmd
}

func newHistoryExportCmd(cc *CommandContext) *cobra.Command {
	var (
		format      string
		dir         string
		since       string
		until       string
		onlySuccess bool
	)
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the history to a CSV or JSON file",
		Example: "  splitter history export --format csv --dir ~/Downloads --since 2024-01-01",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := export.ExportOptions{
				Format:      export.ExportFormat(format),
				OutputDir:   dir,
				OnlySuccess: onlySuccess,
			}
			var err error
			if opts.StartTime, err = parseDay(since); err != nil {
				return err
			}
			if opts.EndTime, err = parseDay(until); err != nil {
				return err
			}
			if !opts.EndTime.IsZero() {
				opts.EndTime = opts.EndTime.Add(24*time.Hour - time.Nanosecond)
			}

			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			path, err := s.Exporter.ExportHistory(s.Records.History.List(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "History exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatCSV), "csv or json")
	cmd.Flags().StringVar(&dir, "dir", ".", "output directory")
	cmd.Flags().StringVar(&since, "since", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&until, "until", "", "last day to include (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&onlySuccess, "only-success", false, "skip failed payments")
	return cmd
}

func newHistoryClearCmd(cc *CommandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("clearing history cannot be undone, pass --yes to confirm")
			}
			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			if err := s.Records.History.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
