package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
	"github.com/rovshanmuradov/sol-splitter/internal/validation"
)

func newPresetsCmd(cc *CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "presets",
		Aliases: []string{"preset"},
		Short:   "Manage saved recipient lists",
	}
	cmd.AddCommand(
		newPresetSaveCmd(cc),
		&cobra.Command{
			Use:   "list",
			Short: "List presets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				list := s.Records.Presets.List()
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cc.Styles.Muted.Render("No presets yet"))
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tRECIPIENTS")
				for _, p := range list {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", p.ID, p.Name, len(p.Recipients))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <name>",
			Short: "Print the recipients of a preset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				list, err := s.Records.Presets.LoadByName(args[0])
				if err != nil {
					return err
				}
				printRecipients(cmd, list)
				return nil
			},
		},
		&cobra.Command{
			Use:     "remove <id>",
			Aliases: []string{"rm"},
			Short:   "Remove a preset",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				if err := s.Records.Presets.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Preset removed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "export <file.yaml>",
			Short: "Write all presets to a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				f, err := os.Create(args[0])
				if err != nil {
					return err
				}
				if err := s.Records.Presets.ExportYAML(f); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d presets to %s\n", len(s.Records.Presets.List()), args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "import <file.yaml>",
			Short: "Add presets from a YAML file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				added, err := s.Records.Presets.ImportYAML(cmd.Context(), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d presets\n", len(added))
				return nil
			},
		},
	)
	return cmd
}

func newPresetSaveCmd(cc *CommandContext) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "save <name> [recipient=percent ...]",
		Short: "Save a recipient list under a name",
		Example: `  splitter presets save team alice=50 bob=50
  splitter presets save payroll --csv payroll.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			list, err := collectRecipients(s, payOptions{csvPath: csvPath}, args[1:])
			if err != nil {
				return err
			}
			p, err := s.Records.Presets.Save(cmd.Context(), args[0], list)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %s (%s) with %d recipients\n", p.Name, p.ID, len(p.Recipients))
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "take recipients from a CSV file")
	return cmd
}

func printRecipients(cmd *cobra.Command, list []types.Recipient) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tSHARE")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\n", r.Address, validation.FormatPercentage(r.Percentage))
	}
	_ = tw.Flush()
}
