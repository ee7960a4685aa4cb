package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

func newImportCmd(cc *CommandContext) *cobra.Command {
	var saveAs string
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Check a CSV recipient file",
		Long: `Parse a CSV file of "address,percentage" rows and validate it the way
"pay --csv" does. A header row containing "address" is skipped. The file must
hold 2 to 5 rows whose percentages add up to 100.`,
		Example: "  splitter import recipients.csv --save-preset payroll",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			f, err := os.Open(args[0])
			if err != nil {
				return &types.ParseError{Reason: "Failed to parse CSV file"}
			}
			defer f.Close()

			list, err := s.Importer.Import(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", cc.Styles.Success.Render(
				fmt.Sprintf("%d recipients imported", len(list))))
			printRecipients(cmd, list)

			if saveAs != "" {
				p, err := s.Records.Presets.Save(cmd.Context(), saveAs, list)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved as preset %s\n", p.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&saveAs, "save-preset", "", "save the imported list as a preset")
	return cmd
}
