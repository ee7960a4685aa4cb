package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rovshanmuradov/sol-splitter/internal/records"
)

func newContactsCmd(cc *CommandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contacts",
		Aliases: []string{"contact"},
		Short:   "Manage the address book",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <address>",
			Short: "Add a contact",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				c, err := s.Records.Contacts.Add(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", c.Name, c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List contacts",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				list := s.Records.Contacts.List()
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cc.Styles.Muted.Render("No contacts yet"))
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tADDRESS")
				for _, c := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Address)
				}
				return tw.Flush()
			},
		},
		newContactUpdateCmd(cc),
		&cobra.Command{
			Use:     "remove <id>",
			Aliases: []string{"rm"},
			Short:   "Remove a contact",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				if err := s.Records.Contacts.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Contact removed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "find <name>",
			Short: "Look a contact up by name",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := cc.openSession(cmd.Context(), nil)
				if err != nil {
					return err
				}
				defer closeSession(s)

				c, err := s.Records.Contacts.FindByName(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", c.Name, c.Address)
				return nil
			},
		},
	)
	return cmd
}

func newContactUpdateCmd(cc *CommandContext) *cobra.Command {
	var name, address string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a contact's name or address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd records.ContactUpdate
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("address") {
				upd.Address = &address
			}
			if upd.Name == nil && upd.Address == nil {
				return fmt.Errorf("nothing to update, pass --name or --address")
			}

			s, err := cc.openSession(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer closeSession(s)

			c, err := s.Records.Contacts.Update(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\t%s\n", c.Name, c.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&address, "address", "", "new address")
	return cmd
}
