package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/categories"
)

func newRulesCommand(g *globalFlags) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage expense categorization rules",
	}
	rulesCmd.AddCommand(newRulesImportCommand(g), newRulesListCommand(g))
	return rulesCmd
}

func newRulesImportCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <rules.csv>",
		Short: "Replace the stored rules with the contents of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening rules: %w", err)
			}
			defer f.Close()
			rules, err := categories.ReadRules(f)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.ReplaceRules(cmd.Context(), rules); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules\n", len(rules))
			return nil
		},
	}
}

func newRulesListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the rules in effect as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.store.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			if len(rules) == 0 {
				rules, err = categories.Load(a.root)
				if err != nil {
					return err
				}
			}
			return categories.WriteRules(cmd.OutOrStdout(), rules)
		},
	}
}
