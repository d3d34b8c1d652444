package commands

import (
	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/buildinfo"
	"github.com/studiops/bankrecon/internal/config"
)

// globalFlags are shared by every command that opens the project.
type globalFlags struct {
	configPath string
	actor      string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var g globalFlags

	rootCmd := &cobra.Command{
		Use:     "bankrecon",
		Short:   "Bank statement import and reconciliation",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.FileName, "path to "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&g.actor, "actor", "", "user recorded on imports and matches (default \"system\")")

	rootCmd.AddCommand(
		newInitCommand(),
		newServeCommand(&g),
		newImportCommand(&g),
		newMatchCommand(&g),
		newReviewCommand(&g),
		newRulesCommand(&g),
	)

	return rootCmd
}
