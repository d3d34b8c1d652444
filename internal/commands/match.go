package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/matching"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/report"
)

func newMatchCommand(g *globalFlags) *cobra.Command {
	var importID string
	var autoApply bool
	var csvPath string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Suggest matches between transactions and open invoices or expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.engine.Run(cmd.Context(), matching.Request{
				ImportID:  importID,
				AutoApply: autoApply,
				Actor:     g.actor,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printMatches(out, res)
			if csvPath != "" {
				if err := report.WriteFile(csvPath, report.Rows(res.Suggestions)); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %d suggestions to %s\n", len(res.Suggestions), csvPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&importID, "import", "", "limit to one import")
	cmd.Flags().BoolVar(&autoApply, "auto-apply", false, "apply high-confidence matches")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write suggestions to a CSV file for review")

	return cmd
}

func printMatches(out io.Writer, res *matching.Result) {
	for _, s := range res.Suggestions {
		fee := ""
		if s.ProcessorFeeCents != nil {
			fee = fmt.Sprintf(" fee=%d", *s.ProcessorFeeCents)
		}
		fmt.Fprintf(out, "%-6s %s -> %s %s%s  %s\n", s.Confidence, s.TransactionID, s.MatchedType, s.MatchedID, fee, s.Reason)
	}
	st := res.Stats
	fmt.Fprintf(out, "%d transactions, %d matches (%d %s, %d %s, %d %s), %d applied\n",
		st.TotalTransactions, st.TotalMatches,
		st.HighConfidence, model.ConfidenceHigh,
		st.MediumConfidence, model.ConfidenceMedium,
		st.LowConfidence, model.ConfidenceLow,
		st.AutoApplied)
}
