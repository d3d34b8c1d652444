package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/matching"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/report"
)

func newReviewCommand(g *globalFlags) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Approve, reject, ignore or link transactions",
	}
	reviewCmd.AddCommand(
		newReviewApproveCommand(g),
		newReviewSimpleCommand(g, "reject", "Reject the suggestion for a transaction", (*matching.Engine).Reject),
		newReviewSimpleCommand(g, "ignore", "Exclude a transaction from matching", (*matching.Engine).Ignore),
		newReviewLinkCommand(g),
		newReviewApplyCommand(g),
	)
	return reviewCmd
}

type targetFlags struct {
	kind string
	id   string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "type", "invoice", "target type: invoice or expense")
	cmd.Flags().StringVar(&f.id, "target", "", "invoice or expense id (required)")
	_ = cmd.MarkFlagRequired("target")
}

func (f *targetFlags) target() (matching.Target, error) {
	typ, ok := model.ParseTargetType(f.kind)
	if !ok {
		return matching.Target{}, fmt.Errorf("invalid --type %q: want invoice or expense", f.kind)
	}
	return matching.Target{Type: typ, ID: f.id}, nil
}

func newReviewApproveCommand(g *globalFlags) *cobra.Command {
	var tf targetFlags
	var confidence string

	cmd := &cobra.Command{
		Use:   "approve <transaction-id>",
		Short: "Approve a suggested match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tf.target()
			if err != nil {
				return err
			}
			conf, ok := model.ParseConfidence(confidence)
			if !ok {
				return fmt.Errorf("invalid --confidence %q: want high, medium or low", confidence)
			}
			return withApp(cmd, g, func(a *app) (*model.BankTransaction, error) {
				return a.engine.Approve(cmd.Context(), args[0], t, conf, g.actor)
			})
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVar(&confidence, "confidence", string(model.ConfidenceHigh), "confidence to record")

	return cmd
}

func newReviewLinkCommand(g *globalFlags) *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "link <transaction-id>",
		Short: "Match a transaction to a target chosen by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := tf.target()
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(a *app) (*model.BankTransaction, error) {
				return a.engine.ManualMatch(cmd.Context(), args[0], t, g.actor)
			})
		},
	}
	tf.register(cmd)

	return cmd
}

type simpleReview func(e *matching.Engine, ctx context.Context, txID, actor string) (*model.BankTransaction, error)

func newReviewSimpleCommand(g *globalFlags, use, short string, op simpleReview) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <transaction-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(a *app) (*model.BankTransaction, error) {
				return op(a.engine, cmd.Context(), args[0], g.actor)
			})
		},
	}
}

func withApp(cmd *cobra.Command, g *globalFlags, fn func(a *app) (*model.BankTransaction, error)) error {
	a, err := openApp(cmd.Context(), cmd, g)
	if err != nil {
		return err
	}
	defer a.Close()

	tx, err := fn(a)
	if err != nil {
		return err
	}
	printTransaction(cmd.OutOrStdout(), tx)
	return nil
}

func printTransaction(out io.Writer, tx *model.BankTransaction) {
	fmt.Fprintf(out, "%s: %s", tx.ID, tx.MatchStatus)
	if tx.MatchedType != nil && tx.MatchedID != nil {
		fmt.Fprintf(out, " -> %s %s", *tx.MatchedType, *tx.MatchedID)
	}
	fmt.Fprintln(out)
}

func newReviewApplyCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <report.csv>",
		Short: "Apply the decisions recorded in an edited suggestions report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := report.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			applied, failed := 0, 0
			for _, r := range rows {
				tx, err := applyDecision(cmd.Context(), a.engine, r, g.actor)
				if err != nil {
					fmt.Fprintf(out, "%s: %s failed, %v\n", r.TransactionID, r.Decision, err)
					failed++
					continue
				}
				if tx != nil {
					printTransaction(out, tx)
					applied++
				}
			}
			fmt.Fprintf(out, "%d decisions applied, %d failed, %d undecided\n", applied, failed, len(rows)-applied-failed)
			if failed > 0 {
				return fmt.Errorf("%d decisions failed", failed)
			}
			return nil
		},
	}
}

// applyDecision returns nil, nil for rows without a decision.
func applyDecision(ctx context.Context, e *matching.Engine, r report.Row, actor string) (*model.BankTransaction, error) {
	switch r.Decision {
	case report.DecisionApprove:
		t := matching.Target{Type: r.MatchedType, ID: r.MatchedID}
		return e.Approve(ctx, r.TransactionID, t, r.Confidence, actor)
	case report.DecisionReject:
		return e.Reject(ctx, r.TransactionID, actor)
	case report.DecisionIgnore:
		return e.Ignore(ctx, r.TransactionID, actor)
	}
	return nil, nil
}
