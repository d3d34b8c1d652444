package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/importer"
	"github.com/studiops/bankrecon/internal/ingest"
	"github.com/studiops/bankrecon/internal/money"
)

func newImportCommand(g *globalFlags) *cobra.Command {
	var fileType string
	var move bool

	cmd := &cobra.Command{
		Use:   "import <file|directory>",
		Short: "Import a bank statement, or every statement in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := os.Stat(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if !info.IsDir() {
				return importFile(cmd, a, g, args[0], fileType, out)
			}
			return importDir(cmd, a, g, args[0], move, out)
		},
	}

	cmd.Flags().StringVar(&fileType, "type", "", "file type: ofx, csv, xlsx or xls (default from extension)")
	cmd.Flags().BoolVar(&move, "move", true, "move imported files to <dir>/processed")

	return cmd
}

func importFile(cmd *cobra.Command, a *app, g *globalFlags, path, fileType string, out io.Writer) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	res, err := a.ingest.Ingest(cmd.Context(), ingest.Request{
		Content:  content,
		FileName: filepath.Base(path),
		FileType: fileType,
		Actor:    g.actor,
	})
	if err != nil {
		return err
	}
	printSummary(out, filepath.Base(path), res)
	return nil
}

func importDir(cmd *cobra.Command, a *app, g *globalFlags, dir string, move bool, out io.Writer) error {
	files, err := importer.Scan(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No statement files found in %s\n", dir)
		return nil
	}

	failed := 0
	for _, f := range files {
		err := importFile(cmd, a, g, f.Path, string(f.Type), out)
		switch {
		case err == nil:
		case apperr.Is(err, apperr.KindConflict):
			fmt.Fprintf(out, "%s: skipped, %v\n", f.Name, err)
		default:
			fmt.Fprintf(out, "%s: failed, %v\n", f.Name, err)
			failed++
			continue
		}
		if move {
			if err := importer.MarkProcessed(dir, f.Name); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

func printSummary(out io.Writer, name string, res *ingest.Result) {
	s := res.Summary
	fmt.Fprintf(out, "%s: imported %d transactions (import %s)\n", name, s.TotalTransactions, res.ImportID)
	if s.Bank != "" || s.Account != "" {
		fmt.Fprintf(out, "  bank %s, account %s\n", s.Bank, s.Account)
	}
	fmt.Fprintf(out, "  credits %s, debits %s\n", money.FormatBRL(s.TotalCredits), money.FormatBRL(s.TotalDebits))
	fmt.Fprintf(out, "  skipped %d balance lines, %d repeated lines; %d expenses created\n",
		s.SkippedBalanceEntries, s.SkippedDuplicates, s.ExpensesCreated)
}
