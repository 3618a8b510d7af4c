package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
)

type caseReader interface {
	GetCase(ctx context.Context, id string) (courtcase.Case, error)
	GetCaseFull(ctx context.Context, id string) (casedetailuc.Full, error)
}

func newCaseCmd(env *string) *cobra.Command {
	var full bool
	var format string

	cmd := &cobra.Command{
		Use:   "case <id>",
		Short: "Show one case",
		Long: `Show a case by id. With --full the opinion text is loaded and a summary
is generated when none is cached yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(format); err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			return runCase(cmd.Context(), cmd, a.cases, args[0], full, format)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include the opinion text and generate a summary")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runCase(ctx context.Context, cmd *cobra.Command, r caseReader, id string, full bool, format string) error {
	out := cmd.OutOrStdout()

	if !full {
		c, err := r.GetCase(ctx, id)
		if err != nil {
			return fmt.Errorf("get case: %w", err)
		}
		if format == "json" {
			return writeJSON(out, toCaseOutput(c))
		}
		printCase(cmd, c)
		return nil
	}

	f, err := r.GetCaseFull(ctx, id)
	if err != nil {
		return fmt.Errorf("get case: %w", err)
	}
	if format == "json" {
		return writeJSON(out, fullCaseOutput{
			caseOutput:    toCaseOutput(f.Case),
			FullText:      f.Text,
			HasFullText:   f.HasFullText,
			SummarySource: string(f.Enhancement.Source()),
		})
	}
	printCase(cmd, f.Case)
	if f.HasFullText {
		fmt.Fprintf(out, "\n%s\n", f.Text)
	} else {
		fmt.Fprintln(out, "\n(full text unavailable)")
	}
	return nil
}

func printCase(cmd *cobra.Command, c courtcase.Case) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n", c.Title(), describeCase(c))
	if c.DocketNumber() != "" {
		fmt.Fprintf(out, "Docket: %s\n", c.DocketNumber())
	}
	if c.Judges() != "" {
		fmt.Fprintf(out, "Judges: %s\n", c.Judges())
	}
	if c.Summary() != "" {
		fmt.Fprintf(out, "\n%s\n", c.Summary())
	}
	for _, p := range c.KeyPassages() {
		fmt.Fprintf(out, "  > %s\n", p)
	}
}
