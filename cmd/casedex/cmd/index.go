package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
)

type indexManager interface {
	IndexName() string
	EnsureIndex(ctx context.Context, dims int) (bool, error)
	Count(ctx context.Context, expr filter.Expression) (int, error)
}

func newIndexCmd(env *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the vector index",
	}
	cmd.AddCommand(newIndexEnsureCmd(env))
	cmd.AddCommand(newIndexInfoCmd(env))
	return cmd
}

func newIndexEnsureCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure",
		Short: "Create the case index if it does not exist",
		Long: `Create the search index over the case hashes with the configured
embedding dimensions. Existing indexes are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			created, err := ensureIndex(cmd.Context(), cmd, a.index, a.cfg.Embedding.Dimensions)
			if err != nil {
				return err
			}
			a.logger.Info("Index checked", zap.String("index", a.index.IndexName()), zap.Bool("created", created))
			return nil
		},
	}
}

func newIndexInfoCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the number of indexed cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			return indexInfo(cmd.Context(), cmd, a.index)
		},
	}
}

func ensureIndex(ctx context.Context, cmd *cobra.Command, idx indexManager, dims int) (bool, error) {
	created, err := idx.EnsureIndex(ctx, dims)
	if err != nil {
		return false, fmt.Errorf("ensure index %s: %w", idx.IndexName(), err)
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created index %s (%d dimensions)\n", idx.IndexName(), dims)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Index %s already exists\n", idx.IndexName())
	}
	return created, nil
}

func indexInfo(ctx context.Context, cmd *cobra.Command, idx indexManager) error {
	n, err := idx.Count(ctx, filter.Expression{})
	if err != nil {
		return fmt.Errorf("count %s: %w", idx.IndexName(), err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Index %s: %d cases\n", idx.IndexName(), n)
	return err
}
