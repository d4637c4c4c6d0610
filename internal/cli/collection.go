package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vaporlogic/manualqa/internal/config"
)

// CollectionCmd returns the collection command with its subcommands
func CollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Inspect or reset the document collection",
	}

	cmd.AddCommand(collectionStatsCmd())
	cmd.AddCommand(collectionDropCmd())

	return cmd
}

func collectionStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show chunk and source counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			idx, pool, err := buildIndex(ctx, cfg)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			stats, err := idx.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("collection: %s\n", cfg.Collection)
			fmt.Printf("chunks:     %d\n", stats.Chunks)
			fmt.Printf("sources:    %d\n", stats.Sources)
			return nil
		},
	}
}

func collectionDropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Delete every chunk in the collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("refusing to drop the collection without --yes")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			idx, pool, err := buildIndex(ctx, cfg)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			if err := idx.DeleteCollection(ctx); err != nil {
				return err
			}
			fmt.Printf("collection %s dropped\n", cfg.Collection)
			return nil
		},
	}

	cmd.Flags().Bool("yes", false, "Confirm dropping the collection")
	return cmd
}
