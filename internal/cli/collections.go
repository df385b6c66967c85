package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/storesync/typesync/internal/app"
	"github.com/storesync/typesync/internal/domain"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List physical collections and alias targets",
	Long: `List every physical collection in the index with its document count,
marking the ones the aliases currently point at. With --cleanup, stale
collections left behind by interrupted syncs are deleted.`,
	RunE: runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)

	collectionsCmd.Flags().Bool("cleanup", false, "delete collections no alias points at")
}

func runCollections(cmd *cobra.Command, args []string) error {
	cleanup, _ := cmd.Flags().GetBool("cleanup")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(cfg, log)
	if err != nil {
		return err
	}
	defer core.Close()

	if cleanup {
		for _, t := range domain.AllCollectionTypes() {
			deleted, err := core.Aliases.Cleanup(ctx, t)
			if err != nil {
				return fmt.Errorf("cleanup %s: %w", t, err)
			}
			for _, name := range deleted {
				fmt.Printf("deleted %s\n", name)
			}
		}
	}

	cols, err := core.Index.ListCollections(ctx)
	if err != nil {
		return err
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })

	active := make(map[string]bool)
	for _, t := range domain.AllCollectionTypes() {
		current, err := core.Aliases.CurrentCollection(ctx, t)
		if err != nil {
			return err
		}
		if current != "" {
			active[current] = true
		}
	}

	for _, col := range cols {
		marker := " "
		if active[col.Name] {
			marker = "*"
		}
		fmt.Printf("%s %-40s %8d docs\n", marker, col.Name, col.NumDocuments)
	}
	return nil
}
