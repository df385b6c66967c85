package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/storesync/typesync/internal/app"
	"github.com/storesync/typesync/internal/domain"
	"github.com/storesync/typesync/internal/syncer"
)

var syncCmd = &cobra.Command{
	Use:   "sync [type]",
	Short: "Run a full blue-green sync",
	Long: `Rebuild a collection from the catalog in the inactive blue-green slot
and atomically promote it. The storefront keeps serving the old collection
until the flip.

Examples:
  typesync sync product        # Sync one collection type
  typesync sync --all          # Sync every collection type
  typesync sync product --json # Print the run report as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("all", false, "sync every collection type")
	syncCmd.Flags().Bool("json", false, "output run reports as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if !all && len(args) == 0 {
		return fmt.Errorf("specify a collection type (%v) or --all", domain.AllCollectionTypes())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(cfg, log)
	if err != nil {
		return err
	}
	defer core.Close()

	var runs []*syncer.Run
	var runErr error
	if all {
		runs, runErr = core.Syncer.RunAll(ctx)
	} else {
		t, err := domain.ParseCollectionType(args[0])
		if err != nil {
			return err
		}
		var run *syncer.Run
		run, runErr = core.Syncer.Run(ctx, t)
		if run != nil {
			runs = append(runs, run)
		}
	}

	for _, run := range runs {
		printRun(run, jsonOutput)
	}
	return runErr
}

func printRun(run *syncer.Run, jsonOutput bool) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(run)
		return
	}

	fmt.Printf("%s: %d imported, %d failed across %d pages in %s\n",
		run.Type, run.Imported, run.Failed, run.Pages, run.Duration.Round(time.Millisecond))
	if run.Previous != "" {
		fmt.Printf("  alias flipped %s -> %s\n", run.Previous, run.Target)
	} else if run.Target != "" {
		fmt.Printf("  alias now points at %s\n", run.Target)
	}
	for _, deleted := range run.Deleted {
		fmt.Printf("  deleted stale collection %s\n", deleted)
	}
	for _, msg := range run.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
}
