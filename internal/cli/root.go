// Package cli contains all typesync CLI commands.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/storesync/typesync/internal/config"
	"github.com/storesync/typesync/pkg/logger"
)

var (
	cfg *config.Config
	log *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "typesync",
	Short: "Blue-green search collection sync for commerce storefronts",
	Long: `typesync keeps a Typesense search cluster in step with a commerce
catalog. Full syncs rebuild collections blue-green style behind stable
aliases; the serve mode additionally consumes catalog change events and
applies incremental updates.

Example usage:
  typesync sync product        # Full sync of the product collection
  typesync sync --all          # Full sync of every collection type
  typesync serve               # Run the sync service
  typesync collections         # List physical collections and alias targets`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log = logger.New("typesync", cfg.LogLevel)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
