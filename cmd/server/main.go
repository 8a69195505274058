package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/logging"
)

var (
	verbose bool

	cfg      config.Config
	settings config.StoreSettings
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront and admin back-office API",
	Long: `storefront serves the shop API (catalog, cart, checkout, account, wishlist)
and the admin back-office over Postgres, with Redis, Elasticsearch, MinIO and
ScyllaDB as supporting backends.

Run "storefront serve" to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}
		logging.Set(logger)

		cfg = config.Load()
		settings, err = config.LoadSettings(cfg.StoreSettingsPath)
		if err != nil {
			return fmt.Errorf("store settings: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(makeAdminCmd)
	rootCmd.AddCommand(devTokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
