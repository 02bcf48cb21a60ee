package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"behancesync/pkg/auth"
	"behancesync/pkg/config"
	"behancesync/pkg/ingest"
	"behancesync/pkg/logger"
	"behancesync/pkg/ui"
)

var (
	// Sync command flags
	apiKey           string
	storeDriver      string
	dbPath           string
	interval         time.Duration
	assetsDir        string
	concurrency      int
	scheduleSpec     string
	runNow           bool
	metricsFile      string
	failOnAssetError bool
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [username]",
	Short: "Sync a Behance portfolio into the record store",
	Long: `Fetch a Behance user's projects and profile, mirror every referenced image
and emit one record per project plus one user record.

Credentials are taken from, in order:
  - The --api-key flag
  - Environment variables (BEHANCE_USERNAME and BEHANCE_API_KEY)
  - The configuration file
  - Stored credentials (use 'behancesync auth login' to store)

Records whose content digest did not change since the last run are left alone.`,
	Example: `  # Sync the stored default account into ./behancesync.db
  behancesync sync

  # Sync a specific user into a JSON-lines file
  behancesync sync ada --store jsonl

  # Re-sync every hour, starting immediately
  behancesync sync ada --schedule "0 * * * *"

  # Slow down API calls and stop on the first broken image
  behancesync sync ada --interval 2s --fail-on-asset-error`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&apiKey, "api-key", "", "Behance API key (client_id)")
	syncCmd.Flags().StringVar(&storeDriver, "store", "", "record store: sqlite, redis, jsonl or memory")
	syncCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database path")
	syncCmd.Flags().DurationVar(&interval, "interval", 0, "minimum spacing between API calls (default 500ms)")
	syncCmd.Flags().StringVarP(&assetsDir, "assets-dir", "o", "", "directory for mirrored images")
	syncCmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel asset downloads per project (0 = one per asset)")
	syncCmd.Flags().StringVar(&scheduleSpec, "schedule", "", "cron expression for repeated syncs")
	syncCmd.Flags().BoolVar(&runNow, "run-now", true, "with --schedule, also sync immediately")
	syncCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here after each run")
	syncCmd.Flags().BoolVar(&failOnAssetError, "fail-on-asset-error", false, "abort the run when an image cannot be mirrored")
}

func runSync(cmd *cobra.Command, args []string) error {
	ui.PrintBanner()

	flags := globalFlags()
	if len(args) > 0 {
		flags["username"] = strings.TrimSpace(args[0])
	}
	flags["api-key"] = apiKey
	flags["store"] = storeDriver
	flags["db"] = dbPath
	flags["interval"] = interval
	flags["assets-dir"] = assetsDir
	flags["concurrency"] = concurrency
	flags["schedule"] = scheduleSpec
	flags["metrics-file"] = metricsFile
	flags["fail-on-asset-error"] = failOnAssetError

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noColor {
		cfg.Logging.NoColor = true
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("behancesync starting")

	if err := resolveCredentials(cfg); err != nil {
		ui.PrintError("No Behance credentials found", err.Error())
		fmt.Fprintln(os.Stderr, "\nTo store credentials securely, run:")
		fmt.Fprintln(os.Stderr, "  behancesync auth login <username>")
		fmt.Fprintf(os.Stderr, "\nOr set %s and %s.\n", auth.EnvUsername, auth.EnvAPIKey)
		return errors.New("missing credentials")
	}
	ui.PrintInfo("Behance user", cfg.Behance.Username)
	ui.PrintInfo("Record store", cfg.Store.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver, err := ingest.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.WithError(err).Warn("Failed to close record store")
		}
	}()

	if cfg.Schedule.Cron != "" {
		ui.PrintInfo("Schedule", cfg.Schedule.Cron)
		return driver.Schedule(ctx, cfg.Schedule.Cron, runNow)
	}

	stats, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	printStats(stats)
	return nil
}

// resolveCredentials fills a missing API key from the credential store
func resolveCredentials(cfg *config.Config) error {
	if cfg.Behance.Username != "" && cfg.Behance.APIKey != "" {
		return nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	var account *auth.Account
	if cfg.Behance.Username != "" {
		account, err = manager.Retrieve(cfg.Behance.Username)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return err
	}

	if cfg.Behance.Username == "" {
		cfg.Behance.Username = account.Username
	}
	if cfg.Behance.APIKey == "" {
		cfg.Behance.APIKey = account.APIKey
	}
	logger.GetLogger().WithField("account", account.Username).Info("Using stored credentials")
	return cfg.ValidateCredentials()
}

func printStats(stats *ingest.Stats) {
	ui.PrintSuccess(fmt.Sprintf("Synced %d project(s) in %s", stats.Projects, stats.Duration.Round(time.Millisecond)))
	ui.PrintInfo("Records", fmt.Sprintf("%d created, %d updated, %d unchanged", stats.Created, stats.Updated, stats.Unchanged))
	ui.PrintInfo("Assets", fmt.Sprintf("%d mirrored", stats.AssetsMirrored))
	if stats.AssetsFailed > 0 {
		ui.PrintWarning("%d asset(s) could not be mirrored; see the log for details", stats.AssetsFailed)
	}
}
