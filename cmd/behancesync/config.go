package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"behancesync/pkg/config"
	"behancesync/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage behancesync configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to ~/.config/behancesync/config.yaml unless a different
path is given with the --config flag.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the configuration after merging every source. Secrets are masked.`,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the merged configuration: YAML syntax, store settings, the
schedule expression and whether the asset directory can be created.`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# behancesync configuration
#
# Every option can also be set through the environment, e.g.
# BEHANCE_USERNAME, BEHANCE_API_KEY, BEHANCESYNC_STORE_DRIVER.

behance:
  # Account to sync
  username: ""
  # API key (client_id); prefer 'behancesync auth login' over storing it here
  api_key: ""
  base_url: "https://api.behance.net/v2"
  timeout: 30s
  user_agent: "behancesync/1.0"

rate_limit:
  # Minimum spacing between the start of two API calls
  interval: 500ms

assets:
  directory: "./assets"
  # Parallel downloads per project; 0 starts one per image
  concurrency: 0
  # Abort the run when an image cannot be mirrored
  fail_on_error: false

store:
  # sqlite, redis, jsonl or memory
  driver: "sqlite"
  sqlite:
    path: "./behancesync.db"
  redis:
    address: "localhost:6379"
    password: ""
    db: 0
    prefix: "behancesync"
  jsonl:
    path: "./records.jsonl"

metrics:
  # Prometheus node-exporter textfile, written after every run
  textfile_path: ""

schedule:
  # Standard five-field cron expression; empty runs once
  cron: ""

logging:
  # debug, info, warn, error
  level: "info"
  # console or json
  format: "console"
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Set behance.username, or pass the username to 'behancesync sync'")
	fmt.Println("2. Store your API key with 'behancesync auth login'")
	fmt.Println("3. Run 'behancesync config validate'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	display := *cfg
	display.Behance.APIKey = mask(display.Behance.APIKey)
	display.Store.Redis.Password = mask(display.Store.Redis.Password)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (BEHANCE_*, BEHANCESYNC_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (default locations)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var problems []error
	if err := os.MkdirAll(cfg.Assets.Directory, 0755); err != nil {
		problems = append(problems, fmt.Errorf("cannot create assets directory: %w", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Errorf("cannot create log directory: %w", err))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return err
	}

	if err := cfg.ValidateCredentials(); err != nil {
		ui.PrintWarning("Credentials not in configuration (stored credentials may still apply): %v", err)
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Store", cfg.Store.Driver)
	ui.PrintInfo("Assets", cfg.Assets.Directory)
	ui.PrintInfo("Rate limit", cfg.RateLimit.Interval.String())
	if cfg.Schedule.Cron != "" {
		ui.PrintInfo("Schedule", cfg.Schedule.Cron)
	}
	ui.PrintInfo("Log level", cfg.Logging.Level)
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "***"
}
