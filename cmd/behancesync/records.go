package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"behancesync/pkg/config"
	"behancesync/pkg/logger"
	"behancesync/pkg/record"
	"behancesync/pkg/sink"
	"behancesync/pkg/ui"
)

var (
	recordType string
	listStore  string
	listDB     string
)

// recordsCmd represents the records command
var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect the record store",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records",
	Example: `  # Every record in the default sqlite store
  behancesync records list

  # Only project records from a JSON-lines store
  behancesync records list --type projects --store jsonl`,
	Args: cobra.NoArgs,
	RunE: runRecordsList,
}

func init() {
	rootCmd.AddCommand(recordsCmd)
	recordsCmd.AddCommand(recordsListCmd)

	recordsListCmd.Flags().StringVarP(&recordType, "type", "t", "", "filter by record type: projects or user")
	recordsListCmd.Flags().StringVar(&listStore, "store", "", "record store: sqlite, redis or jsonl")
	recordsListCmd.Flags().StringVar(&listDB, "db", "", "sqlite database path")
}

// recordTypeFilter maps the --type shorthand to a record type
func recordTypeFilter(s string) (string, error) {
	switch s {
	case "":
		return "", nil
	case "projects", "project", record.TypeProject:
		return record.TypeProject, nil
	case "user", record.TypeUser:
		return record.TypeUser, nil
	}
	return "", fmt.Errorf("unknown record type %q", s)
}

func runRecordsList(cmd *cobra.Command, args []string) error {
	filter, err := recordTypeFilter(recordType)
	if err != nil {
		return err
	}

	flags := globalFlags()
	flags["store"] = listStore
	flags["db"] = listDB
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx := context.Background()
	s, err := sink.New(ctx, cfg.Store, logger.GetLogger())
	if err != nil {
		return err
	}
	defer s.Close()

	lister, ok := s.(sink.Lister)
	if !ok {
		return fmt.Errorf("store %q cannot list records", cfg.Store.Driver)
	}

	recs, err := lister.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	if len(recs) == 0 {
		ui.PrintInfo("No records", "Run 'behancesync sync' first")
		return nil
	}

	ui.RenderRecords(os.Stdout, recs)
	return nil
}
