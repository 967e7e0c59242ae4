package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/corpus"
	"github.com/nao1215/linkrank/internal/database"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <corpus-dir>...",
		Short: "Import crawled JSON records into the SQLite store",
		Long: `Import reads every crawled record in the given directories and stores it
in the local SQLite database, replacing earlier versions of the same URL.

Imported documents can then be ranked with 'linkrank rank --db' and
searched with 'linkrank search'.

Examples:
  # Import one crawl
  linkrank import ./crawl

  # Import several crawls into a custom store
  linkrank import --db-dir ./store ./crawl-a ./crawl-b`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkrank in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite store (default: XDG data directory)")

	return cmd
}

// runImportCmd executes the import command.
func runImportCmd(cmd *cobra.Command, args []string) error {
	cf, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	cfg, _, err := resolveConfig(cmd, cf, "")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	for _, name := range args {
		dir := cf.GetCorpusConfig(name).Source

		docs, err := corpus.NewDirSource(dir, corpus.WithName(name), corpus.WithLogger(logger)).Documents(ctx)
		if err != nil {
			return fmt.Errorf("failed to read corpus %s: %w", name, err)
		}

		if err := db.UpsertDocuments(ctx, docs); err != nil {
			return fmt.Errorf("failed to import corpus %s: %w", name, err)
		}

		logger.Info("corpus imported", "corpus", name, "documents", len(docs))
		fmt.Fprintf(out, "Imported %d documents from %s\n", len(docs), dir)
	}

	total, err := db.CountDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	fmt.Fprintf(out, "Database %s now holds %d documents\n", db.Path(), total)

	return nil
}
