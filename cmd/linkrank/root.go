package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/config"
)

// NewRootCmd creates the root command for linkrank.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkrank",
		Short: "Rank crawled web pages by link authority and text relevance",
		Long: `linkrank builds a link graph from crawled pages, computes PageRank over it
and combines the scores with TF-IDF text relevance to answer queries.

Crawled pages are JSON records with "url", "url_lists", "title" and "text"
keys, one record per file. They can be ranked straight from a directory or
imported into a local SQLite store first.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("log-format")
			if err != nil {
				return err
			}
			if format != logFormatText && format != logFormatJSON {
				return fmt.Errorf("invalid log format %q (want %s or %s)", format, logFormatText, logFormatJSON)
			}
			return config.LoadDotEnv()
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", logFormatText, "Log format on stderr: text or json")

	cmd.AddCommand(NewRankCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
