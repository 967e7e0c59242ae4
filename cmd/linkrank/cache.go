package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/cache"
	"github.com/nao1215/linkrank/internal/config"
)

// NewCacheCmd creates the cache command with its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the ranking result cache",
		Long: `The result cache keeps the scores of every ranked corpus, keyed by a
fingerprint of the corpus content and the solver parameters. Ranking an
unchanged corpus with the same parameters reuses the cached scores.

Examples:
  # Show where the cache lives and how many results it holds
  linkrank cache info

  # Drop every cached result
  linkrank cache clear

  # Drop one result by fingerprint (see 'linkrank rank -v')
  linkrank cache clear 3f2a...`,
	}

	cmd.PersistentFlags().String("cache-dir", "",
		"Directory of the result cache (default: XDG cache directory)")

	cmd.AddCommand(newCacheInfoCmd())
	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the cache location and entry count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer rc.Close()

			n, err := rc.Len()
			if err != nil {
				return fmt.Errorf("failed to count cache entries: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache file: %s\n", rc.Path())
			fmt.Fprintf(out, "Entries:    %d\n", n)
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [fingerprint...]",
		Short: "Remove cached results",
		Long:  `Clear removes the given fingerprints from the cache, or every entry when none is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := openCache(cmd)
			if err != nil {
				return err
			}
			defer rc.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				if err := rc.Clear(); err != nil {
					return fmt.Errorf("failed to clear cache: %w", err)
				}
				fmt.Fprintln(out, "Cleared every cached result.")
				return nil
			}

			for _, fp := range args {
				if err := rc.Delete(fp); err != nil {
					return fmt.Errorf("failed to delete %s: %w", fp, err)
				}
			}
			fmt.Fprintf(out, "Removed %d cached results.\n", len(args))
			return nil
		},
	}
}

// openCache opens the cache directory resolved from defaults, environment
// and the --cache-dir flag.
func openCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg, _, err := resolveConfig(cmd, &config.File{}, "")
	if err != nil {
		return nil, err
	}

	rc, err := cache.Open(cfg.CacheDir, cache.WithLogger(setupLogger(cmd, cfg.Verbose)))
	if err != nil {
		return nil, err
	}
	return rc, nil
}
