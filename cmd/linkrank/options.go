package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/config"
	linklog "github.com/nao1215/linkrank/internal/log"
	"github.com/nao1215/linkrank/internal/report"
)

// dbCorpusName is the corpus name of the documents imported into SQLite.
const dbCorpusName = "db"

// Values of the --log-format flag.
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// addSolverFlags registers the PageRank parameter flags.
func addSolverFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64P("alpha", "a", config.DefaultAlpha,
		"Damping factor, greater than 0 and less than 1")
	f.Float64("tolerance", config.DefaultTolerance,
		"Convergence threshold on the largest per-URL score change")
	f.Int("max-iterations", config.DefaultMaxIterations,
		"Maximum number of power iteration steps")
	f.String("representation", config.DefaultRepresentation,
		"Transition matrix representation: auto, dense or sparse")
	f.Int("sparse-threshold", config.DefaultSparseThreshold,
		"Vertex count above which auto uses the sparse representation")
}

// addReportFlags registers the output format flags.
func addReportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	f.BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	f.StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	f.IntP("top", "n", config.DefaultTop,
		"Number of URLs to list (0 lists all)")
	f.Bool("tee", false,
		"With --output, also print the text report to stdout")
}

// addStorageFlags registers the config file and storage location flags.
func addStorageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("config", "c", "",
		"Configuration file path (default: .linkrank in current or home directory)")
	f.String("db-dir", "",
		"Directory of the SQLite store (default: XDG data directory)")
	f.String("cache-dir", "",
		"Directory of the result cache (default: XDG cache directory)")
	f.Bool("no-cache", false,
		"Do not read or write the result cache")
}

// changed reports whether the named flag exists on cmd and was set.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfigFile loads the configuration file named by --config or found
// in the default locations. A missing file is only an error when it was
// named explicitly.
func loadConfigFile(cmd *cobra.Command) (*config.File, error) {
	var path string
	if cmd.Flags().Lookup("config") != nil {
		var err error
		if path, err = cmd.Flags().GetString("config"); err != nil {
			return nil, err
		}
	}

	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return &config.File{Corpora: make(map[string]config.CorpusConfig)}, nil
	}

	cf, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return cf, nil
}

// resolveConfig builds the configuration of one corpus. Later layers win:
// defaults, the config file (defaults section, then the corpus section),
// the environment, then flags set on the command line. It also returns
// the source the corpus name resolves to.
func resolveConfig(cmd *cobra.Command, cf *config.File, name string) (*config.Config, string, error) {
	cfg := config.NewConfig()

	cc := cf.GetCorpusConfig(name)
	cfg.ApplyCorpus(cc)
	cf.ApplySearch(cfg)

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", fmt.Errorf("configuration error: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, "", err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, cc.Source, nil
}

// applyFlags copies every flag that was set on the command line into cfg.
// Flags the command does not define are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error

	if changed(cmd, "alpha") {
		if cfg.Alpha, err = f.GetFloat64("alpha"); err != nil {
			return err
		}
	}
	if changed(cmd, "tolerance") {
		if cfg.Tolerance, err = f.GetFloat64("tolerance"); err != nil {
			return err
		}
	}
	if changed(cmd, "max-iterations") {
		if cfg.MaxIterations, err = f.GetInt("max-iterations"); err != nil {
			return err
		}
	}
	if changed(cmd, "representation") {
		if cfg.Representation, err = f.GetString("representation"); err != nil {
			return err
		}
	}
	if changed(cmd, "sparse-threshold") {
		if cfg.SparseThreshold, err = f.GetInt("sparse-threshold"); err != nil {
			return err
		}
	}
	if changed(cmd, "top") {
		if cfg.Top, err = f.GetInt("top"); err != nil {
			return err
		}
	}
	if changed(cmd, "concurrency") {
		if cfg.Concurrency, err = f.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if changed(cmd, "json") {
		if cfg.JSONReport, err = f.GetBool("json"); err != nil {
			return err
		}
	}
	if changed(cmd, "markdown") {
		if cfg.MarkdownReport, err = f.GetBool("markdown"); err != nil {
			return err
		}
	}
	if changed(cmd, "output") {
		if cfg.ReportFile, err = f.GetString("output"); err != nil {
			return err
		}
	}
	if changed(cmd, "db-dir") {
		if cfg.DBDir, err = f.GetString("db-dir"); err != nil {
			return err
		}
	}
	if changed(cmd, "cache-dir") {
		if cfg.CacheDir, err = f.GetString("cache-dir"); err != nil {
			return err
		}
	}
	if changed(cmd, "no-cache") {
		if cfg.NoCache, err = f.GetBool("no-cache"); err != nil {
			return err
		}
	}
	if changed(cmd, "save") {
		if cfg.Save, err = f.GetBool("save"); err != nil {
			return err
		}
	}
	if changed(cmd, "metrics-file") {
		if cfg.MetricsFile, err = f.GetString("metrics-file"); err != nil {
			return err
		}
	}
	if changed(cmd, "mode") {
		if cfg.RankMode, err = f.GetString("mode"); err != nil {
			return err
		}
	}
	if changed(cmd, "authority-weight") {
		if cfg.Weights.Authority, err = f.GetFloat64("authority-weight"); err != nil {
			return err
		}
	}
	if changed(cmd, "relevance-weight") {
		if cfg.Weights.Relevance, err = f.GetFloat64("relevance-weight"); err != nil {
			return err
		}
	}

	return nil
}

// setupLogger creates the redacting logger selected by --log-format for
// the given verbosity. Logs always go to stderr.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		format, _ = cmd.Root().PersistentFlags().GetString("log-format") //nolint:errcheck // empty means text
	}
	if format == logFormatJSON {
		return linklog.NewSecureJSONLogger(os.Stderr, verbose)
	}
	return linklog.NewSecureLogger(os.Stderr, verbose)
}

// commandContext returns the command context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// openOutput returns the report destination: ReportFile when set, or the
// command's stdout. The returned close function must always be called.
func openOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// reportWriter returns the writer for the configured format on output.
// With --tee and a report file, the text report is also printed to the
// command's stdout.
func reportWriter(cmd *cobra.Command, cfg *config.Config, output io.Writer) report.Writer {
	w := newReportWriter(cfg, output)

	tee, err := cmd.Flags().GetBool("tee")
	if err != nil || !tee || cfg.ReportFile == "" {
		return w
	}
	return report.NewMultiWriter(w, report.NewSimpleWriter(cmd.OutOrStdout(), report.WithTop(cfg.Top)))
}

// newReportWriter returns the writer for the configured format.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithJSONTop(cfg.Top))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output, report.WithMarkdownTop(cfg.Top))
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose), report.WithTop(cfg.Top))
	}
}
