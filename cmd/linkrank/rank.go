package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/cache"
	"github.com/nao1215/linkrank/internal/config"
	"github.com/nao1215/linkrank/internal/corpus"
	"github.com/nao1215/linkrank/internal/database"
	"github.com/nao1215/linkrank/internal/model"
	"github.com/nao1215/linkrank/internal/pagerank"
	"github.com/nao1215/linkrank/internal/pipeline"
)

// NewRankCmd creates the rank command.
func NewRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [corpus...]",
		Short: "Compute PageRank scores for one or more crawled corpora",
		Long: `Rank builds the link graph of each corpus and computes PageRank over it.

A corpus is a directory of crawled JSON records, a corpus name defined in
the configuration file, or the documents imported with 'linkrank import'
(use --db). Several corpora are ranked concurrently and independently.

Scores are cached by corpus content and solver parameters, so ranking an
unchanged corpus again is instant. Use --save to keep the run in the
SQLite store for 'linkrank search' and 'linkrank compare'.

Examples:
  # Rank a crawl directory
  linkrank rank ./crawl

  # Rank imported documents and store the run
  linkrank rank --db --save

  # Rank two corpora with a lower damping factor, as JSON
  linkrank rank --alpha 0.5 --json ./news ./wiki

  # Force the sparse representation and show every URL
  linkrank rank --representation sparse --top 0 ./crawl

Configuration file (.linkrank) example:
  defaults:
    alpha: 0.85
  corpora:
    news:
      source: /data/crawl/news
      maxIterations: 500`,
		Args: cobra.ArbitraryArgs,
		RunE: runRankCmd,
	}

	addSolverFlags(cmd)
	addReportFlags(cmd)
	addStorageFlags(cmd)

	cmd.Flags().Bool("db", false,
		"Rank the documents imported into the SQLite store")
	cmd.Flags().BoolP("save", "s", false,
		"Save successful runs to the SQLite store")
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency,
		"Number of corpora ranked concurrently")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file")

	return cmd
}

// rankTarget is one corpus to rank with its own solver settings.
type rankTarget struct {
	source corpus.Source
	solver *pagerank.Solver
}

// runRankCmd executes the rank command.
func runRankCmd(cmd *cobra.Command, args []string) error {
	names := append([]string(nil), args...)
	useDB, err := cmd.Flags().GetBool("db")
	if err != nil {
		return err
	}
	if useDB {
		names = append(names, dbCorpusName)
	}

	cf, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}

	cfg, _, err := resolveConfig(cmd, cf, "")
	if err != nil {
		return err
	}
	cfg.Corpora = names
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runRank(ctx, cmd, cf, cfg, logger)
}

// runRank opens the stores, ranks every corpus and writes the reports.
func runRank(ctx context.Context, cmd *cobra.Command, cf *config.File, cfg *config.Config, logger *slog.Logger) error {
	needsDB := cfg.Save
	for _, name := range cfg.Corpora {
		if cf.GetCorpusConfig(name).Source == dbCorpusName {
			needsDB = true
		}
	}

	var db *database.RankDB
	if needsDB {
		opts := database.DefaultOptions()
		opts.CreateIfNotExists = cfg.Save
		var err error
		db, err = database.Open(cfg.DBDir, opts)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	targets, err := buildTargets(cmd, cf, cfg, db, logger)
	if err != nil {
		return err
	}

	metrics := pipeline.NewMetrics()
	comps := pipeline.Components{Metrics: metrics, Logger: logger}

	if !cfg.NoCache {
		rc, err := cache.Open(cfg.CacheDir, cache.WithLogger(logger))
		if err != nil {
			logger.Warn("result cache unavailable, ranking without it", "dir", cfg.CacheDir, "error", err)
		} else {
			defer rc.Close()
			comps.Cache = rc
		}
	}
	if cfg.Save {
		comps.Store = db
	}

	solvers := make(map[string]*pagerank.Solver, len(targets))
	sources := make([]corpus.Source, len(targets))
	for i, t := range targets {
		sources[i] = t.source
		solvers[t.source.Name()] = t.solver
	}

	bp := pipeline.NewBatchProcessor(
		func(src corpus.Source) *pipeline.Pipeline {
			c := comps
			c.Solver = solvers[src.Name()]
			return pipeline.NewRankPipeline(c)
		},
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	runs, batchErr := bp.ProcessBatch(ctx, sources)

	if err := writeRunReports(cmd, cfg, runs); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}

	if batchErr != nil {
		return batchErr
	}
	return failedRunsError(runs)
}

// buildTargets resolves every corpus name to a source and a solver.
func buildTargets(cmd *cobra.Command, cf *config.File, base *config.Config, db *database.RankDB, logger *slog.Logger) ([]rankTarget, error) {
	targets := make([]rankTarget, 0, len(base.Corpora))
	seen := make(map[string]bool, len(base.Corpora))

	for _, name := range base.Corpora {
		if seen[name] {
			continue
		}
		seen[name] = true

		cfg, source, err := resolveConfig(cmd, cf, name)
		if err != nil {
			return nil, err
		}
		if err := cfg.ValidateSolver(); err != nil {
			return nil, fmt.Errorf("configuration error for corpus %s: %w", name, err)
		}

		opts := append(cfg.SolverOptions(), pagerank.WithLogger(logger))
		solver := pagerank.NewSolver(opts...)

		var src corpus.Source
		if source == dbCorpusName {
			src = corpus.NewDBSource(db, name)
		} else {
			src = corpus.NewDirSource(source, corpus.WithName(name), corpus.WithLogger(logger))
		}

		targets = append(targets, rankTarget{source: src, solver: solver})
	}

	return targets, nil
}

// writeRunReports writes one report per run, in corpus order. Runs that
// never started are skipped.
func writeRunReports(cmd *cobra.Command, cfg *config.Config, runs []*model.RankRun) error {
	output, closeOutput, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}

	writer := reportWriter(cmd, cfg, output)
	for _, run := range runs {
		if run == nil {
			continue
		}
		if _, err := writer.Write(run); err != nil {
			_ = closeOutput() //nolint:errcheck // the write error is more useful
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	return closeOutput()
}

// failedRunsError summarizes failed runs as one error, or returns nil.
func failedRunsError(runs []*model.RankRun) error {
	var errs []error
	for _, run := range runs {
		if run != nil && run.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", run.Corpus, runErr(run)))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d corpora failed to rank: %w", len(errs), len(runs), errors.Join(errs...))
}

func runErr(run *model.RankRun) error {
	if run.Error != nil {
		return run.Error
	}
	return errors.New(run.ErrorMessage)
}
