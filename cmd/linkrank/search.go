package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/cache"
	"github.com/nao1215/linkrank/internal/config"
	"github.com/nao1215/linkrank/internal/corpus"
	"github.com/nao1215/linkrank/internal/database"
	"github.com/nao1215/linkrank/internal/model"
	"github.com/nao1215/linkrank/internal/pagerank"
	"github.com/nao1215/linkrank/internal/pipeline"
	"github.com/nao1215/linkrank/internal/ranking"
	"github.com/nao1215/linkrank/internal/relevance"
)

// errEmptyQuery is returned when the query has no words.
var errEmptyQuery = errors.New("search query is empty")

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search a ranked corpus by text relevance and link authority",
		Long: `Search scores every document of a corpus against the query with TF-IDF
and combines that relevance with the document's PageRank score.

The PageRank scores come from the latest run saved for the corpus
('linkrank rank --save'). When no run is saved, the corpus is ranked first.

Combination modes:
  sum      final = authority-weight * pagerank + relevance-weight * tfidf
  product  final = tfidf * pagerank

Examples:
  # Search the imported documents
  linkrank search distributed systems

  # Search a crawl directory, multiplying the scores
  linkrank search --corpus ./crawl --mode product consensus

  # Favour relevance over authority and print Markdown
  linkrank search --relevance-weight 5 --markdown raft`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearchCmd,
	}

	addSolverFlags(cmd)
	addReportFlags(cmd)
	addStorageFlags(cmd)

	cmd.Flags().String("corpus", dbCorpusName,
		"Corpus to search: a crawl directory, a configured corpus name or \"db\"")
	cmd.Flags().String("mode", config.DefaultRankMode,
		"How PageRank and TF-IDF are combined: sum or product")
	cmd.Flags().Float64("authority-weight", 1.0,
		"Weight of the PageRank score in sum mode")
	cmd.Flags().Float64("relevance-weight", 1.0,
		"Weight of the TF-IDF score in sum mode")
	cmd.Flags().Bool("no-snippets", false,
		"Do not print highlighted text excerpts")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errEmptyQuery
	}

	name, err := cmd.Flags().GetString("corpus")
	if err != nil {
		return err
	}
	noSnippets, err := cmd.Flags().GetBool("no-snippets")
	if err != nil {
		return err
	}

	cf, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	cfg, source, err := resolveConfig(cmd, cf, name)
	if err != nil {
		return err
	}
	cfg.Corpora = []string{name}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := search(ctx, cfg, name, source, query, !noSnippets, logger)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	if _, err := reportWriter(cmd, cfg, output).WriteSearch(result); err != nil {
		_ = closeOutput() //nolint:errcheck // the write error is more useful
		return fmt.Errorf("failed to write report: %w", err)
	}
	return closeOutput()
}

// search answers query over the named corpus.
func search(ctx context.Context, cfg *config.Config, name, source, query string, snippets bool, logger *slog.Logger) (*model.SearchResult, error) {
	mode, err := ranking.ParseMode(cfg.RankMode)
	if err != nil {
		return nil, err
	}

	// The store is required for the imported corpus and optional otherwise.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	switch {
	case err == nil:
		defer db.Close()
	case errors.Is(err, database.ErrNotFound) && source != dbCorpusName:
		db = nil
	default:
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var src corpus.Source
	if source == dbCorpusName {
		src = corpus.NewDBSource(db, name)
	} else {
		src = corpus.NewDirSource(source, corpus.WithName(name), corpus.WithLogger(logger))
	}

	docs, err := src.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", name, err)
	}

	run, err := authorityRun(ctx, cfg, db, name, docs, logger)
	if err != nil {
		return nil, err
	}

	idx := relevance.NewIndex(docs)
	combiner := ranking.NewCombiner(ranking.WithMode(mode), ranking.WithWeights(cfg.Weights))
	ranked := combiner.Combine(ranking.ScoreMap(run.Scores), idx.Score(query))
	total := len(ranked)
	ranked = ranking.Limit(ranked, cfg.Top)

	if snippets {
		snippetOpts := relevance.DefaultSnippetOptions()
		for i := range ranked {
			ranked[i].Snippet = relevance.Snippet(idx.Text(ranked[i].URL), query, snippetOpts)
		}
	}

	logger.Info("search completed", "corpus", name, "query", query, "matches", total)

	return &model.SearchResult{
		Query:     query,
		Corpus:    name,
		RunID:     run.ID,
		Mode:      mode.String(),
		Total:     total,
		Documents: ranked,
	}, nil
}

// authorityRun returns the latest saved run of the corpus, or ranks the
// documents now when none is saved.
func authorityRun(ctx context.Context, cfg *config.Config, db *database.RankDB, name string, docs []model.CrawledDocument, logger *slog.Logger) (*model.RankRun, error) {
	if db != nil {
		run, err := db.GetLatestRankRun(ctx, name)
		if err != nil {
			return nil, err
		}
		if run != nil {
			logger.Debug("using saved ranking", "corpus", name, "run_id", run.ID)
			return run, nil
		}
	}

	logger.Info("no saved ranking, ranking corpus now", "corpus", name)

	opts := append(cfg.SolverOptions(), pagerank.WithLogger(logger))
	comps := pipeline.Components{Solver: pagerank.NewSolver(opts...), Logger: logger}
	if !cfg.NoCache {
		rc, err := cache.Open(cfg.CacheDir, cache.WithLogger(logger))
		if err != nil {
			logger.Warn("result cache unavailable", "dir", cfg.CacheDir, "error", err)
		} else {
			defer rc.Close()
			comps.Cache = rc
		}
	}

	state := pipeline.NewState(corpus.NewStaticSource(name, docs))
	if err := pipeline.NewRankPipeline(comps).Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to rank corpus %s: %w", name, err)
	}
	return state.Run, nil
}
