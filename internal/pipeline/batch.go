package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkrank/internal/corpus"
	"github.com/nao1215/linkrank/internal/model"
)

// DefaultBatchConcurrency is the default number of corpora ranked at once.
const DefaultBatchConcurrency = 4

// BatchProcessor ranks multiple independent corpora concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
// Runs share nothing but the factory; each gets a fresh pipeline.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each corpus. It receives
	// the source so per-corpus solver settings can be applied.
	pipelineFactory func(corpus.Source) *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(corpus.Source) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch ranks every source and returns one run per source, in
// input order. A failing corpus does not stop the others; its error is
// recorded on its run. The returned error is only set when ctx is done;
// runs of corpora that never started are then nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sources []corpus.Source) ([]*model.RankRun, error) {
	bp.logger.Info("starting batch processing",
		"total_corpora", len(sources),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each callback writes only its own index.
	runs := make([]*model.RankRun, len(sources))

	err := bp.ProcessBatchWithCallback(ctx, sources, func(run *model.RankRun, index int) {
		runs[index] = run
	})
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Info("batch processing complete",
		"total_corpora", len(sources),
		"elapsed", time.Since(startTime),
	)

	return runs, err
}

// ProcessBatchWithCallback ranks every source and calls callback for each
// finished run, failed or not. The callback runs on the worker goroutine
// and must be safe for concurrent use. Sources not started before ctx is
// done are skipped and ctx's error is returned.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	sources []corpus.Source,
	callback func(run *model.RankRun, index int),
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			bp.logger.Info("ranking corpus",
				"corpus", src.Name(),
				"index", i+1,
				"total", len(sources),
			)

			state := NewState(src)
			if err := bp.pipelineFactory(src).Execute(gctx, state); err != nil {
				bp.logger.Warn("ranking failed",
					"corpus", src.Name(),
					"error", err,
				)
			} else {
				bp.logger.Info("ranking completed",
					"corpus", src.Name(),
					"iterations", state.Run.Iterations,
				)
			}

			callback(state.Run, i)
			return nil
		})
	}

	return g.Wait()
}
