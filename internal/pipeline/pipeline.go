package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/linkrank/internal/corpus"
	"github.com/nao1215/linkrank/internal/graph"
	"github.com/nao1215/linkrank/internal/model"
	"github.com/nao1215/linkrank/internal/pagerank"
)

// State is the data flowing through a pipeline for one corpus.
type State struct {
	// Run accumulates the outcome of the run.
	Run *model.RankRun

	// Source supplies the crawled documents.
	Source corpus.Source

	// Documents are the records read by the load step.
	Documents []model.CrawledDocument

	// Graph is the link graph built from Documents.
	Graph *graph.LinkGraph

	// Result holds the scores, either solved or restored from the cache.
	Result *pagerank.Result
}

// NewState creates the state for ranking the corpus of src.
func NewState(src corpus.Source) *State {
	return &State{
		Run:    model.NewRankRun(src.Name()),
		Source: src,
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the state left by the
// previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; non-critical errors
	// should be recorded as run warnings and return nil.
	Do(ctx context.Context, state *State) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// metrics records run outcomes, if set.
	metrics *Metrics
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics records the outcome of every executed run.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence and stops at the first
// failing step. Cancellation is checked before each step; steps handle
// their own cancellation while running.
//
// On failure the error is also recorded on state.Run and any scores are
// cleared, so a failed run never carries partial results.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	run := state.Run
	defer func() {
		run.Duration = time.Since(run.StartedAt)
		if p.metrics != nil {
			p.metrics.ObserveRun(run)
		}
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"corpus", run.Corpus,
				"reason", ctx.Err(),
			)
			p.fail(state, ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"corpus", run.Corpus,
		)

		if err := step.Do(ctx, state); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"corpus", run.Corpus,
				"error", err,
			)
			p.fail(state, err)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"corpus", run.Corpus,
		)

		run.PerformedSteps = append(run.PerformedSteps, step.Name())
	}

	return nil
}

// fail records err on the run and drops any scores.
func (p *Pipeline) fail(state *State, err error) {
	state.Run.Error = err
	state.Run.ErrorMessage = err.Error()
	state.Run.Scores = nil
	state.Result = nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
